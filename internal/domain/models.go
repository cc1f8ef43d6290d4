package domain

import "time"

// Run and summary statuses shared across the pipeline.
const (
	RunPending = "PENDING"
	RunRunning = "RUNNING"
	RunSuccess = "SUCCESS"
	RunFailed  = "FAILED"

	SummarySuccess = "SUCCESS"
	SummaryFailed  = "FAILED"
	SummaryPending = "PENDING"

	ArticlePublished = "PUBLISHED"
)

// Classification rule types.
const (
	RuleTypeSource  = "SOURCE"
	RuleTypeKeyword = "KEYWORD"
)

// Article is the normalized record a source adapter produces. It is the
// intermediate unit handed to dedup/classify/save; CategoryID 0 means no
// category has been assigned yet.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	SourceID    string    `json:"source_id"`
	OriginalURL string    `json:"original_url"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishTime time.Time `json:"publish_time"`
	CategoryID  int64     `json:"category_id"`
	Status      string    `json:"status"`
	ViewCount   int64     `json:"view_count"`
	CrawlTime   time.Time `json:"crawl_time"`
}

// CrawlRun records one execution of the pipeline against one source.
// Owned exclusively by the orchestrator that created it; terminal on
// SUCCESS or FAILED.
type CrawlRun struct {
	ID           int64     `json:"id"`
	SourceID     string    `json:"source_id"`
	Status       string    `json:"status"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	SuccessCount int       `json:"success_count"`
	FailCount    int       `json:"fail_count"`
	DupCount     int       `json:"dup_count"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewCrawlRun returns a pending run for the given source.
func NewCrawlRun(sourceID string) *CrawlRun {
	return &CrawlRun{
		SourceID:  sourceID,
		Status:    RunPending,
		CreatedAt: time.Now(),
	}
}

// MarkRunning transitions the run to RUNNING and stamps the start time.
func (r *CrawlRun) MarkRunning() {
	r.Status = RunRunning
	r.StartTime = time.Now()
}

// MarkSuccess terminalizes the run. SUCCESS means the run completed its
// item loop, not that any item was saved.
func (r *CrawlRun) MarkSuccess() {
	r.Status = RunSuccess
	r.EndTime = time.Now()
}

// MarkFailed terminalizes the run with the fatal error text.
func (r *CrawlRun) MarkFailed(msg string) {
	r.Status = RunFailed
	r.EndTime = time.Now()
	r.ErrorMessage = msg
}

// Terminal reports whether the run has reached SUCCESS or FAILED.
func (r *CrawlRun) Terminal() bool {
	return r.Status == RunSuccess || r.Status == RunFailed
}

// Summary is the AI-generated abstract for one article. At most one live
// summary exists per article; regeneration deletes and recreates.
type Summary struct {
	ID           int64     `json:"id"`
	NewsID       int64     `json:"news_id"`
	Content      string    `json:"content"`
	ModelVersion string    `json:"model_version"`
	Status       string    `json:"status"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// ClassificationRule is an admin-owned rule read by the classifier.
// Keywords is a comma-separated list; Priority is ascending (lower wins).
type ClassificationRule struct {
	ID               int64  `json:"id"`
	RuleType         string `json:"rule_type"`
	SourcePattern    string `json:"source_pattern,omitempty"`
	Keywords         string `json:"keywords,omitempty"`
	TargetCategoryID int64  `json:"target_category_id"`
	Priority         int    `json:"priority"`
	Enabled          bool   `json:"enabled"`
}

// Category is a news category as stored.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
