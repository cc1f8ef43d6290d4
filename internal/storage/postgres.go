package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/news-service/internal/domain"
)

// ErrNotFound is returned by lookups that found no row.
var ErrNotFound = errors.New("record not found")

// Connect opens a pgx pool for the store implementations to share.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id BIGSERIAL PRIMARY KEY,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS news (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	source_id TEXT NOT NULL,
	original_url TEXT NOT NULL,
	image_url TEXT,
	publish_time TIMESTAMPTZ NOT NULL,
	category_id BIGINT REFERENCES categories(id),
	status TEXT NOT NULL,
	view_count BIGINT NOT NULL DEFAULT 0,
	crawl_time TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_news_title ON news(title);
CREATE INDEX IF NOT EXISTS idx_news_original_url ON news(original_url);
CREATE INDEX IF NOT EXISTS idx_news_status_publish_time ON news(status, publish_time DESC);

CREATE TABLE IF NOT EXISTS classification_rules (
	id BIGSERIAL PRIMARY KEY,
	rule_type TEXT NOT NULL,
	source_pattern TEXT,
	keywords TEXT,
	target_category_id BIGINT NOT NULL REFERENCES categories(id),
	priority INT NOT NULL DEFAULT 100,
	enabled BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS crawl_runs (
	id BIGSERIAL PRIMARY KEY,
	source_id TEXT NOT NULL,
	status TEXT NOT NULL,
	start_time TIMESTAMPTZ,
	end_time TIMESTAMPTZ,
	success_count INT NOT NULL DEFAULT 0,
	fail_count INT NOT NULL DEFAULT 0,
	dup_count INT NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_crawl_runs_created_at ON crawl_runs(created_at DESC);

CREATE TABLE IF NOT EXISTS summaries (
	id BIGSERIAL PRIMARY KEY,
	news_id BIGINT UNIQUE NOT NULL REFERENCES news(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	model_version TEXT NOT NULL,
	status TEXT NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

INSERT INTO categories (name)
VALUES ('Society'), ('Politics'), ('Technology')
ON CONFLICT (name) DO NOTHING;
`

// InitSchema creates the tables and seed categories if they do not exist.
func InitSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// NewsRepo implements repository.NewsStore on PostgreSQL.
type NewsRepo struct {
	db *pgxpool.Pool
}

func NewNewsRepo(db *pgxpool.Pool) *NewsRepo {
	return &NewsRepo{db: db}
}

func (r *NewsRepo) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM news WHERE title = $1)`, title).Scan(&exists)
	return exists, err
}

func (r *NewsRepo) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM news WHERE original_url = $1)`, url).Scan(&exists)
	return exists, err
}

func (r *NewsRepo) Save(ctx context.Context, article *domain.Article) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO news (title, content, source_id, original_url, image_url, publish_time, category_id, status, view_count, crawl_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		article.Title, article.Content, article.SourceID, article.OriginalURL,
		article.ImageURL, article.PublishTime, article.CategoryID, article.Status,
		article.ViewCount, article.CrawlTime,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	article.ID = id
	return id, nil
}

func (r *NewsRepo) FindByID(ctx context.Context, id int64) (*domain.Article, error) {
	var a domain.Article
	err := r.db.QueryRow(ctx,
		`SELECT id, title, content, source_id, original_url, image_url, publish_time, category_id, status, view_count, crawl_time
		 FROM news WHERE id = $1`, id,
	).Scan(&a.ID, &a.Title, &a.Content, &a.SourceID, &a.OriginalURL, &a.ImageURL,
		&a.PublishTime, &a.CategoryID, &a.Status, &a.ViewCount, &a.CrawlTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *NewsRepo) PageByStatus(ctx context.Context, status string, page, size int) ([]domain.Article, bool, error) {
	// Fetch one extra row to learn whether more pages remain.
	rows, err := r.db.Query(ctx,
		`SELECT id, title, content, source_id, original_url, image_url, publish_time, category_id, status, view_count, crawl_time
		 FROM news WHERE status = $1
		 ORDER BY publish_time DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		status, size+1, page*size)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.SourceID, &a.OriginalURL,
			&a.ImageURL, &a.PublishTime, &a.CategoryID, &a.Status, &a.ViewCount, &a.CrawlTime); err != nil {
			return nil, false, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := len(articles) > size
	if hasMore {
		articles = articles[:size]
	}
	return articles, hasMore, nil
}

func (r *NewsRepo) IncrementView(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE news SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

// CategoryRepo implements repository.CategoryStore on PostgreSQL.
type CategoryRepo struct {
	db *pgxpool.Pool
}

func NewCategoryRepo(db *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) FindByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM categories WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// RuleRepo implements repository.RuleStore on PostgreSQL.
type RuleRepo struct {
	db *pgxpool.Pool
}

func NewRuleRepo(db *pgxpool.Pool) *RuleRepo {
	return &RuleRepo{db: db}
}

func (r *RuleRepo) EnabledKeywordRulesByPriority(ctx context.Context) ([]domain.ClassificationRule, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, rule_type, COALESCE(source_pattern, ''), COALESCE(keywords, ''), target_category_id, priority, enabled
		 FROM classification_rules
		 WHERE rule_type = $1 AND enabled = TRUE
		 ORDER BY priority ASC`, domain.RuleTypeKeyword)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.ClassificationRule
	for rows.Next() {
		var rule domain.ClassificationRule
		if err := rows.Scan(&rule.ID, &rule.RuleType, &rule.SourcePattern, &rule.Keywords,
			&rule.TargetCategoryID, &rule.Priority, &rule.Enabled); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// RunRepo implements repository.RunLedger on PostgreSQL.
type RunRepo struct {
	db *pgxpool.Pool
}

func NewRunRepo(db *pgxpool.Pool) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) Create(ctx context.Context, run *domain.CrawlRun) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO crawl_runs (source_id, status, success_count, fail_count, dup_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		run.SourceID, run.Status, run.SuccessCount, run.FailCount, run.DupCount, run.CreatedAt,
	).Scan(&run.ID)
}

func (r *RunRepo) Update(ctx context.Context, run *domain.CrawlRun) error {
	_, err := r.db.Exec(ctx,
		`UPDATE crawl_runs
		 SET status = $2, start_time = $3, end_time = $4, success_count = $5, fail_count = $6, dup_count = $7, error_message = $8
		 WHERE id = $1`,
		run.ID, run.Status, run.StartTime, run.EndTime,
		run.SuccessCount, run.FailCount, run.DupCount, run.ErrorMessage)
	return err
}

func (r *RunRepo) Latest(ctx context.Context, limit int) ([]domain.CrawlRun, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, source_id, status, COALESCE(start_time, created_at), COALESCE(end_time, created_at),
		        success_count, fail_count, dup_count, COALESCE(error_message, ''), created_at
		 FROM crawl_runs
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.CrawlRun
	for rows.Next() {
		var run domain.CrawlRun
		if err := rows.Scan(&run.ID, &run.SourceID, &run.Status, &run.StartTime, &run.EndTime,
			&run.SuccessCount, &run.FailCount, &run.DupCount, &run.ErrorMessage, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SummaryRepo implements repository.SummaryStore on PostgreSQL. The news_id
// column carries a unique constraint.
type SummaryRepo struct {
	db *pgxpool.Pool
}

func NewSummaryRepo(db *pgxpool.Pool) *SummaryRepo {
	return &SummaryRepo{db: db}
}

func (r *SummaryRepo) FindByNewsID(ctx context.Context, newsID int64) (*domain.Summary, error) {
	var s domain.Summary
	err := r.db.QueryRow(ctx,
		`SELECT id, news_id, content, model_version, status, generated_at
		 FROM summaries WHERE news_id = $1`, newsID,
	).Scan(&s.ID, &s.NewsID, &s.Content, &s.ModelVersion, &s.Status, &s.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SummaryRepo) Save(ctx context.Context, summary *domain.Summary) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO summaries (news_id, content, model_version, status, generated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		summary.NewsID, summary.Content, summary.ModelVersion, summary.Status, summary.GeneratedAt,
	).Scan(&summary.ID)
}

func (r *SummaryRepo) Delete(ctx context.Context, newsID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM summaries WHERE news_id = $1`, newsID)
	return err
}

func (r *SummaryRepo) ExistsByNewsID(ctx context.Context, newsID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM summaries WHERE news_id = $1)`, newsID).Scan(&exists)
	return exists, err
}
