package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/news-service/internal/classify"
	"github.com/user/news-service/internal/dedup"
	"github.com/user/news-service/internal/domain"
	"github.com/user/news-service/internal/monitoring"
	"github.com/user/news-service/internal/source"
)

// One registry per test binary; promauto metrics register globally.
var testMetrics = monitoring.NewMetrics()

type memNews struct {
	mu       sync.Mutex
	nextID   int64
	byTitle  map[string]int64
	byURL    map[string]int64
	articles map[int64]*domain.Article
	saveErr  error
}

func newMemNews() *memNews {
	return &memNews{
		nextID:   1,
		byTitle:  map[string]int64{},
		byURL:    map[string]int64{},
		articles: map[int64]*domain.Article{},
	}
}

func (m *memNews) ExistsByTitle(_ context.Context, title string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byTitle[title]
	return ok, nil
}

func (m *memNews) ExistsByURL(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byURL[url]
	return ok, nil
}

func (m *memNews) Save(_ context.Context, a *domain.Article) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	id := m.nextID
	m.nextID++
	c := *a
	c.ID = id
	m.articles[id] = &c
	m.byTitle[a.Title] = id
	m.byURL[a.OriginalURL] = id
	return id, nil
}

func (m *memNews) FindByID(_ context.Context, id int64) (*domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return a, nil
}

func (m *memNews) PageByStatus(context.Context, string, int, int) ([]domain.Article, bool, error) {
	return nil, false, nil
}

func (m *memNews) IncrementView(context.Context, int64) error { return nil }

type memLedger struct {
	mu        sync.Mutex
	nextID    int64
	runs      map[int64]domain.CrawlRun
	order     []int64
	createErr error
}

func newMemLedger() *memLedger {
	return &memLedger{nextID: 1, runs: map[int64]domain.CrawlRun{}}
}

func (m *memLedger) Create(_ context.Context, run *domain.CrawlRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	run.ID = m.nextID
	m.nextID++
	m.runs[run.ID] = *run
	m.order = append(m.order, run.ID)
	return nil
}

func (m *memLedger) Update(_ context.Context, run *domain.CrawlRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

func (m *memLedger) Latest(_ context.Context, limit int) ([]domain.CrawlRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CrawlRun
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[m.order[i]])
	}
	return out, nil
}

func (m *memLedger) lastRun(t *testing.T) domain.CrawlRun {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.order)
	return m.runs[m.order[len(m.order)-1]]
}

type noCategories struct{}

func (noCategories) FindByName(context.Context, string) (int64, bool, error) {
	return 0, false, nil
}

type noRules struct{}

func (noRules) EnabledKeywordRulesByPriority(context.Context) ([]domain.ClassificationRule, error) {
	return nil, nil
}

// fakeAdapter serves canned articles; URLs listed in broken fail to fetch.
type fakeAdapter struct {
	id       string
	links    []string
	listErr  error
	broken   map[string]bool
	articles map[string]*domain.Article
}

func (f *fakeAdapter) SourceID() string { return f.id }

func (f *fakeAdapter) FetchCandidateLinks(context.Context, int) ([]string, error) {
	return f.links, f.listErr
}

func (f *fakeAdapter) FetchArticle(_ context.Context, url string) (*domain.Article, error) {
	if f.broken[url] {
		return nil, fmt.Errorf("fetch %s: connection reset", url)
	}
	if a, ok := f.articles[url]; ok {
		c := *a
		return &c, nil
	}
	return &domain.Article{
		Title:       "title " + url,
		Content:     "content " + url,
		SourceID:    f.id,
		OriginalURL: url,
		Status:      domain.ArticlePublished,
	}, nil
}

func (f *fakeAdapter) Probe(context.Context) bool { return f.listErr == nil }

func newTestOrchestrator(adapter source.Adapter, news *memNews, ledger *memLedger, opts Options) *Orchestrator {
	logger := zap.NewNop()
	reg := source.NewRegistry(adapter)
	guard := dedup.NewGuard(news)
	engine := classify.NewEngine(noCategories{}, noRules{}, logger)
	return NewOrchestrator(reg, guard, engine, news, ledger, testMetrics, logger, opts)
}

func TestRunSourceMixedOutcomes(t *testing.T) {
	adapter := &fakeAdapter{
		id:     "TEST",
		links:  []string{"u1", "u2", "u3"},
		broken: map[string]bool{"u2": true},
	}
	news := newMemNews()
	ledger := newMemLedger()
	orch := newTestOrchestrator(adapter, news, ledger, Options{RetryAttempts: 1})

	require.NoError(t, orch.RunSource(context.Background(), "TEST", 10))

	run := ledger.lastRun(t)
	assert.Equal(t, domain.RunSuccess, run.Status)
	assert.Equal(t, 2, run.SuccessCount)
	assert.Equal(t, 1, run.FailCount)
	assert.Equal(t, 0, run.DupCount)
	assert.True(t, run.Terminal())
	assert.Len(t, news.articles, 2)
}

func TestRunSourceSecondRunAllDuplicates(t *testing.T) {
	adapter := &fakeAdapter{id: "TEST", links: []string{"u1", "u2"}}
	news := newMemNews()
	ledger := newMemLedger()
	orch := newTestOrchestrator(adapter, news, ledger, Options{RetryAttempts: 1})

	require.NoError(t, orch.RunSource(context.Background(), "TEST", 10))
	require.NoError(t, orch.RunSource(context.Background(), "TEST", 10))

	run := ledger.lastRun(t)
	assert.Equal(t, domain.RunSuccess, run.Status)
	assert.Equal(t, 0, run.SuccessCount)
	assert.Equal(t, 2, run.FailCount)
	assert.Equal(t, 2, run.DupCount)
	assert.Len(t, news.articles, 2)
}

func TestRunSourceListingFailure(t *testing.T) {
	adapter := &fakeAdapter{id: "TEST", listErr: errors.New("site unreachable")}
	news := newMemNews()
	ledger := newMemLedger()
	orch := newTestOrchestrator(adapter, news, ledger, Options{RetryAttempts: 3})

	require.NoError(t, orch.RunSource(context.Background(), "TEST", 10))

	// The run reached the ledger, so it fails terminally with no retry.
	assert.Len(t, ledger.order, 1)
	run := ledger.lastRun(t)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, "site unreachable", run.ErrorMessage)
	assert.Equal(t, 0, run.SuccessCount)
	assert.Equal(t, 0, run.FailCount)
}

func TestRunSourceUnknownSource(t *testing.T) {
	adapter := &fakeAdapter{id: "TEST"}
	news := newMemNews()
	ledger := newMemLedger()
	orch := newTestOrchestrator(adapter, news, ledger, Options{RetryAttempts: 1})

	require.NoError(t, orch.RunSource(context.Background(), "GHOST", 10))

	run := ledger.lastRun(t)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.ErrorMessage, "unknown source")
}

func TestRunSourceRetriesLedgerCreateFailure(t *testing.T) {
	adapter := &fakeAdapter{id: "TEST", links: []string{"u1"}}
	news := newMemNews()
	ledger := newMemLedger()
	ledger.createErr = errors.New("ledger down")
	orch := newTestOrchestrator(adapter, news, ledger, Options{RetryAttempts: 2, RetryDelay: 1})

	err := orch.RunSource(context.Background(), "TEST", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.Empty(t, ledger.order)
}

func TestRunSourceCapsLinksAtMaxCount(t *testing.T) {
	adapter := &fakeAdapter{id: "TEST", links: []string{"u1", "u2", "u3", "u4", "u5"}}
	news := newMemNews()
	ledger := newMemLedger()
	orch := newTestOrchestrator(adapter, news, ledger, Options{RetryAttempts: 1})

	require.NoError(t, orch.RunSource(context.Background(), "TEST", 2))

	run := ledger.lastRun(t)
	assert.Equal(t, 2, run.SuccessCount)
	assert.Len(t, news.articles, 2)
}

func TestRunSourceSaveFailureCounted(t *testing.T) {
	adapter := &fakeAdapter{id: "TEST", links: []string{"u1"}}
	news := newMemNews()
	news.saveErr = errors.New("insert failed")
	ledger := newMemLedger()
	orch := newTestOrchestrator(adapter, news, ledger, Options{RetryAttempts: 1})

	require.NoError(t, orch.RunSource(context.Background(), "TEST", 10))

	run := ledger.lastRun(t)
	assert.Equal(t, domain.RunSuccess, run.Status)
	assert.Equal(t, 0, run.SuccessCount)
	assert.Equal(t, 1, run.FailCount)
}

func TestRunSourceAssignsCategory(t *testing.T) {
	adapter := &fakeAdapter{id: "TEST", links: []string{"u1"}}
	news := newMemNews()
	ledger := newMemLedger()
	orch := newTestOrchestrator(adapter, news, ledger, Options{RetryAttempts: 1})

	require.NoError(t, orch.RunSource(context.Background(), "TEST", 10))

	for _, a := range news.articles {
		assert.NotZero(t, a.CategoryID)
	}
}

func TestRunSourceEnrichHookFires(t *testing.T) {
	adapter := &fakeAdapter{id: "TEST", links: []string{"u1", "u2"}, broken: map[string]bool{"u2": true}}
	news := newMemNews()
	ledger := newMemLedger()

	var enriched []int64
	orch := newTestOrchestrator(adapter, news, ledger, Options{
		RetryAttempts: 1,
		EnrichHook:    func(id int64) { enriched = append(enriched, id) },
	})

	require.NoError(t, orch.RunSource(context.Background(), "TEST", 10))

	// Only the saved article triggers enrichment.
	assert.Equal(t, []int64{1}, enriched)
}

func TestRunAllIsolatesSources(t *testing.T) {
	good := &fakeAdapter{id: "GOOD", links: []string{"u1"}}
	bad := &fakeAdapter{id: "BAD", listErr: errors.New("down")}
	news := newMemNews()
	ledger := newMemLedger()

	logger := zap.NewNop()
	reg := source.NewRegistry(bad, good)
	guard := dedup.NewGuard(news)
	engine := classify.NewEngine(noCategories{}, noRules{}, logger)
	orch := NewOrchestrator(reg, guard, engine, news, ledger, testMetrics, logger, Options{RetryAttempts: 1})

	orch.RunAll(context.Background(), 10)

	assert.Len(t, ledger.order, 2)
	assert.Len(t, news.articles, 1)
}
