package crawl

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/news-service/internal/domain"
	"github.com/user/news-service/internal/repository"
	"github.com/user/news-service/internal/source"
	"github.com/user/news-service/internal/worker"
)

// ProbeCache optionally fronts ProbeAll with a short-lived cache so repeated
// dashboard polls do not hit every source site.
type ProbeCache interface {
	ProbeResults(ctx context.Context) (map[string]bool, bool)
	CacheProbeResults(ctx context.Context, results map[string]bool)
}

// Triggers is the surface the REST/CLI layer consumes. Crawl triggers are
// fire-and-forget via the worker pool; reads are synchronous.
type Triggers struct {
	orch     *Orchestrator
	registry *source.Registry
	runs     repository.RunLedger
	pool     *worker.Pool
	cache    ProbeCache
	logger   *zap.Logger
}

func NewTriggers(orch *Orchestrator, registry *source.Registry, runs repository.RunLedger,
	pool *worker.Pool, cache ProbeCache, logger *zap.Logger) *Triggers {
	return &Triggers{
		orch:     orch,
		registry: registry,
		runs:     runs,
		pool:     pool,
		cache:    cache,
		logger:   logger,
	}
}

// TriggerSource queues one crawl run. An unknown source is rejected
// synchronously; nothing else crosses back to the caller.
func (t *Triggers) TriggerSource(sourceID string, maxCount int) error {
	if _, ok := t.registry.Lookup(sourceID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, sourceID)
	}
	return t.pool.Submit(func() {
		if err := t.orch.RunSource(context.Background(), sourceID, maxCount); err != nil {
			t.logger.Error("queued crawl run failed",
				zap.String("source", sourceID), zap.Error(err))
		}
	})
}

// TriggerAll queues a crawl of every registered source.
func (t *Triggers) TriggerAll(maxCount int) error {
	return t.pool.Submit(func() {
		t.orch.RunAll(context.Background(), maxCount)
	})
}

// ListSources returns the registered source IDs.
func (t *Triggers) ListSources() []string {
	return t.registry.IDs()
}

// ProbeAll checks connectivity of every source, synchronously. Results are
// served from the probe cache when fresh.
func (t *Triggers) ProbeAll(ctx context.Context) map[string]bool {
	if t.cache != nil {
		if cached, ok := t.cache.ProbeResults(ctx); ok {
			return cached
		}
	}

	results := make(map[string]bool, len(t.registry.IDs()))
	for _, sourceID := range t.registry.IDs() {
		adapter, _ := t.registry.Lookup(sourceID)
		probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		results[sourceID] = adapter.Probe(probeCtx)
		cancel()
		t.logger.Info("probe result",
			zap.String("source", sourceID), zap.Bool("reachable", results[sourceID]))
	}

	if t.cache != nil {
		t.cache.CacheProbeResults(ctx, results)
	}
	return results
}

// RunHistory returns the most recent crawl runs, newest first.
func (t *Triggers) RunHistory(ctx context.Context, limit int) ([]domain.CrawlRun, error) {
	if limit <= 0 {
		limit = 10
	}
	return t.runs.Latest(ctx, limit)
}
