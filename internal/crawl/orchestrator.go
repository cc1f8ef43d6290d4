package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/news-service/internal/classify"
	"github.com/user/news-service/internal/dedup"
	"github.com/user/news-service/internal/domain"
	"github.com/user/news-service/internal/monitoring"
	"github.com/user/news-service/internal/repository"
	"github.com/user/news-service/internal/retry"
	"github.com/user/news-service/internal/source"
)

// ErrUnknownSource is returned synchronously when a trigger names a source
// that no adapter is registered for.
var ErrUnknownSource = errors.New("unknown source")

// Options tune run pacing and the run-level retry envelope.
type Options struct {
	// ItemDelay is slept between article fetches so a source is not hammered.
	ItemDelay time.Duration
	// RetryAttempts and RetryDelay wrap the whole run invocation. Only errors
	// raised before a CrawlRun record exists are retried; once a run is
	// created, failures terminalize that run instead.
	RetryAttempts int
	RetryDelay    time.Duration
	// EnrichHook, if set, receives the ID of each saved article. This is the
	// one-way enrichment event: the orchestrator never holds a reference back
	// into the enricher.
	EnrichHook func(newsID int64)
}

func (o *Options) withDefaults() {
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
}

// Orchestrator drives crawl runs: fetch listing, fetch+parse each article,
// dedup, classify, persist, with per-run outcome accounting. Individual item
// failures never abort a run; only fatal pipeline errors do.
type Orchestrator struct {
	registry *source.Registry
	guard    *dedup.Guard
	engine   *classify.Engine
	news     repository.NewsStore
	runs     repository.RunLedger
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	opts     Options
}

func NewOrchestrator(
	registry *source.Registry,
	guard *dedup.Guard,
	engine *classify.Engine,
	news repository.NewsStore,
	runs repository.RunLedger,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
	opts Options,
) *Orchestrator {
	opts.withDefaults()
	return &Orchestrator{
		registry: registry,
		guard:    guard,
		engine:   engine,
		news:     news,
		runs:     runs,
		metrics:  metrics,
		logger:   logger,
		opts:     opts,
	}
}

// RunSource executes one crawl run for a source, bounded by maxCount items.
// The retry envelope re-invokes the run only when the attempt failed before
// its CrawlRun record existed; a run that reached the ledger is terminal on
// its own record and never auto-retried.
func (o *Orchestrator) RunSource(ctx context.Context, sourceID string, maxCount int) error {
	return retry.Do(ctx, o.opts.RetryAttempts, o.opts.RetryDelay, func() error {
		return o.runOnce(ctx, sourceID, maxCount)
	})
}

// RunAll runs every registered source, isolating failures so one source's
// fatal error does not block the rest.
func (o *Orchestrator) RunAll(ctx context.Context, maxCount int) {
	for _, sourceID := range o.registry.IDs() {
		if err := o.RunSource(ctx, sourceID, maxCount); err != nil {
			o.logger.Error("crawl run failed",
				zap.String("source", sourceID), zap.Error(err))
		}
	}
}

func (o *Orchestrator) runOnce(ctx context.Context, sourceID string, maxCount int) error {
	run := domain.NewCrawlRun(sourceID)
	if err := o.runs.Create(ctx, run); err != nil {
		// No run record exists yet, so this error is the retryable kind.
		return fmt.Errorf("create crawl run: %w", err)
	}
	run.MarkRunning()
	o.updateRun(ctx, run)

	o.logger.Info("crawl run started",
		zap.String("source", sourceID), zap.Int64("run_id", run.ID), zap.Int("max_count", maxCount))

	adapter, ok := o.registry.Lookup(sourceID)
	if !ok {
		o.finishFailed(ctx, run, fmt.Sprintf("unknown source: %s", sourceID))
		return nil
	}

	links, err := adapter.FetchCandidateLinks(ctx, maxCount)
	if err != nil {
		// Total listing failure is fatal; no partial-success state exists.
		o.finishFailed(ctx, run, err.Error())
		return nil
	}
	if len(links) > maxCount {
		links = links[:maxCount]
	}

	for i, link := range links {
		o.processItem(ctx, adapter, link, run)
		if i < len(links)-1 && o.opts.ItemDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.opts.ItemDelay):
			}
		}
	}

	run.MarkSuccess()
	o.updateRun(ctx, run)
	o.metrics.ObserveRun(sourceID, domain.RunSuccess, run.EndTime.Sub(run.StartTime).Seconds())
	o.logger.Info("crawl run completed",
		zap.String("source", sourceID),
		zap.Int64("run_id", run.ID),
		zap.Int("success", run.SuccessCount),
		zap.Int("fail", run.FailCount),
		zap.Int("dup", run.DupCount))
	return nil
}

// processItem absorbs every per-item outcome into the run counters.
// Duplicates count toward failCount (upstream-compatible aggregate) and are
// additionally tracked in dupCount.
func (o *Orchestrator) processItem(ctx context.Context, adapter source.Adapter, link string, run *domain.CrawlRun) {
	article, err := adapter.FetchArticle(ctx, link)
	if err != nil {
		run.FailCount++
		o.metrics.IncItem(run.SourceID, "failed")
		o.logger.Warn("article fetch failed", zap.String("url", link), zap.Error(err))
		return
	}

	isDup, err := o.guard.IsDuplicate(ctx, article)
	if err != nil {
		run.FailCount++
		o.metrics.IncItem(run.SourceID, "failed")
		o.logger.Error("dedup check failed", zap.String("url", link), zap.Error(err))
		return
	}
	if isDup {
		run.FailCount++
		run.DupCount++
		o.metrics.IncItem(run.SourceID, "duplicate")
		o.logger.Info("duplicate skipped", zap.String("title", article.Title))
		return
	}

	if article.CategoryID == 0 {
		article.CategoryID = o.engine.Classify(ctx, article)
	}

	id, err := o.news.Save(ctx, article)
	if err != nil {
		run.FailCount++
		o.metrics.IncItem(run.SourceID, "failed")
		o.logger.Error("article save failed", zap.String("title", article.Title), zap.Error(err))
		return
	}

	run.SuccessCount++
	o.metrics.IncItem(run.SourceID, "saved")
	o.logger.Info("article saved", zap.Int64("id", id), zap.String("title", article.Title))

	if o.opts.EnrichHook != nil {
		o.opts.EnrichHook(id)
	}
}

func (o *Orchestrator) finishFailed(ctx context.Context, run *domain.CrawlRun, msg string) {
	run.MarkFailed(msg)
	o.updateRun(ctx, run)
	o.metrics.ObserveRun(run.SourceID, domain.RunFailed, run.EndTime.Sub(run.StartTime).Seconds())
	o.logger.Error("crawl run failed",
		zap.String("source", run.SourceID), zap.Int64("run_id", run.ID), zap.String("error", msg))
}

func (o *Orchestrator) updateRun(ctx context.Context, run *domain.CrawlRun) {
	if err := o.runs.Update(ctx, run); err != nil {
		o.logger.Error("run ledger update failed",
			zap.Int64("run_id", run.ID), zap.Error(err))
	}
}
