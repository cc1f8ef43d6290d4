package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/user/news-service/internal/domain"
	"github.com/user/news-service/internal/monitoring"
	"github.com/user/news-service/internal/repository"
)

// ErrBatchInProgress rejects a second enrichment batch while one is running.
// AI calls are paced against provider rate limits, so exactly one batch may
// be in flight.
var ErrBatchInProgress = errors.New("summary batch already in progress")

const maxBodyChars = 2000

// Options tune batch pacing and the summary metadata.
type Options struct {
	// Pacing is the fixed wait between consecutive AI calls in a batch.
	Pacing time.Duration
	// PageSize bounds each page of PUBLISHED articles loaded during a batch.
	PageSize int
	// ModelVersion is recorded on every summary written.
	ModelVersion string
}

func (o *Options) withDefaults() {
	if o.Pacing <= 0 {
		o.Pacing = 3 * time.Second
	}
	if o.PageSize <= 0 {
		o.PageSize = 20
	}
	if o.ModelVersion == "" {
		o.ModelVersion = "glm-4"
	}
}

// Enricher owns the Summary lifecycle: it generates one summary per article,
// replacing rather than updating so a reader never observes a half-written
// summary.
type Enricher struct {
	news      repository.NewsStore
	summaries repository.SummaryStore
	ai        repository.AITextService
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	opts      Options
	batchBusy atomic.Bool
}

func NewEnricher(news repository.NewsStore, summaries repository.SummaryStore,
	ai repository.AITextService, metrics *monitoring.Metrics, logger *zap.Logger, opts Options) *Enricher {
	opts.withDefaults()
	return &Enricher{
		news:      news,
		summaries: summaries,
		ai:        ai,
		metrics:   metrics,
		logger:    logger,
		opts:      opts,
	}
}

// EnrichOne generates the summary for one article. Any existing summary is
// deleted first so at most one row ever exists per article. An AI or store
// failure on the new attempt is recorded as a FAILED summary, never
// propagated; the only error returned is the article not existing.
func (e *Enricher) EnrichOne(ctx context.Context, newsID int64) (*domain.Summary, error) {
	article, err := e.news.FindByID(ctx, newsID)
	if err != nil {
		return nil, fmt.Errorf("load article %d: %w", newsID, err)
	}

	existing, err := e.summaries.FindByNewsID(ctx, newsID)
	if err != nil {
		e.logger.Warn("summary lookup failed", zap.Int64("news_id", newsID), zap.Error(err))
	}
	if existing != nil {
		if err := e.summaries.Delete(ctx, newsID); err != nil {
			e.logger.Error("stale summary delete failed", zap.Int64("news_id", newsID), zap.Error(err))
		}
	}

	summary := &domain.Summary{
		NewsID:       newsID,
		ModelVersion: e.opts.ModelVersion,
		GeneratedAt:  time.Now(),
	}

	text, err := e.ai.Summarize(ctx, article.Title, truncate(article.Content, maxBodyChars))
	if err != nil {
		summary.Status = domain.SummaryFailed
		summary.Content = "summary generation failed: " + err.Error()
		e.logger.Error("summary generation failed", zap.Int64("news_id", newsID), zap.Error(err))
	} else {
		summary.Status = domain.SummarySuccess
		summary.Content = text
	}

	if err := e.summaries.Save(ctx, summary); err != nil {
		e.logger.Error("summary save failed", zap.Int64("news_id", newsID), zap.Error(err))
	}
	e.metrics.IncSummary(summary.Status)
	return summary, nil
}

// BatchInProgress reports whether an enrichment batch is currently running.
func (e *Enricher) BatchInProgress() bool {
	return e.batchBusy.Load()
}

// StartBatch reserves the single batch slot and returns the batch body for
// the caller to run on its own executor. The reservation is taken before
// this returns, so a caller that gets a non-nil run function can promise the
// batch will happen; ErrBatchInProgress means another batch holds the slot.
// Running the returned function with an already-cancelled context releases
// the slot without doing any work.
func (e *Enricher) StartBatch(forceRegenerate bool) (func(context.Context), error) {
	if !e.batchBusy.CompareAndSwap(false, true) {
		return nil, ErrBatchInProgress
	}
	return func(ctx context.Context) {
		defer e.batchBusy.Store(false)
		if ctx.Err() != nil {
			return
		}
		e.runBatch(ctx, forceRegenerate)
	}, nil
}

// EnrichAllMissing pages through PUBLISHED articles generating summaries,
// running the batch on the calling goroutine. Articles whose existing
// summary is SUCCESS are skipped unless forceRegenerate; missing and FAILED
// summaries are (re)processed. Only one batch may run at a time.
func (e *Enricher) EnrichAllMissing(ctx context.Context, forceRegenerate bool) error {
	run, err := e.StartBatch(forceRegenerate)
	if err != nil {
		return err
	}
	run(ctx)
	return nil
}

// runBatch is the batch body. It paces between AI calls and checks
// cancellation between items, never mid-call.
func (e *Enricher) runBatch(ctx context.Context, forceRegenerate bool) {
	e.logger.Info("summary batch started", zap.Bool("force", forceRegenerate))

	var generated, skipped, failed int
	page := 0
	for {
		articles, hasMore, err := e.news.PageByStatus(ctx, domain.ArticlePublished, page, e.opts.PageSize)
		if err != nil {
			e.logger.Error("article page load failed", zap.Int("page", page), zap.Error(err))
			break
		}

		for i, article := range articles {
			if ctx.Err() != nil {
				e.logger.Warn("summary batch cancelled",
					zap.Int("generated", generated), zap.Int("skipped", skipped), zap.Int("failed", failed))
				return
			}

			if !forceRegenerate {
				existing, err := e.summaries.FindByNewsID(ctx, article.ID)
				if err == nil && existing != nil && existing.Status == domain.SummarySuccess {
					skipped++
					continue
				}
			}

			summary, err := e.EnrichOne(ctx, article.ID)
			switch {
			case err != nil:
				failed++
				e.logger.Error("batch item failed", zap.Int64("news_id", article.ID), zap.Error(err))
			case summary.Status == domain.SummaryFailed:
				failed++
			default:
				generated++
			}

			// No pacing after the batch's last article.
			if i == len(articles)-1 && !hasMore {
				break
			}
			select {
			case <-ctx.Done():
				e.logger.Warn("summary batch cancelled",
					zap.Int("generated", generated), zap.Int("skipped", skipped), zap.Int("failed", failed))
				return
			case <-time.After(e.opts.Pacing):
			}
		}

		if !hasMore {
			break
		}
		page++
	}

	e.logger.Info("summary batch completed",
		zap.Int("generated", generated), zap.Int("skipped", skipped), zap.Int("failed", failed))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
