package repository

import (
	"context"

	"github.com/user/news-service/internal/domain"
)

// RunLedger records crawl run lifecycles. Only the orchestrator executing a
// run mutates its record.
type RunLedger interface {
	// Create persists a new run and fills in its ID.
	Create(ctx context.Context, run *domain.CrawlRun) error
	// Update persists the run's current state and counters.
	Update(ctx context.Context, run *domain.CrawlRun) error
	// Latest returns the most recent runs, newest first.
	Latest(ctx context.Context, limit int) ([]domain.CrawlRun, error)
}
