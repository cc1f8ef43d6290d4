package repository

import (
	"context"

	"github.com/user/news-service/internal/domain"
)

// SummaryStore persists AI summaries. The news_id column is unique; the
// enricher enforces at-most-one by deleting before recreating.
type SummaryStore interface {
	// FindByNewsID returns the article's summary, or nil if none exists.
	FindByNewsID(ctx context.Context, newsID int64) (*domain.Summary, error)
	// Save persists a summary and fills in its ID.
	Save(ctx context.Context, summary *domain.Summary) error
	// Delete removes the article's summary if present.
	Delete(ctx context.Context, newsID int64) error
	// ExistsByNewsID reports whether the article has a summary row.
	ExistsByNewsID(ctx context.Context, newsID int64) (bool, error)
}
