package repository

import (
	"context"

	"github.com/user/news-service/internal/domain"
)

// NewsStore defines the persistence contract for articles. The crawl core
// only requires the existence checks and Save; the read methods serve the
// enricher and the HTTP surface.
type NewsStore interface {
	// ExistsByTitle reports whether an article with this exact title is stored.
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	// ExistsByURL reports whether an article with this exact original URL is stored.
	ExistsByURL(ctx context.Context, url string) (bool, error)
	// Save persists a new article and returns its assigned ID.
	Save(ctx context.Context, article *domain.Article) (int64, error)
	// FindByID retrieves a single article.
	FindByID(ctx context.Context, id int64) (*domain.Article, error)
	// PageByStatus returns one page of articles with the given status and
	// whether more pages remain. Pages are zero-based.
	PageByStatus(ctx context.Context, status string, page, size int) ([]domain.Article, bool, error)
	// IncrementView bumps the article's view counter.
	IncrementView(ctx context.Context, id int64) error
}
