package dedup

import (
	"context"
	"fmt"

	"github.com/user/news-service/internal/domain"
	"github.com/user/news-service/internal/repository"
)

// Guard decides whether a normalized article already exists. It always asks
// the authoritative store at call time; no cache sits in front, so
// concurrent source runs cannot race a stale snapshot.
type Guard struct {
	news repository.NewsStore
}

func NewGuard(news repository.NewsStore) *Guard {
	return &Guard{news: news}
}

// IsDuplicate is true if an existing record shares the exact title OR the
// exact original URL. Either condition alone suffices: the same story may be
// re-titled across re-crawls of the same URL, or re-posted under a new URL.
func (g *Guard) IsDuplicate(ctx context.Context, article *domain.Article) (bool, error) {
	byTitle, err := g.news.ExistsByTitle(ctx, article.Title)
	if err != nil {
		return false, fmt.Errorf("title existence check: %w", err)
	}
	if byTitle {
		return true, nil
	}

	byURL, err := g.news.ExistsByURL(ctx, article.OriginalURL)
	if err != nil {
		return false, fmt.Errorf("url existence check: %w", err)
	}
	return byURL, nil
}
