package source

import (
	"context"

	"github.com/user/news-service/internal/domain"
)

// Adapter is the per-site crawling contract: list candidate links, fetch and
// normalize one article, and probe connectivity over the same fetch path.
type Adapter interface {
	SourceID() string
	// FetchCandidateLinks returns at most maxCount article URLs, de-duplicated
	// within the page set. A listing failure is an error.
	FetchCandidateLinks(ctx context.Context, maxCount int) ([]string, error)
	// FetchArticle fetches and parses one article. Missing title or body is an
	// error for that URL only; no partial record is returned.
	FetchArticle(ctx context.Context, articleURL string) (*domain.Article, error)
	// Probe checks connectivity; fetch errors are swallowed to false.
	Probe(ctx context.Context) bool
}

// Registry maps sourceID to adapter, built once at startup.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

// NewRegistry registers adapters in the given order.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, dup := r.adapters[a.SourceID()]; dup {
			continue
		}
		r.adapters[a.SourceID()] = a
		r.order = append(r.order, a.SourceID())
	}
	return r
}

// Lookup resolves an adapter by sourceID.
func (r *Registry) Lookup(sourceID string) (Adapter, bool) {
	a, ok := r.adapters[sourceID]
	return a, ok
}

// IDs returns registered source IDs in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
