package repository

import "context"

// AITextService is the text-completion function the enricher calls. A single
// blocking call; any non-nil error is treated as enrichment failure.
type AITextService interface {
	Summarize(ctx context.Context, title, body string) (string, error)
}
