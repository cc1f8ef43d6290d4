package repository

import "context"

// CategoryStore resolves category names to IDs for the classifier.
type CategoryStore interface {
	// FindByName returns the category ID and whether the name exists.
	FindByName(ctx context.Context, name string) (int64, bool, error)
}
