package retry

import (
	"context"
	"fmt"
	"time"
)

// Do runs op up to attempts times with a fixed delay between attempts,
// stopping early on success or context cancellation.
func Do(ctx context.Context, attempts int, delay time.Duration, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
