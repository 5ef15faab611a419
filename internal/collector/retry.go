package collector

import (
	"context"
	"fmt"
	"log"
	"time"
)

// withRetry runs fn up to attempts times with exponential backoff.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, what string, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		wait := backoff * time.Duration(1<<uint(i))
		log.Printf("[WARN] %s failed (attempt %d/%d): %v, retrying in %v", what, i+1, attempts, lastErr, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}
