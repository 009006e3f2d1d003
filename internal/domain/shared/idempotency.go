package shared

import (
	"context"
	"time"
)

// IdempotencyStore claims keys for a limited time. It backs both the
// Idempotency-Key header on payment requests and event deduplication.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It reports false when the key is
	// already claimed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Release drops a claim so a failed request can be retried with the same key
	Release(ctx context.Context, key string) error
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a claimed key blocks a repeat
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig enables idempotency with a one day TTL
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 24 * time.Hour, Enabled: true}
}
