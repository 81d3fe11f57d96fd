package shared

import (
	"context"
	"time"
)

// IdempotencyStore deduplicates page sync tasks across asynq redeliveries.
// Keys are claim-once: the first MarkProcessed wins, repeats within the
// TTL are rejected.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It reports false when another
	// delivery already holds the claim.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key currently holds a live claim.
	IsProcessed(ctx context.Context, key string) (bool, error)

	Close() error
}
