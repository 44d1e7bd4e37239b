package shared

import (
	"context"
	"time"
)

// IdempotencyStore reserves caller-supplied deduplication keys.
type IdempotencyStore interface {
	// Reserve binds key to value if the key is free.
	// When the key is already bound it returns reserved=false and the stored value.
	Reserve(ctx context.Context, key, value string, ttl time.Duration) (reserved bool, existing string, err error)

	// Release frees a key so a failed operation can be retried.
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
