package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "hera:txn:idempotency:"

// RedisIdempotencyStore implements IdempotencyStore using Redis.
// It shares dedup keys across every server instance.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStoreWithClient creates a store with an existing Redis client
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Reserve binds key to value with SETNX. When the key is taken the stored
// value is returned instead.
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key, value string, ttl time.Duration) (bool, string, error) {
	fullKey := s.keyPrefix + key

	ok, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return true, "", nil
	}

	existing, err := s.client.Get(ctx, fullKey).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		ok, err = s.client.SetNX(ctx, fullKey, value, ttl).Result()
		if err != nil {
			return false, "", fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		return ok, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return false, existing, nil
}

// Release frees key
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
