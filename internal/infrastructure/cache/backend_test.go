package cache

import (
	"context"
	"testing"
	"time"

	"github.com/heraerp/platform/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_WithoutRedis(t *testing.T) {
	ctx := context.Background()
	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("disabled keeps transaction keys in memory", func(t *testing.T) {
		b := NewBackend(config.RedisConfig{Enabled: false})
		defer b.Close()
		assert.False(t, b.Shared())

		store, err := b.IdempotencyStore()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)

		reserved, _, err := store.Reserve(ctx, "org-1:txn-42", "txn-id", time.Minute)
		require.NoError(t, err)
		assert.True(t, reserved)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		b := NewBackend(unreachable)
		defer b.Close()
		assert.False(t, b.Shared())

		store, err := b.IdempotencyStore()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)

		limiter := b.RateLimiter(3, time.Minute)
		assert.IsType(t, &InMemoryRateLimiter{}, limiter)
		assert.Equal(t, 3, limiter.Limit())
	})

	t.Run("required redis refuses process memory", func(t *testing.T) {
		b := NewBackend(unreachable, RequireRedis(true))
		defer b.Close()

		_, err := b.IdempotencyStore()
		assert.ErrorContains(t, err, "transaction idempotency requires redis")
		assert.ErrorContains(t, err, "127.0.0.1:1")

		disabled := NewBackend(config.RedisConfig{Enabled: false}, RequireRedis(true))
		_, err = disabled.IdempotencyStore()
		assert.ErrorContains(t, err, "disabled")
	})

	t.Run("close stops every handed out store", func(t *testing.T) {
		b := NewBackend(config.RedisConfig{Enabled: false})
		_, err := b.IdempotencyStore()
		require.NoError(t, err)
		_, err = b.IdempotencyStore()
		require.NoError(t, err)

		assert.Len(t, b.closers, 2)
		require.NoError(t, b.Close())
		assert.Empty(t, b.closers)
		assert.NoError(t, b.Close())
	})
}
