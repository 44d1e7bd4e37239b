package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// Backend owns the single Redis connection behind transaction dedup keys and
// request limits. Without Redis both fall back to process-local state.
type Backend struct {
	client       *redis.Client
	logger       *zap.Logger
	requireRedis bool
	pingErr      error

	mu      sync.Mutex
	closers []func() error
}

// BackendOption configures a Backend
type BackendOption func(*Backend)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) BackendOption {
	return func(b *Backend) {
		b.logger = logger
	}
}

// RequireRedis makes IdempotencyStore fail instead of using process memory.
// Production sets it: two instances with separate keys can post the same
// transaction twice.
func RequireRedis(required bool) BackendOption {
	return func(b *Backend) {
		b.requireRedis = required
	}
}

// NewBackend connects to Redis when it is enabled. An unreachable server is
// remembered rather than returned so callers decide per concern.
func NewBackend(cfg config.RedisConfig, opts ...BackendOption) *Backend {
	b := &Backend{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	if !cfg.Enabled {
		b.logger.Info("redis disabled, transaction keys and request limits are per instance")
		return b
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		b.pingErr = fmt.Errorf("redis at %s unreachable: %w", cfg.Addr(), err)
		b.logger.Warn("redis unreachable", zap.String("addr", cfg.Addr()), zap.Error(err))
		return b
	}
	b.client = client
	b.logger.Info("redis connected", zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB))
	return b
}

// Shared reports whether state is shared across instances through Redis
func (b *Backend) Shared() bool {
	return b.client != nil
}

// IdempotencyStore returns the store for transaction Idempotency-Key values
func (b *Backend) IdempotencyStore() (shared.IdempotencyStore, error) {
	if b.client != nil {
		return NewRedisIdempotencyStoreWithClient(b.client, ""), nil
	}
	if b.requireRedis {
		if b.pingErr != nil {
			return nil, fmt.Errorf("transaction idempotency requires redis: %w", b.pingErr)
		}
		return nil, errors.New("transaction idempotency requires redis but it is disabled")
	}

	b.logger.Warn("transaction idempotency keys are kept in process memory")
	store := NewInMemoryIdempotencyStore()
	b.track(store.Close)
	return store, nil
}

// RateLimiter returns a fixed-window limiter of limit requests per win
func (b *Backend) RateLimiter(limit int, win time.Duration) RateLimiter {
	if b.client != nil {
		return NewRedisRateLimiterWithClient(b.client, limit, win)
	}
	b.logger.Info("request limits are enforced per instance",
		zap.Int("limit", limit), zap.Duration("window", win))
	return NewInMemoryRateLimiter(limit, win)
}

func (b *Backend) track(closer func() error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closers = append(b.closers, closer)
}

// Close stops in-memory sweepers and closes the Redis connection. Stores and
// limiters handed out by the backend must not be closed individually.
func (b *Backend) Close() error {
	b.mu.Lock()
	closers := b.closers
	b.closers = nil
	b.mu.Unlock()

	var errs []error
	for _, closer := range closers {
		errs = append(errs, closer())
	}
	if b.client != nil {
		errs = append(errs, b.client.Close())
		b.client = nil
	}
	return errors.Join(errs...)
}
