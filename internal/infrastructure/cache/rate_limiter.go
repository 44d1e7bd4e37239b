package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRateLimitPrefix = "hera:ratelimit:"

// InMemoryRateLimiter is a fixed-window request counter local to one process
type InMemoryRateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	limit     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type window struct {
	count   int
	started time.Time
}

// NewInMemoryRateLimiter creates a limiter allowing limit requests per window
func NewInMemoryRateLimiter(limit int, win time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		window:  win,
		now:     time.Now,
	}
}

// Limit returns the number of requests allowed per window
func (l *InMemoryRateLimiter) Limit() int { return l.limit }

// Allow counts one request for key and reports whether it fits the window
func (l *InMemoryRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > 2*l.window {
		l.sweep(now)
	}

	w, ok := l.windows[key]
	if !ok || now.Sub(w.started) >= l.window {
		w = &window{started: now}
		l.windows[key] = w
	}
	if w.count >= l.limit {
		return false, 0, nil
	}
	w.count++
	return true, l.limit - w.count, nil
}

// sweep drops windows that ended; callers hold mu
func (l *InMemoryRateLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.started) >= l.window {
			delete(l.windows, key)
		}
	}
	l.lastSweep = now
}

// Close is a no-op kept for symmetry with the Redis limiter
func (l *InMemoryRateLimiter) Close() error { return nil }

// RedisRateLimiter shares fixed-window counters across server instances
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

// NewRedisRateLimiterWithClient creates a limiter on an existing Redis client
func NewRedisRateLimiterWithClient(client *redis.Client, limit int, win time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: defaultRateLimitPrefix,
		limit:     limit,
		window:    win,
	}
}

// Limit returns the number of requests allowed per window
func (l *RedisRateLimiter) Limit() int { return l.limit }

// Allow increments the counter of the current window for key
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	slot := time.Now().UnixMilli() / l.window.Milliseconds()
	fullKey := l.keyPrefix + key + ":" + strconv.FormatInt(slot, 10)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.Expire(ctx, fullKey, l.window)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to count request: %w", err)
	}

	count := int(incr.Val())
	if count > l.limit {
		return false, 0, nil
	}
	return true, l.limit - count, nil
}

// Close closes the Redis client
func (l *RedisRateLimiter) Close() error {
	return l.client.Close()
}

// RateLimiter is implemented by both limiters
type RateLimiter interface {
	Limit() int
	Allow(ctx context.Context, key string) (bool, int, error)
	Close() error
}
