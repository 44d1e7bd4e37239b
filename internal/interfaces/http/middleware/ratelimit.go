package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RateLimiter counts requests per key within a window
type RateLimiter interface {
	Limit() int
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
}

// RateLimit rejects callers over the limit with 429. Authenticated callers
// are keyed by their identity subject, anonymous ones by client IP. A
// limiter error lets the request through.
func RateLimit(limiter RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return RateLimitByKey(limiter, logger, rateLimitKey)
}

// RateLimitByKey is RateLimit with a custom key extractor
func RateLimitByKey(limiter RateLimiter, logger *zap.Logger, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := strconv.Itoa(limiter.Limit())

	return func(c *gin.Context) {
		allowed, remaining, err := limiter.Allow(c.Request.Context(), keyFunc(c))
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			abortWithError(c, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if sub := GetExternalID(c); sub != "" {
		return "sub:" + sub
	}
	return "ip:" + c.ClientIP()
}
