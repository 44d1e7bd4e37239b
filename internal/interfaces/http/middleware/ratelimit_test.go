package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/heraerp/platform/internal/infrastructure/auth"
	"github.com/heraerp/platform/internal/infrastructure/cache"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

type failingLimiter struct{}

func (failingLimiter) Limit() int { return 1 }
func (failingLimiter) Allow(context.Context, string) (bool, int, error) {
	return false, 0, errors.New("redis down")
}

func rateLimitedRouter(limiter RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(pre...)
	router.Use(RateLimit(limiter, nil))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestRateLimit(t *testing.T) {
	router := rateLimitedRouter(cache.NewInMemoryRateLimiter(2, time.Minute))

	w := serve(router, http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(router, http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(router, http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, dto.ErrCodeRateLimited, errorCode(t, w))
}

func TestRateLimit_KeysBySubject(t *testing.T) {
	svc := newTestJWTService()
	router := rateLimitedRouter(cache.NewInMemoryRateLimiter(1, time.Minute), JWTAuthMiddleware(svc, nil))

	alice := map[string]string{AuthHeaderKey: BearerPrefix + signToken(t, svc, auth.GenerateTokenInput{Subject: "alice"})}
	bob := map[string]string{AuthHeaderKey: BearerPrefix + signToken(t, svc, auth.GenerateTokenInput{Subject: "bob"})}

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodGet, "/test", alice).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", bob).Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	w := serve(rateLimitedRouter(failingLimiter{}), http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}
