package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS_DefaultRejectsCrossOrigin(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := serve(router, http.MethodGet, "/test", map[string]string{"Origin": "http://evil.example"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(router, http.MethodOptions, "/test", map[string]string{"Origin": "http://evil.example"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWithConfig(t *testing.T) {
	t.Run("allows listed origin with credentials", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"http://localhost:3000", "https://app.example"}
		router := gin.New()
		router.Use(CORSWithConfig(cfg))
		router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		w := serve(router, http.MethodGet, "/test", map[string]string{"Origin": "https://app.example"})
		assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), ActorHeader)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))

		w = serve(router, http.MethodGet, "/test", map[string]string{"Origin": "https://other.example"})
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard never allows credentials", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"*"}
		router := gin.New()
		router.Use(CORSWithConfig(cfg))
		router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		w := serve(router, http.MethodOptions, "/test", map[string]string{"Origin": "https://any.example"})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	var seen string
	router.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := serve(router, http.MethodGet, "/test", nil)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	w = serve(router, http.MethodGet, "/test", map[string]string{RequestIDHeader: "upstream-123"})
	assert.Equal(t, "upstream-123", seen)
	assert.Equal(t, "upstream-123", w.Header().Get(RequestIDHeader))
}

func TestSecureWithConfig(t *testing.T) {
	router := gin.New()
	router.Use(Secure())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, http.MethodGet, "/test", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	cfg := DefaultSecurityConfig()
	cfg.HSTSEnabled = true
	router = gin.New()
	router.Use(SecureWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w = serve(router, http.MethodGet, "/test", nil)
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Empty(t, cfg.AllowOrigins)
	assert.Equal(t, 12*time.Hour, cfg.MaxAge)
	assert.Contains(t, cfg.AllowHeaders, "Idempotency-Key")
}
