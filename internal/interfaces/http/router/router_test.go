package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func text(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Empty(t, r.middleware)
}

func TestRouterOptions(t *testing.T) {
	noop := func(c *gin.Context) { c.Next() }
	r := NewRouter(gin.New(), WithAPIVersion("v2"), WithMiddleware(noop, noop))

	assert.Equal(t, "v2", r.apiVersion)
	assert.Len(t, r.middleware, 2)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithMiddleware(func(c *gin.Context) {
		c.Header("X-Versioned", "yes")
		c.Next()
	}))

	entities := NewDomainGroup("entities", "/entities").GET("", text("list"))
	relationships := NewDomainGroup("relationships", "/relationships").GET("/:id", text("one"))
	r.Register(entities).Register(relationships)
	assert.Len(t, r.registrars, 2)
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/entities")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "list", w.Body.String())
	assert.Equal(t, "yes", w.Header().Get("X-Versioned"))

	w = serve(engine, http.MethodGet, "/api/v1/relationships/42")
	assert.Equal(t, "one", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/entities").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("transactions", "/transactions")
		assert.Equal(t, "transactions", g.Name())
		assert.Equal(t, "/transactions", g.Prefix())
	})

	t.Run("every method helper", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("entities", "/entities").
			GET("/:id", text("get")).
			POST("", text("post")).
			PUT("/:id/fields", text("put")).
			PATCH("/:id", text("patch")).
			DELETE("/:id", text("delete")).
			Handle(http.MethodHead, "/:id", text(""))
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method, path, body string
		}{
			{http.MethodGet, "/api/v1/entities/1", "get"},
			{http.MethodPost, "/api/v1/entities", "post"},
			{http.MethodPut, "/api/v1/entities/1/fields", "put"},
			{http.MethodPatch, "/api/v1/entities/1", "patch"},
			{http.MethodDelete, "/api/v1/entities/1", "delete"},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code, tt.method)
			assert.Equal(t, tt.body, w.Body.String(), tt.method)
		}
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodHead, "/api/v1/entities/1").Code)
	})

	t.Run("subgroups inherit middleware", func(t *testing.T) {
		engine := gin.New()
		scoped := NewDomainGroup("organization", "/orgs/:org_id").Use(func(c *gin.Context) {
			c.Header("X-Org", c.Param("org_id"))
			c.Next()
		})
		scoped.Group("transactions", "/transactions").POST("/crud", text("crud"))
		scoped.Mount(NewDomainGroup("relationships", "/relationships").GET("", text("rels")))
		scoped.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodPost, "/api/v1/orgs/abc/transactions/crud")
		assert.Equal(t, "crud", w.Body.String())
		assert.Equal(t, "abc", w.Header().Get("X-Org"))

		w = serve(engine, http.MethodGet, "/api/v1/orgs/xyz/relationships")
		assert.Equal(t, "rels", w.Body.String())
		assert.Equal(t, "xyz", w.Header().Get("X-Org"))
	})

	t.Run("group middleware stays local", func(t *testing.T) {
		engine := gin.New()
		guarded := NewDomainGroup("service", "").Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusForbidden)
		}).POST("/onboard", text("onboarded"))
		open := NewDomainGroup("health", "").GET("/health", text("ok"))

		NewRouter(engine).Register(guarded, open).Setup()

		assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodPost, "/api/v1/onboard").Code)
		w := serve(engine, http.MethodGet, "/api/v1/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})
}
