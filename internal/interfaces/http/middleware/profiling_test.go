package middleware

import (
	"net/http"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
)

func TestProfiling_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(Profiling(false))
	router.GET("/test", func(c *gin.Context) {
		_, ok := pprof.Label(c.Request.Context(), telemetry.ProfilingLabelMethod)
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", nil).Code)
}

func TestProfiling_Labels(t *testing.T) {
	orgID := uuid.New()
	got := map[string]string{}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(OrganizationIDKey, orgID)
		c.Next()
	}, Profiling(true))
	router.GET("/api/v1/organizations/:org_id/entities/:id", func(c *gin.Context) {
		for _, key := range []string{
			telemetry.ProfilingLabelMethod,
			telemetry.ProfilingLabelRoute,
			telemetry.ProfilingLabelResource,
			telemetry.ProfilingLabelOrganizationID,
		} {
			if v, ok := pprof.Label(c.Request.Context(), key); ok {
				got[key] = v
			}
		}
		c.Status(http.StatusOK)
	})

	w := serve(router, http.MethodGet, "/api/v1/organizations/"+orgID.String()+"/entities/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{
		telemetry.ProfilingLabelMethod:         http.MethodGet,
		telemetry.ProfilingLabelRoute:          "/api/v1/organizations/:org_id/entities/:id",
		telemetry.ProfilingLabelResource:       "entities",
		telemetry.ProfilingLabelOrganizationID: orgID.String(),
	}, got)
}

func TestProfiling_SkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(Profiling(true))
	router.GET("/health", func(c *gin.Context) {
		_, ok := pprof.Label(c.Request.Context(), telemetry.ProfilingLabelRoute)
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", nil).Code)
}

func TestResourceFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/organizations":                                "organizations",
		"/api/v1/organizations/:org_id/entities/:id":           "entities",
		"/api/v1/organizations/:org_id/transactions/:id/lines": "lines",
		"/api/v1":    "",
		"":           "",
		"/v2/health": "health",
	}
	for route, want := range tests {
		assert.Equal(t, want, resourceFromRoute(route), route)
	}
}
