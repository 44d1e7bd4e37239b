package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled   bool
	SkipPaths []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:   true,
		SkipPaths: []string{"/health", "/api/v1/health"},
	}
}

// Profiling tags CPU samples of the request with method, route, resource and
// organization. Mount it after OrganizationScope so the organization is known.
func Profiling(enabled bool) gin.HandlerFunc {
	cfg := DefaultProfilingConfig()
	cfg.Enabled = enabled
	return ProfilingWithConfig(cfg)
}

// ProfilingWithConfig returns profiling middleware with custom configuration.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}

		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) map[string]string {
	labels := map[string]string{
		telemetry.ProfilingLabelMethod: c.Request.Method,
	}
	if route := c.FullPath(); route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
		if resource := resourceFromRoute(route); resource != "" {
			labels[telemetry.ProfilingLabelResource] = resource
		}
	}
	if orgID := GetOrganizationID(c); orgID != uuid.Nil {
		labels[telemetry.ProfilingLabelOrganizationID] = orgID.String()
	}
	return labels
}

// resourceFromRoute returns the last static segment of a route pattern:
// "/api/v1/organizations/:org_id/entities/:id" gives "entities".
func resourceFromRoute(route string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		p := parts[i]
		if p == "" || strings.HasPrefix(p, ":") || strings.HasPrefix(p, "*") || p == "api" || isVersionSegment(p) {
			continue
		}
		return p
	}
	return ""
}

// isVersionSegment checks if a path segment is an API version (v1, v2, etc.)
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
