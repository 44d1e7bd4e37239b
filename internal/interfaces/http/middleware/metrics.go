package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  *telemetry.UpDownCounter
}

func newHTTPMetrics(mp *telemetry.MeterProvider) (*httpMetrics, error) {
	meter := mp.Meter("http.server")

	requestTotal, err := telemetry.NewCounter(meter, "http_server_request_total", "Total number of HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	requestDuration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency distribution in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	responseSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size distribution in bytes",
		Unit:        "By",
		Boundaries:  []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000, 5000000},
	})
	if err != nil {
		return nil, err
	}
	activeRequests, err := telemetry.NewUpDownCounter(meter, "http_server_active_requests", "Number of currently active HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics records request count, latency and response size per route.
// Request counts carry the organization bound by OrganizationScope.
// A nil or disabled provider yields a pass-through middleware.
func HTTPMetrics(mp *telemetry.MeterProvider) (gin.HandlerFunc, error) {
	if mp == nil || !mp.IsEnabled() {
		return func(c *gin.Context) { c.Next() }, nil
	}
	m, err := newHTTPMetrics(mp)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.activeRequests.Add(ctx, 1)

		c.Next()

		m.activeRequests.Add(ctx, -1)
		routeAttrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(routePattern(c)),
		}
		countAttrs := append(routeAttrs[:len(routeAttrs):len(routeAttrs)], telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
		if orgID := GetOrganizationID(c); orgID != uuid.Nil {
			countAttrs = append(countAttrs, telemetry.AttrOrganizationID.String(orgID.String()))
		}

		m.requestTotal.Inc(ctx, countAttrs...)
		m.requestDuration.RecordDuration(ctx, time.Since(start), routeAttrs...)
		if size := c.Writer.Size(); size > 0 {
			m.responseSize.Record(ctx, float64(size), routeAttrs...)
		}
	}, nil
}

// routePattern returns the matched route template to keep label cardinality low
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
