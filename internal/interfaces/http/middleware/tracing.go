package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorCodeKey carries the error code of a failed request for span enrichment
const ErrorCodeKey = "error_code"

// Tracing starts one server span per request. Span names follow
// "METHOD route_pattern".
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// SpanEnricher adds platform attributes to the request span and marks 4xx
// and 5xx responses as errors. Place it after Tracing and RequestID.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Next()

		if orgID := GetOrganizationID(c); orgID != uuid.Nil {
			span.SetAttributes(attribute.String(telemetry.SpanAttrOrganizationID, orgID.String()))
		}
		if actorID := GetActorID(c); actorID != uuid.Nil {
			span.SetAttributes(attribute.String(telemetry.SpanAttrActorID, actorID.String()))
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		if code := c.GetString(ErrorCodeKey); code != "" {
			span.SetAttributes(attribute.String(telemetry.SpanAttrErrorCode, code))
		}
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}
