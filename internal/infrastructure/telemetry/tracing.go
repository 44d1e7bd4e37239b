package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of procedure spans
const TracerName = "hera-platform"

// Span attribute keys used by procedures
const (
	SpanAttrOrganizationID   = "hera.organization_id"
	SpanAttrActorID          = "hera.actor_id"
	SpanAttrEntityID         = "hera.entity_id"
	SpanAttrEntityType       = "hera.entity_type"
	SpanAttrSmartCode        = "hera.smart_code"
	SpanAttrRelationshipType = "hera.relationship_type"
	SpanAttrTransactionID    = "hera.transaction_id"
	SpanAttrTransactionType  = "hera.transaction_type"
	SpanAttrLineCount        = "hera.line_count"
	SpanAttrErrorCode        = "hera.error_code"
)

// StartServiceSpan starts a span named {service}.{method}.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "entity", "upsert")
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, keyValues ...any) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	ctx, span := tracer.Start(ctx, fmt.Sprintf("%s.%s", service, method), trace.WithSpanKind(trace.SpanKindInternal))
	SetAttributes(span, keyValues...)
	return ctx, span
}

// SetAttributes adds key/value pairs to span. Non-string keys are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil || len(keyValues) < 2 {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	span.SetAttributes(attrs...)
}

// RecordError marks the span failed. Domain errors also record their code.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	if de, ok := shared.AsDomainError(err); ok {
		span.SetAttributes(attribute.String(SpanAttrErrorCode, de.Code))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceID returns the trace id of the span in ctx, or ""
func GetTraceID(ctx context.Context) string {
	traceID := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case uuid.UUID:
		return attribute.String(key, v.String())
	case *uuid.UUID:
		if v == nil {
			return attribute.String(key, "")
		}
		return attribute.String(key, v.String())
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
