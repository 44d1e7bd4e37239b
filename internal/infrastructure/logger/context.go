package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey         contextKey = "logger"
	requestIDKey      contextKey = "request_id"
	organizationIDKey contextKey = "organization_id"
	actorIDKey        contextKey = "actor_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds the request ID to the context and its logger
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("request_id", requestID)))
}

// WithOrganizationID adds the organization scope to the context and its logger
func WithOrganizationID(ctx context.Context, orgID string) context.Context {
	ctx = context.WithValue(ctx, organizationIDKey, orgID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("organization_id", orgID)))
}

// WithActorID adds the acting user entity to the context and its logger
func WithActorID(ctx context.Context, actorID string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, actorID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("actor_id", actorID)))
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// GetOrganizationID retrieves the organization scope from context
func GetOrganizationID(ctx context.Context) string {
	v, _ := ctx.Value(organizationIDKey).(string)
	return v
}

// GetActorID retrieves the actor from context
func GetActorID(ctx context.Context) string {
	v, _ := ctx.Value(actorIDKey).(string)
	return v
}

// L returns the context logger with trace correlation fields added.
// Usage: logger.L(ctx).Info("entity upserted", zap.String("entity_id", id))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if spanCtx.IsValid() {
		l = l.With(
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return l
}

// EnsureContext attaches fallback unless ctx already carries a logger
func EnsureContext(ctx context.Context, fallback *zap.Logger) context.Context {
	if _, ok := ctx.Value(loggerKey).(*zap.Logger); ok || fallback == nil {
		return ctx
	}
	return WithContext(ctx, fallback)
}
