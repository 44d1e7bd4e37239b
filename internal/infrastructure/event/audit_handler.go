package event

import (
	"context"

	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes every domain event to the structured log. It is the
// audit trail for actor-stamped mutations.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(l *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: l.Named("audit")}
}

// Handle logs the event envelope
func (h *AuditLogHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", evt.EventID().String()),
		zap.String("event_type", evt.EventType()),
		zap.String("aggregate_type", evt.AggregateType()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.String("organization_id", evt.OrganizationID().String()),
		zap.String("actor_id", evt.ActorID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
	}
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	h.logger.Info("domain event", fields...)
	return nil
}

// EventTypes returns nil so the handler receives every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}
