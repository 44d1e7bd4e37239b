// Package procedure runs CRUD procedures as atomic, traced, actor-stamped
// units and publishes their domain events after commit.
package procedure

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Runtime is shared by every application service
type Runtime struct {
	uow     shared.UnitOfWork
	events  shared.EventPublisher
	logger  *zap.Logger
	metrics *telemetry.ProcedureMetrics
}

// Option configures a Runtime
type Option func(*Runtime)

// WithEventPublisher publishes collected events after commit
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(r *Runtime) { r.events = p }
}

// WithMetrics records call counts and latency per procedure
func WithMetrics(m *telemetry.ProcedureMetrics) Option {
	return func(r *Runtime) { r.metrics = m }
}

// NewRuntime creates a Runtime over uow
func NewRuntime(uow shared.UnitOfWork, l *zap.Logger, opts ...Option) *Runtime {
	r := &Runtime{uow: uow, logger: l}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Call identifies one procedure invocation
type Call struct {
	// Name is "<service>.<method>", e.g. "entity.upsert"
	Name           string
	OrganizationID *uuid.UUID
	ActorID        *uuid.UUID
	// Attributes are extra span key/value pairs
	Attributes []any
}

// Write runs fn inside one unit of work. Events recorded on rec are published
// only once the unit has committed; a failing fn publishes nothing.
func (r *Runtime) Write(ctx context.Context, call Call, fn func(ctx context.Context, rec *Recorder) error) error {
	ctx, finish := r.begin(ctx, call)
	rec := &Recorder{}
	err := r.uow.Do(ctx, func(ctx context.Context) error {
		return fn(ctx, rec)
	})
	if err == nil {
		r.publish(ctx, rec.events)
	}
	return finish(err)
}

// Read runs fn without a unit of work
func (r *Runtime) Read(ctx context.Context, call Call, fn func(ctx context.Context) error) error {
	ctx, finish := r.begin(ctx, call)
	return finish(fn(ctx))
}

func (r *Runtime) begin(ctx context.Context, call Call) (context.Context, func(error) error) {
	start := time.Now()
	service, method := splitName(call.Name)

	ctx = logger.EnsureContext(ctx, r.logger)
	attrs := append([]any{}, call.Attributes...)
	if call.OrganizationID != nil {
		attrs = append(attrs, telemetry.SpanAttrOrganizationID, *call.OrganizationID)
		ctx = logger.WithOrganizationID(ctx, call.OrganizationID.String())
	}
	if call.ActorID != nil {
		attrs = append(attrs, telemetry.SpanAttrActorID, *call.ActorID)
		ctx = logger.WithActorID(ctx, call.ActorID.String())
	}
	ctx, span := telemetry.StartServiceSpan(ctx, service, method, attrs...)

	return ctx, func(err error) error {
		defer span.End()
		r.metrics.Observe(ctx, call.Name, start, err)
		if err == nil {
			return nil
		}
		telemetry.RecordError(span, err)
		l := logger.L(ctx).With(zap.String("procedure", call.Name), zap.Error(err))
		if de, ok := shared.AsDomainError(err); ok {
			l.Debug("procedure rejected", zap.String("code", de.Code))
		} else {
			l.Error("procedure failed")
		}
		return err
	}
}

func (r *Runtime) publish(ctx context.Context, events []shared.DomainEvent) {
	if r.events == nil || len(events) == 0 {
		return
	}
	if err := r.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func splitName(name string) (string, string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i], name[i+1:]
		}
	}
	return name, "call"
}

// Recorder collects domain events raised inside a unit of work
type Recorder struct {
	events []shared.DomainEvent
}

// Record takes the pending events of each aggregate
func (r *Recorder) Record(aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		r.events = append(r.events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
}

// RecordEvent adds an event not owned by an aggregate
func (r *Recorder) RecordEvent(events ...shared.DomainEvent) {
	r.events = append(r.events, events...)
}

// Events returns the collected events
func (r *Recorder) Events() []shared.DomainEvent {
	return r.events
}

// Org returns a pointer for Call.OrganizationID
func Org(id uuid.UUID) *uuid.UUID { return &id }

// Actor returns a pointer for Call.ActorID
func Actor(id uuid.UUID) *uuid.UUID { return &id }
