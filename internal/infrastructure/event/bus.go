// Package event delivers domain events to in-process handlers after the
// unit of work that raised them has committed.
package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/heraerp/platform/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus implements EventBus with synchronous in-process dispatch
type InMemoryEventBus struct {
	registry  *HandlerRegistry
	logger    *zap.Logger
	running   atomic.Bool
	published atomic.Int64
	failed    atomic.Int64
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger.Named("event_bus"),
	}
}

// Publish hands each event to its handlers in registration order. Handler
// failures are logged and counted; they never fail the publishing procedure,
// whose data is already committed.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.running.Load() {
		b.logger.Debug("event bus not running, dropping events", zap.Int("count", len(events)))
		return nil
	}
	for _, evt := range events {
		b.published.Add(1)
		for _, handler := range b.registry.GetHandlers(evt.EventType()) {
			if err := b.dispatch(ctx, handler, evt); err != nil {
				b.failed.Add(1)
				b.logger.Error("handler failed to process event",
					zap.String("event_type", evt.EventType()),
					zap.String("event_id", evt.EventID().String()),
					zap.String("organization_id", evt.OrganizationID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler; without explicit types the handler's own list is used
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start enables delivery
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

// Stop disables delivery. Dispatch is synchronous so nothing is in flight.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)
	b.logger.Info("event bus stopped",
		zap.Int64("published", b.published.Load()),
		zap.Int64("handler_failures", b.failed.Load()),
	)
	return nil
}

// Stats returns the number of published events and failed handler calls
func (b *InMemoryEventBus) Stats() (published, failed int64) {
	return b.published.Load(), b.failed.Load()
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, evt)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
