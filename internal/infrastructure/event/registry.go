package event

import (
	"sync"

	"github.com/heraerp/platform/internal/domain/shared"
)

// HandlerRegistry maps event types to handlers
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	wildcard []shared.EventHandler
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string][]shared.EventHandler),
	}
}

// Register adds a handler for eventTypes, or for every event when none are given
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		r.wildcard = append(r.wildcard, handler)
		return
	}
	for _, eventType := range eventTypes {
		r.handlers[eventType] = append(r.handlers[eventType], handler)
	}
}

// Unregister removes a handler from every event type
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = without(r.wildcard, handler)
	for eventType, handlers := range r.handlers {
		if remaining := without(handlers, handler); len(remaining) > 0 {
			r.handlers[eventType] = remaining
		} else {
			delete(r.handlers, eventType)
		}
	}
}

// GetHandlers returns type-specific handlers followed by wildcard handlers
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typed := r.handlers[eventType]
	out := make([]shared.EventHandler, 0, len(typed)+len(r.wildcard))
	out = append(out, typed...)
	return append(out, r.wildcard...)
}

func without(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := make([]shared.EventHandler, 0, len(handlers))
	for _, h := range handlers {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}
