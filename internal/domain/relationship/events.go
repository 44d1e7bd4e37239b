package relationship

import (
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// Event types
const (
	EventTypeCreated     = "RelationshipCreated"
	EventTypeDeactivated = "RelationshipDeactivated"
	EventTypeDeleted     = "RelationshipDeleted"
)

// Event carries the edge shape for every relationship event
type Event struct {
	shared.BaseDomainEvent
	FromEntityID     uuid.UUID `json:"from_entity_id"`
	ToEntityID       uuid.UUID `json:"to_entity_id"`
	RelationshipType string    `json:"relationship_type"`
}

func newEvent(eventType string, r *Relationship, actor uuid.UUID) *Event {
	return &Event{
		BaseDomainEvent:  shared.NewBaseDomainEvent(eventType, AggregateType, r.ID, r.OrganizationID(), actor),
		FromEntityID:     r.FromEntityID,
		ToEntityID:       r.ToEntityID,
		RelationshipType: r.RelationshipType,
	}
}

// NewCreatedEvent creates a RelationshipCreated event
func NewCreatedEvent(r *Relationship, actor uuid.UUID) *Event {
	return newEvent(EventTypeCreated, r, actor)
}

// NewDeactivatedEvent creates a RelationshipDeactivated event
func NewDeactivatedEvent(r *Relationship, actor uuid.UUID) *Event {
	return newEvent(EventTypeDeactivated, r, actor)
}

// NewDeletedEvent creates a RelationshipDeleted event
func NewDeletedEvent(r *Relationship, actor uuid.UUID) *Event {
	return newEvent(EventTypeDeleted, r, actor)
}
