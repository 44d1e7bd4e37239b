package entity

import (
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// Event types
const (
	EventTypeUpserted  = "EntityUpserted"
	EventTypeArchived  = "EntityArchived"
	EventTypeDeleted   = "EntityDeleted"
	EventTypeRecovered = "EntityRecovered"
)

// UpsertedEvent is published after an entity is created or updated
type UpsertedEvent struct {
	shared.BaseDomainEvent
	EntityType string `json:"entity_type"`
	EntityCode string `json:"entity_code,omitempty"`
	Created    bool   `json:"created"`
}

// NewUpsertedEvent creates an EntityUpserted event
func NewUpsertedEvent(e *Entity, created bool, actor uuid.UUID) *UpsertedEvent {
	return &UpsertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUpserted, AggregateType, e.ID, e.OrganizationID(), actor),
		EntityType:      e.EntityType,
		EntityCode:      e.Code(),
		Created:         created,
	}
}

// ArchivedEvent is published when an entity is archived
type ArchivedEvent struct {
	shared.BaseDomainEvent
	EntityType string `json:"entity_type"`
}

// NewArchivedEvent creates an EntityArchived event
func NewArchivedEvent(e *Entity, actor uuid.UUID) *ArchivedEvent {
	return &ArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeArchived, AggregateType, e.ID, e.OrganizationID(), actor),
		EntityType:      e.EntityType,
	}
}

// DeletedEvent is published when an entity is soft or hard deleted
type DeletedEvent struct {
	shared.BaseDomainEvent
	EntityType string     `json:"entity_type"`
	Mode       DeleteMode `json:"mode"`
}

// NewDeletedEvent creates an EntityDeleted event
func NewDeletedEvent(e *Entity, mode DeleteMode, actor uuid.UUID) *DeletedEvent {
	return &DeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeleted, AggregateType, e.ID, e.OrganizationID(), actor),
		EntityType:      e.EntityType,
		Mode:            mode,
	}
}

// RecoveredEvent is published when a deleted or archived entity is recovered
type RecoveredEvent struct {
	shared.BaseDomainEvent
	PreviousStatus Status `json:"previous_status"`
}

// NewRecoveredEvent creates an EntityRecovered event
func NewRecoveredEvent(e *Entity, previous Status, actor uuid.UUID) *RecoveredEvent {
	return &RecoveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecovered, AggregateType, e.ID, e.OrganizationID(), actor),
		PreviousStatus:  previous,
	}
}
