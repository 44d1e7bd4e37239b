package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides identity plus actor stamping for every stored row
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy uuid.UUID
	UpdatedBy uuid.UUID
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// Touch records actor as the last writer.
func (e *BaseEntity) Touch(actor uuid.UUID) {
	e.UpdatedBy = actor
	e.UpdatedAt = time.Now()
}

// NewBaseEntity creates a new base entity with generated ID, stamped by actor
func NewBaseEntity(actor uuid.UUID) BaseEntity {
	return NewBaseEntityWithID(uuid.New(), actor)
}

// NewBaseEntityWithID is NewBaseEntity for a caller-chosen id.
func NewBaseEntityWithID(id, actor uuid.UUID) BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
}
