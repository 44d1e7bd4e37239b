package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot(actor uuid.UUID) BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(actor),
		Version:    1,
	}
}

// OrganizationAggregateRoot is an aggregate root partitioned by organization.
// The organization is fixed at construction and has no setter.
type OrganizationAggregateRoot struct {
	BaseAggregateRoot
	organizationID uuid.UUID
}

// NewOrganizationAggregateRoot creates a new organization-scoped aggregate root
func NewOrganizationAggregateRoot(orgID, actor uuid.UUID) OrganizationAggregateRoot {
	return OrganizationAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(actor),
		organizationID:    orgID,
	}
}

// RestoreOrganizationAggregateRoot rebuilds the root from persisted state.
func RestoreOrganizationAggregateRoot(base BaseEntity, orgID uuid.UUID, version int) OrganizationAggregateRoot {
	return OrganizationAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{BaseEntity: base, Version: version},
		organizationID:    orgID,
	}
}

// OrganizationID returns the owning organization
func (a *OrganizationAggregateRoot) OrganizationID() uuid.UUID {
	return a.organizationID
}
