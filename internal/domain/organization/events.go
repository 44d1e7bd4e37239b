package organization

import (
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// EventTypeCreated is published when a tenant is provisioned
const EventTypeCreated = "OrganizationCreated"

// CreatedEvent records tenant provisioning
type CreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewCreatedEvent creates an OrganizationCreated event
func NewCreatedEvent(o *Organization, actor uuid.UUID) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreated, AggregateType, o.ID, o.ID, actor),
		Code:            o.Code,
		Name:            o.Name,
	}
}
