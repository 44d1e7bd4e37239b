package identity

import (
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// AggregateType for identity events
const AggregateType = "Identity"

// EventTypeUserOnboarded is published when a user is linked into an organization
const EventTypeUserOnboarded = "UserOnboarded"

// Smart codes stamped on identity rows
const (
	SmartCodeUser     = "HERA.PLATFORM.IDENTITY.USER.ENTITY.v1"
	SmartCodeRole     = "HERA.PLATFORM.IDENTITY.ROLE.ENTITY.v1"
	SmartCodeMemberOf = "HERA.PLATFORM.IDENTITY.REL.MEMBER_OF.v1"
	SmartCodeHasRole  = "HERA.PLATFORM.IDENTITY.REL.HAS_ROLE.v1"
	SmartCodeEmail    = "HERA.PLATFORM.IDENTITY.USER.FIELD.EMAIL.v1"
)

// UserOnboardedEvent links a user entity to an organization with a role
type UserOnboardedEvent struct {
	shared.BaseDomainEvent
	UserEntityID       uuid.UUID `json:"user_entity_id"`
	ExternalID         string    `json:"external_id"`
	Role               string    `json:"role"`
	RelationshipID     uuid.UUID `json:"relationship_id"`
	RoleRelationshipID uuid.UUID `json:"role_relationship_id"`
}

// NewUserOnboardedEvent creates a UserOnboarded event owned by the tenant organization
func NewUserOnboardedEvent(orgID, userEntityID uuid.UUID, externalID, role string, relID, roleRelID, actor uuid.UUID) *UserOnboardedEvent {
	return &UserOnboardedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeUserOnboarded, AggregateType, userEntityID, orgID, actor),
		UserEntityID:       userEntityID,
		ExternalID:         externalID,
		Role:               role,
		RelationshipID:     relID,
		RoleRelationshipID: roleRelID,
	}
}
