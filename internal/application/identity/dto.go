package identity

import (
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/identity"
)

// OnboardUserRequest links an external identity into an organization
type OnboardUserRequest struct {
	ExternalID     string    `json:"external_id" binding:"required,max=100"`
	OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
	Role           string    `json:"role" binding:"required,max=50"`
	Email          string    `json:"email" binding:"omitempty,email,max=255"`
	Name           string    `json:"name" binding:"max=500"`
}

// OnboardUserResponse names every row onboarding touched
type OnboardUserResponse struct {
	UserEntityID       uuid.UUID `json:"user_entity_id"`
	RelationshipID     uuid.UUID `json:"relationship_id"`
	RoleRelationshipID uuid.UUID `json:"role_relationship_id"`
	OrganizationID     uuid.UUID `json:"organization_id"`
	Role               string    `json:"role"`
}

// IntrospectionResponse is the resolved identity of a caller
type IntrospectionResponse struct {
	ExternalID string `json:"external_id"`
	identity.Introspection
}
