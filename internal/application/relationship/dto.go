package relationship

import (
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/relationship"
)

// CreateRelationshipRequest links two entities
type CreateRelationshipRequest struct {
	FromEntityID     uuid.UUID      `json:"from_entity_id" binding:"required"`
	ToEntityID       uuid.UUID      `json:"to_entity_id" binding:"required"`
	RelationshipType string         `json:"relationship_type" binding:"required,min=1,max=100"`
	Data             map[string]any `json:"relationship_data"`
	SmartCode        string         `json:"smart_code" binding:"required,smartcode"`
}

// QueryRelationshipsRequest filters edges of one organization
type QueryRelationshipsRequest struct {
	FromEntityID     *uuid.UUID `json:"from_entity_id"`
	ToEntityID       *uuid.UUID `json:"to_entity_id"`
	RelationshipType string     `json:"relationship_type" form:"relationship_type" binding:"max=100"`
	ActiveOnly       bool       `json:"active_only" form:"active_only"`
	Limit            int        `json:"limit" form:"limit" binding:"min=0,max=1000"`
	Offset           int        `json:"offset" form:"offset" binding:"min=0"`
}

// RelationshipResponse represents an edge in API responses
type RelationshipResponse struct {
	ID               uuid.UUID      `json:"id"`
	OrganizationID   uuid.UUID      `json:"organization_id"`
	FromEntityID     uuid.UUID      `json:"from_entity_id"`
	ToEntityID       uuid.UUID      `json:"to_entity_id"`
	RelationshipType string         `json:"relationship_type"`
	Data             map[string]any `json:"relationship_data"`
	SmartCode        string         `json:"smart_code"`
	IsActive         bool           `json:"is_active"`
	Status           string         `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	CreatedBy        uuid.UUID      `json:"created_by"`
	UpdatedBy        uuid.UUID      `json:"updated_by"`
	Version          int            `json:"version"`
}

// DeleteRelationshipResponse tells the caller how connected the target still is
type DeleteRelationshipResponse struct {
	RelationshipID          uuid.UUID `json:"relationship_id"`
	Deleted                 bool      `json:"deleted"`
	TargetEntityID          uuid.UUID `json:"target_entity_id"`
	TargetActiveConnections int64     `json:"target_active_connections"`
}

// ToRelationshipResponse converts a domain Relationship to a response
func ToRelationshipResponse(r *relationship.Relationship) RelationshipResponse {
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	return RelationshipResponse{
		ID:               r.ID,
		OrganizationID:   r.OrganizationID(),
		FromEntityID:     r.FromEntityID,
		ToEntityID:       r.ToEntityID,
		RelationshipType: r.RelationshipType,
		Data:             data,
		SmartCode:        r.SmartCode,
		IsActive:         r.IsActive,
		Status:           string(r.Status),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		CreatedBy:        r.CreatedBy,
		UpdatedBy:        r.UpdatedBy,
		Version:          r.Version,
	}
}

// ToRelationshipResponses converts a slice of relationships
func ToRelationshipResponses(rels []relationship.Relationship) []RelationshipResponse {
	out := make([]RelationshipResponse, len(rels))
	for i := range rels {
		out[i] = ToRelationshipResponse(&rels[i])
	}
	return out
}
