package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/dynamicdata"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/relationship"
)

// UpsertEntityRequest creates or updates one entity
type UpsertEntityRequest struct {
	EntityID       *uuid.UUID     `json:"entity_id"`
	EntityType     string         `json:"entity_type" binding:"required,min=1,max=100"`
	EntityName     string         `json:"entity_name" binding:"required,min=1,max=500"`
	EntityCode     *string        `json:"entity_code" binding:"omitempty,max=100"`
	SmartCode      string         `json:"smart_code" binding:"required,smartcode"`
	ParentEntityID *uuid.UUID     `json:"parent_entity_id"`
	Metadata       map[string]any `json:"metadata"`
	Status         string         `json:"status" binding:"omitempty,oneof=active archived"`
	// ClearEntityCode and ClearParentEntityID only apply to updates
	ClearEntityCode     bool `json:"clear_entity_code"`
	ClearParentEntityID bool `json:"clear_parent_entity_id"`
}

func (r UpsertEntityRequest) attributes() entity.Attributes {
	return entity.Attributes{
		EntityType:      r.EntityType,
		EntityName:      r.EntityName,
		EntityCode:      r.EntityCode,
		SmartCode:       r.SmartCode,
		ParentEntityID:  r.ParentEntityID,
		Metadata:        r.Metadata,
		ClearEntityCode: r.ClearEntityCode,
		ClearParent:     r.ClearParentEntityID,
	}
}

// ReadEntitiesRequest filters an entity read
type ReadEntitiesRequest struct {
	IDs                 []uuid.UUID `json:"ids"`
	EntityType          string      `json:"entity_type" form:"entity_type" binding:"max=100"`
	EntityCode          string      `json:"entity_code" form:"entity_code" binding:"max=100"`
	SmartCode           string      `json:"smart_code" form:"smart_code"`
	Status              string      `json:"status" form:"status" binding:"omitempty,oneof=active archived deleted"`
	ParentEntityID      *uuid.UUID  `json:"parent_entity_id"`
	Search              string      `json:"search" form:"search" binding:"max=200"`
	IncludeDeleted      bool        `json:"include_deleted" form:"include_deleted"`
	ExpandDynamic       bool        `json:"expand_dynamic" form:"expand_dynamic"`
	ExpandRelationships bool        `json:"expand_relationships" form:"expand_relationships"`
	Limit               int         `json:"limit" form:"limit" binding:"min=0,max=1000"`
	Offset              int         `json:"offset" form:"offset" binding:"min=0"`
	SortBy              string      `json:"sort_by" form:"sort_by"`
	SortOrder           string      `json:"sort_order" form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// DynamicFieldView is an expanded dynamic field
type DynamicFieldView struct {
	ID        uuid.UUID `json:"id"`
	FieldType string    `json:"field_type"`
	Value     any       `json:"value"`
	SmartCode string    `json:"smart_code"`
}

// RelationshipView is an expanded edge touching the entity
type RelationshipView struct {
	ID               uuid.UUID      `json:"id"`
	FromEntityID     uuid.UUID      `json:"from_entity_id"`
	ToEntityID       uuid.UUID      `json:"to_entity_id"`
	RelationshipType string         `json:"relationship_type"`
	Data             map[string]any `json:"relationship_data"`
	SmartCode        string         `json:"smart_code"`
	IsActive         bool           `json:"is_active"`
}

// EntityResponse represents an entity in API responses
type EntityResponse struct {
	ID             uuid.UUID                   `json:"id"`
	OrganizationID uuid.UUID                   `json:"organization_id"`
	EntityType     string                      `json:"entity_type"`
	EntityName     string                      `json:"entity_name"`
	EntityCode     *string                     `json:"entity_code"`
	SmartCode      string                      `json:"smart_code"`
	Status         string                      `json:"status"`
	ParentEntityID *uuid.UUID                  `json:"parent_entity_id"`
	Metadata       map[string]any              `json:"metadata"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
	CreatedBy      uuid.UUID                   `json:"created_by"`
	UpdatedBy      uuid.UUID                   `json:"updated_by"`
	Version        int                         `json:"version"`
	DynamicFields  map[string]DynamicFieldView `json:"dynamic_fields,omitempty"`
	Relationships  []RelationshipView          `json:"relationships,omitempty"`
}

// UpsertEntityResponse reports whether the upsert inserted a new row
type UpsertEntityResponse struct {
	EntityResponse
	Created bool `json:"created"`
}

// DeleteEntityResponse reports how an entity was removed
type DeleteEntityResponse struct {
	EntityID   uuid.UUID              `json:"entity_id"`
	Deleted    bool                   `json:"deleted"`
	Mode       string                 `json:"mode"`
	Forced     bool                   `json:"forced"`
	References entity.ReferenceCounts `json:"references"`
}

// ToEntityResponse converts a domain Entity to a response
func ToEntityResponse(e *entity.Entity) EntityResponse {
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return EntityResponse{
		ID:             e.ID,
		OrganizationID: e.OrganizationID(),
		EntityType:     e.EntityType,
		EntityName:     e.EntityName,
		EntityCode:     e.EntityCode,
		SmartCode:      e.SmartCode,
		Status:         string(e.Status),
		ParentEntityID: e.ParentEntityID,
		Metadata:       metadata,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		CreatedBy:      e.CreatedBy,
		UpdatedBy:      e.UpdatedBy,
		Version:        e.Version,
	}
}

func toDynamicFieldView(f *dynamicdata.Field) DynamicFieldView {
	return DynamicFieldView{
		ID:        f.ID,
		FieldType: string(f.FieldType()),
		Value:     f.Value.Interface(),
		SmartCode: f.SmartCode,
	}
}

func toRelationshipView(r *relationship.Relationship) RelationshipView {
	return RelationshipView{
		ID:               r.ID,
		FromEntityID:     r.FromEntityID,
		ToEntityID:       r.ToEntityID,
		RelationshipType: r.RelationshipType,
		Data:             r.Data,
		SmartCode:        r.SmartCode,
		IsActive:         r.IsActive,
	}
}
