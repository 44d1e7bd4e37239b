package dynamicdata

import (
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/dynamicdata"
)

// FieldInput is one field to set on an entity
type FieldInput struct {
	FieldName string `json:"field_name" binding:"required,min=1,max=100"`
	FieldType string `json:"field_type" binding:"required,oneof=text number boolean date json"`
	Value     any    `json:"field_value"`
	SmartCode string `json:"smart_code" binding:"required,smartcode"`
}

// SetFieldsRequest sets several fields of one entity atomically
type SetFieldsRequest struct {
	Fields []FieldInput `json:"fields" binding:"required,min=1,max=200,dive"`
}

// DeleteFieldsRequest selects fields to delete
type DeleteFieldsRequest = dynamicdata.DeleteRequest

// BatchDeleteRequest deletes several selections independently
type BatchDeleteRequest struct {
	Items []dynamicdata.DeleteRequest `json:"items" binding:"required,min=1,max=500"`
}

// FieldResponse represents a dynamic field in API responses
type FieldResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	EntityID       uuid.UUID `json:"entity_id"`
	FieldName      string    `json:"field_name"`
	FieldType      string    `json:"field_type"`
	Value          any       `json:"field_value"`
	SmartCode      string    `json:"smart_code"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	CreatedBy      uuid.UUID `json:"created_by"`
	UpdatedBy      uuid.UUID `json:"updated_by"`
	Version        int       `json:"version"`
}

// ToFieldResponse converts a domain Field to a response
func ToFieldResponse(f *dynamicdata.Field) FieldResponse {
	return FieldResponse{
		ID:             f.ID,
		OrganizationID: f.OrganizationID(),
		EntityID:       f.EntityID,
		FieldName:      f.FieldName,
		FieldType:      string(f.FieldType()),
		Value:          f.Value.Interface(),
		SmartCode:      f.SmartCode,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
		CreatedBy:      f.CreatedBy,
		UpdatedBy:      f.UpdatedBy,
		Version:        f.Version,
	}
}

// ToFieldResponses converts a slice of fields
func ToFieldResponses(fields []dynamicdata.Field) []FieldResponse {
	out := make([]FieldResponse, len(fields))
	for i := range fields {
		out[i] = ToFieldResponse(&fields[i])
	}
	return out
}
