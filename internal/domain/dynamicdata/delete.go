package dynamicdata

import (
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// DeleteRequest selects fields to delete. Exactly one mode must be used:
// FieldID, (EntityID, FieldName) or (EntityID, DeleteAll).
type DeleteRequest struct {
	FieldID   *uuid.UUID `json:"field_id,omitempty"`
	EntityID  *uuid.UUID `json:"entity_id,omitempty"`
	FieldName string     `json:"field_name,omitempty"`
	DeleteAll bool       `json:"delete_all_fields,omitempty"`
}

// DeleteMode says which selector a request uses
type DeleteMode int

const (
	DeleteByID DeleteMode = iota + 1
	DeleteByName
	DeleteAllForEntity
)

// Mode validates the request shape and returns its selector
func (r DeleteRequest) Mode() (DeleteMode, error) {
	hasID := r.FieldID != nil && *r.FieldID != uuid.Nil
	hasEntity := r.EntityID != nil && *r.EntityID != uuid.Nil
	hasName := r.FieldName != ""

	switch {
	case hasID && !hasEntity && !hasName && !r.DeleteAll:
		return DeleteByID, nil
	case !hasID && hasEntity && hasName && !r.DeleteAll:
		return DeleteByName, nil
	case !hasID && hasEntity && !hasName && r.DeleteAll:
		return DeleteAllForEntity, nil
	}
	return 0, shared.NewValidationError(
		"specify exactly one of field_id, entity_id with field_name, or entity_id with delete_all_fields")
}

// DeletedField identifies a removed field for audit
type DeletedField struct {
	ID        uuid.UUID `json:"id"`
	EntityID  uuid.UUID `json:"entity_id"`
	FieldName string    `json:"field_name"`
	FieldType FieldType `json:"field_type"`
}

// DeleteResult reports everything a delete removed
type DeleteResult struct {
	DeletedCount int            `json:"deleted_count"`
	Deleted      []DeletedField `json:"deleted_data"`
}

// NewDeleteResult builds a result from removed fields
func NewDeleteResult(fields []Field) DeleteResult {
	out := DeleteResult{Deleted: make([]DeletedField, 0, len(fields))}
	for i := range fields {
		f := &fields[i]
		out.Deleted = append(out.Deleted, DeletedField{
			ID:        f.ID,
			EntityID:  f.EntityID,
			FieldName: f.FieldName,
			FieldType: f.FieldType(),
		})
	}
	out.DeletedCount = len(out.Deleted)
	return out
}

// ItemOutcome is the result of one item in a batch delete
type ItemOutcome struct {
	Index   int                 `json:"index"`
	Request DeleteRequest       `json:"request"`
	Success bool                `json:"success"`
	Result  *DeleteResult       `json:"result,omitempty"`
	Error   *shared.DomainError `json:"error,omitempty"`
}

// BatchDeleteResult is a multi-status summary of a batch delete
type BatchDeleteResult struct {
	Success      bool          `json:"success"`
	Total        int           `json:"total"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	DeletedCount int           `json:"deleted_count"`
	Items        []ItemOutcome `json:"items"`
}

// Add records one outcome and updates the summary
func (b *BatchDeleteResult) Add(o ItemOutcome) {
	b.Items = append(b.Items, o)
	b.Total++
	if o.Success {
		b.Succeeded++
		if o.Result != nil {
			b.DeletedCount += o.Result.DeletedCount
		}
	} else {
		b.Failed++
	}
	b.Success = b.Failed == 0
}

// IsPartial reports a mix of successes and failures
func (b *BatchDeleteResult) IsPartial() bool {
	return b.Failed > 0 && b.Succeeded > 0
}
