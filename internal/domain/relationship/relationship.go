package relationship

import (
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/domain/smartcode"
)

// AggregateType for relationship events
const AggregateType = "Relationship"

// Identity relationship types walked by the role resolver
const (
	TypeMemberOf = "MEMBER_OF"
	TypeHasRole  = "HAS_ROLE"
)

// Status of an edge
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Relationship is a directed, typed edge between two entities
type Relationship struct {
	shared.OrganizationAggregateRoot
	FromEntityID     uuid.UUID
	ToEntityID       uuid.UUID
	RelationshipType string
	Data             map[string]any
	SmartCode        string
	IsActive         bool
	Status           Status
}

// NewRelationship creates an active edge. Endpoint organization checks are
// done by the caller through an EndpointRule.
func NewRelationship(orgID, from, to uuid.UUID, relType string, data map[string]any, smartCode string, actor uuid.UUID) (*Relationship, error) {
	relType = strings.TrimSpace(relType)
	if from == uuid.Nil || to == uuid.Nil {
		return nil, shared.NewValidationError("from_entity_id and to_entity_id are required")
	}
	if from == to {
		return nil, shared.NewValidationError("a relationship cannot connect an entity to itself")
	}
	if relType == "" {
		return nil, shared.NewValidationError("relationship_type is required")
	}
	if len(relType) > 100 {
		return nil, shared.NewValidationError("relationship_type cannot exceed 100 characters")
	}
	if err := smartcode.Validate(smartCode); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}

	r := &Relationship{
		OrganizationAggregateRoot: shared.NewOrganizationAggregateRoot(orgID, actor),
		FromEntityID:              from,
		ToEntityID:                to,
		RelationshipType:          relType,
		Data:                      data,
		SmartCode:                 smartCode,
		IsActive:                  true,
		Status:                    StatusActive,
	}
	r.AddDomainEvent(NewCreatedEvent(r, actor))
	return r, nil
}

// Deactivate keeps the edge but stops it from counting as live
func (r *Relationship) Deactivate(actor uuid.UUID) error {
	if !r.IsActive {
		return shared.NewDomainError(shared.CodeInvalidState, "relationship is already inactive")
	}
	r.IsActive = false
	r.Status = StatusInactive
	r.Touch(actor)
	r.IncrementVersion()
	r.AddDomainEvent(NewDeactivatedEvent(r, actor))
	return nil
}

// DataString reads a string value from the payload
func (r *Relationship) DataString(key string) string {
	if v, ok := r.Data[key].(string); ok {
		return v
	}
	return ""
}

// IsIdentityType reports whether relType is walked by identity resolution
func IsIdentityType(relType string) bool {
	return relType == TypeMemberOf || relType == TypeHasRole
}

// MergeData sets payload keys; a nil value removes the key
func (r *Relationship) MergeData(data map[string]any, actor uuid.UUID) {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	for k, v := range data {
		if v == nil {
			delete(r.Data, k)
			continue
		}
		r.Data[k] = v
	}
	r.Touch(actor)
	r.IncrementVersion()
}

// MarkDeleted records the delete event; the caller removes the row
func (r *Relationship) MarkDeleted(actor uuid.UUID) {
	r.AddDomainEvent(NewDeletedEvent(r, actor))
}

// NewEndpoint builds the rule view of an entity
func NewEndpoint(id, orgID uuid.UUID, entityType string) Endpoint {
	return Endpoint{ID: id, OrganizationID: orgID, EntityType: entityType}
}
