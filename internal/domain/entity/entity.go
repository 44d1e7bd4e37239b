package entity

import (
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/domain/smartcode"
	"golang.org/x/text/unicode/norm"
)

// AggregateType for entity events
const AggregateType = "Entity"

// Well-known entity types
const (
	TypeUser         = "USER"
	TypeOrganization = "ORG"
	TypeRole         = "ROLE"
	TypeCustomer     = "CUSTOMER"
	TypeStaff        = "STAFF"
	TypeProduct      = "PRODUCT"
	TypeService      = "SERVICE"
	TypeBranch       = "BRANCH"
)

// Entity is a polymorphic business object typed by a free-text tag
type Entity struct {
	shared.OrganizationAggregateRoot
	EntityType     string
	EntityName     string
	EntityCode     *string
	SmartCode      string
	Status         Status
	ParentEntityID *uuid.UUID
	Metadata       map[string]any
}

// Attributes are the caller-controlled fields of an entity
type Attributes struct {
	EntityType     string
	EntityName     string
	EntityCode     *string
	SmartCode      string
	ParentEntityID *uuid.UUID
	Metadata       map[string]any
	// ClearEntityCode and ClearParent remove the stored value on update.
	// A nil EntityCode or ParentEntityID alone leaves it untouched.
	ClearEntityCode bool
	ClearParent     bool
}

// normalize trims and NFC-normalizes names and codes so that composed and
// decomposed spellings of one code hit the same uniqueness key.
func (a *Attributes) normalize() error {
	a.EntityType = strings.ToUpper(strings.TrimSpace(a.EntityType))
	a.EntityName = norm.NFC.String(strings.TrimSpace(a.EntityName))
	if a.EntityCode != nil {
		code := norm.NFC.String(strings.TrimSpace(*a.EntityCode))
		if code == "" {
			a.EntityCode = nil
		} else {
			a.EntityCode = &code
		}
	}

	if a.EntityType == "" {
		return shared.NewValidationError("entity_type is required")
	}
	if len(a.EntityType) > 100 {
		return shared.NewValidationError("entity_type cannot exceed 100 characters")
	}
	if a.EntityName == "" {
		return shared.NewValidationError("entity_name is required")
	}
	if len(a.EntityName) > 500 {
		return shared.NewValidationError("entity_name cannot exceed 500 characters")
	}
	if a.EntityCode != nil && len(*a.EntityCode) > 100 {
		return shared.NewValidationError("entity_code cannot exceed 100 characters")
	}
	return smartcode.Validate(a.SmartCode)
}

// NewEntity creates a new active entity. A nil id generates one.
func NewEntity(orgID, id uuid.UUID, attrs Attributes, actor uuid.UUID) (*Entity, error) {
	if err := attrs.normalize(); err != nil {
		return nil, err
	}
	if attrs.Metadata == nil {
		attrs.Metadata = map[string]any{}
	}

	root := shared.NewOrganizationAggregateRoot(orgID, actor)
	if id != uuid.Nil {
		root.ID = id
	}

	e := &Entity{
		OrganizationAggregateRoot: root,
		EntityType:                attrs.EntityType,
		EntityName:                attrs.EntityName,
		EntityCode:                attrs.EntityCode,
		SmartCode:                 attrs.SmartCode,
		Status:                    StatusActive,
		ParentEntityID:            attrs.ParentEntityID,
		Metadata:                  attrs.Metadata,
	}
	if e.ParentEntityID != nil && *e.ParentEntityID == e.ID {
		return nil, shared.NewValidationError("an entity cannot be its own parent")
	}
	e.AddDomainEvent(NewUpsertedEvent(e, true, actor))
	return e, nil
}

// Update replaces the caller-controlled attributes. Organization and id never change.
// Code, parent and metadata are kept when omitted; an empty code or the
// Clear flags remove them.
func (e *Entity) Update(attrs Attributes, actor uuid.UUID) error {
	codeGiven := attrs.EntityCode != nil
	if err := attrs.normalize(); err != nil {
		return err
	}
	if attrs.ParentEntityID != nil && *attrs.ParentEntityID == e.ID {
		return shared.NewValidationError("an entity cannot be its own parent")
	}
	if attrs.ClearParent && attrs.ParentEntityID != nil {
		return shared.NewValidationError("parent_entity_id and clear_parent_entity_id are mutually exclusive")
	}
	if attrs.ClearEntityCode && attrs.EntityCode != nil {
		return shared.NewValidationError("entity_code and clear_entity_code are mutually exclusive")
	}

	e.EntityType = attrs.EntityType
	e.EntityName = attrs.EntityName
	e.SmartCode = attrs.SmartCode
	switch {
	case attrs.ClearEntityCode:
		e.EntityCode = nil
	case codeGiven:
		e.EntityCode = attrs.EntityCode
	}
	switch {
	case attrs.ClearParent:
		e.ParentEntityID = nil
	case attrs.ParentEntityID != nil:
		e.ParentEntityID = attrs.ParentEntityID
	}
	if attrs.Metadata != nil {
		e.Metadata = attrs.Metadata
	}
	e.Touch(actor)
	e.IncrementVersion()
	e.AddDomainEvent(NewUpsertedEvent(e, false, actor))
	return nil
}

// Code returns the entity code or empty string
func (e *Entity) Code() string {
	if e.EntityCode == nil {
		return ""
	}
	return *e.EntityCode
}

// IsDeleted reports whether the entity is soft-deleted
func (e *Entity) IsDeleted() bool {
	return e.Status == StatusDeleted
}

// Archive marks the entity archived. References do not block archiving.
func (e *Entity) Archive(actor uuid.UUID) error {
	if err := e.transition(StatusArchived, actor); err != nil {
		return err
	}
	e.AddDomainEvent(NewArchivedEvent(e, actor))
	return nil
}

// SoftDelete marks the entity deleted; it stays recoverable.
func (e *Entity) SoftDelete(actor uuid.UUID) error {
	if err := e.transition(StatusDeleted, actor); err != nil {
		return err
	}
	e.AddDomainEvent(NewDeletedEvent(e, DeleteModeSoft, actor))
	return nil
}

// MarkPurged records the hard-delete event; the caller removes the row.
func (e *Entity) MarkPurged(actor uuid.UUID) {
	e.AddDomainEvent(NewDeletedEvent(e, DeleteModeHard, actor))
}

// Recover returns an archived or deleted entity to active.
func (e *Entity) Recover(actor uuid.UUID) error {
	if !e.Status.IsRecoverable() {
		return shared.NewDomainErrorf(shared.CodeNotDeleted, "entity %s is %s, not deleted or archived", e.ID, e.Status).
			WithDetails(map[string]any{"entity_id": e.ID.String(), "status": string(e.Status)})
	}
	previous := e.Status
	if err := e.transition(StatusActive, actor); err != nil {
		return err
	}
	e.AddDomainEvent(NewRecoveredEvent(e, previous, actor))
	return nil
}

// SetStatus applies a caller-requested status through the state machine.
// Deletion must go through the delete procedure.
func (e *Entity) SetStatus(status Status, actor uuid.UUID) error {
	if status == "" || status == e.Status {
		return nil
	}
	switch status {
	case StatusArchived:
		return e.Archive(actor)
	case StatusActive:
		return e.Recover(actor)
	case StatusDeleted:
		return shared.NewValidationError("status 'deleted' can only be set by the delete procedure")
	default:
		return shared.NewValidationError("invalid status: " + string(status))
	}
}

func (e *Entity) transition(target Status, actor uuid.UUID) error {
	if !e.Status.CanTransitionTo(target) {
		return shared.NewDomainErrorf(shared.CodeInvalidState, "cannot change entity status from %s to %s", e.Status, target)
	}
	e.Status = target
	e.Touch(actor)
	e.IncrementVersion()
	return nil
}
