package dynamicdata

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/domain/smartcode"
	"github.com/shopspring/decimal"
)

// Field is one typed attribute attached to exactly one entity
type Field struct {
	shared.OrganizationAggregateRoot
	EntityID  uuid.UUID
	FieldName string
	Value     Value
	SmartCode string
}

// NewField creates a field owned by entityID. orgID must be the owning entity's organization.
func NewField(orgID, entityID uuid.UUID, fieldName string, value Value, smartCode string, actor uuid.UUID) (*Field, error) {
	fieldName = strings.TrimSpace(fieldName)
	if err := validateField(fieldName, value, smartCode); err != nil {
		return nil, err
	}
	if entityID == uuid.Nil {
		return nil, shared.NewValidationError("entity_id is required")
	}
	return &Field{
		OrganizationAggregateRoot: shared.NewOrganizationAggregateRoot(orgID, actor),
		EntityID:                  entityID,
		FieldName:                 fieldName,
		Value:                     value,
		SmartCode:                 smartCode,
	}, nil
}

// Set replaces the value and smart code of an existing field
func (f *Field) Set(value Value, smartCode string, actor uuid.UUID) error {
	if err := validateField(f.FieldName, value, smartCode); err != nil {
		return err
	}
	f.Value = value
	f.SmartCode = smartCode
	f.Touch(actor)
	f.IncrementVersion()
	return nil
}

func validateField(name string, value Value, smartCode string) error {
	if name == "" {
		return shared.NewValidationError("field_name is required")
	}
	if len(name) > 100 {
		return shared.NewValidationError("field_name cannot exceed 100 characters")
	}
	if value == nil {
		return shared.NewValidationError("field_value is required")
	}
	return smartcode.Validate(smartCode)
}

// FieldType returns the declared kind of the stored value
func (f *Field) FieldType() FieldType {
	if f.Value == nil {
		return ""
	}
	return f.Value.Type()
}

// Text returns the value if the field is a text field
func (f *Field) Text() (string, bool) {
	v, ok := f.Value.(TextValue)
	return string(v), ok
}

// Number returns the value if the field is a number field
func (f *Field) Number() (decimal.Decimal, bool) {
	v, ok := f.Value.(NumberValue)
	return decimal.Decimal(v), ok
}

// Boolean returns the value if the field is a boolean field
func (f *Field) Boolean() (bool, bool) {
	v, ok := f.Value.(BooleanValue)
	return bool(v), ok
}

// Date returns the value if the field is a date field
func (f *Field) Date() (time.Time, bool) {
	v, ok := f.Value.(DateValue)
	return time.Time(v), ok
}

// JSON returns the value if the field is a json field
func (f *Field) JSON() (json.RawMessage, bool) {
	v, ok := f.Value.(JSONValue)
	return json.RawMessage(v), ok
}
