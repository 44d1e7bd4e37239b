package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/dynamicdata"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DynamicFieldModel stores one typed attribute. Exactly one value slot is set,
// selected by FieldType.
type DynamicFieldModel struct {
	OrganizationScopedModel
	EntityID          uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_core_dynamic_data_entity_field,priority:1"`
	FieldName         string                `gorm:"type:varchar(100);not null;uniqueIndex:idx_core_dynamic_data_entity_field,priority:2"`
	FieldType         dynamicdata.FieldType `gorm:"type:varchar(20);not null"`
	FieldValueText    *string               `gorm:"type:text"`
	FieldValueNumber  decimal.NullDecimal   `gorm:"type:numeric(20,6)"`
	FieldValueBoolean *bool
	FieldValueDate    *time.Time
	FieldValueJSON    datatypes.JSON `gorm:"column:field_value_json;type:jsonb"`
	SmartCode         string         `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (DynamicFieldModel) TableName() string {
	return "core_dynamic_data"
}

// ToDomain converts the persistence model to a domain Field
func (m *DynamicFieldModel) ToDomain() *dynamicdata.Field {
	return &dynamicdata.Field{
		OrganizationAggregateRoot: m.ToDomainRoot(),
		EntityID:                  m.EntityID,
		FieldName:                 m.FieldName,
		Value:                     m.value(),
		SmartCode:                 m.SmartCode,
	}
}

func (m *DynamicFieldModel) value() dynamicdata.Value {
	switch m.FieldType {
	case dynamicdata.FieldTypeNumber:
		return dynamicdata.NumberValue(m.FieldValueNumber.Decimal)
	case dynamicdata.FieldTypeBoolean:
		return dynamicdata.BooleanValue(m.FieldValueBoolean != nil && *m.FieldValueBoolean)
	case dynamicdata.FieldTypeDate:
		if m.FieldValueDate == nil {
			return dynamicdata.DateValue(time.Time{})
		}
		return dynamicdata.DateValue(m.FieldValueDate.UTC())
	case dynamicdata.FieldTypeJSON:
		return dynamicdata.JSONValue(json.RawMessage(m.FieldValueJSON))
	default:
		if m.FieldValueText == nil {
			return dynamicdata.TextValue("")
		}
		return dynamicdata.TextValue(*m.FieldValueText)
	}
}

// DynamicFieldModelFromDomain creates a persistence model from a domain Field
func DynamicFieldModelFromDomain(f *dynamicdata.Field) *DynamicFieldModel {
	m := &DynamicFieldModel{
		EntityID:  f.EntityID,
		FieldName: f.FieldName,
		FieldType: f.FieldType(),
		SmartCode: f.SmartCode,
	}
	m.FromDomainOrganizationRoot(f.OrganizationAggregateRoot)

	switch v := f.Value.(type) {
	case dynamicdata.TextValue:
		s := string(v)
		m.FieldValueText = &s
	case dynamicdata.NumberValue:
		m.FieldValueNumber = decimal.NullDecimal{Decimal: decimal.Decimal(v), Valid: true}
	case dynamicdata.BooleanValue:
		b := bool(v)
		m.FieldValueBoolean = &b
	case dynamicdata.DateValue:
		t := time.Time(v).UTC()
		m.FieldValueDate = &t
	case dynamicdata.JSONValue:
		m.FieldValueJSON = datatypes.JSON(v)
	}
	return m
}
