package dynamicdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FieldType is the declared kind of a dynamic field value
type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
	FieldTypeJSON    FieldType = "json"
)

// IsValid checks if the field type is valid
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeBoolean, FieldTypeDate, FieldTypeJSON:
		return true
	}
	return false
}

// ParseFieldType normalizes and validates a field type name
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewValidationError("field_type must be one of text, number, boolean, date, json")
	}
	return t, nil
}

// Value is one of TextValue, NumberValue, BooleanValue, DateValue or JSONValue
type Value interface {
	Type() FieldType
	// Interface returns the plain Go value for rendering
	Interface() any
	isValue()
}

// TextValue holds a text field
type TextValue string

// NumberValue holds an exact decimal number field
type NumberValue decimal.Decimal

// BooleanValue holds a boolean field
type BooleanValue bool

// DateValue holds a timestamp field
type DateValue time.Time

// JSONValue holds a raw JSON document field
type JSONValue json.RawMessage

func (TextValue) Type() FieldType    { return FieldTypeText }
func (NumberValue) Type() FieldType  { return FieldTypeNumber }
func (BooleanValue) Type() FieldType { return FieldTypeBoolean }
func (DateValue) Type() FieldType    { return FieldTypeDate }
func (JSONValue) Type() FieldType    { return FieldTypeJSON }

func (v TextValue) Interface() any    { return string(v) }
func (v NumberValue) Interface() any  { return decimal.Decimal(v) }
func (v BooleanValue) Interface() any { return bool(v) }
func (v DateValue) Interface() any    { return time.Time(v) }
func (v JSONValue) Interface() any    { return json.RawMessage(v) }

func (TextValue) isValue()    {}
func (NumberValue) isValue()  {}
func (BooleanValue) isValue() {}
func (DateValue) isValue()    {}
func (JSONValue) isValue()    {}

// dateLayouts are accepted for date fields, most specific first
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseValue converts a decoded JSON value into the Value for fieldType.
// Numbers may arrive as JSON numbers or numeric strings; dates as RFC 3339
// or YYYY-MM-DD strings; booleans as JSON booleans or "true"/"false".
func ParseValue(fieldType FieldType, raw any) (Value, error) {
	if raw == nil {
		return nil, shared.NewValidationError("field_value is required")
	}

	switch fieldType {
	case FieldTypeText:
		s, ok := raw.(string)
		if !ok {
			return nil, typeMismatch(fieldType, raw)
		}
		return TextValue(s), nil

	case FieldTypeNumber:
		d, err := toDecimal(raw)
		if err != nil {
			return nil, typeMismatch(fieldType, raw)
		}
		return NumberValue(d), nil

	case FieldTypeBoolean:
		switch v := raw.(type) {
		case bool:
			return BooleanValue(v), nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, typeMismatch(fieldType, raw)
			}
			return BooleanValue(b), nil
		}
		return nil, typeMismatch(fieldType, raw)

	case FieldTypeDate:
		switch v := raw.(type) {
		case time.Time:
			return DateValue(v.UTC()), nil
		case string:
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, v); err == nil {
					return DateValue(t.UTC()), nil
				}
			}
		}
		return nil, typeMismatch(fieldType, raw)

	case FieldTypeJSON:
		if b, ok := raw.(json.RawMessage); ok {
			if !json.Valid(b) {
				return nil, typeMismatch(fieldType, raw)
			}
			return JSONValue(bytes.Clone(b)), nil
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, typeMismatch(fieldType, raw)
		}
		return JSONValue(b), nil
	}

	return nil, shared.NewValidationError("unsupported field_type: " + string(fieldType))
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	}
	return decimal.Decimal{}, fmt.Errorf("not a number: %T", raw)
}

func typeMismatch(fieldType FieldType, raw any) *shared.DomainError {
	return shared.NewDomainErrorf(shared.CodeValidationFailure, "value %v is not a valid %s", raw, fieldType).
		WithDetails(map[string]any{"field_type": string(fieldType)})
}
