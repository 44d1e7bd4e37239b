package dynamicdata

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fieldSmartCode = "HERA.SALON.CUSTOMER.DYN.EMAIL.v1"

func TestParseValue(t *testing.T) {
	v, err := ParseValue(FieldTypeText, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, TextValue("jane@example.com"), v)

	v, err = ParseValue(FieldTypeNumber, 12.5)
	require.NoError(t, err)
	assert.True(t, decimal.Decimal(v.(NumberValue)).Equal(decimal.RequireFromString("12.5")))

	v, err = ParseValue(FieldTypeNumber, "305.25")
	require.NoError(t, err)
	assert.Equal(t, "305.25", decimal.Decimal(v.(NumberValue)).String())

	v, err = ParseValue(FieldTypeBoolean, "true")
	require.NoError(t, err)
	assert.Equal(t, BooleanValue(true), v)

	v, err = ParseValue(FieldTypeDate, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Time(v.(DateValue)))

	v, err = ParseValue(FieldTypeJSON, map[string]any{"a": 1.0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(v.(JSONValue)))

	v, err = ParseValue(FieldTypeJSON, json.RawMessage(`[1,2]`))
	require.NoError(t, err)
	assert.Equal(t, FieldTypeJSON, v.Type())
}

func TestParseValue_Mismatch(t *testing.T) {
	tests := []struct {
		name string
		ft   FieldType
		raw  any
	}{
		{"text from number", FieldTypeText, 1.0},
		{"number from word", FieldTypeNumber, "abc"},
		{"boolean from number", FieldTypeBoolean, 1.0},
		{"date from garbage", FieldTypeDate, "yesterday"},
		{"invalid raw json", FieldTypeJSON, json.RawMessage(`{`)},
		{"nil", FieldTypeText, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseValue(tt.ft, tt.raw)
			assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
		})
	}
}

func TestParseFieldType(t *testing.T) {
	ft, err := ParseFieldType(" Number ")
	require.NoError(t, err)
	assert.Equal(t, FieldTypeNumber, ft)

	_, err = ParseFieldType("blob")
	assert.Error(t, err)
}

func TestField_TypedAccessors(t *testing.T) {
	f, err := NewField(uuid.New(), uuid.New(), "email", TextValue("a@b.c"), fieldSmartCode, uuid.New())
	require.NoError(t, err)

	s, ok := f.Text()
	assert.True(t, ok)
	assert.Equal(t, "a@b.c", s)
	_, ok = f.Number()
	assert.False(t, ok)
	assert.Equal(t, FieldTypeText, f.FieldType())

	require.NoError(t, f.Set(NumberValue(decimal.NewFromInt(7)), fieldSmartCode, uuid.New()))
	n, ok := f.Number()
	assert.True(t, ok)
	assert.True(t, n.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, 2, f.GetVersion())
}

func TestNewField_Validation(t *testing.T) {
	_, err := NewField(uuid.New(), uuid.New(), " ", TextValue("x"), fieldSmartCode, uuid.New())
	assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))

	_, err = NewField(uuid.New(), uuid.New(), "email", TextValue("x"), "bad", uuid.New())
	assert.True(t, shared.HasCode(err, shared.CodeInvalidSmartCode))

	_, err = NewField(uuid.New(), uuid.Nil, "email", TextValue("x"), fieldSmartCode, uuid.New())
	assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
}

func TestDeleteRequest_Mode(t *testing.T) {
	id, entity := uuid.New(), uuid.New()

	mode, err := DeleteRequest{FieldID: &id}.Mode()
	require.NoError(t, err)
	assert.Equal(t, DeleteByID, mode)

	mode, err = DeleteRequest{EntityID: &entity, FieldName: "email"}.Mode()
	require.NoError(t, err)
	assert.Equal(t, DeleteByName, mode)

	mode, err = DeleteRequest{EntityID: &entity, DeleteAll: true}.Mode()
	require.NoError(t, err)
	assert.Equal(t, DeleteAllForEntity, mode)

	for _, bad := range []DeleteRequest{
		{},
		{FieldID: &id, EntityID: &entity},
		{EntityID: &entity},
		{EntityID: &entity, FieldName: "email", DeleteAll: true},
		{FieldName: "email"},
	} {
		_, err := bad.Mode()
		assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
	}
}

func TestBatchDeleteResult(t *testing.T) {
	var b BatchDeleteResult
	b.Add(ItemOutcome{Index: 0, Success: true, Result: &DeleteResult{DeletedCount: 2}})
	assert.True(t, b.Success)

	b.Add(ItemOutcome{Index: 1, Success: false, Error: shared.ErrNotFound})
	assert.False(t, b.Success)
	assert.True(t, b.IsPartial())
	assert.Equal(t, 2, b.Total)
	assert.Equal(t, 1, b.Succeeded)
	assert.Equal(t, 1, b.Failed)
	assert.Equal(t, 2, b.DeletedCount)
}
