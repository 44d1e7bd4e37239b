package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/dynamicdata"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customerSmartCode = "HERA.SALON.CUSTOMER.ENTITY.PROFILE.v1"

func strPtr(s string) *string { return &s }

func newCustomer(t *testing.T) *Entity {
	t.Helper()
	e, err := NewEntity(uuid.New(), uuid.Nil, Attributes{
		EntityType: "customer",
		EntityName: " Jane ",
		EntityCode: strPtr("C-001"),
		SmartCode:  customerSmartCode,
	}, uuid.New())
	require.NoError(t, err)
	return e
}

func TestNewEntity(t *testing.T) {
	org, actor, id := uuid.New(), uuid.New(), uuid.New()
	e, err := NewEntity(org, id, Attributes{
		EntityType: "customer",
		EntityName: " Jane ",
		EntityCode: strPtr(" C-001 "),
		SmartCode:  customerSmartCode,
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, id, e.ID)
	assert.Equal(t, org, e.OrganizationID())
	assert.Equal(t, "CUSTOMER", e.EntityType)
	assert.Equal(t, "Jane", e.EntityName)
	assert.Equal(t, "C-001", e.Code())
	assert.Equal(t, StatusActive, e.Status)
	assert.Equal(t, actor, e.CreatedBy)
	assert.Equal(t, actor, e.UpdatedBy)
	assert.NotNil(t, e.Metadata)
	require.Len(t, e.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeUpserted, e.GetDomainEvents()[0].EventType())
}

func TestNewEntity_BlankCodeIsNil(t *testing.T) {
	e, err := NewEntity(uuid.New(), uuid.Nil, Attributes{
		EntityType: "NOTE", EntityName: "n", EntityCode: strPtr("  "), SmartCode: customerSmartCode,
	}, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, e.EntityCode)
	assert.NotEqual(t, uuid.Nil, e.ID)
}

func TestNewEntity_NormalizesUnicode(t *testing.T) {
	// "e" followed by a combining acute accent
	decomposed := "Cafe\u0301"
	e, err := NewEntity(uuid.New(), uuid.Nil, Attributes{
		EntityType: "BRANCH", EntityName: decomposed, EntityCode: strPtr("CAFE\u0301-1"), SmartCode: customerSmartCode,
	}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9", e.EntityName)
	assert.Equal(t, "CAF\u00c9-1", e.Code())
}

func TestNewEntity_Validation(t *testing.T) {
	org := uuid.New()
	tests := []struct {
		name  string
		attrs Attributes
		code  string
	}{
		{"missing type", Attributes{EntityName: "x", SmartCode: customerSmartCode}, shared.CodeValidationFailure},
		{"missing name", Attributes{EntityType: "X", SmartCode: customerSmartCode}, shared.CodeValidationFailure},
		{"bad smart code", Attributes{EntityType: "X", EntityName: "x", SmartCode: "HERA.X"}, shared.CodeInvalidSmartCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEntity(org, uuid.Nil, tt.attrs, uuid.New())
			assert.True(t, shared.HasCode(err, tt.code), "got %v", err)
		})
	}

	id := uuid.New()
	_, err := NewEntity(org, id, Attributes{EntityType: "X", EntityName: "x", SmartCode: customerSmartCode, ParentEntityID: &id}, uuid.New())
	assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
}

func TestEntity_UpdateKeepsOrganization(t *testing.T) {
	e := newCustomer(t)
	org := e.OrganizationID()
	editor := uuid.New()

	err := e.Update(Attributes{
		EntityType: "CUSTOMER",
		EntityName: "Jane Doe",
		EntityCode: strPtr("C-001"),
		SmartCode:  customerSmartCode,
	}, editor)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", e.EntityName)
	assert.Equal(t, org, e.OrganizationID())
	assert.Equal(t, editor, e.UpdatedBy)
	assert.Equal(t, 2, e.GetVersion())
	assert.NotNil(t, e.Metadata, "nil metadata keeps the existing document")
}

func TestEntity_UpdateKeepsOmittedCodeAndParent(t *testing.T) {
	e := newCustomer(t)
	parent := uuid.New()
	e.ParentEntityID = &parent

	require.NoError(t, e.Update(Attributes{EntityType: "CUSTOMER", EntityName: "Jane Doe", SmartCode: customerSmartCode}, uuid.New()))
	require.NotNil(t, e.EntityCode)
	assert.Equal(t, "C-001", *e.EntityCode)
	require.NotNil(t, e.ParentEntityID)
	assert.Equal(t, parent, *e.ParentEntityID)

	t.Run("clear flags remove both", func(t *testing.T) {
		require.NoError(t, e.Update(Attributes{
			EntityType: "CUSTOMER", EntityName: "Jane Doe", SmartCode: customerSmartCode,
			ClearEntityCode: true, ClearParent: true,
		}, uuid.New()))
		assert.Nil(t, e.EntityCode)
		assert.Nil(t, e.ParentEntityID)
	})

	t.Run("empty code clears it", func(t *testing.T) {
		f := newCustomer(t)
		require.NoError(t, f.Update(Attributes{EntityType: "CUSTOMER", EntityName: "Jane", EntityCode: strPtr("  "), SmartCode: customerSmartCode}, uuid.New()))
		assert.Nil(t, f.EntityCode)
	})

	t.Run("clear with a value is rejected", func(t *testing.T) {
		f := newCustomer(t)
		err := f.Update(Attributes{
			EntityType: "CUSTOMER", EntityName: "Jane", EntityCode: strPtr("C-009"), SmartCode: customerSmartCode,
			ClearEntityCode: true,
		}, uuid.New())
		assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
		assert.Equal(t, "C-001", f.Code())
	})
}

func TestEntity_Lifecycle(t *testing.T) {
	actor := uuid.New()

	t.Run("archive then recover", func(t *testing.T) {
		e := newCustomer(t)
		require.NoError(t, e.Archive(actor))
		assert.Equal(t, StatusArchived, e.Status)
		require.NoError(t, e.Recover(actor))
		assert.Equal(t, StatusActive, e.Status)
	})

	t.Run("soft delete then recover", func(t *testing.T) {
		e := newCustomer(t)
		require.NoError(t, e.SoftDelete(actor))
		assert.True(t, e.IsDeleted())
		require.NoError(t, e.Recover(actor))
		assert.Equal(t, StatusActive, e.Status)
	})

	t.Run("recover active fails with NotDeleted", func(t *testing.T) {
		e := newCustomer(t)
		err := e.Recover(actor)
		assert.True(t, shared.HasCode(err, shared.CodeNotDeleted))
	})

	t.Run("archive deleted fails", func(t *testing.T) {
		e := newCustomer(t)
		require.NoError(t, e.SoftDelete(actor))
		err := e.Archive(actor)
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))
	})

	t.Run("set status deleted is rejected", func(t *testing.T) {
		e := newCustomer(t)
		err := e.SetStatus(StatusDeleted, actor)
		assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
		assert.NoError(t, e.SetStatus(StatusActive, actor))
		assert.NoError(t, e.SetStatus(StatusArchived, actor))
		assert.Equal(t, StatusArchived, e.Status)
	})
}

func TestStatus_Transitions(t *testing.T) {
	assert.True(t, StatusActive.CanTransitionTo(StatusArchived))
	assert.True(t, StatusArchived.CanTransitionTo(StatusDeleted))
	assert.True(t, StatusDeleted.CanTransitionTo(StatusActive))
	assert.False(t, StatusDeleted.CanTransitionTo(StatusArchived))
	assert.False(t, Status("purged").IsValid())
}

func TestDeletePolicy_Decide(t *testing.T) {
	id := uuid.New()
	refs := ReferenceCounts{TransactionLines: 3}

	mode, err := DefaultDeletePolicy().Decide(id, ReferenceCounts{}, false)
	require.NoError(t, err)
	assert.Equal(t, DeleteModeSoft, mode)

	mode, err = DeletePolicy{Mode: DeleteModeHard}.Decide(id, ReferenceCounts{}, false)
	require.NoError(t, err)
	assert.Equal(t, DeleteModeHard, mode)

	_, err = DefaultDeletePolicy().Decide(id, refs, false)
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, shared.CodeBlockedByReferences, de.Code)
	blocked := de.Details["blocked_by"].(map[string]any)
	assert.EqualValues(t, 3, blocked["transaction_lines"])

	mode, err = DeletePolicy{Mode: DeleteModeHard, AllowForce: true}.Decide(id, refs, true)
	require.NoError(t, err)
	assert.Equal(t, DeleteModeSoft, mode, "forced deletes never purge")

	_, err = DeletePolicy{Mode: DeleteModeSoft, AllowForce: false}.Decide(id, refs, true)
	assert.True(t, shared.HasCode(err, shared.CodeBlockedByReferences))
}

func TestTypeRegistry_CheckField(t *testing.T) {
	r := DefaultTypeRegistry()

	assert.NoError(t, r.CheckField("CUSTOMER", "email", dynamicdata.FieldTypeText))
	assert.NoError(t, r.CheckField("customer", "favourite_color", dynamicdata.FieldTypeText))
	assert.NoError(t, r.CheckField("UNREGISTERED", "email", dynamicdata.FieldTypeNumber))

	err := r.CheckField("CUSTOMER", "loyalty_points", dynamicdata.FieldTypeText)
	assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))

	r.Register(TypeSchema{EntityType: "vehicle", Fields: map[string]dynamicdata.FieldType{"vin": dynamicdata.FieldTypeText}})
	assert.Contains(t, r.Types(), "VEHICLE")
	assert.Error(t, r.CheckField("VEHICLE", "vin", dynamicdata.FieldTypeJSON))
}
