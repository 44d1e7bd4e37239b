package dynamicdata

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/apptest"
	entityapp "github.com/heraerp/platform/internal/application/entity"
	"github.com/heraerp/platform/internal/domain/dynamicdata"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	emailSmartCode  = "HERA.SALON.CUSTOMER.FIELD.EMAIL.v1"
	pointsSmartCode = "HERA.SALON.CUSTOMER.FIELD.LOYALTY.v1"
)

type fixture struct {
	*apptest.Harness
	svc      *Service
	entities *entityapp.Service
	orgID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := apptest.New(t)
	return &fixture{
		Harness: h,
		svc:     NewService(h.FieldRepo, h.EntityRepo, entity.DefaultTypeRegistry(), h.Organizations, h.Runtime),
		entities: entityapp.NewService(h.EntityRepo, h.FieldRepo, h.RelRepo, h.RefCounter, h.Organizations, h.Runtime,
			entityapp.Config{DeletePolicy: entity.DefaultDeletePolicy(), PlatformOrganizationID: h.PlatformOrg}),
		orgID: h.CreateOrg(t, "Hair Talkz", "HAIRTALKZ"),
	}
}

func (f *fixture) customer(t *testing.T, orgID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	resp, err := f.entities.Upsert(context.Background(), orgID, entityapp.UpsertEntityRequest{
		EntityType: "CUSTOMER", EntityName: name, SmartCode: "HERA.SALON.CUSTOMER.ENTITY.PERSON.v1",
	}, apptest.Actor)
	require.NoError(t, err)
	return resp.ID
}

func email(v string) FieldInput {
	return FieldInput{FieldName: "email", FieldType: "text", Value: v, SmartCode: emailSmartCode}
}

func TestService_Set(t *testing.T) {
	ctx := context.Background()

	t.Run("setting twice keeps one row with the latest value", func(t *testing.T) {
		f := newFixture(t)
		jane := f.customer(t, f.orgID, "Jane")

		first, err := f.svc.Set(ctx, f.orgID, jane, email("old@example.com"), apptest.Actor)
		require.NoError(t, err)
		second, err := f.svc.Set(ctx, f.orgID, jane, email("new@example.com"), apptest.Actor)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		fields, err := f.svc.Get(ctx, f.orgID, jane, "")
		require.NoError(t, err)
		require.Len(t, fields, 1)
		assert.Equal(t, "new@example.com", fields[0].Value)
		assert.Equal(t, f.orgID, fields[0].OrganizationID)
	})

	t.Run("typed values", func(t *testing.T) {
		f := newFixture(t)
		jane := f.customer(t, f.orgID, "Jane")

		out, err := f.svc.SetMany(ctx, f.orgID, jane, []FieldInput{
			{FieldName: "loyalty_points", FieldType: "number", Value: "120.50", SmartCode: pointsSmartCode},
			{FieldName: "vip", FieldType: "boolean", Value: true, SmartCode: "HERA.SALON.CUSTOMER.FIELD.VIP.v1"},
			{FieldName: "birthday", FieldType: "date", Value: "1990-04-01", SmartCode: "HERA.SALON.CUSTOMER.FIELD.BIRTHDAY.v1"},
			{FieldName: "preferences", FieldType: "json", Value: map[string]any{"color": "red"}, SmartCode: "HERA.SALON.CUSTOMER.FIELD.PREFS.v1"},
		}, apptest.Actor)
		require.NoError(t, err)
		require.Len(t, out, 4)

		points, err := f.FieldRepo.FindByName(ctx, f.orgID, jane, "loyalty_points")
		require.NoError(t, err)
		n, ok := points.Number()
		require.True(t, ok)
		assert.True(t, n.Equal(decimal.RequireFromString("120.5")))
	})

	t.Run("registry rejects a declared field of the wrong type", func(t *testing.T) {
		f := newFixture(t)
		jane := f.customer(t, f.orgID, "Jane")
		_, err := f.svc.Set(ctx, f.orgID, jane, FieldInput{
			FieldName: "loyalty_points", FieldType: "text", Value: "lots", SmartCode: pointsSmartCode,
		}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
	})

	t.Run("value must match the declared type", func(t *testing.T) {
		f := newFixture(t)
		jane := f.customer(t, f.orgID, "Jane")
		_, err := f.svc.Set(ctx, f.orgID, jane, FieldInput{
			FieldName: "loyalty_points", FieldType: "number", Value: "many", SmartCode: pointsSmartCode,
		}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
	})

	t.Run("invalid smart code", func(t *testing.T) {
		f := newFixture(t)
		jane := f.customer(t, f.orgID, "Jane")
		in := email("jane@example.com")
		in.SmartCode = "HERA.EMAIL"
		_, err := f.svc.Set(ctx, f.orgID, jane, in, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeInvalidSmartCode))
	})

	t.Run("entity of another organization", func(t *testing.T) {
		f := newFixture(t)
		other := f.CreateOrg(t, "Apple Bakery", "BAKERY")
		bob := f.customer(t, other, "Bob")

		_, err := f.svc.Set(ctx, f.orgID, bob, email("bob@example.com"), apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeCrossOrgViolation))
	})

	t.Run("deleted entity", func(t *testing.T) {
		f := newFixture(t)
		jane := f.customer(t, f.orgID, "Jane")
		_, err := f.entities.Delete(ctx, f.orgID, jane, false, apptest.Actor)
		require.NoError(t, err)

		_, err = f.svc.Set(ctx, f.orgID, jane, email("jane@example.com"), apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))
	})

	t.Run("one bad field rolls back the whole set", func(t *testing.T) {
		f := newFixture(t)
		jane := f.customer(t, f.orgID, "Jane")
		_, err := f.svc.SetMany(ctx, f.orgID, jane, []FieldInput{
			email("jane@example.com"),
			{FieldName: "loyalty_points", FieldType: "text", Value: "x", SmartCode: pointsSmartCode},
		}, apptest.Actor)
		require.Error(t, err)

		fields, err := f.svc.Get(ctx, f.orgID, jane, "")
		require.NoError(t, err)
		assert.Empty(t, fields)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, uuid.UUID, []FieldResponse) {
		f := newFixture(t)
		jane := f.customer(t, f.orgID, "Jane")
		out, err := f.svc.SetMany(ctx, f.orgID, jane, []FieldInput{
			email("jane@example.com"),
			{FieldName: "phone", FieldType: "text", Value: "555-0100", SmartCode: "HERA.SALON.CUSTOMER.FIELD.PHONE.v1"},
			{FieldName: "vip", FieldType: "boolean", Value: false, SmartCode: "HERA.SALON.CUSTOMER.FIELD.VIP.v1"},
		}, apptest.Actor)
		require.NoError(t, err)
		return f, jane, out
	}

	t.Run("by id", func(t *testing.T) {
		f, _, fields := setup(t)
		res, err := f.svc.Delete(ctx, f.orgID, dynamicdata.DeleteRequest{FieldID: &fields[0].ID}, apptest.Actor)
		require.NoError(t, err)
		assert.Equal(t, 1, res.DeletedCount)
		assert.Equal(t, "email", res.Deleted[0].FieldName)
		assert.Equal(t, dynamicdata.FieldTypeText, res.Deleted[0].FieldType)
	})

	t.Run("by name", func(t *testing.T) {
		f, jane, _ := setup(t)
		res, err := f.svc.Delete(ctx, f.orgID, dynamicdata.DeleteRequest{EntityID: &jane, FieldName: "phone"}, apptest.Actor)
		require.NoError(t, err)
		assert.Equal(t, 1, res.DeletedCount)

		_, err = f.svc.Delete(ctx, f.orgID, dynamicdata.DeleteRequest{EntityID: &jane, FieldName: "phone"}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeNotFound))
	})

	t.Run("all fields of an entity", func(t *testing.T) {
		f, jane, _ := setup(t)
		res, err := f.svc.Delete(ctx, f.orgID, dynamicdata.DeleteRequest{EntityID: &jane, DeleteAll: true}, apptest.Actor)
		require.NoError(t, err)
		assert.Equal(t, 3, res.DeletedCount)

		remaining, err := f.svc.Get(ctx, f.orgID, jane, "")
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("ambiguous selector", func(t *testing.T) {
		f, jane, fields := setup(t)
		_, err := f.svc.Delete(ctx, f.orgID, dynamicdata.DeleteRequest{FieldID: &fields[0].ID, EntityID: &jane}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
	})

	t.Run("field of another organization is invisible", func(t *testing.T) {
		f, _, fields := setup(t)
		other := f.CreateOrg(t, "Apple Bakery", "BAKERY")
		_, err := f.svc.Delete(ctx, other, dynamicdata.DeleteRequest{FieldID: &fields[0].ID}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeNotFound))
	})

	t.Run("batch reports per item outcomes", func(t *testing.T) {
		f, jane, fields := setup(t)
		missing := uuid.New()
		batch := f.svc.BatchDelete(ctx, f.orgID, BatchDeleteRequest{Items: []dynamicdata.DeleteRequest{
			{FieldID: &fields[0].ID},
			{FieldID: &missing},
			{EntityID: &jane, FieldName: "phone"},
		}}, apptest.Actor)

		assert.False(t, batch.Success)
		assert.True(t, batch.IsPartial())
		assert.Equal(t, 3, batch.Total)
		assert.Equal(t, 2, batch.Succeeded)
		assert.Equal(t, 1, batch.Failed)
		assert.Equal(t, 2, batch.DeletedCount)
		require.NotNil(t, batch.Items[1].Error)
		assert.Equal(t, shared.CodeNotFound, batch.Items[1].Error.Code)

		remaining, err := f.svc.Get(ctx, f.orgID, jane, "")
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "vip", remaining[0].FieldName)
	})
}
