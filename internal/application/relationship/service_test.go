package relationship

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/apptest"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/relationship"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	referralSmartCode = "HERA.SALON.CUSTOMER.REL.REFERRAL.v1"
	memberSmartCode   = "HERA.UNIVERSAL.REL.MEMBER_OF.v1"
)

type fixture struct {
	*apptest.Harness
	svc   *Service
	orgID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := apptest.New(t)
	rule := relationship.IdentityEdgeRule{PlatformOrganizationID: h.PlatformOrg, UserEntityType: entity.TypeUser}
	return &fixture{
		Harness: h,
		svc:     NewService(h.RelRepo, h.EntityRepo, h.Organizations, rule, h.Runtime),
		orgID:   h.CreateOrg(t, "Hair Talkz", "HAIRTALKZ"),
	}
}

func (f *fixture) entity(t *testing.T, orgID uuid.UUID, entityType, name string) uuid.UUID {
	t.Helper()
	e, err := entity.NewEntity(orgID, uuid.Nil, entity.Attributes{
		EntityType: entityType, EntityName: name, SmartCode: "HERA.SALON.CUSTOMER.ENTITY.PERSON.v1",
	}, apptest.Actor)
	require.NoError(t, err)
	require.NoError(t, f.EntityRepo.Save(context.Background(), e))
	return e.ID
}

func (f *fixture) link(t *testing.T, from, to uuid.UUID, relType string) *RelationshipResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.orgID, CreateRelationshipRequest{
		FromEntityID: from, ToEntityID: to, RelationshipType: relType, SmartCode: referralSmartCode,
	}, apptest.Actor)
	require.NoError(t, err)
	return resp
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("same organization", func(t *testing.T) {
		f := newFixture(t)
		a := f.entity(t, f.orgID, "CUSTOMER", "A")
		b := f.entity(t, f.orgID, "CUSTOMER", "B")

		resp, err := f.svc.Create(ctx, f.orgID, CreateRelationshipRequest{
			FromEntityID: a, ToEntityID: b, RelationshipType: "REFERRED",
			Data: map[string]any{"channel": "walk-in"}, SmartCode: referralSmartCode,
		}, apptest.Actor)
		require.NoError(t, err)
		assert.Equal(t, f.orgID, resp.OrganizationID)
		assert.True(t, resp.IsActive)
		assert.Equal(t, "walk-in", resp.Data["channel"])
		assert.Equal(t, []string{relationship.EventTypeCreated}, f.Events.Types())
	})

	t.Run("duplicate active edge", func(t *testing.T) {
		f := newFixture(t)
		a := f.entity(t, f.orgID, "CUSTOMER", "A")
		b := f.entity(t, f.orgID, "CUSTOMER", "B")
		f.link(t, a, b, "REFERRED")

		_, err := f.svc.Create(ctx, f.orgID, CreateRelationshipRequest{
			FromEntityID: a, ToEntityID: b, RelationshipType: "REFERRED", SmartCode: referralSmartCode,
		}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeDuplicateKey))
	})

	t.Run("self loop", func(t *testing.T) {
		f := newFixture(t)
		a := f.entity(t, f.orgID, "CUSTOMER", "A")
		_, err := f.svc.Create(ctx, f.orgID, CreateRelationshipRequest{
			FromEntityID: a, ToEntityID: a, RelationshipType: "REFERRED", SmartCode: referralSmartCode,
		}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
	})

	t.Run("tenant entities never cross", func(t *testing.T) {
		f := newFixture(t)
		other := f.CreateOrg(t, "Apple Bakery", "BAKERY")
		a := f.entity(t, f.orgID, "CUSTOMER", "A")
		foreign := f.entity(t, other, "CUSTOMER", "B")

		_, err := f.svc.Create(ctx, f.orgID, CreateRelationshipRequest{
			FromEntityID: a, ToEntityID: foreign, RelationshipType: "REFERRED", SmartCode: referralSmartCode,
		}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeCrossOrgViolation))
	})

	t.Run("platform users join tenants through identity edges only", func(t *testing.T) {
		f := newFixture(t)
		user := f.entity(t, f.PlatformOrg, entity.TypeUser, "jane@example.com")
		orgEntity := f.entity(t, f.orgID, entity.TypeOrganization, "Hair Talkz")

		resp, err := f.svc.Create(ctx, f.orgID, CreateRelationshipRequest{
			FromEntityID: user, ToEntityID: orgEntity, RelationshipType: relationship.TypeMemberOf,
			Data: map[string]any{"role": "owner"}, SmartCode: memberSmartCode,
		}, apptest.Actor)
		require.NoError(t, err)
		assert.Equal(t, f.orgID, resp.OrganizationID)

		_, err = f.svc.Create(ctx, f.orgID, CreateRelationshipRequest{
			FromEntityID: user, ToEntityID: orgEntity, RelationshipType: "LIKES", SmartCode: referralSmartCode,
		}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeCrossOrgViolation))
	})

	t.Run("platform entities other than users stay home", func(t *testing.T) {
		f := newFixture(t)
		robot := f.entity(t, f.PlatformOrg, "SERVICE_ACCOUNT", "robot")
		orgEntity := f.entity(t, f.orgID, entity.TypeOrganization, "Hair Talkz")

		_, err := f.svc.Create(ctx, f.orgID, CreateRelationshipRequest{
			FromEntityID: robot, ToEntityID: orgEntity, RelationshipType: relationship.TypeMemberOf, SmartCode: memberSmartCode,
		}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeCrossOrgViolation))
	})

	t.Run("unknown endpoint", func(t *testing.T) {
		f := newFixture(t)
		a := f.entity(t, f.orgID, "CUSTOMER", "A")
		_, err := f.svc.Create(ctx, f.orgID, CreateRelationshipRequest{
			FromEntityID: a, ToEntityID: uuid.New(), RelationshipType: "REFERRED", SmartCode: referralSmartCode,
		}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeNotFound))
	})
}

func TestService_QueryDeactivateDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stylist := f.entity(t, f.orgID, "STAFF", "Stylist")
	a := f.entity(t, f.orgID, "CUSTOMER", "A")
	b := f.entity(t, f.orgID, "CUSTOMER", "B")
	c := f.entity(t, f.orgID, "CUSTOMER", "C")

	ab := f.link(t, a, stylist, "SERVED_BY")
	f.link(t, b, stylist, "SERVED_BY")
	cs := f.link(t, c, stylist, "SERVED_BY")

	t.Run("query by target", func(t *testing.T) {
		list, err := f.svc.Query(ctx, f.orgID, QueryRelationshipsRequest{ToEntityID: &stylist, ActiveOnly: true})
		require.NoError(t, err)
		assert.Equal(t, int64(3), list.Total)
	})

	t.Run("deactivate keeps the row", func(t *testing.T) {
		resp, err := f.svc.Deactivate(ctx, f.orgID, cs.ID, apptest.Actor)
		require.NoError(t, err)
		assert.False(t, resp.IsActive)
		assert.Equal(t, "inactive", resp.Status)

		_, err = f.svc.Deactivate(ctx, f.orgID, cs.ID, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))

		list, err := f.svc.Query(ctx, f.orgID, QueryRelationshipsRequest{ToEntityID: &stylist, ActiveOnly: true})
		require.NoError(t, err)
		assert.Equal(t, int64(2), list.Total)
	})

	t.Run("delete reports what still touches the target", func(t *testing.T) {
		resp, err := f.svc.Delete(ctx, f.orgID, ab.ID, apptest.Actor)
		require.NoError(t, err)
		assert.True(t, resp.Deleted)
		assert.Equal(t, stylist, resp.TargetEntityID)
		assert.Equal(t, int64(1), resp.TargetActiveConnections)

		_, err = f.svc.Get(ctx, f.orgID, ab.ID)
		assert.True(t, shared.HasCode(err, shared.CodeNotFound))

		_, err = f.EntityRepo.FindByID(ctx, f.orgID, stylist)
		assert.NoError(t, err, "target entity is untouched")
	})

	t.Run("other organizations cannot see the edges", func(t *testing.T) {
		other := f.CreateOrg(t, "Apple Bakery", "BAKERY")
		_, err := f.svc.Delete(ctx, other, cs.ID, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeNotFound))
	})
}
