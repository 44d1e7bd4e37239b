package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/procedure"
	"github.com/heraerp/platform/internal/domain/dynamicdata"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/identity"
	"github.com/heraerp/platform/internal/domain/organization"
	"github.com/heraerp/platform/internal/domain/relationship"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MetadataDefaultOrganization is the user metadata key naming the preferred organization
const MetadataDefaultOrganization = "default_organization_id"

// OrgEntityProvisioner ensures an organization has its ORG entity
type OrgEntityProvisioner interface {
	organization.Guard
	EnsureOrgEntity(ctx context.Context, org *organization.Organization, actor uuid.UUID, rec *procedure.Recorder) (*entity.Entity, error)
}

// Service resolves external identities and onboards users into organizations
type Service struct {
	entityRepo    entity.Repository
	fieldRepo     dynamicdata.Repository
	relRepo       relationship.Repository
	orgRepo       organization.Repository
	orgs          OrgEntityProvisioner
	rule          relationship.IdentityEdgeRule
	runtime       *procedure.Runtime
	platformOrgID uuid.UUID
}

// NewService creates a new identity Service
func NewService(
	entityRepo entity.Repository,
	fieldRepo dynamicdata.Repository,
	relRepo relationship.Repository,
	orgRepo organization.Repository,
	orgs OrgEntityProvisioner,
	rule relationship.IdentityEdgeRule,
	runtime *procedure.Runtime,
) *Service {
	return &Service{
		entityRepo:    entityRepo,
		fieldRepo:     fieldRepo,
		relRepo:       relRepo,
		orgRepo:       orgRepo,
		orgs:          orgs,
		rule:          rule,
		runtime:       runtime,
		platformOrgID: rule.PlatformOrganizationID,
	}
}

// Introspect resolves the organizations and roles of the user provisioned for externalID
func (s *Service) Introspect(ctx context.Context, externalID string) (*IntrospectionResponse, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "token carries no subject")
	}

	var resp IntrospectionResponse
	call := procedure.Call{Name: "identity.introspect", OrganizationID: procedure.Org(s.platformOrgID)}
	err := s.runtime.Read(ctx, call, func(ctx context.Context) error {
		user, err := s.findUser(ctx, externalID)
		if err != nil {
			if shared.HasCode(err, shared.CodeNotFound) {
				return shared.NewDomainError(shared.CodeIdentityNotProvisioned, "no user is provisioned for this identity").
					WithDetails(map[string]any{"external_id": externalID})
			}
			return err
		}
		if user.Status == entity.StatusArchived {
			return shared.NewDomainError(shared.CodeIdentityNotProvisioned, "the user provisioned for this identity is archived").
				WithDetails(map[string]any{"external_id": externalID, "status": string(user.Status)})
		}
		snapshot, err := s.snapshot(ctx, user)
		if err != nil {
			return err
		}
		resp = IntrospectionResponse{ExternalID: externalID, Introspection: identity.Resolve(snapshot)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) findUser(ctx context.Context, externalID string) (*entity.Entity, error) {
	return s.entityRepo.FindByNaturalKey(ctx, s.platformOrgID, entity.TypeUser, externalID)
}

// snapshot loads every edge and organization resolution needs in one pass
func (s *Service) snapshot(ctx context.Context, user *entity.Entity) (identity.Snapshot, error) {
	snap := identity.Snapshot{
		UserEntityID:            user.ID,
		PreferredOrganizationID: preferredOrganization(user.Metadata),
		Organizations:           map[uuid.UUID]identity.OrganizationInfo{},
	}

	edges, err := s.relRepo.FindActiveFrom(ctx, user.ID, relationship.TypeMemberOf, relationship.TypeHasRole)
	if err != nil {
		return snap, err
	}

	orgIDs := make([]uuid.UUID, 0, len(edges))
	seen := make(map[uuid.UUID]struct{})
	for i := range edges {
		edge := &edges[i]
		orgID := edge.OrganizationID()
		if _, ok := seen[orgID]; !ok {
			seen[orgID] = struct{}{}
			orgIDs = append(orgIDs, orgID)
		}

		switch edge.RelationshipType {
		case relationship.TypeMemberOf:
			snap.Memberships = append(snap.Memberships, identity.Membership{
				OrganizationID: orgID,
				RelationshipID: edge.ID,
				Role:           edge.DataString("role"),
			})
		case relationship.TypeHasRole:
			role, err := s.grantedRole(ctx, edge)
			if err != nil {
				return snap, err
			}
			snap.Roles = append(snap.Roles, identity.RoleGrant{OrganizationID: orgID, Role: role})
		}
	}
	if len(orgIDs) == 0 {
		return snap, nil
	}

	orgs, err := s.orgRepo.FindByIDs(ctx, orgIDs)
	if err != nil {
		return snap, err
	}
	for i := range orgs {
		o := &orgs[i]
		snap.Organizations[o.ID] = identity.OrganizationInfo{
			ID:       o.ID,
			Code:     o.Code,
			Name:     o.Name,
			IsActive: o.IsActive(),
			Apps:     o.Apps(),
		}
	}
	return snap, nil
}

// grantedRole reads the role off the edge payload, falling back to the ROLE entity code
func (s *Service) grantedRole(ctx context.Context, edge *relationship.Relationship) (string, error) {
	if role := edge.DataString("role"); role != "" {
		return role, nil
	}
	roleEntity, err := s.entityRepo.FindByID(ctx, edge.OrganizationID(), edge.ToEntityID)
	if err != nil {
		if shared.HasCode(err, shared.CodeNotFound) {
			return "", nil
		}
		return "", err
	}
	if roleEntity.IsDeleted() {
		return "", nil
	}
	return roleEntity.Code(), nil
}

func preferredOrganization(metadata map[string]any) *uuid.UUID {
	raw, ok := metadata[MetadataDefaultOrganization].(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// OnboardUser provisions the user, role and membership rows for one
// organization in a single unit of work. Re-onboarding reuses what exists.
func (s *Service) OnboardUser(ctx context.Context, req OnboardUserRequest, actor uuid.UUID) (*OnboardUserResponse, error) {
	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		return nil, shared.NewValidationError("external_id is required")
	}
	role := identity.NormalizeRole(req.Role)
	if !identity.IsKnownRole(role) {
		return nil, shared.NewValidationError("unknown role: " + req.Role).
			WithDetails(map[string]any{"role": req.Role})
	}
	if req.OrganizationID == uuid.Nil || req.OrganizationID == s.platformOrgID {
		return nil, shared.NewValidationError("organization_id must name a tenant organization")
	}
	orgID := req.OrganizationID

	var resp OnboardUserResponse
	call := procedure.Call{
		Name:           "identity.onboard",
		OrganizationID: procedure.Org(orgID),
		ActorID:        procedure.Actor(actor),
		Attributes:     []any{telemetry.SpanAttrRelationshipType, relationship.TypeMemberOf},
	}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.orgs.RequireActive(ctx, orgID); err != nil {
			return err
		}
		org, err := s.orgRepo.FindByID(ctx, orgID)
		if err != nil {
			return err
		}

		user, err := s.ensureUser(ctx, externalID, req, orgID, actor, rec)
		if err != nil {
			return err
		}
		if err := s.ensureEmail(ctx, user, req.Email, actor); err != nil {
			return err
		}
		orgEntity, err := s.orgs.EnsureOrgEntity(ctx, org, actor, rec)
		if err != nil {
			return err
		}
		roleEntity, err := s.ensureRoleEntity(ctx, orgID, role, actor, rec)
		if err != nil {
			return err
		}

		membership, err := s.ensureEdge(ctx, orgID, user, orgEntity, relationship.TypeMemberOf, identity.SmartCodeMemberOf, role, actor, rec)
		if err != nil {
			return err
		}
		grant, err := s.ensureEdge(ctx, orgID, user, roleEntity, relationship.TypeHasRole, identity.SmartCodeHasRole, role, actor, rec)
		if err != nil {
			return err
		}
		if err := s.revokeOtherRoles(ctx, orgID, user.ID, grant.ID, actor, rec); err != nil {
			return err
		}

		rec.RecordEvent(identity.NewUserOnboardedEvent(orgID, user.ID, externalID, role, membership.ID, grant.ID, actor))
		resp = OnboardUserResponse{
			UserEntityID:       user.ID,
			RelationshipID:     membership.ID,
			RoleRelationshipID: grant.ID,
			OrganizationID:     orgID,
			Role:               role,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("user onboarded",
		zap.String("user_entity_id", resp.UserEntityID.String()),
		zap.String("organization_id", orgID.String()),
		zap.String("role", role))
	return &resp, nil
}

// ensureUser finds or creates the platform USER entity for externalID.
// A new user gets orgID as its default organization.
func (s *Service) ensureUser(ctx context.Context, externalID string, req OnboardUserRequest, orgID, actor uuid.UUID, rec *procedure.Recorder) (*entity.Entity, error) {
	user, err := s.findUser(ctx, externalID)
	if err == nil {
		if user.Status == entity.StatusArchived {
			if err := user.Recover(actor); err != nil {
				return nil, err
			}
			if err := s.entityRepo.Save(ctx, user); err != nil {
				return nil, err
			}
			rec.Record(user)
		}
		return user, nil
	}
	if !shared.HasCode(err, shared.CodeNotFound) {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(req.Email)
	}
	if name == "" {
		name = externalID
	}
	code := externalID
	user, err = entity.NewEntity(s.platformOrgID, uuid.Nil, entity.Attributes{
		EntityType: entity.TypeUser,
		EntityName: name,
		EntityCode: &code,
		SmartCode:  identity.SmartCodeUser,
		Metadata:   map[string]any{MetadataDefaultOrganization: orgID.String()},
	}, actor)
	if err != nil {
		return nil, err
	}
	if err := s.entityRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	rec.Record(user)
	return user, nil
}

func (s *Service) ensureEmail(ctx context.Context, user *entity.Entity, email string, actor uuid.UUID) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	value := dynamicdata.TextValue(email)
	field, err := s.fieldRepo.FindByName(ctx, s.platformOrgID, user.ID, "email")
	switch {
	case err == nil:
		if err := field.Set(value, identity.SmartCodeEmail, actor); err != nil {
			return err
		}
	case shared.HasCode(err, shared.CodeNotFound):
		field, err = dynamicdata.NewField(s.platformOrgID, user.ID, "email", value, identity.SmartCodeEmail, actor)
		if err != nil {
			return err
		}
	default:
		return err
	}
	return s.fieldRepo.Save(ctx, field)
}

func (s *Service) ensureRoleEntity(ctx context.Context, orgID uuid.UUID, role string, actor uuid.UUID, rec *procedure.Recorder) (*entity.Entity, error) {
	code := identity.RoleEntityCode(role)
	existing, err := s.entityRepo.FindByNaturalKey(ctx, orgID, entity.TypeRole, code)
	if err == nil {
		return existing, nil
	}
	if !shared.HasCode(err, shared.CodeNotFound) {
		return nil, err
	}
	created, err := entity.NewEntity(orgID, uuid.Nil, entity.Attributes{
		EntityType: entity.TypeRole,
		EntityName: strings.ToUpper(role[:1]) + role[1:],
		EntityCode: &code,
		SmartCode:  identity.SmartCodeRole,
		Metadata:   map[string]any{"role": role},
	}, actor)
	if err != nil {
		return nil, err
	}
	if err := s.entityRepo.Save(ctx, created); err != nil {
		return nil, err
	}
	rec.Record(created)
	return created, nil
}

// revokeOtherRoles deactivates every active HAS_ROLE edge of user in orgID
// except keep, so onboarding sets the role rather than adding to it
func (s *Service) revokeOtherRoles(ctx context.Context, orgID, userID, keep, actor uuid.UUID, rec *procedure.Recorder) error {
	edges, _, err := s.relRepo.Find(ctx, orgID, relationship.Filter{
		FromEntityID:     &userID,
		RelationshipType: relationship.TypeHasRole,
		ActiveOnly:       true,
		Page:             shared.Page{Limit: shared.MaxLimit},
	})
	if err != nil {
		return err
	}
	for i := range edges {
		edge := &edges[i]
		if edge.ID == keep {
			continue
		}
		if err := edge.Deactivate(actor); err != nil {
			return err
		}
		if err := s.relRepo.Save(ctx, edge); err != nil {
			return err
		}
		rec.Record(edge)
	}
	return nil
}

// ensureEdge reuses the active edge between user and target, refreshing its role payload
func (s *Service) ensureEdge(ctx context.Context, orgID uuid.UUID, user, target *entity.Entity, relType, smartCode, role string, actor uuid.UUID, rec *procedure.Recorder) (*relationship.Relationship, error) {
	existing, err := s.relRepo.FindActiveEdge(ctx, orgID, user.ID, target.ID, relType)
	if err == nil {
		if existing.DataString("role") != role {
			existing.MergeData(map[string]any{"role": role}, actor)
			if err := s.relRepo.Save(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}
	if !shared.HasCode(err, shared.CodeNotFound) {
		return nil, err
	}

	edge, err := relationship.NewRelationship(orgID, user.ID, target.ID, relType, map[string]any{"role": role}, smartCode, actor)
	if err != nil {
		return nil, err
	}
	from := relationship.NewEndpoint(user.ID, user.OrganizationID(), user.EntityType)
	to := relationship.NewEndpoint(target.ID, target.OrganizationID(), target.EntityType)
	if err := s.rule.Check(orgID, relType, from, to); err != nil {
		return nil, err
	}
	if err := s.relRepo.Save(ctx, edge); err != nil {
		return nil, err
	}
	rec.Record(edge)
	return edge, nil
}
