package organization

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/procedure"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/organization"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Service provisions tenants and guards writes into them
type Service struct {
	orgRepo       organization.Repository
	entityRepo    entity.Repository
	runtime       *procedure.Runtime
	platformOrgID uuid.UUID
}

// NewService creates a new organization Service
func NewService(
	orgRepo organization.Repository,
	entityRepo entity.Repository,
	runtime *procedure.Runtime,
	platformOrgID uuid.UUID,
) *Service {
	return &Service{
		orgRepo:       orgRepo,
		entityRepo:    entityRepo,
		runtime:       runtime,
		platformOrgID: platformOrgID,
	}
}

// PlatformOrganizationID returns the reserved identity organization
func (s *Service) PlatformOrganizationID() uuid.UUID {
	return s.platformOrgID
}

// RequireActive fails unless orgID names an active organization.
// The platform organization is always writable.
func (s *Service) RequireActive(ctx context.Context, orgID uuid.UUID) error {
	if orgID == s.platformOrgID {
		return nil
	}
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return err
	}
	if !org.IsActive() {
		return shared.NewDomainErrorf(shared.CodeOrganizationInactive, "organization %s is inactive", org.Code).
			WithDetails(map[string]any{"organization_id": orgID.String()})
	}
	return nil
}

// Create provisions an organization together with its ORG entity
func (s *Service) Create(ctx context.Context, req CreateOrganizationRequest, actor uuid.UUID) (*OrganizationResponse, error) {
	smartCode := req.SmartCode
	if smartCode == "" {
		smartCode = organization.SmartCodeTenant
	}
	org, err := organization.NewOrganization(req.Name, req.Code, smartCode, req.Settings, actor)
	if err != nil {
		return nil, err
	}

	call := procedure.Call{Name: "organization.create", OrganizationID: procedure.Org(org.ID), ActorID: procedure.Actor(actor)}
	err = s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		exists, err := s.orgRepo.ExistsByCode(ctx, org.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainErrorf(shared.CodeDuplicateKey, "organization code %s is already taken", org.Code).
				WithDetails(map[string]any{"organization_code": org.Code})
		}
		if err := s.orgRepo.Save(ctx, org); err != nil {
			return err
		}

		orgEntity, err := s.newOrgEntity(org, actor)
		if err != nil {
			return err
		}
		if err := s.entityRepo.Save(ctx, orgEntity); err != nil {
			return err
		}
		rec.Record(org, orgEntity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("organization created",
		zap.String("organization_id", org.ID.String()),
		zap.String("organization_code", org.Code))
	resp := ToOrganizationResponse(org)
	return &resp, nil
}

func (s *Service) newOrgEntity(org *organization.Organization, actor uuid.UUID) (*entity.Entity, error) {
	code := org.Code
	return entity.NewEntity(org.ID, uuid.Nil, entity.Attributes{
		EntityType: entity.TypeOrganization,
		EntityName: org.Name,
		EntityCode: &code,
		SmartCode:  organization.SmartCodeOrgEntity,
	}, actor)
}

// EnsureOrgEntity returns the organization's ORG entity, creating it if missing.
// Must run inside a unit of work.
func (s *Service) EnsureOrgEntity(ctx context.Context, org *organization.Organization, actor uuid.UUID, rec *procedure.Recorder) (*entity.Entity, error) {
	existing, err := s.entityRepo.FindByNaturalKey(ctx, org.ID, entity.TypeOrganization, org.Code)
	if err == nil {
		return existing, nil
	}
	if !shared.HasCode(err, shared.CodeNotFound) {
		return nil, err
	}
	created, err := s.newOrgEntity(org, actor)
	if err != nil {
		return nil, err
	}
	if err := s.entityRepo.Save(ctx, created); err != nil {
		return nil, err
	}
	rec.Record(created)
	return created, nil
}

// Get returns one organization
func (s *Service) Get(ctx context.Context, orgID uuid.UUID) (*OrganizationResponse, error) {
	var resp OrganizationResponse
	err := s.runtime.Read(ctx, procedure.Call{Name: "organization.get", OrganizationID: procedure.Org(orgID)}, func(ctx context.Context) error {
		org, err := s.orgRepo.FindByID(ctx, orgID)
		if err != nil {
			return err
		}
		resp = ToOrganizationResponse(org)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns organizations matching the filter
func (s *Service) List(ctx context.Context, req ListOrganizationsRequest) (*shared.ListResult[OrganizationResponse], error) {
	filter := organization.ListFilter{
		Status: organization.Status(strings.ToLower(req.Status)),
		Search: strings.TrimSpace(req.Search),
		Page:   shared.Page{Limit: req.Limit, Offset: req.Offset}.Normalize(),
	}
	var result shared.ListResult[OrganizationResponse]
	err := s.runtime.Read(ctx, procedure.Call{Name: "organization.list"}, func(ctx context.Context) error {
		orgs, total, err := s.orgRepo.List(ctx, filter)
		if err != nil {
			return err
		}
		result = shared.NewListResult(ToOrganizationResponses(orgs), total, filter.Page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateSettings replaces the settings document of an organization
func (s *Service) UpdateSettings(ctx context.Context, orgID uuid.UUID, req UpdateSettingsRequest, actor uuid.UUID) (*OrganizationResponse, error) {
	var resp OrganizationResponse
	call := procedure.Call{Name: "organization.update_settings", OrganizationID: procedure.Org(orgID), ActorID: procedure.Actor(actor)}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		org, err := s.orgRepo.FindByID(ctx, orgID)
		if err != nil {
			return err
		}
		org.ReplaceSettings(req.Settings, actor)
		if err := s.orgRepo.Save(ctx, org); err != nil {
			return err
		}
		rec.Record(org)
		resp = ToOrganizationResponse(org)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Deactivate marks an organization inactive. Its data stays readable.
func (s *Service) Deactivate(ctx context.Context, orgID uuid.UUID, actor uuid.UUID) (*OrganizationResponse, error) {
	if orgID == s.platformOrgID {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "the platform organization cannot be deactivated")
	}
	var resp OrganizationResponse
	call := procedure.Call{Name: "organization.deactivate", OrganizationID: procedure.Org(orgID), ActorID: procedure.Actor(actor)}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		org, err := s.orgRepo.FindByID(ctx, orgID)
		if err != nil {
			return err
		}
		if err := org.Deactivate(actor); err != nil {
			return err
		}
		if err := s.orgRepo.Save(ctx, org); err != nil {
			return err
		}
		rec.Record(org)
		resp = ToOrganizationResponse(org)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("organization deactivated", zap.String("organization_id", orgID.String()))
	return &resp, nil
}
