package entity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/procedure"
	"github.com/heraerp/platform/internal/domain/dynamicdata"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/organization"
	"github.com/heraerp/platform/internal/domain/relationship"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/domain/smartcode"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service implements the entity CRUD procedures
type Service struct {
	entityRepo    entity.Repository
	fieldRepo     dynamicdata.Repository
	relRepo       relationship.Repository
	refs          entity.ReferenceCounter
	guard         organization.Guard
	policy        entity.DeletePolicy
	runtime       *procedure.Runtime
	platformOrgID uuid.UUID
}

// Config carries the entity policies
type Config struct {
	DeletePolicy           entity.DeletePolicy
	PlatformOrganizationID uuid.UUID
}

// NewService creates a new entity Service
func NewService(
	entityRepo entity.Repository,
	fieldRepo dynamicdata.Repository,
	relRepo relationship.Repository,
	refs entity.ReferenceCounter,
	guard organization.Guard,
	runtime *procedure.Runtime,
	cfg Config,
) *Service {
	return &Service{
		entityRepo:    entityRepo,
		fieldRepo:     fieldRepo,
		relRepo:       relRepo,
		refs:          refs,
		guard:         guard,
		policy:        cfg.DeletePolicy,
		runtime:       runtime,
		platformOrgID: cfg.PlatformOrganizationID,
	}
}

// Upsert updates the entity named by entity_id or by its natural key,
// or inserts a new one.
func (s *Service) Upsert(ctx context.Context, orgID uuid.UUID, req UpsertEntityRequest, actor uuid.UUID) (*UpsertEntityResponse, error) {
	if err := smartcode.Validate(req.SmartCode); err != nil {
		return nil, err
	}
	attrs := req.attributes()
	status := entity.Status(strings.ToLower(strings.TrimSpace(req.Status)))

	var out UpsertEntityResponse
	call := procedure.Call{
		Name:           "entity.upsert",
		OrganizationID: procedure.Org(orgID),
		ActorID:        procedure.Actor(actor),
		Attributes:     []any{telemetry.SpanAttrEntityType, strings.ToUpper(attrs.EntityType), telemetry.SpanAttrSmartCode, req.SmartCode},
	}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.guard.RequireActive(ctx, orgID); err != nil {
			return err
		}
		if attrs.ParentEntityID != nil {
			if _, err := entity.Require(ctx, s.entityRepo, orgID, *attrs.ParentEntityID); err != nil {
				return err
			}
		}

		existing, err := s.locate(ctx, orgID, req.EntityID, attrs)
		if err != nil {
			return err
		}

		var e *entity.Entity
		if existing == nil {
			id := uuid.Nil
			if req.EntityID != nil {
				id = *req.EntityID
			}
			if e, err = entity.NewEntity(orgID, id, attrs, actor); err != nil {
				return err
			}
			out.Created = true
		} else {
			if existing.IsDeleted() {
				return shared.NewDomainErrorf(shared.CodeInvalidState, "entity %s is deleted; recover it before updating", existing.ID).
					WithDetails(map[string]any{"entity_id": existing.ID.String()})
			}
			e = existing
			if err := e.Update(attrs, actor); err != nil {
				return err
			}
		}

		if err := e.SetStatus(status, actor); err != nil {
			return err
		}
		if err := entity.CheckNaturalKey(ctx, s.entityRepo, e); err != nil {
			return err
		}
		if err := s.entityRepo.Save(ctx, e); err != nil {
			return err
		}
		rec.Record(e)
		out.EntityResponse = ToEntityResponse(e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("entity upserted",
		zap.String("entity_id", out.ID.String()),
		zap.String("entity_type", out.EntityType),
		zap.Bool("created", out.Created))
	return &out, nil
}

// locate finds the row an upsert should update, or nil to insert
func (s *Service) locate(ctx context.Context, orgID uuid.UUID, id *uuid.UUID, attrs entity.Attributes) (*entity.Entity, error) {
	if id != nil && *id != uuid.Nil {
		e, err := entity.Require(ctx, s.entityRepo, orgID, *id)
		if err == nil {
			return e, nil
		}
		if shared.HasCode(err, shared.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if attrs.EntityCode == nil || strings.TrimSpace(*attrs.EntityCode) == "" {
		return nil, nil
	}
	entityType := strings.ToUpper(strings.TrimSpace(attrs.EntityType))
	e, err := s.entityRepo.FindByNaturalKey(ctx, orgID, entityType, strings.TrimSpace(*attrs.EntityCode))
	if err != nil {
		if shared.HasCode(err, shared.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

// Read returns entities of one organization, optionally expanded
func (s *Service) Read(ctx context.Context, orgID uuid.UUID, req ReadEntitiesRequest) (*shared.ListResult[EntityResponse], error) {
	filter := entity.Filter{
		IDs:            req.IDs,
		EntityType:     strings.ToUpper(strings.TrimSpace(req.EntityType)),
		EntityCode:     strings.TrimSpace(req.EntityCode),
		SmartCode:      strings.TrimSpace(req.SmartCode),
		Status:         entity.Status(strings.ToLower(req.Status)),
		ParentEntityID: req.ParentEntityID,
		Search:         strings.TrimSpace(req.Search),
		IncludeDeleted: req.IncludeDeleted,
		Page:           shared.Page{Limit: req.Limit, Offset: req.Offset, SortBy: req.SortBy, SortOrder: req.SortOrder}.Normalize(),
	}

	var result shared.ListResult[EntityResponse]
	call := procedure.Call{Name: "entity.read", OrganizationID: procedure.Org(orgID)}
	err := s.runtime.Read(ctx, call, func(ctx context.Context) error {
		entities, total, err := s.entityRepo.Find(ctx, orgID, filter)
		if err != nil {
			return err
		}
		items, err := s.expand(ctx, orgID, entities, req.ExpandDynamic, req.ExpandRelationships)
		if err != nil {
			return err
		}
		result = shared.NewListResult(items, total, filter.Page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Get returns one entity of the organization
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID, expandDynamic, expandRelationships bool) (*EntityResponse, error) {
	var resp EntityResponse
	call := procedure.Call{
		Name:           "entity.get",
		OrganizationID: procedure.Org(orgID),
		Attributes:     []any{telemetry.SpanAttrEntityID, id},
	}
	err := s.runtime.Read(ctx, call, func(ctx context.Context) error {
		e, err := s.entityRepo.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		items, err := s.expand(ctx, orgID, []entity.Entity{*e}, expandDynamic, expandRelationships)
		if err != nil {
			return err
		}
		resp = items[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) expand(ctx context.Context, orgID uuid.UUID, entities []entity.Entity, dynamic, relationships bool) ([]EntityResponse, error) {
	items := make([]EntityResponse, len(entities))
	index := make(map[uuid.UUID]int, len(entities))
	ids := make([]uuid.UUID, len(entities))
	for i := range entities {
		items[i] = ToEntityResponse(&entities[i])
		index[entities[i].ID] = i
		ids[i] = entities[i].ID
	}
	if len(entities) == 0 {
		return items, nil
	}

	if dynamic {
		fields, err := s.fieldRepo.FindByEntities(ctx, orgID, ids)
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].DynamicFields = map[string]DynamicFieldView{}
		}
		for i := range fields {
			f := &fields[i]
			if pos, ok := index[f.EntityID]; ok {
				items[pos].DynamicFields[f.FieldName] = toDynamicFieldView(f)
			}
		}
	}

	if relationships {
		rels, err := s.relRepo.FindTouching(ctx, orgID, ids, true)
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].Relationships = []RelationshipView{}
		}
		for i := range rels {
			r := &rels[i]
			view := toRelationshipView(r)
			if pos, ok := index[r.FromEntityID]; ok {
				items[pos].Relationships = append(items[pos].Relationships, view)
			}
			if pos, ok := index[r.ToEntityID]; ok && r.ToEntityID != r.FromEntityID {
				items[pos].Relationships = append(items[pos].Relationships, view)
			}
		}
	}
	return items, nil
}

// Delete removes an entity. Referenced entities are blocked unless force is
// set and the policy allows it; forced deletes are always soft.
func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID, force bool, actor uuid.UUID) (*DeleteEntityResponse, error) {
	out := DeleteEntityResponse{EntityID: id, Forced: force}
	call := procedure.Call{
		Name:           "entity.delete",
		OrganizationID: procedure.Org(orgID),
		ActorID:        procedure.Actor(actor),
		Attributes:     []any{telemetry.SpanAttrEntityID, id},
	}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.guard.RequireActive(ctx, orgID); err != nil {
			return err
		}
		e, err := s.entityRepo.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}

		counts, err := s.refs.CountReferences(ctx, orgID, id, orgID == s.platformOrgID)
		if err != nil {
			return err
		}
		out.References = counts

		mode, err := s.policy.Decide(id, counts, force)
		if err != nil {
			return err
		}

		switch mode {
		case entity.DeleteModeHard:
			e.MarkPurged(actor)
			if err := s.entityRepo.Purge(ctx, orgID, id); err != nil {
				return err
			}
		default:
			if err := e.SoftDelete(actor); err != nil {
				return err
			}
			if err := s.entityRepo.Save(ctx, e); err != nil {
				return err
			}
		}
		rec.Record(e)
		out.Deleted = true
		out.Mode = string(mode)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("entity deleted",
		zap.String("entity_id", id.String()),
		zap.String("mode", out.Mode),
		zap.Bool("forced", force))
	return &out, nil
}

// Archive moves an entity to archived regardless of references
func (s *Service) Archive(ctx context.Context, orgID, id uuid.UUID, actor uuid.UUID) (*EntityResponse, error) {
	return s.transition(ctx, "entity.archive", orgID, id, actor, func(e *entity.Entity) error {
		return e.Archive(actor)
	})
}

// Recover returns an archived or deleted entity to active. The natural key
// must still be free.
func (s *Service) Recover(ctx context.Context, orgID, id uuid.UUID, actor uuid.UUID) (*EntityResponse, error) {
	return s.transition(ctx, "entity.recover", orgID, id, actor, func(e *entity.Entity) error {
		return e.Recover(actor)
	})
}

func (s *Service) transition(ctx context.Context, name string, orgID, id, actor uuid.UUID, apply func(*entity.Entity) error) (*EntityResponse, error) {
	var resp EntityResponse
	call := procedure.Call{
		Name:           name,
		OrganizationID: procedure.Org(orgID),
		ActorID:        procedure.Actor(actor),
		Attributes:     []any{telemetry.SpanAttrEntityID, id},
	}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.guard.RequireActive(ctx, orgID); err != nil {
			return err
		}
		e, err := s.entityRepo.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := apply(e); err != nil {
			return err
		}
		if err := entity.CheckNaturalKey(ctx, s.entityRepo, e); err != nil {
			return err
		}
		if err := s.entityRepo.Save(ctx, e); err != nil {
			return err
		}
		rec.Record(e)
		resp = ToEntityResponse(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("entity status changed",
		zap.String("entity_id", id.String()),
		zap.String("status", resp.Status))
	return &resp, nil
}
