package dynamicdata

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/procedure"
	"github.com/heraerp/platform/internal/domain/dynamicdata"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/organization"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/domain/smartcode"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service implements the dynamic field procedures
type Service struct {
	fieldRepo  dynamicdata.Repository
	entityRepo entity.Repository
	registry   *entity.TypeRegistry
	guard      organization.Guard
	runtime    *procedure.Runtime
}

// NewService creates a new dynamic data Service
func NewService(
	fieldRepo dynamicdata.Repository,
	entityRepo entity.Repository,
	registry *entity.TypeRegistry,
	guard organization.Guard,
	runtime *procedure.Runtime,
) *Service {
	if registry == nil {
		registry = entity.DefaultTypeRegistry()
	}
	return &Service{
		fieldRepo:  fieldRepo,
		entityRepo: entityRepo,
		registry:   registry,
		guard:      guard,
		runtime:    runtime,
	}
}

type preparedField struct {
	name      string
	value     dynamicdata.Value
	smartCode string
}

func prepare(in FieldInput) (preparedField, error) {
	if err := smartcode.Validate(in.SmartCode); err != nil {
		return preparedField{}, err
	}
	ft, err := dynamicdata.ParseFieldType(in.FieldType)
	if err != nil {
		return preparedField{}, err
	}
	value, err := dynamicdata.ParseValue(ft, in.Value)
	if err != nil {
		return preparedField{}, err
	}
	name := strings.TrimSpace(in.FieldName)
	if name == "" {
		return preparedField{}, shared.NewValidationError("field_name is required")
	}
	return preparedField{name: name, value: value, smartCode: in.SmartCode}, nil
}

// Set upserts one field on (entity, field_name)
func (s *Service) Set(ctx context.Context, orgID, entityID uuid.UUID, in FieldInput, actor uuid.UUID) (*FieldResponse, error) {
	out, err := s.SetMany(ctx, orgID, entityID, []FieldInput{in}, actor)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// SetMany upserts several fields of one entity in a single unit of work
func (s *Service) SetMany(ctx context.Context, orgID, entityID uuid.UUID, inputs []FieldInput, actor uuid.UUID) ([]FieldResponse, error) {
	if len(inputs) == 0 {
		return nil, shared.NewValidationError("at least one field is required")
	}
	prepared := make([]preparedField, len(inputs))
	for i, in := range inputs {
		p, err := prepare(in)
		if err != nil {
			if de, ok := shared.AsDomainError(err); ok {
				return nil, de.WithDetails(map[string]any{"field_name": in.FieldName})
			}
			return nil, err
		}
		prepared[i] = p
	}

	out := make([]FieldResponse, 0, len(prepared))
	call := procedure.Call{
		Name:           "dynamic_data.set",
		OrganizationID: procedure.Org(orgID),
		ActorID:        procedure.Actor(actor),
		Attributes:     []any{telemetry.SpanAttrEntityID, entityID},
	}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.guard.RequireActive(ctx, orgID); err != nil {
			return err
		}
		owner, err := entity.RequireLive(ctx, s.entityRepo, orgID, entityID)
		if err != nil {
			return err
		}

		for _, p := range prepared {
			if err := s.registry.CheckField(owner.EntityType, p.name, p.value.Type()); err != nil {
				return err
			}
			field, err := s.fieldRepo.FindByName(ctx, orgID, entityID, p.name)
			switch {
			case err == nil:
				if err := field.Set(p.value, p.smartCode, actor); err != nil {
					return err
				}
			case shared.HasCode(err, shared.CodeNotFound):
				field, err = dynamicdata.NewField(owner.OrganizationID(), entityID, p.name, p.value, p.smartCode, actor)
				if err != nil {
					return err
				}
			default:
				return err
			}
			if err := s.fieldRepo.Save(ctx, field); err != nil {
				return err
			}
			out = append(out, ToFieldResponse(field))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("dynamic fields set",
		zap.String("entity_id", entityID.String()),
		zap.Int("count", len(out)))
	return out, nil
}

// Get returns the fields of an entity, or just fieldName when given
func (s *Service) Get(ctx context.Context, orgID, entityID uuid.UUID, fieldName string) ([]FieldResponse, error) {
	var out []FieldResponse
	call := procedure.Call{
		Name:           "dynamic_data.get",
		OrganizationID: procedure.Org(orgID),
		Attributes:     []any{telemetry.SpanAttrEntityID, entityID},
	}
	err := s.runtime.Read(ctx, call, func(ctx context.Context) error {
		if _, err := entity.Require(ctx, s.entityRepo, orgID, entityID); err != nil {
			return err
		}
		if name := strings.TrimSpace(fieldName); name != "" {
			field, err := s.fieldRepo.FindByName(ctx, orgID, entityID, name)
			if err != nil {
				return err
			}
			out = []FieldResponse{ToFieldResponse(field)}
			return nil
		}
		fields, err := s.fieldRepo.FindByEntity(ctx, orgID, entityID)
		if err != nil {
			return err
		}
		out = ToFieldResponses(fields)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the fields selected by req and reports each of them
func (s *Service) Delete(ctx context.Context, orgID uuid.UUID, req dynamicdata.DeleteRequest, actor uuid.UUID) (*dynamicdata.DeleteResult, error) {
	mode, err := req.Mode()
	if err != nil {
		return nil, err
	}

	var result dynamicdata.DeleteResult
	call := procedure.Call{Name: "dynamic_data.delete", OrganizationID: procedure.Org(orgID), ActorID: procedure.Actor(actor)}
	err = s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.guard.RequireActive(ctx, orgID); err != nil {
			return err
		}
		fields, err := s.selectFields(ctx, orgID, mode, req)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(fields))
		for i := range fields {
			ids[i] = fields[i].ID
		}
		if err := s.fieldRepo.DeleteByIDs(ctx, orgID, ids); err != nil {
			return err
		}
		result = dynamicdata.NewDeleteResult(fields)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("dynamic fields deleted", zap.Int("deleted_count", result.DeletedCount))
	return &result, nil
}

func (s *Service) selectFields(ctx context.Context, orgID uuid.UUID, mode dynamicdata.DeleteMode, req dynamicdata.DeleteRequest) ([]dynamicdata.Field, error) {
	switch mode {
	case dynamicdata.DeleteByID:
		field, err := s.fieldRepo.FindByID(ctx, orgID, *req.FieldID)
		if err != nil {
			return nil, err
		}
		return []dynamicdata.Field{*field}, nil
	case dynamicdata.DeleteByName:
		if _, err := entity.Require(ctx, s.entityRepo, orgID, *req.EntityID); err != nil {
			return nil, err
		}
		field, err := s.fieldRepo.FindByName(ctx, orgID, *req.EntityID, req.FieldName)
		if err != nil {
			return nil, err
		}
		return []dynamicdata.Field{*field}, nil
	default:
		if _, err := entity.Require(ctx, s.entityRepo, orgID, *req.EntityID); err != nil {
			return nil, err
		}
		return s.fieldRepo.FindByEntity(ctx, orgID, *req.EntityID)
	}
}

// BatchDelete runs every item in its own unit of work. A failing item does
// not roll back the others.
func (s *Service) BatchDelete(ctx context.Context, orgID uuid.UUID, req BatchDeleteRequest, actor uuid.UUID) *dynamicdata.BatchDeleteResult {
	batch := &dynamicdata.BatchDeleteResult{Success: true, Items: make([]dynamicdata.ItemOutcome, 0, len(req.Items))}
	for i, item := range req.Items {
		outcome := dynamicdata.ItemOutcome{Index: i, Request: item}
		result, err := s.Delete(ctx, orgID, item, actor)
		if err != nil {
			de, ok := shared.AsDomainError(err)
			if !ok {
				logger.L(ctx).Error("batch delete item failed", zap.Int("index", i), zap.Error(err))
				de = shared.NewDomainError(shared.CodeInternal, "internal error")
			}
			outcome.Error = de
		} else {
			outcome.Success = true
			outcome.Result = result
		}
		batch.Add(outcome)
	}
	return batch
}
