package relationship

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/procedure"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/organization"
	"github.com/heraerp/platform/internal/domain/relationship"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/domain/smartcode"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service implements the relationship graph procedures
type Service struct {
	relRepo    relationship.Repository
	entityRepo entity.Repository
	guard      organization.Guard
	rule       relationship.IdentityEdgeRule
	runtime    *procedure.Runtime
}

// NewService creates a new relationship Service
func NewService(
	relRepo relationship.Repository,
	entityRepo entity.Repository,
	guard organization.Guard,
	rule relationship.IdentityEdgeRule,
	runtime *procedure.Runtime,
) *Service {
	return &Service{
		relRepo:    relRepo,
		entityRepo: entityRepo,
		guard:      guard,
		rule:       rule,
		runtime:    runtime,
	}
}

// Create adds a directed edge. Both endpoints must live in the organization
// unless the identity edge rule admits them.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, req CreateRelationshipRequest, actor uuid.UUID) (*RelationshipResponse, error) {
	if err := smartcode.Validate(req.SmartCode); err != nil {
		return nil, err
	}
	relType := strings.TrimSpace(req.RelationshipType)

	var resp RelationshipResponse
	call := procedure.Call{
		Name:           "relationship.create",
		OrganizationID: procedure.Org(orgID),
		ActorID:        procedure.Actor(actor),
		Attributes:     []any{telemetry.SpanAttrRelationshipType, relType},
	}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.guard.RequireActive(ctx, orgID); err != nil {
			return err
		}
		rel, err := relationship.NewRelationship(orgID, req.FromEntityID, req.ToEntityID, relType, req.Data, req.SmartCode, actor)
		if err != nil {
			return err
		}

		from, err := s.endpoint(ctx, req.FromEntityID)
		if err != nil {
			return err
		}
		to, err := s.endpoint(ctx, req.ToEntityID)
		if err != nil {
			return err
		}
		if err := s.rule.Check(orgID, relType, from, to); err != nil {
			return err
		}

		existing, err := s.relRepo.FindActiveEdge(ctx, orgID, req.FromEntityID, req.ToEntityID, relType)
		if err == nil {
			return shared.NewDomainErrorf(shared.CodeDuplicateKey, "an active %s edge already links these entities", relType).
				WithDetails(map[string]any{"relationship_id": existing.ID.String()})
		}
		if !shared.HasCode(err, shared.CodeNotFound) {
			return err
		}

		if err := s.relRepo.Save(ctx, rel); err != nil {
			return err
		}
		rec.Record(rel)
		resp = ToRelationshipResponse(rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("relationship created",
		zap.String("relationship_id", resp.ID.String()),
		zap.String("relationship_type", resp.RelationshipType))
	return &resp, nil
}

// endpoint resolves an entity in whichever organization owns it, so the
// edge rule can judge the crossing
func (s *Service) endpoint(ctx context.Context, id uuid.UUID) (relationship.Endpoint, error) {
	owner, found, err := s.entityRepo.LocateOrganization(ctx, id)
	if err != nil {
		return relationship.Endpoint{}, err
	}
	if !found {
		return relationship.Endpoint{}, shared.NewNotFoundError("entity", id)
	}
	e, err := s.entityRepo.FindByID(ctx, owner, id)
	if err != nil {
		return relationship.Endpoint{}, err
	}
	if e.IsDeleted() {
		return relationship.Endpoint{}, shared.NewDomainErrorf(shared.CodeInvalidState, "entity %s is deleted", id).
			WithDetails(map[string]any{"entity_id": id.String()})
	}
	return relationship.NewEndpoint(e.ID, owner, e.EntityType), nil
}

// Get returns one edge of the organization
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*RelationshipResponse, error) {
	var resp RelationshipResponse
	err := s.runtime.Read(ctx, procedure.Call{Name: "relationship.get", OrganizationID: procedure.Org(orgID)}, func(ctx context.Context) error {
		rel, err := s.relRepo.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		resp = ToRelationshipResponse(rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Query lists edges of the organization
func (s *Service) Query(ctx context.Context, orgID uuid.UUID, req QueryRelationshipsRequest) (*shared.ListResult[RelationshipResponse], error) {
	filter := relationship.Filter{
		FromEntityID:     req.FromEntityID,
		ToEntityID:       req.ToEntityID,
		RelationshipType: strings.TrimSpace(req.RelationshipType),
		ActiveOnly:       req.ActiveOnly,
		Page:             shared.Page{Limit: req.Limit, Offset: req.Offset}.Normalize(),
	}
	var result shared.ListResult[RelationshipResponse]
	err := s.runtime.Read(ctx, procedure.Call{Name: "relationship.query", OrganizationID: procedure.Org(orgID)}, func(ctx context.Context) error {
		rels, total, err := s.relRepo.Find(ctx, orgID, filter)
		if err != nil {
			return err
		}
		result = shared.NewListResult(ToRelationshipResponses(rels), total, filter.Page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Deactivate keeps the edge for history but stops it counting as live
func (s *Service) Deactivate(ctx context.Context, orgID, id uuid.UUID, actor uuid.UUID) (*RelationshipResponse, error) {
	var resp RelationshipResponse
	call := procedure.Call{Name: "relationship.deactivate", OrganizationID: procedure.Org(orgID), ActorID: procedure.Actor(actor)}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.guard.RequireActive(ctx, orgID); err != nil {
			return err
		}
		rel, err := s.relRepo.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := rel.Deactivate(actor); err != nil {
			return err
		}
		if err := s.relRepo.Save(ctx, rel); err != nil {
			return err
		}
		rec.Record(rel)
		resp = ToRelationshipResponse(rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("relationship deactivated", zap.String("relationship_id", id.String()))
	return &resp, nil
}

// Delete removes the edge only. The result carries the number of active
// edges still touching the target so the caller can decide what to do with it.
func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID, actor uuid.UUID) (*DeleteRelationshipResponse, error) {
	out := DeleteRelationshipResponse{RelationshipID: id}
	call := procedure.Call{Name: "relationship.delete", OrganizationID: procedure.Org(orgID), ActorID: procedure.Actor(actor)}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.guard.RequireActive(ctx, orgID); err != nil {
			return err
		}
		rel, err := s.relRepo.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		remaining, err := s.relRepo.CountActiveTouching(ctx, orgID, rel.ToEntityID, rel.ID)
		if err != nil {
			return err
		}
		if err := s.relRepo.Delete(ctx, orgID, id); err != nil {
			return err
		}
		rel.MarkDeleted(actor)
		rec.Record(rel)

		out.Deleted = true
		out.TargetEntityID = rel.ToEntityID
		out.TargetActiveConnections = remaining
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("relationship deleted",
		zap.String("relationship_id", id.String()),
		zap.Int64("target_active_connections", out.TargetActiveConnections))
	return &out, nil
}
