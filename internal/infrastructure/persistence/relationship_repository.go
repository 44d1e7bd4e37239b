package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/relationship"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRelationshipRepository implements relationship.Repository using GORM
type GormRelationshipRepository struct {
	db *gorm.DB
}

// NewGormRelationshipRepository creates a new GormRelationshipRepository
func NewGormRelationshipRepository(db *gorm.DB) *GormRelationshipRepository {
	return &GormRelationshipRepository{db: db}
}

// FindByID finds an edge by ID within an organization
func (r *GormRelationshipRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*relationship.Relationship, error) {
	var model models.RelationshipModel
	if err := conn(ctx, r.db).Scopes(OrganizationScope(orgID)).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("relationship", id)
		}
		return nil, translateError(err, "relationship")
	}
	return model.ToDomain(), nil
}

// Find returns a page of edges in orgID plus the unpaged total
func (r *GormRelationshipRepository) Find(ctx context.Context, orgID uuid.UUID, filter relationship.Filter) ([]relationship.Relationship, int64, error) {
	page := filter.Page.Normalize()
	apply := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(OrganizationScope(orgID))
		if filter.FromEntityID != nil {
			db = db.Where("from_entity_id = ?", *filter.FromEntityID)
		}
		if filter.ToEntityID != nil {
			db = db.Where("to_entity_id = ?", *filter.ToEntityID)
		}
		if filter.RelationshipType != "" {
			db = db.Where("relationship_type = ?", filter.RelationshipType)
		}
		if filter.ActiveOnly {
			db = db.Where("is_active = ?", true)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.RelationshipModel{}).Scopes(apply).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "relationship")
	}

	var rows []models.RelationshipModel
	if err := conn(ctx, r.db).Scopes(apply, PageScope(page.Limit, page.Offset)).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "relationship")
	}
	return toRelationships(rows), total, nil
}

// FindActiveEdge returns the active edge of relType from -> to
func (r *GormRelationshipRepository) FindActiveEdge(ctx context.Context, orgID, from, to uuid.UUID, relType string) (*relationship.Relationship, error) {
	var model models.RelationshipModel
	err := conn(ctx, r.db).Scopes(OrganizationScope(orgID)).
		Where("from_entity_id = ? AND to_entity_id = ? AND relationship_type = ? AND is_active = ?", from, to, relType, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("relationship", relType)
		}
		return nil, translateError(err, "relationship")
	}
	return model.ToDomain(), nil
}

// FindActiveFrom returns active edges leaving entityID in any organization
func (r *GormRelationshipRepository) FindActiveFrom(ctx context.Context, entityID uuid.UUID, relTypes ...string) ([]relationship.Relationship, error) {
	query := conn(ctx, r.db).
		Where("from_entity_id = ? AND is_active = ?", entityID, true)
	if len(relTypes) > 0 {
		query = query.Where("relationship_type IN ?", relTypes)
	}
	var rows []models.RelationshipModel
	if err := query.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err, "relationship")
	}
	return toRelationships(rows), nil
}

// FindTouching returns edges with any of entityIDs at either end
func (r *GormRelationshipRepository) FindTouching(ctx context.Context, orgID uuid.UUID, entityIDs []uuid.UUID, activeOnly bool) ([]relationship.Relationship, error) {
	if len(entityIDs) == 0 {
		return []relationship.Relationship{}, nil
	}
	query := conn(ctx, r.db).Scopes(OrganizationScope(orgID)).
		Where("(from_entity_id IN ? OR to_entity_id IN ?)", entityIDs, entityIDs)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.RelationshipModel
	if err := query.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err, "relationship")
	}
	return toRelationships(rows), nil
}

// CountActiveTouching counts active edges touching entityID, excluding excludeID
func (r *GormRelationshipRepository) CountActiveTouching(ctx context.Context, orgID, entityID, excludeID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.RelationshipModel{}).Scopes(OrganizationScope(orgID)).
		Where("(from_entity_id = ? OR to_entity_id = ?)", entityID, entityID).
		Where("is_active = ? AND id <> ?", true, excludeID).
		Count(&count).Error
	if err != nil {
		return 0, translateError(err, "relationship")
	}
	return count, nil
}

// Save inserts or updates an edge; organization and endpoints are immutable
func (r *GormRelationshipRepository) Save(ctx context.Context, rel *relationship.Relationship) error {
	model := models.RelationshipModelFromDomain(rel)
	result := conn(ctx, r.db).Model(model).
		Scopes(OrganizationScope(rel.OrganizationID())).
		Select("*").Omit("id", "organization_id", "from_entity_id", "to_entity_id", "created_at", "created_by").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "relationship")
	}
	if result.RowsAffected == 0 {
		if err := conn(ctx, r.db).Create(model).Error; err != nil {
			return translateError(err, "relationship")
		}
	}
	return nil
}

// Delete removes one edge
func (r *GormRelationshipRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(OrganizationScope(orgID)).
		Where("id = ?", id).
		Delete(&models.RelationshipModel{})
	if result.Error != nil {
		return translateError(result.Error, "relationship")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("relationship", id)
	}
	return nil
}

func toRelationships(rows []models.RelationshipModel) []relationship.Relationship {
	out := make([]relationship.Relationship, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}
