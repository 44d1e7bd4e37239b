package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/relationship"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormEntityRepository implements entity.Repository using GORM
type GormEntityRepository struct {
	db *gorm.DB
}

// NewGormEntityRepository creates a new GormEntityRepository
func NewGormEntityRepository(db *gorm.DB) *GormEntityRepository {
	return &GormEntityRepository{db: db}
}

// FindByID finds an entity by ID within an organization
func (r *GormEntityRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*entity.Entity, error) {
	var model models.EntityModel
	if err := conn(ctx, r.db).Scopes(OrganizationScope(orgID)).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("entity", id)
		}
		return nil, translateError(err, "entity")
	}
	return model.ToDomain(), nil
}

// LocateOrganization returns the owning organization of id
func (r *GormEntityRepository) LocateOrganization(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	var orgIDs []uuid.UUID
	if err := conn(ctx, r.db).Model(&models.EntityModel{}).
		Where("id = ?", id).Limit(1).
		Pluck("organization_id", &orgIDs).Error; err != nil {
		return uuid.Nil, false, translateError(err, "entity")
	}
	if len(orgIDs) == 0 {
		return uuid.Nil, false, nil
	}
	return orgIDs[0], true, nil
}

// FindByNaturalKey finds the live entity holding (org, type, code)
func (r *GormEntityRepository) FindByNaturalKey(ctx context.Context, orgID uuid.UUID, entityType, code string) (*entity.Entity, error) {
	var model models.EntityModel
	err := conn(ctx, r.db).Scopes(OrganizationScope(orgID)).
		Where("entity_type = ? AND entity_code = ? AND status <> ?",
			strings.ToUpper(entityType), code, entity.StatusDeleted).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("entity", entityType+"/"+code)
		}
		return nil, translateError(err, "entity")
	}
	return model.ToDomain(), nil
}

// Find returns a page of entities in orgID matching filter, plus the unpaged total
func (r *GormEntityRepository) Find(ctx context.Context, orgID uuid.UUID, filter entity.Filter) ([]entity.Entity, int64, error) {
	page := filter.Page.Normalize()
	apply := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(OrganizationScope(orgID), SearchScope("entity_name", strings.TrimSpace(filter.Search)))
		if len(filter.IDs) > 0 {
			db = db.Where("id IN ?", filter.IDs)
		}
		if filter.EntityType != "" {
			db = db.Where("entity_type = ?", strings.ToUpper(strings.TrimSpace(filter.EntityType)))
		}
		if filter.EntityCode != "" {
			db = db.Where("entity_code = ?", filter.EntityCode)
		}
		if filter.SmartCode != "" {
			db = db.Where("smart_code = ?", filter.SmartCode)
		}
		if filter.ParentEntityID != nil {
			db = db.Where("parent_entity_id = ?", *filter.ParentEntityID)
		}
		switch {
		case filter.Status != "":
			db = db.Where("status = ?", filter.Status)
		case !filter.IncludeDeleted:
			db = db.Where("status <> ?", entity.StatusDeleted)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.EntityModel{}).Scopes(apply).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "entity")
	}

	var rows []models.EntityModel
	if err := conn(ctx, r.db).Scopes(apply, PageScope(page.Limit, page.Offset),
		SortScope(page, EntitySortFields, "created_at")).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "entity")
	}

	out := make([]entity.Entity, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, total, nil
}

// Save inserts or updates an entity. The update path never writes
// organization_id or the creation stamp.
func (r *GormEntityRepository) Save(ctx context.Context, e *entity.Entity) error {
	model := models.EntityModelFromDomain(e)
	result := conn(ctx, r.db).Model(model).
		Scopes(OrganizationScope(e.OrganizationID())).
		Select("*").Omit("id", "organization_id", "created_at", "created_by").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "entity")
	}
	if result.RowsAffected == 0 {
		if err := conn(ctx, r.db).Create(model).Error; err != nil {
			return translateError(err, "entity")
		}
	}
	return nil
}

// Purge removes the entity row together with its dynamic fields
func (r *GormEntityRepository) Purge(ctx context.Context, orgID, id uuid.UUID) error {
	db := conn(ctx, r.db)
	if err := db.Scopes(OrganizationScope(orgID)).
		Where("entity_id = ?", id).
		Delete(&models.DynamicFieldModel{}).Error; err != nil {
		return translateError(err, "dynamic field")
	}
	// Inactive edges no longer count as references but still point at the row
	if err := CrossOrganization(db).Where("is_active = ? AND (from_entity_id = ? OR to_entity_id = ?)", false, id, id).
		Delete(&models.RelationshipModel{}).Error; err != nil {
		return translateError(err, "relationship")
	}
	result := db.Scopes(OrganizationScope(orgID)).Where("id = ?", id).Delete(&models.EntityModel{})
	if result.Error != nil {
		return translateError(result.Error, "entity")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("entity", id)
	}
	return nil
}

// GormReferenceCounter implements entity.ReferenceCounter over the ledger and
// relationship tables
type GormReferenceCounter struct {
	db *gorm.DB
}

// NewGormReferenceCounter creates a new GormReferenceCounter
func NewGormReferenceCounter(db *gorm.DB) *GormReferenceCounter {
	return &GormReferenceCounter{db: db}
}

// CountReferences counts live references to entityID
func (c *GormReferenceCounter) CountReferences(ctx context.Context, orgID, entityID uuid.UUID, includeIdentityEdges bool) (entity.ReferenceCounts, error) {
	var counts entity.ReferenceCounts
	db := conn(ctx, c.db)

	if err := db.Model(&models.TransactionLineModel{}).Scopes(OrganizationScope(orgID)).
		Where("line_entity_id = ?", entityID).
		Count(&counts.TransactionLines).Error; err != nil {
		return counts, translateError(err, "transaction line")
	}
	if err := db.Model(&models.TransactionModel{}).Scopes(OrganizationScope(orgID)).
		Where("source_entity_id = ?", entityID).
		Count(&counts.TransactionsFrom).Error; err != nil {
		return counts, translateError(err, "transaction")
	}
	if err := db.Model(&models.TransactionModel{}).Scopes(OrganizationScope(orgID)).
		Where("target_entity_id = ?", entityID).
		Count(&counts.TransactionsTo).Error; err != nil {
		return counts, translateError(err, "transaction")
	}

	edges := db.Model(&models.RelationshipModel{}).
		Where("is_active = ?", true).
		Where("(from_entity_id = ? OR to_entity_id = ?)", entityID, entityID)
	if includeIdentityEdges {
		edges = edges.Where("(organization_id = ? OR relationship_type IN ?)", orgID,
			[]string{relationship.TypeMemberOf, relationship.TypeHasRole})
	} else {
		edges = edges.Scopes(OrganizationScope(orgID))
	}
	if err := edges.Count(&counts.ActiveRelationships).Error; err != nil {
		return counts, translateError(err, "relationship")
	}
	return counts, nil
}
