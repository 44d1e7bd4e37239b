package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/dynamicdata"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDynamicDataRepository implements dynamicdata.Repository using GORM
type GormDynamicDataRepository struct {
	db *gorm.DB
}

// NewGormDynamicDataRepository creates a new GormDynamicDataRepository
func NewGormDynamicDataRepository(db *gorm.DB) *GormDynamicDataRepository {
	return &GormDynamicDataRepository{db: db}
}

// FindByID finds a field by ID within an organization
func (r *GormDynamicDataRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*dynamicdata.Field, error) {
	var model models.DynamicFieldModel
	if err := conn(ctx, r.db).Scopes(OrganizationScope(orgID)).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("dynamic field", id)
		}
		return nil, translateError(err, "dynamic field")
	}
	return model.ToDomain(), nil
}

// FindByName finds the field named fieldName on entityID
func (r *GormDynamicDataRepository) FindByName(ctx context.Context, orgID, entityID uuid.UUID, fieldName string) (*dynamicdata.Field, error) {
	var model models.DynamicFieldModel
	if err := conn(ctx, r.db).Scopes(OrganizationScope(orgID)).
		Where("entity_id = ? AND field_name = ?", entityID, fieldName).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("dynamic field", fieldName)
		}
		return nil, translateError(err, "dynamic field")
	}
	return model.ToDomain(), nil
}

// FindByEntity returns all fields of one entity ordered by name
func (r *GormDynamicDataRepository) FindByEntity(ctx context.Context, orgID, entityID uuid.UUID) ([]dynamicdata.Field, error) {
	return r.FindByEntities(ctx, orgID, []uuid.UUID{entityID})
}

// FindByEntities returns the fields of several entities ordered by entity then name
func (r *GormDynamicDataRepository) FindByEntities(ctx context.Context, orgID uuid.UUID, entityIDs []uuid.UUID) ([]dynamicdata.Field, error) {
	if len(entityIDs) == 0 {
		return []dynamicdata.Field{}, nil
	}
	var rows []models.DynamicFieldModel
	if err := conn(ctx, r.db).Scopes(OrganizationScope(orgID)).
		Where("entity_id IN ?", entityIDs).
		Order("entity_id ASC").Order("field_name ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "dynamic field")
	}
	out := make([]dynamicdata.Field, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Save inserts or updates a field. Every value slot is rewritten so a type
// change leaves no stale value behind.
func (r *GormDynamicDataRepository) Save(ctx context.Context, f *dynamicdata.Field) error {
	model := models.DynamicFieldModelFromDomain(f)
	result := conn(ctx, r.db).Model(model).
		Scopes(OrganizationScope(f.OrganizationID())).
		Select("*").Omit("id", "organization_id", "entity_id", "field_name", "created_at", "created_by").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "dynamic field")
	}
	if result.RowsAffected == 0 {
		if err := conn(ctx, r.db).Create(model).Error; err != nil {
			return translateError(err, "dynamic field")
		}
	}
	return nil
}

// DeleteByIDs removes fields by id inside one organization
func (r *GormDynamicDataRepository) DeleteByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := conn(ctx, r.db).Scopes(OrganizationScope(orgID)).
		Where("id IN ?", ids).
		Delete(&models.DynamicFieldModel{}).Error; err != nil {
		return translateError(err, "dynamic field")
	}
	return nil
}
