package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/organization"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrganizationRepository implements organization.Repository using GORM
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// FindByID finds an organization by its ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	var model models.OrganizationModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("organization", id)
		}
		return nil, translateError(err, "organization")
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the organizations that exist among ids
func (r *GormOrganizationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]organization.Organization, error) {
	if len(ids) == 0 {
		return []organization.Organization{}, nil
	}
	var rows []models.OrganizationModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err, "organization")
	}
	out := make([]organization.Organization, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// FindByCode finds an organization by its code
func (r *GormOrganizationRepository) FindByCode(ctx context.Context, code string) (*organization.Organization, error) {
	var model models.OrganizationModel
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := conn(ctx, r.db).First(&model, "organization_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("organization", code)
		}
		return nil, translateError(err, "organization")
	}
	return model.ToDomain(), nil
}

// List returns a page of organizations ordered by name
func (r *GormOrganizationRepository) List(ctx context.Context, filter organization.ListFilter) ([]organization.Organization, int64, error) {
	page := filter.Page.Normalize()
	apply := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(SearchScope("organization_name", strings.TrimSpace(filter.Search)))
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.OrganizationModel{}).Scopes(apply).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "organization")
	}

	var rows []models.OrganizationModel
	if err := conn(ctx, r.db).Scopes(apply, PageScope(page.Limit, page.Offset)).
		Order("organization_name ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "organization")
	}
	out := make([]organization.Organization, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, total, nil
}

// Save creates or updates an organization
func (r *GormOrganizationRepository) Save(ctx context.Context, org *organization.Organization) error {
	model := models.OrganizationModelFromDomain(org)
	result := conn(ctx, r.db).Model(model).
		Select("*").Omit("id", "created_at", "created_by").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "organization")
	}
	if result.RowsAffected == 0 {
		if err := conn(ctx, r.db).Create(model).Error; err != nil {
			return translateError(err, "organization")
		}
	}
	return nil
}

// ExistsByCode checks if an organization code is taken
func (r *GormOrganizationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.OrganizationModel{}).
		Where("organization_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error
	if err != nil {
		return false, translateError(err, "organization")
	}
	return count > 0, nil
}
