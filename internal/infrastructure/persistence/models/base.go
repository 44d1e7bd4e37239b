package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"gorm.io/datatypes"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity, including actor stamping.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy uuid.UUID `gorm:"type:uuid"`
	UpdatedBy uuid.UUID `gorm:"type:uuid"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		CreatedBy: m.CreatedBy,
		UpdatedBy: m.UpdatedBy,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
	m.CreatedBy = e.CreatedBy
	m.UpdatedBy = e.UpdatedBy
}

// AggregateModel extends BaseModel with a version counter.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// OrganizationScopedModel carries the organization_id partition column
// shared by every child table.
type OrganizationScopedModel struct {
	AggregateModel
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainOrganizationRoot populates the scoped model from the domain root
func (m *OrganizationScopedModel) FromDomainOrganizationRoot(r shared.OrganizationAggregateRoot) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.OrganizationID = r.OrganizationID()
}

// ToDomainRoot rebuilds the domain root from stored columns
func (m *OrganizationScopedModel) ToDomainRoot() shared.OrganizationAggregateRoot {
	return restoreRoot(m.AggregateModel, m.OrganizationID)
}

func restoreRoot(m AggregateModel, orgID uuid.UUID) shared.OrganizationAggregateRoot {
	return shared.RestoreOrganizationAggregateRoot(m.BaseModel.ToDomain(), orgID, m.Version)
}

// JSONMapFrom converts a domain map into a JSON column value
func JSONMapFrom(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}

// MapFromJSON converts a JSON column value into a non-nil domain map
func MapFromJSON(j datatypes.JSONMap) map[string]any {
	if j == nil {
		return map[string]any{}
	}
	return map[string]any(j)
}
