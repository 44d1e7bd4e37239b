package models

import (
	"github.com/heraerp/platform/internal/domain/organization"
	"github.com/heraerp/platform/internal/domain/shared"
	"gorm.io/datatypes"
)

// OrganizationModel is the persistence model for the tenant root
type OrganizationModel struct {
	AggregateModel
	OrganizationName string              `gorm:"column:organization_name;type:varchar(200);not null"`
	OrganizationCode string              `gorm:"column:organization_code;type:varchar(50);not null;uniqueIndex"`
	Status           organization.Status `gorm:"type:varchar(20);not null;default:'active';index"`
	Settings         datatypes.JSONMap   `gorm:"type:jsonb"`
	SmartCode        string              `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "core_organizations"
}

// ToDomain converts the persistence model to a domain Organization
func (m *OrganizationModel) ToDomain() *organization.Organization {
	return &organization.Organization{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		Name:      m.OrganizationName,
		Code:      m.OrganizationCode,
		Status:    m.Status,
		Settings:  MapFromJSON(m.Settings),
		SmartCode: m.SmartCode,
	}
}

// OrganizationModelFromDomain creates a persistence model from a domain Organization
func OrganizationModelFromDomain(o *organization.Organization) *OrganizationModel {
	m := &OrganizationModel{
		OrganizationName: o.Name,
		OrganizationCode: o.Code,
		Status:           o.Status,
		Settings:         JSONMapFrom(o.Settings),
		SmartCode:        o.SmartCode,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	return m
}
