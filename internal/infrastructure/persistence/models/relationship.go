package models

import (
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/relationship"
	"gorm.io/datatypes"
)

// RelationshipModel is the persistence model for graph edges
type RelationshipModel struct {
	OrganizationScopedModel
	FromEntityID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	ToEntityID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	RelationshipType string              `gorm:"type:varchar(100);not null;index"`
	RelationshipData datatypes.JSONMap   `gorm:"type:jsonb"`
	SmartCode        string              `gorm:"type:varchar(200);not null"`
	IsActive         bool                `gorm:"not null;default:true;index"`
	Status           relationship.Status `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (RelationshipModel) TableName() string {
	return "core_relationships"
}

// ToDomain converts the persistence model to a domain Relationship
func (m *RelationshipModel) ToDomain() *relationship.Relationship {
	return &relationship.Relationship{
		OrganizationAggregateRoot: m.ToDomainRoot(),
		FromEntityID:              m.FromEntityID,
		ToEntityID:                m.ToEntityID,
		RelationshipType:          m.RelationshipType,
		Data:                      MapFromJSON(m.RelationshipData),
		SmartCode:                 m.SmartCode,
		IsActive:                  m.IsActive,
		Status:                    m.Status,
	}
}

// RelationshipModelFromDomain creates a persistence model from a domain Relationship
func RelationshipModelFromDomain(r *relationship.Relationship) *RelationshipModel {
	m := &RelationshipModel{
		FromEntityID:     r.FromEntityID,
		ToEntityID:       r.ToEntityID,
		RelationshipType: r.RelationshipType,
		RelationshipData: JSONMapFrom(r.Data),
		SmartCode:        r.SmartCode,
		IsActive:         r.IsActive,
		Status:           r.Status,
	}
	m.FromDomainOrganizationRoot(r.OrganizationAggregateRoot)
	return m
}
