package models

import (
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/entity"
	"gorm.io/datatypes"
)

// EntityModel is the persistence model for polymorphic entities.
// The natural-key index only covers coded rows that are not deleted.
type EntityModel struct {
	AggregateModel
	OrganizationID uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_core_entities_natural_key,priority:1,where:entity_code IS NOT NULL AND status <> 'deleted'"`
	EntityType     string            `gorm:"type:varchar(100);not null;index;uniqueIndex:idx_core_entities_natural_key,priority:2"`
	EntityName     string            `gorm:"type:varchar(500);not null"`
	EntityCode     *string           `gorm:"type:varchar(100);uniqueIndex:idx_core_entities_natural_key,priority:3"`
	SmartCode      string            `gorm:"type:varchar(200);not null;index"`
	Status         entity.Status     `gorm:"type:varchar(20);not null;default:'active';index"`
	ParentEntityID *uuid.UUID        `gorm:"type:uuid;index"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (EntityModel) TableName() string {
	return "core_entities"
}

// ToDomain converts the persistence model to a domain Entity
func (m *EntityModel) ToDomain() *entity.Entity {
	return &entity.Entity{
		OrganizationAggregateRoot: restoreRoot(m.AggregateModel, m.OrganizationID),
		EntityType:                m.EntityType,
		EntityName:                m.EntityName,
		EntityCode:                m.EntityCode,
		SmartCode:                 m.SmartCode,
		Status:                    m.Status,
		ParentEntityID:            m.ParentEntityID,
		Metadata:                  MapFromJSON(m.Metadata),
	}
}

// EntityModelFromDomain creates a persistence model from a domain Entity
func EntityModelFromDomain(e *entity.Entity) *EntityModel {
	m := &EntityModel{
		OrganizationID: e.OrganizationID(),
		EntityType:     e.EntityType,
		EntityName:     e.EntityName,
		EntityCode:     e.EntityCode,
		SmartCode:      e.SmartCode,
		Status:         e.Status,
		ParentEntityID: e.ParentEntityID,
		Metadata:       JSONMapFrom(e.Metadata),
	}
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	return m
}
