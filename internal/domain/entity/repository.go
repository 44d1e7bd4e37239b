package entity

import (
	"context"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// Filter narrows entity reads. Every read is additionally scoped to one organization.
type Filter struct {
	IDs            []uuid.UUID
	EntityType     string
	EntityCode     string
	SmartCode      string
	Status         Status
	ParentEntityID *uuid.UUID
	Search         string
	IncludeDeleted bool
	Page           shared.Page
}

// Repository defines entity persistence
type Repository interface {
	// FindByID returns the entity only if it belongs to orgID
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Entity, error)
	// LocateOrganization returns the organization that owns id, without exposing the row
	LocateOrganization(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error)
	// FindByNaturalKey returns the non-deleted entity holding (org, type, code)
	FindByNaturalKey(ctx context.Context, orgID uuid.UUID, entityType, code string) (*Entity, error)
	Find(ctx context.Context, orgID uuid.UUID, filter Filter) ([]Entity, int64, error)
	// Save inserts or updates; the organization column is never rewritten
	Save(ctx context.Context, e *Entity) error
	// Purge removes the row and its dynamic fields
	Purge(ctx context.Context, orgID, id uuid.UUID) error
}

// ReferenceCounter counts live references held by the ledger and the relationship graph
type ReferenceCounter interface {
	// CountReferences counts references to entityID inside orgID. With
	// includeIdentityEdges, identity edges from any organization are counted too.
	CountReferences(ctx context.Context, orgID, entityID uuid.UUID, includeIdentityEdges bool) (ReferenceCounts, error)
}
