package relationship

import (
	"context"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// Filter narrows relationship queries inside one organization
type Filter struct {
	FromEntityID     *uuid.UUID
	ToEntityID       *uuid.UUID
	RelationshipType string
	ActiveOnly       bool
	Page             shared.Page
}

// Repository defines relationship persistence
type Repository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Relationship, error)
	Find(ctx context.Context, orgID uuid.UUID, filter Filter) ([]Relationship, int64, error)
	// FindActiveEdge returns the active edge of relType between from and to, if any
	FindActiveEdge(ctx context.Context, orgID, from, to uuid.UUID, relType string) (*Relationship, error)
	// FindActiveFrom returns active edges leaving entityID in any organization,
	// restricted to the given types. Used only by identity resolution.
	FindActiveFrom(ctx context.Context, entityID uuid.UUID, relTypes ...string) ([]Relationship, error)
	// FindTouching returns edges having entityID at either end inside orgID
	FindTouching(ctx context.Context, orgID uuid.UUID, entityIDs []uuid.UUID, activeOnly bool) ([]Relationship, error)
	// CountActiveTouching counts active edges with entityID at either end, excluding one edge
	CountActiveTouching(ctx context.Context, orgID, entityID, excludeID uuid.UUID) (int64, error)
	Save(ctx context.Context, r *Relationship) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}
