package organization

import (
	"context"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// ListFilter narrows organization listings
type ListFilter struct {
	Status Status
	Search string
	Page   shared.Page
}

// Repository defines organization persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Organization, error)
	FindByCode(ctx context.Context, code string) (*Organization, error)
	List(ctx context.Context, filter ListFilter) ([]Organization, int64, error)
	Save(ctx context.Context, org *Organization) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// Guard checks that an organization accepts writes
type Guard interface {
	RequireActive(ctx context.Context, id uuid.UUID) error
}
