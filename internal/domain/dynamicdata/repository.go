package dynamicdata

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines dynamic field persistence. All methods are organization scoped.
type Repository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Field, error)
	FindByName(ctx context.Context, orgID, entityID uuid.UUID, fieldName string) (*Field, error)
	FindByEntity(ctx context.Context, orgID, entityID uuid.UUID) ([]Field, error)
	FindByEntities(ctx context.Context, orgID uuid.UUID, entityIDs []uuid.UUID) ([]Field, error)
	Save(ctx context.Context, f *Field) error
	DeleteByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) error
}
