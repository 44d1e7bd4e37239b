package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// Filter narrows transaction queries inside one organization
type Filter struct {
	IDs             []uuid.UUID
	TransactionType string
	TransactionCode string
	SmartCode       string
	Status          Status
	SourceEntityID  *uuid.UUID
	TargetEntityID  *uuid.UUID
	DateFrom        *time.Time
	DateTo          *time.Time
	IncludeLines    bool
	Page            shared.Page
}

// Repository defines ledger persistence. Create writes header and lines together.
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	UpdateHeader(ctx context.Context, t *Transaction) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Transaction, error)
	ExistsByCode(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
	Find(ctx context.Context, orgID uuid.UUID, filter Filter) ([]Transaction, int64, error)
}
