package ledger

import (
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeCreated  = "TransactionCreated"
	EventTypeUpdated  = "TransactionUpdated"
	EventTypeReversed = "TransactionReversed"
)

// CreatedEvent is published after a header and its lines commit
type CreatedEvent struct {
	shared.BaseDomainEvent
	TransactionType string          `json:"transaction_type"`
	TransactionCode string          `json:"transaction_code"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	LineCount       int             `json:"line_count"`
}

// NewCreatedEvent creates a TransactionCreated event
func NewCreatedEvent(t *Transaction, actor uuid.UUID) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreated, AggregateType, t.ID, t.OrganizationID(), actor),
		TransactionType: t.TransactionType,
		TransactionCode: t.TransactionCode,
		TotalAmount:     t.TotalAmount,
		LineCount:       len(t.Lines),
	}
}

// UpdatedEvent is published after a header change
type UpdatedEvent struct {
	shared.BaseDomainEvent
	Status Status `json:"status"`
}

// NewUpdatedEvent creates a TransactionUpdated event
func NewUpdatedEvent(t *Transaction, actor uuid.UUID) *UpdatedEvent {
	return &UpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUpdated, AggregateType, t.ID, t.OrganizationID(), actor),
		Status:          t.Status,
	}
}

// ReversedEvent links an original to its compensating transaction
type ReversedEvent struct {
	shared.BaseDomainEvent
	ReversalID uuid.UUID `json:"reversal_id"`
}

// NewReversedEvent creates a TransactionReversed event
func NewReversedEvent(original, reversal *Transaction, actor uuid.UUID) *ReversedEvent {
	return &ReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReversed, AggregateType, original.ID, original.OrganizationID(), actor),
		ReversalID:      reversal.ID,
	}
}
