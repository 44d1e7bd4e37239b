package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// HeaderRequest carries the header of a new transaction
type HeaderRequest struct {
	TransactionType string          `json:"transaction_type" binding:"required,min=1,max=100"`
	TransactionCode string          `json:"transaction_code" binding:"max=100"`
	TransactionDate *time.Time      `json:"transaction_date"`
	SourceEntityID  *uuid.UUID      `json:"source_entity_id"`
	TargetEntityID  *uuid.UUID      `json:"target_entity_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"transaction_status" binding:"omitempty,oneof=pending posted completed cancelled voided"`
	SmartCode       string          `json:"smart_code" binding:"required,smartcode"`
	Metadata        map[string]any  `json:"metadata"`
}

// LineRequest carries one line of a new transaction
type LineRequest struct {
	LineType     string           `json:"line_type" binding:"max=100"`
	LineEntityID *uuid.UUID       `json:"line_entity_id"`
	Quantity     *decimal.Decimal `json:"quantity"`
	UnitAmount   *decimal.Decimal `json:"unit_amount"`
	LineAmount   *decimal.Decimal `json:"line_amount"`
	LineData     map[string]any   `json:"line_data"`
	SmartCode    string           `json:"smart_code" binding:"required,smartcode"`
}

// CreateTransactionRequest writes a header and its lines atomically
type CreateTransactionRequest struct {
	Header          HeaderRequest    `json:"header" binding:"required"`
	Lines           []LineRequest    `json:"lines" binding:"max=1000,dive"`
	AmountTolerance *decimal.Decimal `json:"amount_tolerance"`
	IdempotencyKey  string           `json:"idempotency_key" binding:"max=200"`
}

func (r CreateTransactionRequest) header() ledger.HeaderInput {
	h := ledger.HeaderInput{
		TransactionType: r.Header.TransactionType,
		TransactionCode: r.Header.TransactionCode,
		SourceEntityID:  r.Header.SourceEntityID,
		TargetEntityID:  r.Header.TargetEntityID,
		TotalAmount:     r.Header.TotalAmount,
		Status:          ledger.Status(r.Header.Status),
		SmartCode:       r.Header.SmartCode,
		Metadata:        r.Header.Metadata,
	}
	if r.Header.TransactionDate != nil {
		h.TransactionDate = r.Header.TransactionDate.UTC()
	}
	return h
}

func (r CreateTransactionRequest) lines() []ledger.LineInput {
	out := make([]ledger.LineInput, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = ledger.LineInput{
			LineType:     l.LineType,
			LineEntityID: l.LineEntityID,
			Quantity:     l.Quantity,
			UnitAmount:   l.UnitAmount,
			LineAmount:   l.LineAmount,
			LineData:     l.LineData,
			SmartCode:    l.SmartCode,
		}
	}
	return out
}

// UpdateTransactionRequest changes status and metadata. Lines is accepted
// only so that a line payload can be rejected explicitly.
type UpdateTransactionRequest struct {
	Status   *string         `json:"transaction_status" binding:"omitempty,oneof=pending posted completed cancelled voided"`
	Metadata map[string]any  `json:"metadata"`
	Lines    json.RawMessage `json:"lines,omitempty"`
}

// ReverseTransactionRequest books a compensating transaction
type ReverseTransactionRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// QueryTransactionsRequest filters transactions of one organization
type QueryTransactionsRequest struct {
	IDs             []uuid.UUID `json:"ids"`
	TransactionType string      `json:"transaction_type" form:"transaction_type" binding:"max=100"`
	TransactionCode string      `json:"transaction_code" form:"transaction_code" binding:"max=100"`
	SmartCode       string      `json:"smart_code" form:"smart_code"`
	Status          string      `json:"transaction_status" form:"transaction_status"`
	SourceEntityID  *uuid.UUID  `json:"source_entity_id"`
	TargetEntityID  *uuid.UUID  `json:"target_entity_id"`
	DateFrom        *time.Time  `json:"date_from" form:"date_from" time_format:"2006-01-02"`
	DateTo          *time.Time  `json:"date_to" form:"date_to" time_format:"2006-01-02"`
	IncludeLines    bool        `json:"include_lines" form:"include_lines"`
	Limit           int         `json:"limit" form:"limit" binding:"min=0,max=1000"`
	Offset          int         `json:"offset" form:"offset" binding:"min=0"`
	SortBy          string      `json:"sort_by" form:"sort_by"`
	SortOrder       string      `json:"sort_order" form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// LineResponse represents a transaction line in API responses
type LineResponse struct {
	ID           uuid.UUID       `json:"id"`
	LineNumber   int             `json:"line_number"`
	LineType     string          `json:"line_type"`
	LineEntityID *uuid.UUID      `json:"line_entity_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitAmount   decimal.Decimal `json:"unit_amount"`
	LineAmount   decimal.Decimal `json:"line_amount"`
	LineData     map[string]any  `json:"line_data"`
	SmartCode    string          `json:"smart_code"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrganizationID  uuid.UUID       `json:"organization_id"`
	TransactionType string          `json:"transaction_type"`
	TransactionCode string          `json:"transaction_code"`
	TransactionDate time.Time       `json:"transaction_date"`
	SourceEntityID  *uuid.UUID      `json:"source_entity_id"`
	TargetEntityID  *uuid.UUID      `json:"target_entity_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"transaction_status"`
	SmartCode       string          `json:"smart_code"`
	Metadata        map[string]any  `json:"metadata"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	CreatedBy       uuid.UUID       `json:"created_by"`
	UpdatedBy       uuid.UUID       `json:"updated_by"`
	Version         int             `json:"version"`
	Lines           []LineResponse  `json:"lines,omitempty"`
	// Replayed is set when an idempotency key matched an earlier create
	Replayed bool `json:"replayed,omitempty"`
}

// ReverseTransactionResponse pairs an original with its reversal
type ReverseTransactionResponse struct {
	Original TransactionResponse `json:"original"`
	Reversal TransactionResponse `json:"reversal"`
}

// ToTransactionResponse converts a domain Transaction to a response
func ToTransactionResponse(t *ledger.Transaction) TransactionResponse {
	metadata := t.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	resp := TransactionResponse{
		ID:              t.ID,
		OrganizationID:  t.OrganizationID(),
		TransactionType: t.TransactionType,
		TransactionCode: t.TransactionCode,
		TransactionDate: t.TransactionDate,
		SourceEntityID:  t.SourceEntityID,
		TargetEntityID:  t.TargetEntityID,
		TotalAmount:     t.TotalAmount,
		Status:          string(t.Status),
		SmartCode:       t.SmartCode,
		Metadata:        metadata,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		CreatedBy:       t.CreatedBy,
		UpdatedBy:       t.UpdatedBy,
		Version:         t.Version,
	}
	if len(t.Lines) > 0 {
		resp.Lines = make([]LineResponse, len(t.Lines))
		for i, l := range t.Lines {
			resp.Lines[i] = LineResponse{
				ID:           l.ID,
				LineNumber:   l.LineNumber,
				LineType:     l.LineType,
				LineEntityID: l.LineEntityID,
				Quantity:     l.Quantity,
				UnitAmount:   l.UnitAmount,
				LineAmount:   l.LineAmount,
				LineData:     l.LineData,
				SmartCode:    l.SmartCode,
			}
		}
	}
	return resp
}

// ToTransactionResponses converts a slice of transactions
func ToTransactionResponses(txns []ledger.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i])
	}
	return out
}
