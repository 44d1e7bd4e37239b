package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/domain/smartcode"
	"github.com/shopspring/decimal"
)

// AggregateType for transaction events
const AggregateType = "Transaction"

// MetadataReversesKey links a compensating transaction to its original
const MetadataReversesKey = "reverses_transaction_id"

// AmountScale is the number of decimal places stored for amounts and quantities
const AmountScale = 4

// Line is one ordered line of a transaction
type Line struct {
	ID           uuid.UUID
	LineNumber   int
	LineType     string
	LineEntityID *uuid.UUID
	Quantity     decimal.Decimal
	UnitAmount   decimal.Decimal
	LineAmount   decimal.Decimal
	LineData     map[string]any
	SmartCode    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Transaction is a header plus its ordered lines. Lines are immutable once created.
type Transaction struct {
	shared.OrganizationAggregateRoot
	TransactionType string
	TransactionCode string
	TransactionDate time.Time
	SourceEntityID  *uuid.UUID
	TargetEntityID  *uuid.UUID
	TotalAmount     decimal.Decimal
	Status          Status
	SmartCode       string
	Metadata        map[string]any
	Lines           []Line
}

// HeaderInput carries the caller-supplied header fields
type HeaderInput struct {
	TransactionType string
	TransactionCode string
	TransactionDate time.Time
	SourceEntityID  *uuid.UUID
	TargetEntityID  *uuid.UUID
	TotalAmount     decimal.Decimal
	Status          Status
	SmartCode       string
	Metadata        map[string]any
}

// LineInput carries the caller-supplied line fields.
// A nil LineAmount is computed as Quantity × UnitAmount; a nil Quantity is 1.
type LineInput struct {
	LineType     string
	LineEntityID *uuid.UUID
	Quantity     *decimal.Decimal
	UnitAmount   *decimal.Decimal
	LineAmount   *decimal.Decimal
	LineData     map[string]any
	SmartCode    string
}

// NewTransaction builds a header with lines numbered from 1.
// Reconciliation is a separate step, see ReconciliationPolicy.
func NewTransaction(orgID uuid.UUID, h HeaderInput, lines []LineInput, actor uuid.UUID) (*Transaction, error) {
	h.TransactionType = strings.ToUpper(strings.TrimSpace(h.TransactionType))
	h.TransactionCode = strings.TrimSpace(h.TransactionCode)
	if h.TransactionType == "" {
		return nil, shared.NewValidationError("transaction_type is required")
	}
	if len(h.TransactionType) > 100 {
		return nil, shared.NewValidationError("transaction_type cannot exceed 100 characters")
	}
	if len(h.TransactionCode) > 100 {
		return nil, shared.NewValidationError("transaction_code cannot exceed 100 characters")
	}
	if err := smartcode.Validate(h.SmartCode); err != nil {
		return nil, err
	}
	if err := checkScale("total_amount", h.TotalAmount, 0); err != nil {
		return nil, err
	}
	if h.Status == "" {
		h.Status = DefaultStatus
	}
	if !h.Status.IsSettable() {
		return nil, shared.NewValidationError("invalid transaction status: " + string(h.Status))
	}

	root := shared.NewOrganizationAggregateRoot(orgID, actor)
	if h.TransactionCode == "" {
		h.TransactionCode = GenerateCode(h.TransactionType, root.CreatedAt, root.ID)
	}
	if h.TransactionDate.IsZero() {
		h.TransactionDate = root.CreatedAt
	}
	if h.Metadata == nil {
		h.Metadata = map[string]any{}
	}

	t := &Transaction{
		OrganizationAggregateRoot: root,
		TransactionType:           h.TransactionType,
		TransactionCode:           h.TransactionCode,
		TransactionDate:           h.TransactionDate,
		SourceEntityID:            h.SourceEntityID,
		TargetEntityID:            h.TargetEntityID,
		TotalAmount:               h.TotalAmount,
		Status:                    h.Status,
		SmartCode:                 h.SmartCode,
		Metadata:                  h.Metadata,
		Lines:                     make([]Line, 0, len(lines)),
	}

	for i, in := range lines {
		line, err := newLine(i+1, in, t.CreatedAt)
		if err != nil {
			return nil, err
		}
		t.Lines = append(t.Lines, line)
	}

	t.AddDomainEvent(NewCreatedEvent(t, actor))
	return t, nil
}

func newLine(number int, in LineInput, now time.Time) (Line, error) {
	if err := smartcode.Validate(in.SmartCode); err != nil {
		if de, ok := shared.AsDomainError(err); ok {
			return Line{}, de.WithDetails(map[string]any{"line_number": number})
		}
		return Line{}, err
	}
	lineType := strings.ToUpper(strings.TrimSpace(in.LineType))
	if lineType == "" {
		lineType = "ITEM"
	}

	qty := decimal.NewFromInt(1)
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	unit := decimal.Zero
	if in.UnitAmount != nil {
		unit = *in.UnitAmount
	}
	// a derived amount is rounded to the stored scale so reconciliation
	// sees the value that is persisted
	amount := qty.Mul(unit).Round(AmountScale)
	if in.LineAmount != nil {
		amount = *in.LineAmount
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{{"quantity", qty}, {"unit_amount", unit}, {"line_amount", amount}} {
		if err := checkScale(f.name, f.value, number); err != nil {
			return Line{}, err
		}
	}
	data := in.LineData
	if data == nil {
		data = map[string]any{}
	}

	return Line{
		ID:           uuid.New(),
		LineNumber:   number,
		LineType:     lineType,
		LineEntityID: in.LineEntityID,
		Quantity:     qty,
		UnitAmount:   unit,
		LineAmount:   amount,
		LineData:     data,
		SmartCode:    in.SmartCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// checkScale rejects values the amount columns would round. lineNumber 0 means the header.
func checkScale(field string, d decimal.Decimal, lineNumber int) error {
	if d.Equal(d.Truncate(AmountScale)) {
		return nil
	}
	details := map[string]any{"field": field, "value": d.String(), "max_decimal_places": AmountScale}
	if lineNumber > 0 {
		details["line_number"] = lineNumber
	}
	return shared.NewValidationError(fmt.Sprintf("%s cannot have more than %d decimal places", field, AmountScale)).
		WithDetails(details)
}

// GenerateCode builds a transaction code unique enough to serve as a dedup key
func GenerateCode(txnType string, at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("TXN-%s-%s-%s", txnType, at.UTC().Format("20060102150405"), strings.ToUpper(id.String()[:8]))
}

// LinesTotal sums line amounts
func (t *Transaction) LinesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range t.Lines {
		sum = sum.Add(l.LineAmount)
	}
	return sum
}

// ReferencedEntityIDs lists source, target and line entities without duplicates
func (t *Transaction) ReferencedEntityIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(id *uuid.UUID) {
		if id == nil || *id == uuid.Nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	add(t.SourceEntityID)
	add(t.TargetEntityID)
	for i := range t.Lines {
		add(t.Lines[i].LineEntityID)
	}
	return ids
}

// HeaderUpdate is the only mutation allowed after creation
type HeaderUpdate struct {
	Status   *Status
	Metadata map[string]any
}

// UpdateHeader changes status and merges metadata. A nil metadata value removes the key.
func (t *Transaction) UpdateHeader(u HeaderUpdate, actor uuid.UUID) error {
	if t.Status.IsTerminal() {
		return shared.NewDomainErrorf(shared.CodeInvalidState, "transaction %s is %s and cannot be changed", t.TransactionCode, t.Status)
	}
	if u.Status == nil && u.Metadata == nil {
		return shared.NewValidationError("nothing to update: provide status or metadata")
	}
	if u.Status != nil {
		if !u.Status.IsSettable() {
			return shared.NewValidationError("invalid transaction status: " + string(*u.Status))
		}
		t.Status = *u.Status
	}
	if u.Metadata != nil {
		if t.Metadata == nil {
			t.Metadata = map[string]any{}
		}
		for k, v := range u.Metadata {
			if v == nil {
				delete(t.Metadata, k)
				continue
			}
			t.Metadata[k] = v
		}
	}
	t.Touch(actor)
	t.IncrementVersion()
	t.AddDomainEvent(NewUpdatedEvent(t, actor))
	return nil
}

// Reverse builds the compensating transaction for t and marks t reversed.
// The reversal negates every amount and links back through metadata.
func (t *Transaction) Reverse(reason string, actor uuid.UUID) (*Transaction, error) {
	if t.Status.IsTerminal() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidState, "transaction %s is %s and cannot be reversed", t.TransactionCode, t.Status)
	}
	if _, isReversal := t.Metadata[MetadataReversesKey]; isReversal {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "a reversal cannot itself be reversed")
	}

	lines := make([]LineInput, 0, len(t.Lines))
	for _, l := range t.Lines {
		qty := l.Quantity.Neg()
		unit := l.UnitAmount
		amount := l.LineAmount.Neg()
		lines = append(lines, LineInput{
			LineType:     l.LineType,
			LineEntityID: l.LineEntityID,
			Quantity:     &qty,
			UnitAmount:   &unit,
			LineAmount:   &amount,
			LineData:     copyMap(l.LineData),
			SmartCode:    l.SmartCode,
		})
	}

	metadata := map[string]any{MetadataReversesKey: t.ID.String()}
	if reason != "" {
		metadata["reversal_reason"] = reason
	}

	reversal, err := NewTransaction(t.OrganizationID(), HeaderInput{
		TransactionType: t.TransactionType,
		TransactionCode: t.TransactionCode + "-REV",
		SourceEntityID:  t.SourceEntityID,
		TargetEntityID:  t.TargetEntityID,
		TotalAmount:     t.TotalAmount.Neg(),
		Status:          StatusCompleted,
		SmartCode:       t.SmartCode,
		Metadata:        metadata,
	}, lines, actor)
	if err != nil {
		return nil, err
	}

	t.Status = StatusReversed
	if t.Metadata == nil {
		t.Metadata = map[string]any{}
	}
	t.Metadata["reversed_by_transaction_id"] = reversal.ID.String()
	t.Touch(actor)
	t.IncrementVersion()
	t.AddDomainEvent(NewReversedEvent(t, reversal, actor))
	return reversal, nil
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
