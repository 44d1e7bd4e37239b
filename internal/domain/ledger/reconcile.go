package ledger

import (
	"strings"

	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReconciliationPolicy decides how closely line amounts must match the header total
type ReconciliationPolicy struct {
	// DefaultTolerance applies when neither the request nor the type declares one
	DefaultTolerance decimal.Decimal
	// TypeTolerances overrides the default per transaction type
	TypeTolerances map[string]decimal.Decimal
	// LinelessTypes may be created with zero lines and any nominal amount
	LinelessTypes map[string]bool
}

// DefaultReconciliationPolicy allows half a currency unit of rounding and
// treats audit actions as lineless.
func DefaultReconciliationPolicy() ReconciliationPolicy {
	return ReconciliationPolicy{
		DefaultTolerance: decimal.RequireFromString("0.50"),
		TypeTolerances:   map[string]decimal.Decimal{},
		LinelessTypes:    map[string]bool{"AUDIT": true, "WORKFLOW": true},
	}
}

// ToleranceFor resolves the tolerance for a transaction type
func (p ReconciliationPolicy) ToleranceFor(txnType string, declared *decimal.Decimal) decimal.Decimal {
	if declared != nil {
		return *declared
	}
	if tol, ok := p.TypeTolerances[strings.ToUpper(txnType)]; ok {
		return tol
	}
	return p.DefaultTolerance
}

// AllowsLineless reports whether txnType may carry zero lines
func (p ReconciliationPolicy) AllowsLineless(txnType string) bool {
	return p.LinelessTypes[strings.ToUpper(txnType)]
}

// Reconcile checks |Σ line_amount − total_amount| ≤ tolerance
func (p ReconciliationPolicy) Reconcile(t *Transaction, declared *decimal.Decimal) error {
	if declared != nil && declared.IsNegative() {
		return shared.NewValidationError("amount_tolerance cannot be negative")
	}
	if len(t.Lines) == 0 && p.AllowsLineless(t.TransactionType) {
		return nil
	}

	tolerance := p.ToleranceFor(t.TransactionType, declared)
	sum := t.LinesTotal()
	diff := sum.Sub(t.TotalAmount).Abs()
	if diff.GreaterThan(tolerance) {
		return shared.NewDomainErrorf(shared.CodeAmountMismatch,
			"lines sum to %s but total_amount is %s (difference %s exceeds tolerance %s)",
			sum.StringFixed(2), t.TotalAmount.StringFixed(2), diff.StringFixed(2), tolerance.StringFixed(2)).
			WithDetails(map[string]any{
				"total_amount": t.TotalAmount.String(),
				"lines_total":  sum.String(),
				"difference":   diff.String(),
				"tolerance":    tolerance.String(),
			})
	}
	return nil
}
