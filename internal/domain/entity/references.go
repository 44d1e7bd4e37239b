package entity

import (
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// ReferenceCounts counts live references to an entity by category
type ReferenceCounts struct {
	TransactionLines    int64 `json:"transaction_lines"`
	TransactionsFrom    int64 `json:"transactions_from"`
	TransactionsTo      int64 `json:"transactions_to"`
	ActiveRelationships int64 `json:"active_relationships"`
}

// Total sums all categories
func (c ReferenceCounts) Total() int64 {
	return c.TransactionLines + c.TransactionsFrom + c.TransactionsTo + c.ActiveRelationships
}

// HasAny reports whether anything references the entity
func (c ReferenceCounts) HasAny() bool {
	return c.Total() > 0
}

// ToMap renders the counts for error details
func (c ReferenceCounts) ToMap() map[string]any {
	return map[string]any{
		"transaction_lines":    c.TransactionLines,
		"transactions_from":    c.TransactionsFrom,
		"transactions_to":      c.TransactionsTo,
		"active_relationships": c.ActiveRelationships,
	}
}

// NewBlockedByReferencesError names the reference counts that block a delete
func NewBlockedByReferencesError(id uuid.UUID, counts ReferenceCounts) *shared.DomainError {
	return shared.NewDomainErrorf(shared.CodeBlockedByReferences,
		"entity %s is referenced by %d record(s); archive it instead or delete with force", id, counts.Total()).
		WithDetails(map[string]any{
			"entity_id":  id.String(),
			"blocked_by": counts.ToMap(),
		})
}

// DeletePolicy decides how deletes are carried out
type DeletePolicy struct {
	// Mode applies to unreferenced entities
	Mode DeleteMode
	// AllowForce lets force=true soft-delete a referenced entity
	AllowForce bool
}

// DefaultDeletePolicy soft-deletes and honours force
func DefaultDeletePolicy() DeletePolicy {
	return DeletePolicy{Mode: DeleteModeSoft, AllowForce: true}
}

// Decide returns the mode to use, or a BlockedByReferences error.
// Forced deletes of referenced entities are always soft.
func (p DeletePolicy) Decide(id uuid.UUID, counts ReferenceCounts, force bool) (DeleteMode, error) {
	if !counts.HasAny() {
		if p.Mode == DeleteModeHard {
			return DeleteModeHard, nil
		}
		return DeleteModeSoft, nil
	}
	if force && p.AllowForce {
		return DeleteModeSoft, nil
	}
	return "", NewBlockedByReferencesError(id, counts)
}
