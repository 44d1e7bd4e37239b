package shared

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers. Every procedure failure is one of these.
const (
	CodeInvalidSmartCode       = "INVALID_SMART_CODE"
	CodeDuplicateKey           = "DUPLICATE_KEY"
	CodeCrossOrgViolation      = "CROSS_ORG_VIOLATION"
	CodeBlockedByReferences    = "BLOCKED_BY_REFERENCES"
	CodeNotFound               = "NOT_FOUND"
	CodeNotDeleted             = "NOT_DELETED"
	CodeAmountMismatch         = "AMOUNT_MISMATCH"
	CodeIdentityNotProvisioned = "IDENTITY_NOT_PROVISIONED"
	CodeValidationFailure      = "VALIDATION_FAILURE"
	CodeInvalidState           = "INVALID_STATE"
	CodeOrganizationInactive   = "ORGANIZATION_INACTIVE"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeInternal               = "INTERNAL_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on code so sentinel comparisons survive WithDetails copies.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithDetails returns a copy of the error carrying structured details.
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &DomainError{Code: e.Code, Message: e.Message, Details: merged}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrDuplicateKey           = NewDomainError(CodeDuplicateKey, "A record with this key already exists")
	ErrCrossOrgViolation      = NewDomainError(CodeCrossOrgViolation, "Operation crosses an organization boundary")
	ErrBlockedByReferences    = NewDomainError(CodeBlockedByReferences, "Entity is still referenced")
	ErrNotDeleted             = NewDomainError(CodeNotDeleted, "Entity is not deleted or archived")
	ErrAmountMismatch         = NewDomainError(CodeAmountMismatch, "Transaction lines do not reconcile with the header total")
	ErrIdentityNotProvisioned = NewDomainError(CodeIdentityNotProvisioned, "No user entity is provisioned for this identity")
	ErrValidationFailure      = NewDomainError(CodeValidationFailure, "Invalid input provided")
	ErrInvalidState           = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrOrganizationInactive   = NewDomainError(CodeOrganizationInactive, "Organization is not active")
	ErrUnauthorized           = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden              = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)

// NewNotFoundError names the missing resource.
func NewNotFoundError(resource string, id any) *DomainError {
	return NewDomainErrorf(CodeNotFound, "%s %v not found", resource, id).
		WithDetails(map[string]any{"resource": resource, "id": fmt.Sprint(id)})
}

// NewValidationError reports a malformed payload.
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidationFailure, message)
}

// AsDomainError extracts a DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	de, ok := AsDomainError(err)
	return ok && de.Code == code
}
