package dto

import (
	"net/http"

	"github.com/heraerp/platform/internal/domain/shared"
)

// Transport-level error codes. Domain codes come from shared.
const (
	// ErrCodeInvalidJSON is used when the body cannot be decoded
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodePayloadTooLarge is used when the body exceeds the configured limit
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	// ErrCodeRouteNotFound is used for unknown routes
	ErrCodeRouteNotFound = "ROUTE_NOT_FOUND"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the bearer token cannot be verified
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	// ErrCodeRateLimited is used when a caller exceeds the request rate
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Input errors -> 400 Bad Request
	shared.CodeValidationFailure: http.StatusBadRequest,
	shared.CodeInvalidSmartCode:  http.StatusBadRequest,
	ErrCodeInvalidJSON:           http.StatusBadRequest,

	// Auth errors
	shared.CodeUnauthorized:           http.StatusUnauthorized,
	ErrCodeTokenExpired:               http.StatusUnauthorized,
	ErrCodeTokenInvalid:               http.StatusUnauthorized,
	shared.CodeForbidden:              http.StatusForbidden,
	shared.CodeCrossOrgViolation:      http.StatusForbidden,
	shared.CodeIdentityNotProvisioned: http.StatusForbidden,

	// Resource errors
	shared.CodeNotFound:            http.StatusNotFound,
	ErrCodeRouteNotFound:           http.StatusNotFound,
	shared.CodeDuplicateKey:        http.StatusConflict,
	shared.CodeBlockedByReferences: http.StatusConflict,

	// State errors -> 422 Unprocessable Entity
	shared.CodeNotDeleted:           http.StatusUnprocessableEntity,
	shared.CodeAmountMismatch:       http.StatusUnprocessableEntity,
	shared.CodeInvalidState:         http.StatusUnprocessableEntity,
	shared.CodeOrganizationInactive: http.StatusUnprocessableEntity,

	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	shared.CodeInternal:    http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
