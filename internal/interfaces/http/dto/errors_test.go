package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeValidationFailure, http.StatusBadRequest},
		{shared.CodeInvalidSmartCode, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{shared.CodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{shared.CodeForbidden, http.StatusForbidden},
		{shared.CodeCrossOrgViolation, http.StatusForbidden},
		{shared.CodeIdentityNotProvisioned, http.StatusForbidden},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeDuplicateKey, http.StatusConflict},
		{shared.CodeBlockedByReferences, http.StatusConflict},
		{shared.CodeNotDeleted, http.StatusUnprocessableEntity},
		{shared.CodeAmountMismatch, http.StatusUnprocessableEntity},
		{shared.CodeInvalidState, http.StatusUnprocessableEntity},
		{shared.CodeOrganizationInactive, http.StatusUnprocessableEntity},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{shared.CodeInternal, http.StatusInternalServerError},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewDomainErrorResponse(t *testing.T) {
	err := shared.NewDomainError(shared.CodeBlockedByReferences, "entity is referenced").
		WithDetails(map[string]any{"transaction_lines": 3})

	body, marshalErr := json.Marshal(NewDomainErrorResponse(err, "req-1"))
	require.NoError(t, marshalErr)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, false, decoded["success"])
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, shared.CodeBlockedByReferences, errObj["code"])
	assert.Equal(t, "req-1", errObj["request_id"])
	assert.Equal(t, float64(3), errObj["details"].(map[string]any)["transaction_lines"])
	assert.NotContains(t, decoded, "data")
}

func TestNewListResponse(t *testing.T) {
	result := shared.NewListResult([]string{"a", "b"}, 7, shared.Page{Limit: 2, Offset: 4})
	resp := NewListResponse(&result)

	assert.True(t, resp.Success)
	assert.Equal(t, []string{"a", "b"}, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, Meta{Total: 7, Limit: 2, Offset: 4}, *resp.Meta)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
		{Field: "smart_code", Message: "Invalid smart code"},
	})
	assert.Equal(t, shared.CodeValidationFailure, resp.Error.Code)
	assert.Len(t, resp.Error.Fields, 1)
}
