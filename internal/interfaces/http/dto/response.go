package dto

import "github.com/heraerp/platform/internal/domain/shared"

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	// Fields lists per-field binding failures
	Fields []ValidationDetail `json:"fields,omitempty"`
}

// ValidationDetail describes one invalid request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta represents offset pagination metadata
type Meta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewListResponse creates a success response carrying a page of items
func NewListResponse[T any](result *shared.ListResult[T]) Response {
	return Response{
		Success: true,
		Data:    result.Items,
		Meta: &Meta{
			Total:  result.Total,
			Limit:  result.Limit,
			Offset: result.Offset,
		},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	}
}

// NewDomainErrorResponse renders a domain error with its details
func NewDomainErrorResponse(err *shared.DomainError, requestID string) Response {
	resp := NewErrorResponse(err.Code, err.Message, requestID)
	resp.Error.Details = err.Details
	return resp
}

// NewValidationErrorResponse creates a 400 response listing invalid fields
func NewValidationErrorResponse(message, requestID string, fields []ValidationDetail) Response {
	resp := NewErrorResponse(shared.CodeValidationFailure, message, requestID)
	resp.Error.Fields = fields
	return resp
}
