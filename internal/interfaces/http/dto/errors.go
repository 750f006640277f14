package dto

import (
	"net/http"

	"github.com/backoffice/backend/internal/domain/shared"
)

// Transport-level error codes for failures that never reach the domain
// layer. Domain errors keep their own stable codes (see shared/errors.go)
// so API clients can branch on them.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeNotFound is used when a route or resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodePayloadTooLarge is used when the request body exceeds the limit
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Conflict-shaped business failures (state machine violations, edit locks,
// optimistic locking) map to 409; rule violations on otherwise well-formed
// requests map to 422; upstream dependency failures map to 502.
var ErrorCodeHTTPStatus = map[string]int{
	// Transport errors
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	// Lookup failures -> 404 Not Found
	"NOT_FOUND":            http.StatusNotFound,
	"ITEM_NOT_FOUND":       http.StatusNotFound,
	"ENTRY_NOT_FOUND":      http.StatusNotFound,
	shared.CodeUnknownItem: http.StatusNotFound,

	// State conflicts -> 409 Conflict
	"ALREADY_EXISTS":             http.StatusConflict,
	"ALREADY_RESOLVED":           http.StatusConflict,
	"INVALID_STATUS":             http.StatusConflict,
	"DUPLICATE_SKU":              http.StatusConflict,
	"DUPLICATE_ITEM":             http.StatusConflict,
	"CONCURRENCY_CONFLICT":       http.StatusConflict,
	shared.CodeInvalidTransition: http.StatusConflict,
	shared.CodeOrderLocked:       http.StatusConflict,

	// Business rule violations -> 422 Unprocessable Entity
	"INVALID_STATE":              http.StatusUnprocessableEntity,
	"INVALID_KIND":               http.StatusUnprocessableEntity,
	"NO_ITEMS":                   http.StatusUnprocessableEntity,
	"ITEM_IN_USE":                http.StatusConflict,
	shared.CodeInvalidQuantity:   http.StatusUnprocessableEntity,
	shared.CodeInvalidCost:       http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock: http.StatusUnprocessableEntity,
	shared.CodeInvalidEntry:      http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request. Mostly domain constructor guards on
	// fields the binding layer already validates, kept for direct callers.
	"INVALID_INPUT":     http.StatusBadRequest,
	"INVALID_REASON":    http.StatusBadRequest,
	"INVALID_NAME":      http.StatusBadRequest,
	"INVALID_ITEM_NAME": http.StatusBadRequest,
	"INVALID_SKU":       http.StatusBadRequest,
	"INVALID_SUPPLIER":  http.StatusBadRequest,
	"INVALID_PO_NUMBER": http.StatusBadRequest,
	"INVALID_SOURCE":    http.StatusBadRequest,
	"INVALID_LINK":      http.StatusBadRequest,

	// Upstream dependency failures -> 502 Bad Gateway
	shared.CodeGatewayUnavailable: http.StatusBadGateway,
	shared.CodeReauthRequired:     http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ValidationDetail describes a single field-level validation failure
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewErrorResponseWithRequestID creates an error response carrying the
// request ID so clients can correlate failures with server logs
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	}
}

// NewValidationErrorResponse creates a 400-shaped response with per-field details
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      ErrCodeValidation,
			Message:   message,
			RequestID: requestID,
			Details:   details,
		},
	}
}
