package shared

import "errors"

// DomainError represents a domain-level error with a stable machine code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared across the ledger and procurement components
const (
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeInvalidCost        = "INVALID_COST"
	CodeUnknownItem        = "UNKNOWN_ITEM"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeOrderLocked        = "ORDER_LOCKED"
	CodeGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	CodeInvalidEntry       = "INVALID_ENTRY"
	CodeReauthRequired     = "REAUTHORIZATION_REQUIRED"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrUnknownItem         = NewDomainError(CodeUnknownItem, "Inventory item does not exist")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
)

// IsRetryable reports whether the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == CodeGatewayUnavailable || de.Code == "CONCURRENCY_CONFLICT"
}
