package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"NOT_FOUND", http.StatusNotFound},
		{"ITEM_NOT_FOUND", http.StatusNotFound},
		{shared.CodeUnknownItem, http.StatusNotFound},
		{"CONCURRENCY_CONFLICT", http.StatusConflict},
		{"DUPLICATE_SKU", http.StatusConflict},
		{"ALREADY_RESOLVED", http.StatusConflict},
		{"ITEM_IN_USE", http.StatusConflict},
		{shared.CodeInvalidTransition, http.StatusConflict},
		{shared.CodeOrderLocked, http.StatusConflict},
		{shared.CodeInvalidQuantity, http.StatusUnprocessableEntity},
		{shared.CodeInvalidCost, http.StatusUnprocessableEntity},
		{shared.CodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.CodeInvalidEntry, http.StatusUnprocessableEntity},
		{shared.CodeGatewayUnavailable, http.StatusBadGateway},
		{shared.CodeReauthRequired, http.StatusBadGateway},
		{"INVALID_INPUT", http.StatusBadRequest},
		// Unknown code should return 500
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	requestID := "req-abc-123"
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Resource not found", requestID)

	assert.False(t, resp.Success)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Resource not found", resp.Error.Message)
	assert.Equal(t, requestID, resp.Error.RequestID)
	assert.Empty(t, resp.Error.Details)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "quantity", Message: "must be greater than zero"},
		{Field: "sku", Message: "is required"},
	}
	resp := NewValidationErrorResponse("Request validation failed", "req-1", details)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "quantity", resp.Error.Details[0].Field)
}

func TestErrorResponseJSONShape(t *testing.T) {
	resp := NewErrorResponseWithRequestID("UNKNOWN_ITEM", "Inventory item does not exist", "req-test-123")

	raw, err := json.Marshal(resp)
	assert.NoError(t, err)

	var decoded map[string]any
	assert.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, false, decoded["success"])
	errObj, ok := decoded["error"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "UNKNOWN_ITEM", errObj["code"])
	assert.Equal(t, "req-test-123", errObj["request_id"])
	_, hasDetails := errObj["details"]
	assert.False(t, hasDetails)
	_, hasData := decoded["data"]
	assert.False(t, hasData)
}
