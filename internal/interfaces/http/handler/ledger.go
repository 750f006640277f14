package handler

import (
	inventoryapp "github.com/backoffice/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// LedgerHandler handles stock credit and debit API endpoints
type LedgerHandler struct {
	BaseHandler
	ledger *inventoryapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledger *inventoryapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Credit adds a priced batch of stock to an item, folding the batch cost
// into the item's weighted-average unit cost
func (h *LedgerHandler) Credit(c *gin.Context) {
	var req inventoryapp.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.ledger.Credit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Debit removes stock from an item at its current average cost
func (h *LedgerHandler) Debit(c *gin.Context) {
	var req inventoryapp.DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.ledger.Debit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
