package handler

import (
	"github.com/backoffice/backend/internal/infrastructure/marketplace"
	"github.com/backoffice/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// MarketplaceHandler exposes a read-only view of marketplace orders
type MarketplaceHandler struct {
	BaseHandler
	source marketplace.OrderSource
}

// NewMarketplaceHandler creates a new MarketplaceHandler
func NewMarketplaceHandler(source marketplace.OrderSource) *MarketplaceHandler {
	return &MarketplaceHandler{source: source}
}

// ListOrders proxies a page of orders from the marketplace. Nothing is
// persisted locally; the marketplace stays the system of record.
func (h *MarketplaceHandler) ListOrders(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	orders, err := h.source.FetchOrders(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, orders)
}
