package handler

import (
	inventoryapp "github.com/backoffice/backend/internal/application/inventory"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ItemHandler handles inventory item API endpoints
type ItemHandler struct {
	BaseHandler
	items *inventoryapp.ItemService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(items *inventoryapp.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// Define creates a new stock-keeping unit with zero quantity
func (h *ItemHandler) Define(c *gin.Context) {
	var req inventoryapp.DefineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	item, err := h.items.Define(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, item)
}

// Get returns a single inventory item by ID
func (h *ItemHandler) Get(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	item, err := h.items.Get(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// List returns a filtered, paginated page of inventory items
func (h *ItemHandler) List(c *gin.Context) {
	filter := inventoryapp.ItemListFilter{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	items, total, err := h.items.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListLowStock returns active items at or below their reorder point
func (h *ItemHandler) ListLowStock(c *gin.Context) {
	items, err := h.items.ListLowStock(c.Request.Context(), shared.DefaultFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// SetReorderPoint updates the low-stock threshold of an item
func (h *ItemHandler) SetReorderPoint(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req inventoryapp.SetReorderPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	item, err := h.items.SetReorderPoint(c.Request.Context(), itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// Activate makes a hidden item visible in default listings again
func (h *ItemHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate hides an item from default listings without deleting its history
func (h *ItemHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *ItemHandler) setActive(c *gin.Context, active bool) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var item *inventoryapp.ItemResponse
	if active {
		item, err = h.items.Activate(c.Request.Context(), itemID)
	} else {
		item, err = h.items.Deactivate(c.Request.Context(), itemID)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// LinkPackaging associates a packaging material with a product
func (h *ItemHandler) LinkPackaging(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req inventoryapp.LinkPackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	item, err := h.items.LinkPackaging(c.Request.Context(), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// UnlinkPackaging removes a product's packaging association
func (h *ItemHandler) UnlinkPackaging(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	item, err := h.items.UnlinkPackaging(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// CompositeCostResponse reports a product's unit cost including packaging
type CompositeCostResponse struct {
	ItemID        uuid.UUID `json:"item_id"`
	CompositeCost string    `json:"composite_cost"`
}

// CompositeCost returns the per-unit cost of a product plus its linked packaging
func (h *ItemHandler) CompositeCost(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	cost, err := h.items.CompositeCost(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CompositeCostResponse{
		ItemID:        productID,
		CompositeCost: cost.StringFixed(4),
	})
}

// Delete removes an item that has no stock and no open purchase orders
func (h *ItemHandler) Delete(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	if err := h.items.Delete(c.Request.Context(), itemID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
