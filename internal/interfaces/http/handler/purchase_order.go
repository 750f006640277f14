package handler

import (
	procurementapp "github.com/backoffice/backend/internal/application/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PurchaseOrderHandler handles purchase order API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orders *procurementapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orders *procurementapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// Create opens a new purchase order in PENDING status
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req procurementapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// Get returns a purchase order with its line items
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	order, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByNumber looks up a purchase order by its PO number
func (h *PurchaseOrderHandler) GetByNumber(c *gin.Context) {
	poNumber := c.Param("number")
	if poNumber == "" {
		h.BadRequest(c, "PO number is required")
		return
	}

	order, err := h.orders.GetByNumber(c.Request.Context(), poNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// List returns a filtered, paginated page of purchase orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	filter := procurementapp.OrderListFilter{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	orders, total, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// AddItem appends a line item to an order that is still editable
func (h *PurchaseOrderHandler) AddItem(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req procurementapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	order, err := h.orders.AddItem(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// UpdateItem edits the quantity or cost of a line item before shipping
func (h *PurchaseOrderHandler) UpdateItem(c *gin.Context) {
	orderID, itemID, ok := h.orderAndItemIDs(c)
	if !ok {
		return
	}

	var req procurementapp.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	order, err := h.orders.UpdateItem(c.Request.Context(), orderID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// RemoveItem deletes a line item from an order that is still editable
func (h *PurchaseOrderHandler) RemoveItem(c *gin.Context) {
	orderID, itemID, ok := h.orderAndItemIDs(c)
	if !ok {
		return
	}

	order, err := h.orders.RemoveItem(c.Request.Context(), orderID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// AdvanceStatus moves an order one step forward through its lifecycle.
// Advancing to RECEIVED credits stock and books the expense exactly once.
func (h *PurchaseOrderHandler) AdvanceStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req procurementapp.AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	order, err := h.orders.AdvanceStatus(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Cancel terminates an order that has not yet been received
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req procurementapp.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

func (h *PurchaseOrderHandler) orderAndItemIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid line item ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return orderID, itemID, true
}
