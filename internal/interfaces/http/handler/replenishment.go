package handler

import (
	"time"

	inventoryapp "github.com/backoffice/backend/internal/application/inventory"
	"github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReplenishmentHandler handles replenishment history and reconciliation endpoints
type ReplenishmentHandler struct {
	BaseHandler
	replenishments *inventoryapp.ReplenishmentService
}

// NewReplenishmentHandler creates a new ReplenishmentHandler
func NewReplenishmentHandler(replenishments *inventoryapp.ReplenishmentService) *ReplenishmentHandler {
	return &ReplenishmentHandler{replenishments: replenishments}
}

// Record books a manual stock-in batch against an item
func (h *ReplenishmentHandler) Record(c *gin.Context) {
	var req inventoryapp.RecordReplenishmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	event, err := h.replenishments.Record(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, event)
}

// History returns an item's replenishment events in chronological order
func (h *ReplenishmentHandler) History(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	history, err := h.replenishments.History(c.Request.Context(), itemID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, history)
}

// ReconciliationTaskResponse represents a reconciliation task in API responses
type ReconciliationTaskResponse struct {
	ID                   uuid.UUID  `json:"id"`
	ReplenishmentEventID uuid.UUID  `json:"replenishment_event_id"`
	PONumber             string     `json:"po_number,omitempty"`
	Category             string     `json:"category"`
	Amount               string     `json:"amount"`
	FailureCode          string     `json:"failure_code"`
	FailureDetail        string     `json:"failure_detail,omitempty"`
	Attempts             int        `json:"attempts"`
	Status               string     `json:"status"`
	ResolvedEntryID      *string    `json:"resolved_entry_id,omitempty"`
	ResolvedAt           *time.Time `json:"resolved_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

func toReconciliationTaskResponse(task *bookkeeping.ReconciliationTask) ReconciliationTaskResponse {
	return ReconciliationTaskResponse{
		ID:                   task.ID,
		ReplenishmentEventID: task.ReplenishmentEventID,
		PONumber:             task.PONumber,
		Category:             string(task.Category),
		Amount:               task.Amount.StringFixed(4),
		FailureCode:          task.FailureCode,
		FailureDetail:        task.FailureDetail,
		Attempts:             task.Attempts,
		Status:               string(task.Status),
		ResolvedEntryID:      task.ResolvedEntryID,
		ResolvedAt:           task.ResolvedAt,
		CreatedAt:            task.CreatedAt,
	}
}

// ListReconciliations returns pending reconciliation tasks, oldest first
func (h *ReplenishmentHandler) ListReconciliations(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	tasks, total, err := h.replenishments.ListPendingReconciliations(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ReconciliationTaskResponse, 0, len(tasks))
	for idx := range tasks {
		responses = append(responses, toReconciliationTaskResponse(&tasks[idx]))
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// ResolveReconciliationRequest carries the late-arriving bookkeeping entry ID
type ResolveReconciliationRequest struct {
	EntryID string `json:"entry_id" binding:"required,max=100"`
}

// ResolveReconciliation closes a pending task with its bookkeeping entry
func (h *ReplenishmentHandler) ResolveReconciliation(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid reconciliation task ID format")
		return
	}

	var req ResolveReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	if err := h.replenishments.ResolveReconciliation(c.Request.Context(), taskID, req.EntryID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *ReplenishmentHandler) bindFilter(c *gin.Context) (shared.Filter, bool) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return shared.Filter{}, false
	}
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}, true
}
