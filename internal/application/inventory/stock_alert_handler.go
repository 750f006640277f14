package inventory

import (
	"context"

	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockAlertHandler reacts to stock state transitions delivered through the
// event bus. Drops into LOW_STOCK or OUT_OF_STOCK are logged at warn level
// so operators can pick them up from log-based alerting; recoveries are
// logged at info level.
type StockAlertHandler struct {
	logger *zap.Logger
}

// NewStockAlertHandler creates a new StockAlertHandler
func NewStockAlertHandler(logger *zap.Logger) *StockAlertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockAlertHandler{logger: logger}
}

// Handle processes a stock state change event
func (h *StockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*inventory.StockStateChangedEvent)
	if !ok {
		return nil
	}

	fields := []zap.Field{
		zap.String("item_id", e.AggregateID().String()),
		zap.String("old_state", string(e.OldState)),
		zap.String("new_state", string(e.NewState)),
		zap.Int64("quantity", e.Quantity),
	}

	switch e.NewState {
	case inventory.StockStateOutOfStock:
		h.logger.Warn("item is out of stock", fields...)
	case inventory.StockStateLowStock:
		h.logger.Warn("item dropped below its reorder point", fields...)
	default:
		h.logger.Info("item stock recovered", fields...)
	}
	return nil
}

// EventTypes returns the event types this handler subscribes to
func (h *StockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockStateChanged}
}

var _ shared.EventHandler = (*StockAlertHandler)(nil)
