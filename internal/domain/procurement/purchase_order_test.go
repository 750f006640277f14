package procurement

import (
	"testing"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestOrder(t *testing.T) *PurchaseOrder {
	t.Helper()
	order, err := NewPurchaseOrder("PO-202608-0001", "Acme Packaging Co", time.Now())
	require.NoError(t, err)
	order.ClearDomainEvents()
	return order
}

func createConfirmedOrder(t *testing.T) *PurchaseOrder {
	t.Helper()
	order := createTestOrder(t)
	_, err := order.AddItem(uuid.New(), "Shipping Box", "BOX-001", 100, valueobject.NewMoneyUSDFromFloat(0.45))
	require.NoError(t, err)
	require.NoError(t, order.Confirm())
	order.ClearDomainEvents()
	return order
}

func TestNewPurchaseOrder(t *testing.T) {
	t.Run("creates pending order", func(t *testing.T) {
		order, err := NewPurchaseOrder("PO-202608-0001", "Acme Packaging Co", time.Now())

		require.NoError(t, err)
		assert.Equal(t, PurchaseOrderStatusPending, order.Status)
		assert.False(t, order.ReceivedSideEffectsApplied)
		assert.True(t, order.TotalCost.IsZero())
		assert.Empty(t, order.Items)
	})

	t.Run("fails with empty PO number", func(t *testing.T) {
		_, err := NewPurchaseOrder("", "Acme", time.Now())

		require.Error(t, err)
	})

	t.Run("fails with empty supplier", func(t *testing.T) {
		_, err := NewPurchaseOrder("PO-202608-0001", "", time.Now())

		require.Error(t, err)
	})

	t.Run("emits created event", func(t *testing.T) {
		order, err := NewPurchaseOrder("PO-202608-0001", "Acme", time.Now())

		require.NoError(t, err)
		events := order.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypePurchaseOrderCreated, events[0].EventType())
	})
}

func TestPurchaseOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    PurchaseOrderStatus
		to      PurchaseOrderStatus
		allowed bool
	}{
		{PurchaseOrderStatusPending, PurchaseOrderStatusConfirmed, true},
		{PurchaseOrderStatusPending, PurchaseOrderStatusCancelled, true},
		{PurchaseOrderStatusPending, PurchaseOrderStatusShipped, false},
		{PurchaseOrderStatusPending, PurchaseOrderStatusReceived, false},
		{PurchaseOrderStatusConfirmed, PurchaseOrderStatusShipped, true},
		{PurchaseOrderStatusConfirmed, PurchaseOrderStatusCancelled, true},
		{PurchaseOrderStatusConfirmed, PurchaseOrderStatusReceived, false},
		{PurchaseOrderStatusConfirmed, PurchaseOrderStatusPending, false},
		{PurchaseOrderStatusShipped, PurchaseOrderStatusReceived, true},
		{PurchaseOrderStatusShipped, PurchaseOrderStatusCancelled, true},
		{PurchaseOrderStatusShipped, PurchaseOrderStatusCompleted, false},
		{PurchaseOrderStatusReceived, PurchaseOrderStatusCompleted, true},
		{PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled, false},
		{PurchaseOrderStatusCompleted, PurchaseOrderStatusCancelled, false},
		{PurchaseOrderStatusCancelled, PurchaseOrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPurchaseOrder_AddItem(t *testing.T) {
	t.Run("adds item and recalculates total", func(t *testing.T) {
		order := createTestOrder(t)

		_, err := order.AddItem(uuid.New(), "Shipping Box", "BOX-001", 100, valueobject.NewMoneyUSDFromFloat(0.45))
		require.NoError(t, err)
		assert.Equal(t, "45", order.TotalCost.String())

		_, err = order.AddItem(uuid.New(), "Bubble Wrap", "WRAP-001", 50, valueobject.NewMoneyUSDFromFloat(0.65))
		require.NoError(t, err)
		assert.Equal(t, "77.5", order.TotalCost.String())
		assert.Equal(t, 2, order.ItemCount())
	})

	t.Run("rejects duplicate packaging item", func(t *testing.T) {
		order := createTestOrder(t)
		packagingID := uuid.New()
		_, err := order.AddItem(packagingID, "Box", "BOX-001", 10, valueobject.NewMoneyUSDFromFloat(1.00))
		require.NoError(t, err)

		_, err = order.AddItem(packagingID, "Box", "BOX-001", 5, valueobject.NewMoneyUSDFromFloat(1.00))

		require.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		order := createTestOrder(t)

		_, err := order.AddItem(uuid.New(), "Box", "BOX-001", 0, valueobject.NewMoneyUSDFromFloat(1.00))

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeInvalidQuantity, de.Code)
	})

	t.Run("locked after shipping", func(t *testing.T) {
		order := createConfirmedOrder(t)
		require.NoError(t, order.MarkShipped())

		_, err := order.AddItem(uuid.New(), "Box", "BOX-002", 10, valueobject.NewMoneyUSDFromFloat(1.00))

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeOrderLocked, de.Code)
	})
}

func TestPurchaseOrder_ItemEdits(t *testing.T) {
	t.Run("quantity edit recomputes line and order totals", func(t *testing.T) {
		order := createTestOrder(t)
		item, err := order.AddItem(uuid.New(), "Box", "BOX-001", 100, valueobject.NewMoneyUSDFromFloat(0.45))
		require.NoError(t, err)

		require.NoError(t, order.UpdateItemQuantity(item.ID, 200))

		assert.Equal(t, "90", order.TotalCost.String())
		assert.Equal(t, "90", order.GetItem(item.ID).TotalCost.String())
	})

	t.Run("cost edit recomputes totals", func(t *testing.T) {
		order := createTestOrder(t)
		item, err := order.AddItem(uuid.New(), "Box", "BOX-001", 100, valueobject.NewMoneyUSDFromFloat(0.45))
		require.NoError(t, err)

		require.NoError(t, order.UpdateItemCost(item.ID, valueobject.NewMoneyUSDFromFloat(0.50)))

		assert.Equal(t, "50", order.TotalCost.String())
	})

	t.Run("edits allowed while confirmed", func(t *testing.T) {
		order := createConfirmedOrder(t)
		item := order.Items[0]

		require.NoError(t, order.UpdateItemQuantity(item.ID, 150))

		assert.Equal(t, "67.5", order.TotalCost.String())
	})

	t.Run("edits rejected after shipping", func(t *testing.T) {
		order := createConfirmedOrder(t)
		item := order.Items[0]
		require.NoError(t, order.MarkShipped())

		err := order.UpdateItemQuantity(item.ID, 1)

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeOrderLocked, de.Code)
		assert.Equal(t, int64(100), order.Items[0].Quantity)
	})

	t.Run("remove recomputes total", func(t *testing.T) {
		order := createTestOrder(t)
		itemA, err := order.AddItem(uuid.New(), "Box", "BOX-001", 100, valueobject.NewMoneyUSDFromFloat(0.45))
		require.NoError(t, err)
		_, err = order.AddItem(uuid.New(), "Wrap", "WRAP-001", 50, valueobject.NewMoneyUSDFromFloat(0.65))
		require.NoError(t, err)

		require.NoError(t, order.RemoveItem(itemA.ID))

		assert.Equal(t, "32.5", order.TotalCost.String())
		assert.Equal(t, 1, order.ItemCount())
	})

	t.Run("unknown item edit fails", func(t *testing.T) {
		order := createTestOrder(t)

		err := order.UpdateItemQuantity(uuid.New(), 5)

		require.Error(t, err)
	})
}

func TestPurchaseOrder_Confirm(t *testing.T) {
	t.Run("requires at least one item", func(t *testing.T) {
		order := createTestOrder(t)

		err := order.Confirm()

		require.Error(t, err)
		assert.Equal(t, PurchaseOrderStatusPending, order.Status)
	})

	t.Run("confirms pending order with items", func(t *testing.T) {
		order := createTestOrder(t)
		_, err := order.AddItem(uuid.New(), "Box", "BOX-001", 10, valueobject.NewMoneyUSDFromFloat(1.00))
		require.NoError(t, err)

		require.NoError(t, order.Confirm())

		assert.Equal(t, PurchaseOrderStatusConfirmed, order.Status)
	})
}

func TestPurchaseOrder_MarkReceived(t *testing.T) {
	t.Run("sets actual delivery and side effect guard", func(t *testing.T) {
		order := createConfirmedOrder(t)
		require.NoError(t, order.MarkShipped())
		receivedAt := time.Now()

		require.NoError(t, order.MarkReceived(receivedAt))

		assert.Equal(t, PurchaseOrderStatusReceived, order.Status)
		assert.True(t, order.ReceivedSideEffectsApplied)
		require.NotNil(t, order.ActualDelivery)
		assert.Equal(t, receivedAt, *order.ActualDelivery)
	})

	t.Run("rejected before shipping", func(t *testing.T) {
		order := createConfirmedOrder(t)

		err := order.MarkReceived(time.Now())

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeInvalidTransition, de.Code)
		assert.Equal(t, PurchaseOrderStatusConfirmed, order.Status)
		assert.False(t, order.ReceivedSideEffectsApplied)
	})

	t.Run("second receive is an invalid transition", func(t *testing.T) {
		order := createConfirmedOrder(t)
		require.NoError(t, order.MarkShipped())
		require.NoError(t, order.MarkReceived(time.Now()))

		err := order.MarkReceived(time.Now())

		require.Error(t, err)
		assert.Equal(t, PurchaseOrderStatusReceived, order.Status)
	})

	t.Run("emits received event with lines", func(t *testing.T) {
		order := createConfirmedOrder(t)
		require.NoError(t, order.MarkShipped())
		order.ClearDomainEvents()

		require.NoError(t, order.MarkReceived(time.Now()))

		var received *PurchaseOrderReceivedEvent
		for _, e := range order.GetDomainEvents() {
			if re, ok := e.(*PurchaseOrderReceivedEvent); ok {
				received = re
			}
		}
		require.NotNil(t, received)
		require.Len(t, received.Lines, 1)
		assert.Equal(t, int64(100), received.Lines[0].Quantity)
	})
}

func TestPurchaseOrder_Complete(t *testing.T) {
	order := createConfirmedOrder(t)
	require.NoError(t, order.MarkShipped())
	require.NoError(t, order.MarkReceived(time.Now()))

	require.NoError(t, order.Complete())

	assert.Equal(t, PurchaseOrderStatusCompleted, order.Status)
	assert.True(t, order.Status.IsTerminal())
}

func TestPurchaseOrder_Cancel(t *testing.T) {
	t.Run("cancels from pending", func(t *testing.T) {
		order := createTestOrder(t)

		require.NoError(t, order.Cancel("supplier out of business"))

		assert.Equal(t, PurchaseOrderStatusCancelled, order.Status)
		assert.NotNil(t, order.CancelledAt)
		assert.Equal(t, "supplier out of business", order.CancelReason)
	})

	t.Run("cancels from shipped", func(t *testing.T) {
		order := createConfirmedOrder(t)
		require.NoError(t, order.MarkShipped())

		require.NoError(t, order.Cancel("shipment lost"))

		assert.Equal(t, PurchaseOrderStatusCancelled, order.Status)
	})

	t.Run("requires a reason", func(t *testing.T) {
		order := createTestOrder(t)

		err := order.Cancel("")

		require.Error(t, err)
		assert.Equal(t, PurchaseOrderStatusPending, order.Status)
	})

	t.Run("rejected after receive", func(t *testing.T) {
		order := createConfirmedOrder(t)
		require.NoError(t, order.MarkShipped())
		require.NoError(t, order.MarkReceived(time.Now()))

		err := order.Cancel("too late")

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeInvalidTransition, de.Code)
	})
}

func TestPurchaseOrder_EffectiveSupplier(t *testing.T) {
	order := createTestOrder(t)
	item, err := order.AddItem(uuid.New(), "Box", "BOX-001", 10, valueobject.NewMoneyUSDFromFloat(1.00))
	require.NoError(t, err)

	assert.Equal(t, "Acme Packaging Co", order.EffectiveSupplier(order.GetItem(item.ID)))

	order.GetItem(item.ID).SetSupplierOverride("Budget Boxes Inc")

	assert.Equal(t, "Budget Boxes Inc", order.EffectiveSupplier(order.GetItem(item.ID)))
}
