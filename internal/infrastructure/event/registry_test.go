package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerRegistry_Register(t *testing.T) {
	t.Run("specific types only see their events", func(t *testing.T) {
		registry := NewHandlerRegistry()
		handler := newRecordingHandler("procurement.purchase_order_created", "procurement.purchase_order_received")

		registry.Register(handler, "procurement.purchase_order_created", "procurement.purchase_order_received")

		assert.Len(t, registry.GetHandlers("procurement.purchase_order_created"), 1)
		assert.Len(t, registry.GetHandlers("procurement.purchase_order_received"), 1)
		assert.Empty(t, registry.GetHandlers("procurement.purchase_order_cancelled"))
	})

	t.Run("wildcard sees every type", func(t *testing.T) {
		registry := NewHandlerRegistry()
		audit := newRecordingHandler()

		registry.Register(audit)

		assert.Len(t, registry.GetHandlers("inventory.stock_credited"), 1)
		assert.Len(t, registry.GetHandlers("procurement.purchase_order_created"), 1)
	})

	t.Run("typed handlers come before wildcards", func(t *testing.T) {
		registry := NewHandlerRegistry()
		ledger := newRecordingHandler("inventory.stock_credited")
		audit := newRecordingHandler()

		registry.Register(ledger, "inventory.stock_credited")
		registry.Register(audit)

		handlers := registry.GetHandlers("inventory.stock_credited")
		require.Len(t, handlers, 2)
		assert.Equal(t, ledger, handlers[0].(*recordingHandler))

		handlers = registry.GetHandlers("inventory.item_defined")
		require.Len(t, handlers, 1)
		assert.Equal(t, audit, handlers[0].(*recordingHandler))
	})
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	t.Run("removes one handler and keeps the rest", func(t *testing.T) {
		registry := NewHandlerRegistry()
		first := newRecordingHandler("inventory.stock_credited")
		second := newRecordingHandler("inventory.stock_credited")

		registry.Register(first, "inventory.stock_credited")
		registry.Register(second, "inventory.stock_credited")
		require.Len(t, registry.GetHandlers("inventory.stock_credited"), 2)

		registry.Unregister(first)

		handlers := registry.GetHandlers("inventory.stock_credited")
		require.Len(t, handlers, 1)
		assert.Equal(t, second, handlers[0].(*recordingHandler))
	})

	t.Run("removes wildcard handlers too", func(t *testing.T) {
		registry := NewHandlerRegistry()
		audit := newRecordingHandler()

		registry.Register(audit)
		require.Len(t, registry.GetHandlers("inventory.stock_credited"), 1)

		registry.Unregister(audit)

		assert.Empty(t, registry.GetHandlers("inventory.stock_credited"))
	})
}

func TestHandlerRegistry_GetAllHandlers(t *testing.T) {
	t.Run("counts typed and wildcard handlers once each", func(t *testing.T) {
		registry := NewHandlerRegistry()
		registry.Register(newRecordingHandler("inventory.stock_credited"), "inventory.stock_credited")
		registry.Register(newRecordingHandler("procurement.purchase_order_created"), "procurement.purchase_order_created")
		registry.Register(newRecordingHandler())

		assert.Len(t, registry.GetAllHandlers(), 3)
	})

	t.Run("multi-type registration is not duplicated", func(t *testing.T) {
		registry := NewHandlerRegistry()
		handler := newRecordingHandler("inventory.stock_credited", "inventory.stock_debited")

		registry.Register(handler, "inventory.stock_credited", "inventory.stock_debited")

		assert.Len(t, registry.GetAllHandlers(), 1)
	})
}
