package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/cache"
)

type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newGuardedHandler(t *testing.T, inner shared.EventHandler, opts ...IdempotentHandlerOption) *IdempotentHandler {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { store.Close() })
	return NewIdempotentHandler(inner, store, zap.NewNop(), opts...)
}

func TestIdempotentHandler_Handle(t *testing.T) {
	t.Run("first delivery reaches the handler", func(t *testing.T) {
		inner := new(MockEventHandler)
		event := newFakeEvent("inventory.stock_credited")
		inner.On("Handle", mock.Anything, event).Return(nil)

		handler := newGuardedHandler(t, inner)
		require.NoError(t, handler.Handle(context.Background(), event))

		inner.AssertExpectations(t)
		snap := handler.Counts().Snapshot()
		assert.Equal(t, int64(1), snap.Processed)
		assert.Zero(t, snap.Duplicate)
	})

	t.Run("redelivery of the same event is swallowed", func(t *testing.T) {
		inner := new(MockEventHandler)
		event := newFakeEvent("procurement.purchase_order_received")
		inner.On("Handle", mock.Anything, event).Return(nil).Once()

		handler := newGuardedHandler(t, inner)
		for range 3 {
			require.NoError(t, handler.Handle(context.Background(), event))
		}

		inner.AssertExpectations(t)
		snap := handler.Counts().Snapshot()
		assert.Equal(t, int64(1), snap.Processed)
		assert.Equal(t, int64(2), snap.Duplicate)
	})

	t.Run("a failing handler keeps the claim and reports the error", func(t *testing.T) {
		inner := new(MockEventHandler)
		event := newFakeEvent("inventory.stock_debited")
		handlerErr := errors.New("reporting store unavailable")
		inner.On("Handle", mock.Anything, event).Return(handlerErr)

		handler := newGuardedHandler(t, inner)
		err := handler.Handle(context.Background(), event)

		require.ErrorIs(t, err, handlerErr)
		snap := handler.Counts().Snapshot()
		assert.Zero(t, snap.Processed)
		assert.Equal(t, int64(1), snap.Failed)
	})

	t.Run("store failure degrades to at-least-once", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		event := newFakeEvent("inventory.stock_credited")

		store.On("MarkProcessed", mock.Anything, event.EventID().String(), mock.Anything).
			Return(false, errors.New("redis down"))
		inner.On("Handle", mock.Anything, event).Return(nil)

		handler := NewIdempotentHandler(inner, store, zap.NewNop())
		require.NoError(t, handler.Handle(context.Background(), event))

		store.AssertExpectations(t)
		inner.AssertExpectations(t)
	})

	t.Run("disabled config passes everything through", func(t *testing.T) {
		inner := new(MockEventHandler)
		event := newFakeEvent("inventory.stock_credited")
		inner.On("Handle", mock.Anything, event).Return(nil).Times(3)

		config := shared.DefaultIdempotencyConfig()
		config.Enabled = false
		handler := newGuardedHandler(t, inner, WithIdempotencyConfig(config))

		for range 3 {
			require.NoError(t, handler.Handle(context.Background(), event))
		}

		inner.AssertExpectations(t)
		assert.Zero(t, handler.Counts().Snapshot().Processed)
	})
}

func TestIdempotentHandler_EventTypes(t *testing.T) {
	inner := new(MockEventHandler)
	expected := []string{"inventory.stock_credited", "inventory.stock_debited"}
	inner.On("EventTypes").Return(expected)

	handler := newGuardedHandler(t, inner)

	assert.Equal(t, expected, handler.EventTypes())
	inner.AssertExpectations(t)
}

func TestIdempotentHandler_SharedCounts(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	counts := &DeliveryCounts{}

	ledger := new(MockEventHandler)
	reporting := new(MockEventHandler)
	creditEvent := newFakeEvent("inventory.stock_credited")
	receiveEvent := newFakeEvent("procurement.purchase_order_received")
	ledger.On("Handle", mock.Anything, creditEvent).Return(nil)
	reporting.On("Handle", mock.Anything, receiveEvent).Return(nil)

	logger := zap.NewNop()
	first := NewIdempotentHandler(ledger, store, logger, WithDeliveryCounts(counts))
	second := NewIdempotentHandler(reporting, store, logger, WithDeliveryCounts(counts))

	require.NoError(t, first.Handle(context.Background(), creditEvent))
	require.NoError(t, second.Handle(context.Background(), receiveEvent))

	assert.Equal(t, int64(2), counts.Snapshot().Processed)
}

func TestIdempotentHandler_ConcurrentDuplicates(t *testing.T) {
	inner := new(MockEventHandler)
	event := newFakeEvent("inventory.stock_credited")
	inner.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := newGuardedHandler(t, inner)

	const workers = 50
	errChan := make(chan error, workers)
	for range workers {
		go func() {
			errChan <- handler.Handle(context.Background(), event)
		}()
	}
	for range workers {
		assert.NoError(t, <-errChan)
	}

	inner.AssertExpectations(t)
	snap := handler.Counts().Snapshot()
	assert.Equal(t, int64(1), snap.Processed)
	assert.Equal(t, int64(workers-1), snap.Duplicate)
}
