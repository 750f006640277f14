package event

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/backoffice/backend/internal/domain/shared"
)

func setupPublisherMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func newPublisher(eventTypes ...string) *OutboxPublisher {
	serializer := NewEventSerializer()
	for _, et := range eventTypes {
		serializer.Register(et, &fakeEvent{})
	}
	return NewOutboxPublisher(serializer)
}

func TestOutboxPublisher_SaveEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("captures the event inside the transaction", func(t *testing.T) {
		db, mock := setupPublisherMockDB(t)
		publisher := newPublisher("inventory.stock_credited")
		event := newFakeEvent("inventory.stock_credited")

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "outbox_events"`)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return publisher.SaveEvents(ctx, tx, event)
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("batches multiple events into one insert", func(t *testing.T) {
		db, mock := setupPublisherMockDB(t)
		publisher := newPublisher("procurement.purchase_order_received")

		events := []shared.DomainEvent{
			newFakeEvent("procurement.purchase_order_received"),
			newFakeEvent("procurement.purchase_order_received"),
			newFakeEvent("procurement.purchase_order_received"),
		}

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "outbox_events"`)).
			WillReturnResult(sqlmock.NewResult(1, 3))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return publisher.SaveEvents(ctx, tx, events...)
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no events means no insert", func(t *testing.T) {
		db, mock := setupPublisherMockDB(t)
		publisher := newPublisher()

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return publisher.SaveEvents(ctx, tx)
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a transaction handle that is not gorm", func(t *testing.T) {
		publisher := newPublisher("inventory.stock_credited")
		event := newFakeEvent("inventory.stock_credited")

		err := publisher.SaveEvents(ctx, "not a db", event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires *gorm.DB")
	})

	t.Run("a failing transaction rolls the capture back", func(t *testing.T) {
		db, mock := setupPublisherMockDB(t)
		publisher := newPublisher("inventory.stock_debited")
		event := newFakeEvent("inventory.stock_debited")

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "outbox_events"`)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectRollback()

		ledgerErr := errors.New("ledger update failed")
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := publisher.SaveEvents(ctx, tx, event); err != nil {
				return err
			}
			return ledgerErr
		})

		require.ErrorIs(t, err, ledgerErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
