package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReplenishmentService records manual stock-in batches: it credits the
// ledger, appends the audit event and submits the bookkeeping entry, all
// in one transaction. Purchase-order receipts run the same flow per line
// through the procurement service.
type ReplenishmentService struct {
	scope  TransactionScope
	ledger *LedgerService
	booker *EntryBooker
}

// NewReplenishmentService creates a new ReplenishmentService
func NewReplenishmentService(scope TransactionScope, ledger *LedgerService, booker *EntryBooker) *ReplenishmentService {
	return &ReplenishmentService{
		scope:  scope,
		ledger: ledger,
		booker: booker,
	}
}

// Record credits a manual replenishment batch and appends its audit event.
// The bookkeeping entry is submitted inside the same transaction; if the
// gateway stays down the batch still commits with a reconciliation task in
// place of the entry.
func (s *ReplenishmentService) Record(ctx context.Context, req RecordReplenishmentRequest) (*ReplenishmentEventResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Replenishment quantity must be positive")
	}
	if req.BatchCost.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidCost, "Batch cost cannot be negative")
	}

	occurredOn := time.Now()
	if req.Date != nil {
		occurredOn = *req.Date
	}

	unlock := s.ledger.AcquireItemLock(req.ItemID)
	defer unlock()

	var (
		item  *inventory.InventoryItem
		event *inventory.ReplenishmentEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		item, err = loadItem(ctx, repos, req.ItemID)
		if err != nil {
			return err
		}

		balanceBefore := item.Quantity
		batchUnitCost := inventory.BatchUnitCost(req.BatchCost, req.Quantity)

		item, err = s.ledger.CreditInScope(ctx, repos, req.ItemID, req.Quantity, batchUnitCost)
		if err != nil {
			return err
		}

		event, err = inventory.NewReplenishmentEvent(
			item.ID, req.Quantity, req.BatchCost,
			balanceBefore, item.Quantity, item.UnitCost,
			inventory.SourceManual, occurredOn,
		)
		if err != nil {
			return err
		}
		if req.BatchRef != nil {
			event.WithBatchRef(*req.BatchRef)
		}

		if s.booker != nil {
			if err := s.booker.Book(ctx, event, bookkeeping.CategoryInventoryRestock, "Restock "+item.SKU, repos.ReconciliationRepo()); err != nil {
				return err
			}
		}

		return repos.ReplenishmentRepo().Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.ledger.PublishEvents(ctx, item)

	response := ToReplenishmentEventResponse(event)
	return &response, nil
}

// History returns an item's replenishment events in chronological order
// together with the item's current ledger summary.
func (s *ReplenishmentService) History(ctx context.Context, itemID uuid.UUID, filter shared.Filter) (*ReplenishmentHistoryResponse, error) {
	var response *ReplenishmentHistoryResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := loadItem(ctx, repos, itemID)
		if err != nil {
			return err
		}

		events, err := repos.ReplenishmentRepo().FindByItem(ctx, itemID, filter)
		if err != nil {
			return err
		}
		total, err := repos.ReplenishmentRepo().CountByItem(ctx, itemID)
		if err != nil {
			return err
		}

		response = &ReplenishmentHistoryResponse{
			Item:   ToItemResponse(item),
			Events: ToReplenishmentEventResponses(events),
			Total:  total,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// ResolveReconciliation marks a reconciliation task resolved with a
// late-arriving bookkeeping entry ID and links the entry to its event.
func (s *ReplenishmentService) ResolveReconciliation(ctx context.Context, taskID uuid.UUID, entryID string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		task, err := repos.ReconciliationRepo().FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if err := task.Resolve(entryID); err != nil {
			return err
		}
		if err := repos.ReconciliationRepo().Save(ctx, task); err != nil {
			return err
		}
		err = repos.ReplenishmentRepo().SetBookkeepingEntry(ctx, task.ReplenishmentEventID, entryID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return nil
	})
}

// RetryPendingReconciliations re-attempts the bookkeeping submission for up
// to limit pending reconciliation tasks and returns how many were resolved.
// Only tasks deferred by a gateway outage are retried automatically;
// terminal failures stay queued for an operator.
func (s *ReplenishmentService) RetryPendingReconciliations(ctx context.Context, limit int) (int, error) {
	if s.booker == nil {
		return 0, nil
	}
	if limit <= 0 {
		limit = 20
	}

	filter := shared.DefaultFilter()
	filter.PageSize = limit
	tasks, _, err := s.ListPendingReconciliations(ctx, filter)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for i := range tasks {
		task := &tasks[i]
		if task.FailureCode != shared.CodeGatewayUnavailable {
			continue
		}

		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			event, err := repos.ReplenishmentRepo().FindByID(ctx, task.ReplenishmentEventID)
			if err != nil {
				return err
			}

			entryID, err := s.booker.Resubmit(ctx, event, task.Category, "Reconciled replenishment "+event.ID.String())
			if err != nil {
				task.RecordAttempt(err.Error())
				return repos.ReconciliationRepo().Save(ctx, task)
			}

			if err := task.Resolve(entryID); err != nil {
				return err
			}
			if err := repos.ReconciliationRepo().Save(ctx, task); err != nil {
				return err
			}
			if err := repos.ReplenishmentRepo().SetBookkeepingEntry(ctx, event.ID, entryID); err != nil {
				return err
			}
			resolved++
			return nil
		})
		if err != nil {
			return resolved, err
		}
		if ctx.Err() != nil {
			return resolved, ctx.Err()
		}
	}
	return resolved, nil
}

// ListPendingReconciliations returns unresolved reconciliation tasks
func (s *ReplenishmentService) ListPendingReconciliations(ctx context.Context, filter shared.Filter) ([]bookkeeping.ReconciliationTask, int64, error) {
	var (
		tasks []bookkeeping.ReconciliationTask
		total int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		tasks, err = repos.ReconciliationRepo().FindPending(ctx, filter)
		if err != nil {
			return err
		}
		total, err = repos.ReconciliationRepo().CountPending(ctx)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}
