package procurement

import (
	"context"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PurchaseOrderRepository defines persistence operations for PurchaseOrder.
// Reads preload line items; SaveWithLock enforces the version column so the
// received side effects cannot be applied twice by racing requests.
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByNumber(ctx context.Context, poNumber string) (*PurchaseOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, error)
	FindByStatus(ctx context.Context, status PurchaseOrderStatus, filter shared.Filter) ([]PurchaseOrder, error)
	// FindOpenByPackagingItem returns non-terminal orders with a line
	// targeting the given inventory item. Used to guard item deletion.
	FindOpenByPackagingItem(ctx context.Context, packagingItemID uuid.UUID) ([]PurchaseOrder, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// GeneratePONumber produces the next number in the monthly
	// PO-YYYYMM-NNNN sequence.
	GeneratePONumber(ctx context.Context) (string, error)
	Create(ctx context.Context, order *PurchaseOrder) error
	Save(ctx context.Context, order *PurchaseOrder) error
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
}
