package inventory

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/procurement"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemService handles stock-keeping unit management: definition, reorder
// points, activation and packaging links. Quantity and cost mutations are
// the LedgerService's job, never this one's.
type ItemService struct {
	itemRepo       inventory.InventoryItemRepository
	orderRepo      procurement.PurchaseOrderRepository
	eventPublisher shared.EventPublisher
}

// NewItemService creates a new ItemService
func NewItemService(itemRepo inventory.InventoryItemRepository, orderRepo procurement.PurchaseOrderRepository) *ItemService {
	return &ItemService{
		itemRepo:  itemRepo,
		orderRepo: orderRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ItemService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ItemService) publishDomainEvents(ctx context.Context, item *inventory.InventoryItem) {
	if s.eventPublisher == nil {
		return
	}
	events := item.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	item.ClearDomainEvents()
}

// Define creates a new stock-keeping unit with zero quantity
func (s *ItemService) Define(ctx context.Context, req DefineItemRequest) (*ItemResponse, error) {
	existing, err := s.itemRepo.FindBySKU(ctx, req.SKU)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("DUPLICATE_SKU", "An item with this SKU already exists")
	}

	item, err := inventory.NewInventoryItem(inventory.ItemKind(req.Kind), req.Name, req.SKU)
	if err != nil {
		return nil, err
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, item)

	response := ToItemResponse(item)
	return &response, nil
}

// Get retrieves an item by ID
func (s *ItemService) Get(ctx context.Context, itemID uuid.UUID) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnknownItem
		}
		return nil, err
	}
	response := ToItemResponse(item)
	return &response, nil
}

// List retrieves items with filtering and pagination
func (s *ItemService) List(ctx context.Context, filter ItemListFilter) ([]ItemResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search

	if filter.Kind != "" {
		domainFilter.Filters["kind"] = filter.Kind
	}
	if filter.StockState != "" {
		domainFilter.Filters["stock_state"] = filter.StockState
	}
	if !filter.IncludeHidden {
		domainFilter.Filters["active_only"] = true
	}

	items, err := s.itemRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.itemRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToItemResponses(items), total, nil
}

// ListLowStock returns items at or below their reorder point
func (s *ItemService) ListLowStock(ctx context.Context, filter shared.Filter) ([]ItemResponse, error) {
	items, err := s.itemRepo.FindBelowReorderPoint(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToItemResponses(items), nil
}

// SetReorderPoint sets the low-stock threshold of an item
func (s *ItemService) SetReorderPoint(ctx context.Context, itemID uuid.UUID, req SetReorderPointRequest) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnknownItem
		}
		return nil, err
	}

	if err := item.SetReorderPoint(req.ReorderPoint); err != nil {
		return nil, err
	}
	if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
		return nil, err
	}

	response := ToItemResponse(item)
	return &response, nil
}

// Activate clears an item's manual inactive flag
func (s *ItemService) Activate(ctx context.Context, itemID uuid.UUID) (*ItemResponse, error) {
	return s.setActive(ctx, itemID, true)
}

// Deactivate hides an item without touching its quantity or cost
func (s *ItemService) Deactivate(ctx context.Context, itemID uuid.UUID) (*ItemResponse, error) {
	return s.setActive(ctx, itemID, false)
}

func (s *ItemService) setActive(ctx context.Context, itemID uuid.UUID, active bool) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnknownItem
		}
		return nil, err
	}

	if active {
		item.Activate()
	} else {
		item.Deactivate()
	}
	if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, item)

	response := ToItemResponse(item)
	return &response, nil
}

// LinkPackaging links a packaging material to a product
func (s *ItemService) LinkPackaging(ctx context.Context, productID uuid.UUID, req LinkPackagingRequest) (*ItemResponse, error) {
	product, err := s.itemRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnknownItem
		}
		return nil, err
	}

	packaging, err := s.itemRepo.FindByID(ctx, req.PackagingItemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnknownItem
		}
		return nil, err
	}
	if packaging.Kind != inventory.ItemKindPackaging {
		return nil, shared.NewDomainError("INVALID_KIND", "Linked item must be a packaging material")
	}

	if err := product.LinkPackaging(packaging.ID, req.QuantityPerUnit, req.IncludePackagingCost); err != nil {
		return nil, err
	}
	if err := s.itemRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}

	response := ToItemResponse(product)
	return &response, nil
}

// UnlinkPackaging removes a product's packaging link
func (s *ItemService) UnlinkPackaging(ctx context.Context, productID uuid.UUID) (*ItemResponse, error) {
	product, err := s.itemRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnknownItem
		}
		return nil, err
	}

	product.UnlinkPackaging()
	if err := s.itemRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}

	response := ToItemResponse(product)
	return &response, nil
}

// CompositeCost returns a product's cost basis including its linked
// packaging share when cost inclusion is enabled
func (s *ItemService) CompositeCost(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	product, err := s.itemRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, shared.ErrUnknownItem
		}
		return decimal.Zero, err
	}

	if product.LinkedPackagingID == nil || !product.IncludePackagingCost {
		return product.UnitCost, nil
	}

	packaging, err := s.itemRepo.FindByID(ctx, *product.LinkedPackagingID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return product.UnitCost, nil
		}
		return decimal.Zero, err
	}

	return product.CompositeUnitCost(packaging.UnitCost), nil
}

// Delete removes an item. Refused while any open purchase order still
// references it.
func (s *ItemService) Delete(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrUnknownItem
		}
		return err
	}

	if item.HasStock() {
		return shared.NewDomainError("INVALID_STATE", "Item still holds stock and cannot be deleted")
	}

	if s.orderRepo != nil {
		open, err := s.orderRepo.FindOpenByPackagingItem(ctx, item.ID)
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return shared.NewDomainError("ITEM_IN_USE", "Item is referenced by an open purchase order")
		}
	}

	return s.itemRepo.Delete(ctx, item.ID)
}
