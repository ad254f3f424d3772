package stockitem

import (
	"context"

	"stocktally/internal/core/id"
	"stocktally/internal/domain"
)

// Repository defines persistence operations for stock items.
type Repository interface {
	Create(ctx context.Context, item *StockItem) error
	GetByID(ctx context.Context, itemID id.ID) (*StockItem, error)
	GetByBarcode(ctx context.Context, barcode string) (*StockItem, error)
	GetByProductKey(ctx context.Context, brand, productCode, colorCode, size string) (*StockItem, error)
	Update(ctx context.Context, item *StockItem) error
	Delete(ctx context.Context, itemID id.ID) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockItem], error)

	// ReplaceAll swaps the whole catalog for a fresh import.
	ReplaceAll(ctx context.Context, items []*StockItem) error

	// UpdateABCGroups persists classification results in bulk.
	UpdateABCGroups(ctx context.Context, groups map[id.ID]ABCGroup) error
}

// ListFilter for filtering stock items.
type ListFilter struct {
	domain.ListFilter

	Brand        *string
	ProductGroup *string
	Season       *string
	ABCGroup     *ABCGroup
	InStockOnly  bool
}
