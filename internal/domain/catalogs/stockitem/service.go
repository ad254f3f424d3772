package stockitem

import (
	"context"
	"fmt"

	"stocktally/internal/core/id"
	"stocktally/internal/core/tx"
	"stocktally/internal/core/types"
	"stocktally/internal/domain"
	"stocktally/pkg/logger"
)

// Service provides business operations for the stock catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new stock catalog service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create adds a single stock item.
func (s *Service) Create(ctx context.Context, item *StockItem) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, item)
	})
}

// GetByID retrieves a stock item.
func (s *Service) GetByID(ctx context.Context, itemID id.ID) (*StockItem, error) {
	return s.repo.GetByID(ctx, itemID)
}

// GetByBarcode retrieves a stock item by its scan key.
func (s *Service) GetByBarcode(ctx context.Context, barcode string) (*StockItem, error) {
	return s.repo.GetByBarcode(ctx, barcode)
}

// Update updates a stock item.
func (s *Service) Update(ctx context.Context, item *StockItem) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, item)
	})
}

// Delete soft-deletes a stock item.
func (s *Service) Delete(ctx context.Context, itemID id.ID) error {
	return s.repo.Delete(ctx, itemID)
}

// List retrieves stock items with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockItem], error) {
	return s.repo.List(ctx, filter)
}

// Import replaces the whole catalog with the rows of an upstream export.
// Rows are validated after conversion; any invalid row fails the import
// so a partial catalog is never committed.
func (s *Service) Import(ctx context.Context, rows []SourceRow) (int, error) {
	items := make([]*StockItem, 0, len(rows))
	for i, row := range rows {
		item := row.Item()
		if err := item.Validate(ctx); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		items = append(items, item)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.ReplaceAll(ctx, items)
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "stock catalog imported", "items", len(items))
	return len(items), nil
}

// Reclassify recomputes ABC groups over the full catalog and persists them.
func (s *Service) Reclassify(ctx context.Context) (map[id.ID]ABCGroup, error) {
	result, err := s.repo.List(ctx, ListFilter{ListFilter: domain.ListFilter{Limit: -1}})
	if err != nil {
		return nil, err
	}

	groups := ClassifyABC(result.Items)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpdateABCGroups(ctx, groups)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock catalog reclassified", "items", len(groups))
	return groups, nil
}

// Snapshot returns the current catalog state, optionally restricted to one
// ABC group. Soft-deleted items are excluded.
func (s *Service) Snapshot(ctx context.Context, group *ABCGroup) ([]*StockItem, error) {
	filter := ListFilter{ListFilter: domain.ListFilter{Limit: -1}}
	filter.ABCGroup = group

	result, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// UnitCost looks up the unit cost for a SKU.
func (s *Service) UnitCost(ctx context.Context, brand, productCode, colorCode, size string) (types.Money, error) {
	item, err := s.repo.GetByProductKey(ctx, brand, productCode, colorCode, size)
	if err != nil {
		return types.ZeroMoney(), err
	}
	return item.UnitCost, nil
}
