package stockitem

import (
	"context"

	"stocktally/internal/core/types"
	"stocktally/internal/domain/counting"
)

// SnapshotAdapter exposes the stock catalog as the snapshot source of the
// counting workflow.
type SnapshotAdapter struct {
	svc *Service
}

// NewSnapshotAdapter wraps a catalog service for the counting service.
func NewSnapshotAdapter(svc *Service) *SnapshotAdapter {
	return &SnapshotAdapter{svc: svc}
}

var _ counting.SnapshotSource = (*SnapshotAdapter)(nil)

// Snapshot implements counting.SnapshotSource.
func (a *SnapshotAdapter) Snapshot(ctx context.Context, group *counting.ABCGroup) ([]counting.SnapshotItem, error) {
	var catalogGroup *ABCGroup
	if group != nil {
		g := ABCGroup(*group)
		catalogGroup = &g
	}

	items, err := a.svc.Snapshot(ctx, catalogGroup)
	if err != nil {
		return nil, err
	}

	snapshot := make([]counting.SnapshotItem, 0, len(items))
	for _, item := range items {
		snapshot = append(snapshot, counting.SnapshotItem{
			Brand:        item.Brand,
			ProductGroup: item.ProductGroup,
			ProductCode:  item.ProductCode,
			ColorCode:    item.ColorCode,
			Size:         item.Size,
			Barcode:      item.Barcode,
			Location:     item.Location,
			Quantity:     item.Quantity,
		})
	}
	return snapshot, nil
}

// UnitCost implements counting.SnapshotSource.
func (a *SnapshotAdapter) UnitCost(ctx context.Context, brand, productCode, colorCode, size string) (types.Money, error) {
	return a.svc.UnitCost(ctx, brand, productCode, colorCode, size)
}
