// Package stockitem provides the Stock Catalog: the SKU-level inventory
// records that counting events take their snapshots from.
package stockitem

import (
	"context"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/entity"
	"stocktally/internal/core/types"
)

// ABCGroup is the inventory prioritization tier (A = highest turnover).
type ABCGroup string

const (
	GroupA ABCGroup = "A"
	GroupB ABCGroup = "B"
	GroupC ABCGroup = "C"
)

// StockItem is one SKU of the catalog, identified by brand, product code,
// color code and size. Barcode is the scan key and may be missing for
// items that only support manual counting.
type StockItem struct {
	entity.BaseCatalog

	Brand        string `db:"brand" json:"brand"`
	ProductGroup string `db:"product_group" json:"productGroup"`
	ProductCode  string `db:"product_code" json:"productCode"`
	ColorCode    string `db:"color_code" json:"colorCode"`
	Size         string `db:"size" json:"size"`
	Barcode      string `db:"barcode" json:"barcode,omitempty"`
	Season       string `db:"season" json:"season,omitempty"`
	Location     string `db:"location" json:"location,omitempty"`

	Quantity int         `db:"quantity" json:"quantity"`
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	ABCGroup *ABCGroup `db:"abc_group" json:"abcGroup,omitempty"`
}

// NewStockItem creates a stock item with zero cost.
func NewStockItem(brand, productCode, colorCode, size string) *StockItem {
	return &StockItem{
		BaseCatalog: entity.NewBaseCatalog(),
		Brand:       brand,
		ProductCode: productCode,
		ColorCode:   colorCode,
		Size:        size,
		UnitCost:    types.ZeroMoney(),
	}
}

// ProductKey uniquely identifies the SKU.
func (s *StockItem) ProductKey() string {
	return s.Brand + "-" + s.ProductCode + "-" + s.ColorCode + "-" + s.Size
}

// Validate implements entity.Validatable.
func (s *StockItem) Validate(ctx context.Context) error {
	if s.ProductCode == "" {
		return apperror.NewValidation("product code is required").
			WithDetail("field", "productCode")
	}

	if s.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity").
			WithDetail("value", s.Quantity)
	}

	if s.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}

	if s.ABCGroup != nil {
		switch *s.ABCGroup {
		case GroupA, GroupB, GroupC:
		default:
			return apperror.NewValidation("unknown ABC group").
				WithDetail("field", "abcGroup").
				WithDetail("value", string(*s.ABCGroup))
		}
	}

	return nil
}
