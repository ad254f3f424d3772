package dto

import (
	"stocktally/internal/core/types"
	"stocktally/internal/domain/catalogs/stockitem"
)

// --- Request DTOs ---

// CreateStockItemRequest for creating stock items.
type CreateStockItemRequest struct {
	Brand        string `json:"brand" binding:"required"`
	ProductGroup string `json:"productGroup,omitempty"`
	ProductCode  string `json:"productCode" binding:"required"`
	ColorCode    string `json:"colorCode,omitempty"`
	Size         string `json:"size,omitempty"`
	Barcode      string `json:"barcode,omitempty"`
	Season       string `json:"season,omitempty"`
	Location     string `json:"location,omitempty"`
	Quantity     int    `json:"quantity" binding:"min=0"`
	UnitCost     string `json:"unitCost,omitempty"`
}

// ToEntity creates a domain stock item from the request.
func (r *CreateStockItemRequest) ToEntity() (*stockitem.StockItem, error) {
	item := stockitem.NewStockItem(r.Brand, r.ProductCode, r.ColorCode, r.Size)
	item.ProductGroup = r.ProductGroup
	item.Barcode = r.Barcode
	item.Season = r.Season
	item.Location = r.Location
	item.Quantity = r.Quantity

	if r.UnitCost != "" {
		cost, err := types.NewMoneyFromString(r.UnitCost)
		if err != nil {
			return nil, err
		}
		item.UnitCost = cost
	}

	return item, nil
}

// UpdateStockItemRequest for updating stock items.
type UpdateStockItemRequest struct {
	ProductGroup *string `json:"productGroup,omitempty"`
	Barcode      *string `json:"barcode,omitempty"`
	Season       *string `json:"season,omitempty"`
	Location     *string `json:"location,omitempty"`
	Quantity     *int    `json:"quantity,omitempty" binding:"omitempty,min=0"`
	UnitCost     *string `json:"unitCost,omitempty"`
}

// ApplyTo overlays the request onto an existing stock item.
func (r *UpdateStockItemRequest) ApplyTo(item *stockitem.StockItem) error {
	if r.ProductGroup != nil {
		item.ProductGroup = *r.ProductGroup
	}
	if r.Barcode != nil {
		item.Barcode = *r.Barcode
	}
	if r.Season != nil {
		item.Season = *r.Season
	}
	if r.Location != nil {
		item.Location = *r.Location
	}
	if r.Quantity != nil {
		item.Quantity = *r.Quantity
	}
	if r.UnitCost != nil {
		cost, err := types.NewMoneyFromString(*r.UnitCost)
		if err != nil {
			return err
		}
		item.UnitCost = cost
	}
	return nil
}

// ImportStockRequest carries raw export rows for a catalog import.
type ImportStockRequest struct {
	Rows []stockitem.SourceRow `json:"rows" binding:"required"`
}

// ImportStockResponse reports the import result.
type ImportStockResponse struct {
	Imported int `json:"imported"`
}

// ReclassifyResponse reports the ABC classification result.
type ReclassifyResponse struct {
	Classified int            `json:"classified"`
	ByGroup    map[string]int `json:"byGroup"`
}
