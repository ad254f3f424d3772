package stockitem

import (
	"strconv"
	"strings"
)

// SourceRow is one row of the upstream stock export. The export comes from
// a Turkish retail system, so the JSON field names stay in its language.
// Quantities arrive as strings and are not guaranteed to be numeric.
type SourceRow struct {
	Brand        string `json:"Marka"`
	ProductCode  string `json:"Ürün Kodu"`
	ProductGroup string `json:"Ürün Grubu"`
	ColorCode    string `json:"Renk Kodu"`
	Size         string `json:"Beden"`
	Inventory    string `json:"Envanter"`
	Barcode      string `json:"Barkod"`
	Season       string `json:"Sezon"`
}

// Item converts the source row into a catalog item. Unparseable or
// negative inventory values become zero rather than failing the import;
// a count against zero will surface the problem as a discrepancy.
func (r SourceRow) Item() *StockItem {
	item := NewStockItem(
		strings.TrimSpace(r.Brand),
		strings.TrimSpace(r.ProductCode),
		strings.TrimSpace(r.ColorCode),
		strings.TrimSpace(r.Size),
	)
	item.ProductGroup = strings.TrimSpace(r.ProductGroup)
	item.Barcode = strings.TrimSpace(r.Barcode)
	item.Season = strings.TrimSpace(r.Season)
	item.Quantity = parseQuantity(r.Inventory)
	return item
}

func parseQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	// Exports occasionally format quantities as decimals ("12.0").
	if i := strings.IndexAny(raw, ".,"); i >= 0 {
		raw = raw[:i]
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
