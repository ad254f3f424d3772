package counting

import (
	"strings"
	"time"

	"stocktally/internal/core/id"
)

// AdjustmentStatus is the resolution state of a detail's discrepancy.
type AdjustmentStatus string

const (
	// AdjustmentPending awaits a supervisor decision.
	AdjustmentPending AdjustmentStatus = "PENDING"
	// AdjustmentApproved is approved but not yet applied to inventory.
	AdjustmentApproved AdjustmentStatus = "APPROVED"
	// AdjustmentRejected is a terminal refusal; inventory stays unchanged.
	AdjustmentRejected AdjustmentStatus = "REJECTED"
	// AdjustmentAdjusted means the approved change reached the ledger.
	AdjustmentAdjusted AdjustmentStatus = "ADJUSTED"
)

// DiscrepancyReason explains an approved or investigated discrepancy.
type DiscrepancyReason string

const (
	ReasonDamaged   DiscrepancyReason = "DAMAGED"
	ReasonLost      DiscrepancyReason = "LOST"
	ReasonFound     DiscrepancyReason = "FOUND"
	ReasonTheft     DiscrepancyReason = "THEFT"
	ReasonDataError DiscrepancyReason = "DATA_ERROR"
	ReasonTransfer  DiscrepancyReason = "TRANSFER"
	ReasonOther     DiscrepancyReason = "OTHER"
)

// CountingDetail is the per-SKU line of a counting event. One detail is
// materialized per snapshot item when the event starts.
//
// Discrepancy is always CountedQuantity - SystemQuantity, updated on every
// count mutation together with the severity.
type CountingDetail struct {
	ID      id.ID `db:"id" json:"id"`
	EventID id.ID `db:"event_id" json:"eventId"`
	Version int   `db:"version" json:"version"`

	Brand        string `db:"brand" json:"brand"`
	ProductGroup string `db:"product_group" json:"productGroup"`
	ProductCode  string `db:"product_code" json:"productCode"`
	ColorCode    string `db:"color_code" json:"colorCode"`
	Size         string `db:"size" json:"size"`
	Barcode      string `db:"barcode" json:"barcode,omitempty"`
	Location     string `db:"location" json:"location,omitempty"`

	SystemQuantity  int `db:"system_quantity" json:"systemQuantity"`
	CountedQuantity int `db:"counted_quantity" json:"countedQuantity"`
	Discrepancy     int `db:"discrepancy" json:"discrepancy"`

	Severity DiscrepancySeverity `db:"severity" json:"severity"`

	AdjustmentStatus  AdjustmentStatus   `db:"adjustment_status" json:"adjustmentStatus"`
	DiscrepancyReason *DiscrepancyReason `db:"discrepancy_reason" json:"discrepancyReason,omitempty"`
	DiscrepancyNotes  string             `db:"discrepancy_notes" json:"discrepancyNotes,omitempty"`
	AdjustedQuantity  *int               `db:"adjusted_quantity" json:"adjustedQuantity,omitempty"`
	AdjustedBy        *string            `db:"adjusted_by" json:"adjustedBy,omitempty"`
	AdjustedAt        *time.Time         `db:"adjusted_at" json:"adjustedAt,omitempty"`

	CountedBy string    `db:"counted_by" json:"countedBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func newCountingDetail(eventID id.ID, item SnapshotItem, countedBy string, now time.Time) CountingDetail {
	return CountingDetail{
		ID:      id.New(),
		EventID: eventID,
		Version: 1,

		Brand:        item.Brand,
		ProductGroup: item.ProductGroup,
		ProductCode:  item.ProductCode,
		ColorCode:    item.ColorCode,
		Size:         item.Size,
		Barcode:      item.Barcode,
		Location:     item.Location,

		SystemQuantity:  item.Quantity,
		CountedQuantity: 0,
		Discrepancy:     -item.Quantity,
		Severity:        Severity(item.Quantity, 0),

		AdjustmentStatus: AdjustmentPending,
		CountedBy:        countedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ProductKey uniquely identifies the SKU of this detail.
func (d *CountingDetail) ProductKey() string {
	return d.Brand + "-" + d.ProductCode + "-" + d.ColorCode + "-" + d.Size
}

// setCountedQuantity assigns the counted quantity and keeps the derived
// discrepancy and severity consistent with it.
func (d *CountingDetail) setCountedQuantity(quantity int) {
	d.CountedQuantity = quantity
	d.Discrepancy = d.CountedQuantity - d.SystemQuantity
	d.Severity = Severity(d.SystemQuantity, d.CountedQuantity)
	d.UpdatedAt = time.Now().UTC()
}

// matches reports whether any identifying field contains the lowercased query.
func (d *CountingDetail) matches(query string) bool {
	return strings.Contains(strings.ToLower(d.Brand), query) ||
		strings.Contains(strings.ToLower(d.ProductCode), query) ||
		strings.Contains(strings.ToLower(d.ColorCode), query) ||
		strings.Contains(strings.ToLower(d.Size), query) ||
		strings.Contains(strings.ToLower(d.Barcode), query)
}
