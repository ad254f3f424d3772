package counting

import (
	"time"

	"github.com/shopspring/decimal"

	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
)

// AdjustmentType is the direction of an inventory correction.
type AdjustmentType string

const (
	AdjustmentIncrease AdjustmentType = "INCREASE"
	AdjustmentDecrease AdjustmentType = "DECREASE"
)

// CountingAdjustment is the immutable audit record produced when a
// discrepancy is approved. Exactly one adjustment exists per approved
// detail; rejected details never produce one.
//
// Application to the inventory ledger is a separate step: the record is
// created with AppliedToInventory false and flipped once via MarkApplied.
type CountingAdjustment struct {
	ID       id.ID `db:"id" json:"id"`
	EventID  id.ID `db:"event_id" json:"eventId"`
	DetailID id.ID `db:"detail_id" json:"detailId"`

	Brand       string `db:"brand" json:"brand"`
	ProductCode string `db:"product_code" json:"productCode"`
	ColorCode   string `db:"color_code" json:"colorCode"`
	Size        string `db:"size" json:"size"`
	Barcode     string `db:"barcode" json:"barcode,omitempty"`

	SystemQuantity  int `db:"system_quantity" json:"systemQuantity"`
	CountedQuantity int `db:"counted_quantity" json:"countedQuantity"`

	AdjustmentType AdjustmentType `db:"adjustment_type" json:"adjustmentType"`
	QuantityChange int            `db:"quantity_change" json:"quantityChange"`

	Reason DiscrepancyReason `db:"reason" json:"reason"`
	Notes  string            `db:"notes" json:"notes,omitempty"`

	// FinancialImpact is quantity change times unit cost, signed by
	// direction (negative for DECREASE).
	FinancialImpact types.Money `db:"financial_impact" json:"financialImpact"`

	ApprovedBy string    `db:"approved_by" json:"approvedBy"`
	ApprovedAt time.Time `db:"approved_at" json:"approvedAt"`

	AppliedToInventory bool       `db:"applied_to_inventory" json:"appliedToInventory"`
	AppliedAt          *time.Time `db:"applied_at" json:"appliedAt,omitempty"`
}

func newAdjustment(d *CountingDetail, reason DiscrepancyReason, approvedBy string, now time.Time) *CountingAdjustment {
	adjType := AdjustmentDecrease
	change := d.Discrepancy
	if change > 0 {
		adjType = AdjustmentIncrease
	} else {
		change = -change
	}

	return &CountingAdjustment{
		ID:       id.New(),
		EventID:  d.EventID,
		DetailID: d.ID,

		Brand:       d.Brand,
		ProductCode: d.ProductCode,
		ColorCode:   d.ColorCode,
		Size:        d.Size,
		Barcode:     d.Barcode,

		SystemQuantity:  d.SystemQuantity,
		CountedQuantity: d.CountedQuantity,

		AdjustmentType: adjType,
		QuantityChange: change,

		Reason: reason,
		Notes:  d.DiscrepancyNotes,

		FinancialImpact: types.ZeroMoney(),

		ApprovedBy: approvedBy,
		ApprovedAt: now,
	}
}

// ProductKey uniquely identifies the adjusted SKU.
func (a *CountingAdjustment) ProductKey() string {
	return a.Brand + "-" + a.ProductCode + "-" + a.ColorCode + "-" + a.Size
}

// SetUnitCost prices the adjustment. The impact keeps the sign of the
// stock movement: increases are positive, decreases negative.
func (a *CountingAdjustment) SetUnitCost(unitCost types.Money) {
	impact := unitCost.Mul(decimal.NewFromInt(int64(a.QuantityChange)))
	if a.AdjustmentType == AdjustmentDecrease {
		impact = impact.Neg()
	}
	a.FinancialImpact = impact
}

// MarkApplied records the moment the adjustment reached the inventory ledger.
func (a *CountingAdjustment) MarkApplied(at time.Time) {
	a.AppliedToInventory = true
	a.AppliedAt = &at
}
