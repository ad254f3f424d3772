package counting

import (
	"sort"

	"stocktally/internal/core/id"
	"stocktally/internal/core/types"
)

// SummaryReport aggregates the outcome of a counting event for review.
type SummaryReport struct {
	EventID   id.ID       `json:"eventId"`
	EventCode string      `json:"eventCode"`
	EventType EventType   `json:"eventType"`
	Status    EventStatus `json:"status"`

	TotalItemsPlanned int     `json:"totalItemsPlanned"`
	TotalItemsCounted int     `json:"totalItemsCounted"`
	DiscrepancyCount  int     `json:"discrepancyCount"`
	CompletionRate    float64 `json:"completionRate"`
	AccuracyRate      float64 `json:"accuracyRate"`

	TotalSurplus  int `json:"totalSurplus"`
	TotalShortage int `json:"totalShortage"`

	BySeverity map[DiscrepancySeverity]int `json:"bySeverity"`
	ByReason   map[DiscrepancyReason]int   `json:"byReason"`
	ByStatus   map[AdjustmentStatus]int    `json:"byStatus"`

	TopDiscrepancies []DiscrepancyLine `json:"topDiscrepancies"`

	TotalFinancialImpact types.Money `json:"totalFinancialImpact"`
}

// DiscrepancyLine is one ranked entry of the report.
type DiscrepancyLine struct {
	DetailID        id.ID               `json:"detailId"`
	ProductKey      string              `json:"productKey"`
	Barcode         string              `json:"barcode,omitempty"`
	SystemQuantity  int                 `json:"systemQuantity"`
	CountedQuantity int                 `json:"countedQuantity"`
	Discrepancy     int                 `json:"discrepancy"`
	Severity        DiscrepancySeverity `json:"severity"`
	Status          AdjustmentStatus    `json:"status"`
}

// topDiscrepancyLimit caps the ranked list of the summary report.
const topDiscrepancyLimit = 10

// BuildSummary computes the summary report from an event with loaded
// details and its adjustment trail.
func BuildSummary(event *CountingEvent, adjustments []CountingAdjustment) *SummaryReport {
	r := &SummaryReport{
		EventID:   event.ID,
		EventCode: event.EventCode,
		EventType: event.EventType,
		Status:    event.Status,

		TotalItemsPlanned: event.TotalItemsPlanned,
		TotalItemsCounted: event.TotalItemsCounted,
		DiscrepancyCount:  event.DiscrepancyCount,
		CompletionRate:    event.CompletionRate(),
		AccuracyRate:      event.AccuracyRate(),

		BySeverity: make(map[DiscrepancySeverity]int),
		ByReason:   make(map[DiscrepancyReason]int),
		ByStatus:   make(map[AdjustmentStatus]int),

		TotalFinancialImpact: types.ZeroMoney(),
	}

	discrepant := make([]DiscrepancyLine, 0, len(event.Details))
	for i := range event.Details {
		d := &event.Details[i]
		r.ByStatus[d.AdjustmentStatus]++

		if d.Discrepancy == 0 {
			continue
		}

		if d.Discrepancy > 0 {
			r.TotalSurplus += d.Discrepancy
		} else {
			r.TotalShortage += -d.Discrepancy
		}

		r.BySeverity[d.Severity]++
		if d.DiscrepancyReason != nil {
			r.ByReason[*d.DiscrepancyReason]++
		}

		discrepant = append(discrepant, DiscrepancyLine{
			DetailID:        d.ID,
			ProductKey:      d.ProductKey(),
			Barcode:         d.Barcode,
			SystemQuantity:  d.SystemQuantity,
			CountedQuantity: d.CountedQuantity,
			Discrepancy:     d.Discrepancy,
			Severity:        d.Severity,
			Status:          d.AdjustmentStatus,
		})
	}

	sort.SliceStable(discrepant, func(i, j int) bool {
		return abs(discrepant[i].Discrepancy) > abs(discrepant[j].Discrepancy)
	})
	if len(discrepant) > topDiscrepancyLimit {
		discrepant = discrepant[:topDiscrepancyLimit]
	}
	r.TopDiscrepancies = discrepant

	for i := range adjustments {
		r.TotalFinancialImpact = r.TotalFinancialImpact.Add(adjustments[i].FinancialImpact)
	}

	return r
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
