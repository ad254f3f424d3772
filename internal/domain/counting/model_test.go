package counting

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
)

func testSnapshot() []SnapshotItem {
	return []SnapshotItem{
		{Brand: "ACME", ProductGroup: "Shirts", ProductCode: "SH-001", ColorCode: "BLK", Size: "M", Barcode: "8690000000010", Quantity: 10},
		{Brand: "ACME", ProductGroup: "Shirts", ProductCode: "SH-002", ColorCode: "WHT", Size: "L", Barcode: "8690000000027", Quantity: 0},
		{Brand: "Nordik", ProductGroup: "Pants", ProductCode: "PA-100", ColorCode: "NVY", Size: "32", Barcode: "8690000000034", Quantity: 5},
	}
}

func startedEvent(t *testing.T) *CountingEvent {
	t.Helper()
	e := NewCountingEvent(TypeFull, time.Now())
	require.NoError(t, e.Start(testSnapshot(), "operator1"))
	return e
}

func TestNewCountingEvent(t *testing.T) {
	e := NewCountingEvent(TypeFull, time.Now())

	assert.Equal(t, StatusPlanned, e.Status)
	assert.Equal(t, 0, e.TotalItemsPlanned)
	assert.Equal(t, 0, e.TotalItemsCounted)
	assert.Equal(t, 0, e.DiscrepancyCount)
	assert.Empty(t, e.Details)
	assert.False(t, id.IsNil(e.ID))
}

func TestCountingEvent_Validate(t *testing.T) {
	e := NewCountingEvent(TypeFull, time.Now())
	assert.NoError(t, e.Validate(context.Background()))

	e.EventType = "BOGUS"
	assert.Error(t, e.Validate(context.Background()))

	cycle := NewCountingEvent(TypeCycle, time.Now())
	assert.Error(t, cycle.Validate(context.Background()), "cycle without ABC group")

	group := GroupA
	cycle.ABCGroup = &group
	assert.NoError(t, cycle.Validate(context.Background()))
}

func TestCountingEvent_Start(t *testing.T) {
	e := startedEvent(t)

	assert.Equal(t, StatusInProgress, e.Status)
	require.NotNil(t, e.StartedAt)
	require.Len(t, e.Details, 3)

	assert.Equal(t, 3, e.TotalItemsPlanned)
	assert.Equal(t, 0, e.TotalItemsCounted)
	// Counted quantities start at zero, so the two stocked SKUs are
	// already discrepant and the zero-stock SKU is not.
	assert.Equal(t, 2, e.DiscrepancyCount)

	for _, d := range e.Details {
		assert.Equal(t, 0, d.CountedQuantity)
		assert.Equal(t, -d.SystemQuantity, d.Discrepancy)
		assert.Equal(t, AdjustmentPending, d.AdjustmentStatus)
		assert.Equal(t, e.ID, d.EventID)
		assert.Equal(t, "operator1", d.CountedBy)
	}
}

func TestCountingEvent_Start_OnlyFromPlanned(t *testing.T) {
	e := startedEvent(t)
	detailsBefore := len(e.Details)
	countedBefore := e.Details[0].CountedQuantity

	err := e.Start(testSnapshot(), "operator2")

	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "start", appErr.Details["operation"])
	assert.Equal(t, string(StatusInProgress), appErr.Details["current_state"])

	// Failed start must not disturb the running count.
	assert.Equal(t, StatusInProgress, e.Status)
	assert.Len(t, e.Details, detailsBefore)
	assert.Equal(t, countedBefore, e.Details[0].CountedQuantity)
}

func TestCountingEvent_RecordScan_Accumulates(t *testing.T) {
	e := startedEvent(t)

	for i := 1; i <= 7; i++ {
		d, err := e.RecordScan("8690000000010")
		require.NoError(t, err)
		assert.Equal(t, i, d.CountedQuantity)
		assert.Equal(t, i-10, d.Discrepancy)
	}

	assert.Equal(t, 1, e.TotalItemsCounted)
}

func TestCountingEvent_RecordScan_UnknownBarcode(t *testing.T) {
	e := startedEvent(t)
	counted := e.TotalItemsCounted
	discrepant := e.DiscrepancyCount

	d, err := e.RecordScan("0000000000000")

	require.Error(t, err)
	assert.Nil(t, d)
	assert.True(t, apperror.IsNotFound(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 3, appErr.Details["detail_count"])

	// A missed scan leaves every quantity and aggregate untouched.
	assert.Equal(t, counted, e.TotalItemsCounted)
	assert.Equal(t, discrepant, e.DiscrepancyCount)
	for _, detail := range e.Details {
		assert.Equal(t, 0, detail.CountedQuantity)
	}
}

func TestCountingEvent_RecordManualCount(t *testing.T) {
	e := startedEvent(t)
	detail := e.Details[0] // system quantity 10

	d, err := e.RecordManualCount(detail.ID, 8)
	require.NoError(t, err)

	assert.Equal(t, 8, d.CountedQuantity)
	assert.Equal(t, -2, d.Discrepancy)
	// 2/10 is a 20% deviation, above the 15% cutoff.
	assert.Equal(t, SeverityHigh, d.Severity)
	assert.Equal(t, 1, e.TotalItemsCounted)
}

func TestCountingEvent_RecordManualCount_ClampsNegative(t *testing.T) {
	e := startedEvent(t)
	detail := e.Details[0]

	d, err := e.RecordManualCount(detail.ID, -4)
	require.NoError(t, err)

	assert.Equal(t, 0, d.CountedQuantity)
	assert.Equal(t, -10, d.Discrepancy)
}

func TestCountingEvent_RecordManualCount_Overwrites(t *testing.T) {
	e := startedEvent(t)
	detail := e.Details[2] // system quantity 5

	_, err := e.RecordManualCount(detail.ID, 12)
	require.NoError(t, err)

	d, err := e.RecordManualCount(detail.ID, 5)
	require.NoError(t, err)

	assert.Equal(t, 5, d.CountedQuantity)
	assert.Equal(t, 0, d.Discrepancy)
	assert.Equal(t, SeverityLow, d.Severity)
}

func TestCountingEvent_RecordManualCount_UnknownDetail(t *testing.T) {
	e := startedEvent(t)

	_, err := e.RecordManualCount(id.New(), 3)

	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCountingEvent_Aggregates(t *testing.T) {
	e := startedEvent(t)

	_, err := e.RecordManualCount(e.Details[0].ID, 10) // exact match
	require.NoError(t, err)
	_, err = e.RecordManualCount(e.Details[2].ID, 3) // short by 2
	require.NoError(t, err)

	assert.Equal(t, 2, e.TotalItemsCounted)
	assert.Equal(t, 1, e.DiscrepancyCount)

	counted, discrepant := 0, 0
	for _, d := range e.Details {
		assert.Equal(t, d.CountedQuantity-d.SystemQuantity, d.Discrepancy)
		if d.CountedQuantity > 0 {
			counted++
		}
		if d.Discrepancy != 0 {
			discrepant++
		}
	}
	assert.Equal(t, counted, e.TotalItemsCounted)
	assert.Equal(t, discrepant, e.DiscrepancyCount)
}

func TestCountingEvent_Complete(t *testing.T) {
	e := startedEvent(t)

	require.NoError(t, e.Complete())
	assert.Equal(t, StatusCompleted, e.Status)
	require.NotNil(t, e.CompletedAt)

	err := e.Complete()
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestCountingEvent_Complete_RequiresInProgress(t *testing.T) {
	e := NewCountingEvent(TypeFull, time.Now())

	err := e.Complete()
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Equal(t, StatusPlanned, e.Status)
}

func TestCountingEvent_Cancel(t *testing.T) {
	planned := NewCountingEvent(TypeFull, time.Now())
	require.NoError(t, planned.Cancel())
	assert.Equal(t, StatusCancelled, planned.Status)

	running := startedEvent(t)
	require.NoError(t, running.Cancel())

	// Terminal states refuse cancellation.
	assert.Error(t, running.Cancel())

	done := startedEvent(t)
	require.NoError(t, done.Complete())
	err := done.Cancel()
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.Equal(t, StatusCompleted, done.Status)
}

func TestDiscrepancyReason_WireValues(t *testing.T) {
	want := map[DiscrepancyReason]string{
		ReasonDamaged:   "DAMAGED",
		ReasonLost:      "LOST",
		ReasonFound:     "FOUND",
		ReasonTheft:     "THEFT",
		ReasonDataError: "DATA_ERROR",
		ReasonTransfer:  "TRANSFER",
		ReasonOther:     "OTHER",
	}
	for reason, value := range want {
		assert.Equal(t, value, string(reason))
	}
}

func TestCountingEvent_ApproveDiscrepancy(t *testing.T) {
	e := startedEvent(t)
	detail := e.Details[2] // system quantity 5

	_, err := e.RecordManualCount(detail.ID, 8)
	require.NoError(t, err)

	adj, err := e.ApproveDiscrepancy(detail.ID, ReasonTransfer, "late delivery counted", "supervisor1")
	require.NoError(t, err)
	require.NotNil(t, adj)

	assert.Equal(t, AdjustmentIncrease, adj.AdjustmentType)
	assert.Equal(t, 3, adj.QuantityChange)
	assert.Equal(t, 5, adj.SystemQuantity)
	assert.Equal(t, 8, adj.CountedQuantity)
	assert.Equal(t, ReasonTransfer, adj.Reason)
	assert.Equal(t, "supervisor1", adj.ApprovedBy)
	assert.False(t, adj.AppliedToInventory)
	assert.Nil(t, adj.AppliedAt)
	assert.Equal(t, e.ID, adj.EventID)
	assert.Equal(t, detail.ID, adj.DetailID)

	d := e.detailByID(detail.ID)
	assert.Equal(t, AdjustmentApproved, d.AdjustmentStatus)
	require.NotNil(t, d.AdjustedQuantity)
	assert.Equal(t, 8, *d.AdjustedQuantity)
	require.NotNil(t, d.DiscrepancyReason)
	assert.Equal(t, ReasonTransfer, *d.DiscrepancyReason)
	assert.Equal(t, "supervisor1", *d.AdjustedBy)
}

func TestCountingEvent_ApproveDiscrepancy_Shortage(t *testing.T) {
	e := startedEvent(t)
	detail := e.Details[0] // system quantity 10

	_, err := e.RecordManualCount(detail.ID, 6)
	require.NoError(t, err)

	adj, err := e.ApproveDiscrepancy(detail.ID, ReasonTheft, "", "supervisor1")
	require.NoError(t, err)

	assert.Equal(t, AdjustmentDecrease, adj.AdjustmentType)
	assert.Equal(t, 4, adj.QuantityChange)
}

func TestCountingEvent_ApproveDiscrepancy_Twice(t *testing.T) {
	e := startedEvent(t)
	detail := e.Details[0]

	_, err := e.RecordManualCount(detail.ID, 6)
	require.NoError(t, err)

	_, err = e.ApproveDiscrepancy(detail.ID, ReasonTheft, "", "supervisor1")
	require.NoError(t, err)

	adj, err := e.ApproveDiscrepancy(detail.ID, ReasonTheft, "", "supervisor1")
	require.Error(t, err)
	assert.Nil(t, adj)
	assert.True(t, apperror.IsInvalidTransition(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, string(AdjustmentApproved), appErr.Details["current_state"])
}

func TestCountingEvent_RejectDiscrepancy(t *testing.T) {
	e := startedEvent(t)
	detail := e.Details[0]

	_, err := e.RecordManualCount(detail.ID, 6)
	require.NoError(t, err)

	require.NoError(t, e.RejectDiscrepancy(detail.ID, "recount requested"))

	d := e.detailByID(detail.ID)
	assert.Equal(t, AdjustmentRejected, d.AdjustmentStatus)
	assert.Equal(t, "recount requested", d.DiscrepancyNotes)
	assert.Nil(t, d.AdjustedQuantity)

	// Rejection is terminal for the detail.
	err = e.RejectDiscrepancy(detail.ID, "again")
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))

	_, err = e.ApproveDiscrepancy(detail.ID, ReasonTheft, "", "supervisor1")
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestCountingEvent_MarkAdjusted(t *testing.T) {
	e := startedEvent(t)
	detail := e.Details[0]

	_, err := e.RecordManualCount(detail.ID, 6)
	require.NoError(t, err)

	// ADJUSTED is only reachable from APPROVED.
	err = e.MarkAdjusted(detail.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))

	_, err = e.ApproveDiscrepancy(detail.ID, ReasonDamaged, "", "supervisor1")
	require.NoError(t, err)

	require.NoError(t, e.MarkAdjusted(detail.ID))
	assert.Equal(t, AdjustmentAdjusted, e.detailByID(detail.ID).AdjustmentStatus)

	err = e.MarkAdjusted(detail.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestCountingEvent_FilterDetails(t *testing.T) {
	e := startedEvent(t)

	assert.Len(t, e.FilterDetails(""), 3)
	assert.Len(t, e.FilterDetails("acme"), 2)
	assert.Len(t, e.FilterDetails("PA-100"), 1)
	assert.Len(t, e.FilterDetails("8690000000027"), 1)
	assert.Len(t, e.FilterDetails("nvy"), 1)
	assert.Empty(t, e.FilterDetails("nothing-matches"))
}

func TestFilterEvents(t *testing.T) {
	a := NewCountingEvent(TypeFull, time.Now())
	a.EventCode = "SCE-2026-00001"
	a.Notes = "year end"

	b := NewCountingEvent(TypeSpot, time.Now())
	b.EventCode = "SCE-2026-00002"
	require.NoError(t, b.Start(testSnapshot(), "op"))

	events := []*CountingEvent{a, b}

	assert.Len(t, FilterEvents(events, "", ""), 2)
	assert.Len(t, FilterEvents(events, "", StatusFilterAll), 2)
	assert.Len(t, FilterEvents(events, "", string(StatusInProgress)), 1)
	assert.Len(t, FilterEvents(events, "year", ""), 1)
	assert.Len(t, FilterEvents(events, "sce-2026", ""), 2)
	assert.Len(t, FilterEvents(events, "00002", string(StatusPlanned)), 0)
}

func TestCountingEvent_JSONRoundTrip(t *testing.T) {
	e := startedEvent(t)
	_, err := e.RecordScan("8690000000034")
	require.NoError(t, err)
	_, err = e.RecordManualCount(e.Details[0].ID, 8)
	require.NoError(t, err)
	_, err = e.ApproveDiscrepancy(e.Details[0].ID, ReasonDataError, "n", "supervisor1")
	require.NoError(t, err)
	e.EventCode = "SCE-2026-00042"

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded CountingEvent
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, e.EventCode, decoded.EventCode)
	assert.Equal(t, e.Status, decoded.Status)
	assert.Equal(t, e.TotalItemsPlanned, decoded.TotalItemsPlanned)
	assert.Equal(t, e.TotalItemsCounted, decoded.TotalItemsCounted)
	assert.Equal(t, e.DiscrepancyCount, decoded.DiscrepancyCount)
	require.Len(t, decoded.Details, len(e.Details))

	for i := range e.Details {
		assert.Equal(t, e.Details[i].ID, decoded.Details[i].ID)
		assert.Equal(t, e.Details[i].CountedQuantity, decoded.Details[i].CountedQuantity)
		assert.Equal(t, e.Details[i].Discrepancy, decoded.Details[i].Discrepancy)
		assert.Equal(t, e.Details[i].Severity, decoded.Details[i].Severity)
		assert.Equal(t, e.Details[i].AdjustmentStatus, decoded.Details[i].AdjustmentStatus)
	}
}

func TestCountingEvent_CompletionAndAccuracy(t *testing.T) {
	e := startedEvent(t)

	assert.InDelta(t, 0.0, e.CompletionRate(), 0.001)

	_, err := e.RecordManualCount(e.Details[0].ID, 10)
	require.NoError(t, err)
	_, err = e.RecordManualCount(e.Details[2].ID, 4)
	require.NoError(t, err)

	assert.InDelta(t, 66.666, e.CompletionRate(), 0.01)
	// Details 0 and 1 match, detail 2 is off by one.
	assert.InDelta(t, 66.666, e.AccuracyRate(), 0.01)
}
