// Package counting provides the inventory counting workflow: counting
// events, SKU-level counting details and the discrepancy adjustment trail.
package counting

import (
	"context"
	"strings"
	"time"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/entity"
	"stocktally/internal/core/id"
)

// EventType classifies the scope of a counting event.
type EventType string

const (
	// TypeFull counts the entire catalog.
	TypeFull EventType = "FULL"
	// TypeCycle counts one ABC priority group.
	TypeCycle EventType = "CYCLE"
	// TypeSpot counts an ad hoc subset.
	TypeSpot EventType = "SPOT"
)

// EventStatus represents the lifecycle state of a counting event.
type EventStatus string

const (
	StatusPlanned    EventStatus = "PLANNED"
	StatusInProgress EventStatus = "IN_PROGRESS"
	StatusCompleted  EventStatus = "COMPLETED"
	StatusCancelled  EventStatus = "CANCELLED"
)

// ABCGroup is the inventory prioritization tier (A = highest turnover).
type ABCGroup string

const (
	GroupA ABCGroup = "A"
	GroupB ABCGroup = "B"
	GroupC ABCGroup = "C"
)

// SnapshotItem is one Stock Catalog record supplied at start time.
// The event takes a point-in-time copy; it is never re-queried afterward.
type SnapshotItem struct {
	Brand        string
	ProductGroup string
	ProductCode  string
	ColorCode    string
	Size         string
	Barcode      string
	Location     string
	Quantity     int
}

// ProductKey uniquely identifies the SKU (brand + code + color + size).
func (s SnapshotItem) ProductKey() string {
	return s.Brand + "-" + s.ProductCode + "-" + s.ColorCode + "-" + s.Size
}

// CountingEvent is one inventory counting exercise.
//
// The aggregates (TotalItemsPlanned, TotalItemsCounted, DiscrepancyCount)
// are cached summaries over Details and are recomputed inside every
// mutating operation. They must never be derived lazily by callers.
type CountingEvent struct {
	entity.BaseDocument

	EventCode string      `db:"event_code" json:"eventCode"`
	EventType EventType   `db:"event_type" json:"eventType"`
	Status    EventStatus `db:"status" json:"status"`

	ScheduledDate time.Time  `db:"scheduled_date" json:"scheduledDate"`
	StartedAt     *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	AssignedTo []string  `db:"assigned_to" json:"assignedTo,omitempty"`
	LocationID *string   `db:"location_id" json:"locationId,omitempty"`
	ABCGroup   *ABCGroup `db:"abc_group" json:"abcGroup,omitempty"`

	// Cached aggregates over Details.
	TotalItemsPlanned int `db:"total_items_planned" json:"totalItemsPlanned"`
	TotalItemsCounted int `db:"total_items_counted" json:"totalItemsCounted"`
	DiscrepancyCount  int `db:"discrepancy_count" json:"discrepancyCount"`

	Notes string `db:"notes" json:"notes,omitempty"`

	Details []CountingDetail `db:"-" json:"details,omitempty"`
}

// NewCountingEvent creates a counting event in PLANNED state with zeroed
// aggregates. The event code is assigned by the service via the numerator.
func NewCountingEvent(eventType EventType, scheduledDate time.Time) *CountingEvent {
	return &CountingEvent{
		BaseDocument:  entity.NewBaseDocument(),
		EventType:     eventType,
		Status:        StatusPlanned,
		ScheduledDate: scheduledDate,
		Details:       make([]CountingDetail, 0),
	}
}

// Validate implements entity.Validatable.
func (e *CountingEvent) Validate(ctx context.Context) error {
	switch e.EventType {
	case TypeFull, TypeCycle, TypeSpot:
	default:
		return apperror.NewValidation("unknown event type").
			WithDetail("field", "eventType").
			WithDetail("value", string(e.EventType))
	}

	if e.ScheduledDate.IsZero() {
		return apperror.NewValidation("scheduled date is required").
			WithDetail("field", "scheduledDate")
	}

	if e.EventType == TypeCycle && e.ABCGroup == nil {
		return apperror.NewValidation("cycle counting requires an ABC group").
			WithDetail("field", "abcGroup")
	}

	return nil
}

// Start transitions the event to IN_PROGRESS and materializes one detail
// per snapshot item. For CYCLE events the snapshot is expected to be
// pre-filtered to the event's ABC group by the caller.
func (e *CountingEvent) Start(items []SnapshotItem, countedBy string) error {
	if e.Status != StatusPlanned {
		return apperror.NewInvalidTransition("counting event", "start", string(e.Status)).
			WithDetail("event_id", e.ID.String())
	}

	now := time.Now().UTC()
	e.Details = make([]CountingDetail, 0, len(items))
	for _, item := range items {
		e.Details = append(e.Details, newCountingDetail(e.ID, item, countedBy, now))
	}

	e.Status = StatusInProgress
	e.StartedAt = &now
	e.TotalItemsPlanned = len(e.Details)
	e.recalcTotals()
	return nil
}

// RecordScan increments the counted quantity of the detail matching the
// barcode by one. Repeated scans accumulate; ten scans mean quantity ten.
func (e *CountingEvent) RecordScan(barcode string) (*CountingDetail, error) {
	idx := e.detailIndexByBarcode(barcode)
	if idx < 0 {
		// The detail count is a frequent operator question here: an empty
		// event usually means counting was never started.
		return nil, apperror.NewNotFound("barcode", barcode).
			WithDetail("event_id", e.ID.String()).
			WithDetail("detail_count", len(e.Details))
	}

	d := &e.Details[idx]
	d.setCountedQuantity(d.CountedQuantity + 1)
	e.recalcTotals()
	return d, nil
}

// RecordManualCount overwrites the counted quantity of a detail.
// Negative input clamps to zero; counted quantity never goes negative.
func (e *CountingEvent) RecordManualCount(detailID id.ID, quantity int) (*CountingDetail, error) {
	d := e.detailByID(detailID)
	if d == nil {
		return nil, apperror.NewNotFound("counting detail", detailID.String()).
			WithDetail("event_id", e.ID.String())
	}

	d.setCountedQuantity(max(0, quantity))
	e.recalcTotals()
	return d, nil
}

// Complete transitions the event to COMPLETED. Completion is an operator
// decision: it does not require full coverage or resolved discrepancies.
func (e *CountingEvent) Complete() error {
	if e.Status != StatusInProgress {
		return apperror.NewInvalidTransition("counting event", "complete", string(e.Status)).
			WithDetail("event_id", e.ID.String())
	}

	now := time.Now().UTC()
	e.Status = StatusCompleted
	e.CompletedAt = &now
	return nil
}

// Cancel aborts the event. COMPLETED and CANCELLED are terminal.
func (e *CountingEvent) Cancel() error {
	if e.Status == StatusCompleted || e.Status == StatusCancelled {
		return apperror.NewInvalidTransition("counting event", "cancel", string(e.Status)).
			WithDetail("event_id", e.ID.String())
	}
	e.Status = StatusCancelled
	return nil
}

// ApproveDiscrepancy resolves a PENDING detail as APPROVED and produces
// the immutable adjustment record for the audit trail. The adjustment is
// created not yet applied to the inventory ledger; application is an
// external effect recorded via MarkAdjusted.
func (e *CountingEvent) ApproveDiscrepancy(detailID id.ID, reason DiscrepancyReason, notes, approvedBy string) (*CountingAdjustment, error) {
	d := e.detailByID(detailID)
	if d == nil {
		return nil, apperror.NewNotFound("counting detail", detailID.String()).
			WithDetail("event_id", e.ID.String())
	}

	if d.AdjustmentStatus != AdjustmentPending {
		return nil, apperror.NewInvalidTransition("counting detail", "approve", string(d.AdjustmentStatus)).
			WithDetail("detail_id", detailID.String())
	}

	now := time.Now().UTC()
	d.AdjustmentStatus = AdjustmentApproved
	d.DiscrepancyReason = &reason
	d.DiscrepancyNotes = notes
	d.AdjustedBy = &approvedBy
	d.AdjustedAt = &now
	adjusted := d.CountedQuantity
	d.AdjustedQuantity = &adjusted
	d.UpdatedAt = now

	return newAdjustment(d, reason, approvedBy, now), nil
}

// RejectDiscrepancy resolves a PENDING detail as REJECTED.
// No adjustment record is created.
func (e *CountingEvent) RejectDiscrepancy(detailID id.ID, notes string) error {
	d := e.detailByID(detailID)
	if d == nil {
		return apperror.NewNotFound("counting detail", detailID.String()).
			WithDetail("event_id", e.ID.String())
	}

	if d.AdjustmentStatus != AdjustmentPending {
		return apperror.NewInvalidTransition("counting detail", "reject", string(d.AdjustmentStatus)).
			WithDetail("detail_id", detailID.String())
	}

	d.AdjustmentStatus = AdjustmentRejected
	d.DiscrepancyNotes = notes
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkAdjusted moves an APPROVED detail to the terminal ADJUSTED state
// once its adjustment has been applied to the inventory ledger.
func (e *CountingEvent) MarkAdjusted(detailID id.ID) error {
	d := e.detailByID(detailID)
	if d == nil {
		return apperror.NewNotFound("counting detail", detailID.String()).
			WithDetail("event_id", e.ID.String())
	}

	if d.AdjustmentStatus != AdjustmentApproved {
		return apperror.NewInvalidTransition("counting detail", "mark adjusted", string(d.AdjustmentStatus)).
			WithDetail("detail_id", detailID.String())
	}

	d.AdjustmentStatus = AdjustmentAdjusted
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// CompletionRate returns counted/planned in percent.
func (e *CountingEvent) CompletionRate() float64 {
	if e.TotalItemsPlanned == 0 {
		return 0
	}
	return float64(e.TotalItemsCounted) / float64(e.TotalItemsPlanned) * 100
}

// AccuracyRate returns the share of details without discrepancy in percent.
func (e *CountingEvent) AccuracyRate() float64 {
	if len(e.Details) == 0 {
		return 100
	}
	return float64(len(e.Details)-e.DiscrepancyCount) / float64(len(e.Details)) * 100
}

// FilterDetails returns the details whose brand, product code, color code,
// size or barcode contains query (case-insensitive). Empty query returns all.
func (e *CountingEvent) FilterDetails(query string) []CountingDetail {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return e.Details
	}

	matched := make([]CountingDetail, 0, len(e.Details))
	for _, d := range e.Details {
		if d.matches(query) {
			matched = append(matched, d)
		}
	}
	return matched
}

// recalcTotals recomputes the cached aggregates from the detail set.
// Called inside every mutating operation so the cache never diverges.
func (e *CountingEvent) recalcTotals() {
	counted := 0
	discrepant := 0
	for i := range e.Details {
		if e.Details[i].CountedQuantity > 0 {
			counted++
		}
		if e.Details[i].Discrepancy != 0 {
			discrepant++
		}
	}
	e.TotalItemsCounted = counted
	e.DiscrepancyCount = discrepant
}

func (e *CountingEvent) detailByID(detailID id.ID) *CountingDetail {
	for i := range e.Details {
		if e.Details[i].ID == detailID {
			return &e.Details[i]
		}
	}
	return nil
}

func (e *CountingEvent) detailIndexByBarcode(barcode string) int {
	for i := range e.Details {
		if e.Details[i].Barcode != "" && e.Details[i].Barcode == barcode {
			return i
		}
	}
	return -1
}

// StatusFilterAll is the sentinel that disables status filtering.
const StatusFilterAll = "ALL"

// FilterEvents returns the events whose code or notes contains query
// (case-insensitive), AND'd with an exact status match unless statusFilter
// is empty or the "ALL" sentinel.
func FilterEvents(events []*CountingEvent, query, statusFilter string) []*CountingEvent {
	query = strings.ToLower(strings.TrimSpace(query))

	matched := make([]*CountingEvent, 0, len(events))
	for _, e := range events {
		if query != "" &&
			!strings.Contains(strings.ToLower(e.EventCode), query) &&
			!strings.Contains(strings.ToLower(e.Notes), query) {
			continue
		}
		if statusFilter != "" && statusFilter != StatusFilterAll && string(e.Status) != statusFilter {
			continue
		}
		matched = append(matched, e)
	}
	return matched
}
