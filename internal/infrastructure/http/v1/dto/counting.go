package dto

import (
	"time"

	"stocktally/internal/domain/counting"
)

// --- Request DTOs ---

// CreateEventRequest for creating counting events.
type CreateEventRequest struct {
	EventCode     string    `json:"eventCode,omitempty"`
	EventType     string    `json:"eventType" binding:"required,oneof=FULL CYCLE SPOT"`
	ScheduledDate time.Time `json:"scheduledDate" binding:"required"`
	AssignedTo    []string  `json:"assignedTo,omitempty"`
	LocationID    *string   `json:"locationId,omitempty"`
	ABCGroup      *string   `json:"abcGroup,omitempty" binding:"omitempty,oneof=A B C"`
	Notes         string    `json:"notes,omitempty"`
}

// ToEntity creates a domain event from the request.
func (r *CreateEventRequest) ToEntity() *counting.CountingEvent {
	event := counting.NewCountingEvent(counting.EventType(r.EventType), r.ScheduledDate)
	event.EventCode = r.EventCode
	event.AssignedTo = r.AssignedTo
	event.LocationID = r.LocationID
	event.Notes = r.Notes

	if r.ABCGroup != nil {
		group := counting.ABCGroup(*r.ABCGroup)
		event.ABCGroup = &group
	}

	return event
}

// UpdateEventRequest for updating counting event headers.
type UpdateEventRequest struct {
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	AssignedTo    []string   `json:"assignedTo,omitempty"`
	LocationID    *string    `json:"locationId,omitempty"`
	ABCGroup      *string    `json:"abcGroup,omitempty" binding:"omitempty,oneof=A B C"`
	Notes         *string    `json:"notes,omitempty"`
}

// ApplyTo overlays the request onto an existing event.
func (r *UpdateEventRequest) ApplyTo(event *counting.CountingEvent) {
	if r.ScheduledDate != nil {
		event.ScheduledDate = *r.ScheduledDate
	}
	if r.AssignedTo != nil {
		event.AssignedTo = r.AssignedTo
	}
	if r.LocationID != nil {
		event.LocationID = r.LocationID
	}
	if r.ABCGroup != nil {
		group := counting.ABCGroup(*r.ABCGroup)
		event.ABCGroup = &group
	}
	if r.Notes != nil {
		event.Notes = *r.Notes
	}
}

// RecordScanRequest for barcode scans.
type RecordScanRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

// RecordManualCountRequest for manual quantity entry.
// Quantity is a pointer so an explicit zero survives binding.
type RecordManualCountRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// ApproveDiscrepancyRequest for approving a discrepancy.
type ApproveDiscrepancyRequest struct {
	Reason string `json:"reason" binding:"required,oneof=DAMAGED LOST FOUND THEFT DATA_ERROR TRANSFER OTHER"`
	Notes  string `json:"notes,omitempty"`
}

// RejectDiscrepancyRequest for rejecting a discrepancy.
type RejectDiscrepancyRequest struct {
	Notes string `json:"notes,omitempty"`
}

// --- Schedule DTOs ---

// CreateScheduleRequest for creating counting schedules.
type CreateScheduleRequest struct {
	Name       string    `json:"name" binding:"required"`
	Kind       string    `json:"kind" binding:"required,oneof=RECURRING ONE_TIME"`
	EventType  string    `json:"eventType" binding:"required,oneof=FULL CYCLE SPOT"`
	Frequency  *string   `json:"frequency,omitempty" binding:"omitempty,oneof=WEEKLY MONTHLY QUARTERLY YEARLY"`
	ABCGroup   *string   `json:"abcGroup,omitempty" binding:"omitempty,oneof=A B C"`
	NextRun    time.Time `json:"nextRun" binding:"required"`
	AssignedTo []string  `json:"assignedTo,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// ToEntity creates a domain schedule from the request.
func (r *CreateScheduleRequest) ToEntity() *counting.CountingSchedule {
	sched := counting.NewCountingSchedule(r.Name, counting.ScheduleKind(r.Kind), counting.EventType(r.EventType), r.NextRun)
	sched.AssignedTo = r.AssignedTo
	sched.Notes = r.Notes

	if r.Frequency != nil {
		freq := counting.Frequency(*r.Frequency)
		sched.Frequency = &freq
	}
	if r.ABCGroup != nil {
		group := counting.ABCGroup(*r.ABCGroup)
		sched.ABCGroup = &group
	}

	return sched
}

// UpdateScheduleRequest for updating counting schedules.
type UpdateScheduleRequest struct {
	Name       *string    `json:"name,omitempty"`
	Frequency  *string    `json:"frequency,omitempty" binding:"omitempty,oneof=WEEKLY MONTHLY QUARTERLY YEARLY"`
	ABCGroup   *string    `json:"abcGroup,omitempty" binding:"omitempty,oneof=A B C"`
	NextRun    *time.Time `json:"nextRun,omitempty"`
	Active     *bool      `json:"active,omitempty"`
	AssignedTo []string   `json:"assignedTo,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// ApplyTo overlays the request onto an existing schedule.
func (r *UpdateScheduleRequest) ApplyTo(sched *counting.CountingSchedule) {
	if r.Name != nil {
		sched.Name = *r.Name
	}
	if r.Frequency != nil {
		freq := counting.Frequency(*r.Frequency)
		sched.Frequency = &freq
	}
	if r.ABCGroup != nil {
		group := counting.ABCGroup(*r.ABCGroup)
		sched.ABCGroup = &group
	}
	if r.NextRun != nil {
		sched.NextRun = *r.NextRun
	}
	if r.Active != nil {
		sched.Active = *r.Active
	}
	if r.AssignedTo != nil {
		sched.AssignedTo = r.AssignedTo
	}
	if r.Notes != nil {
		sched.Notes = *r.Notes
	}
}
