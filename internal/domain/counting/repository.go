package counting

import (
	"context"
	"time"

	"stocktally/internal/core/id"
	"stocktally/internal/domain"
)

// Repository defines persistence operations for counting events.
type Repository interface {
	Create(ctx context.Context, event *CountingEvent) error
	GetByID(ctx context.Context, eventID id.ID) (*CountingEvent, error)
	Update(ctx context.Context, event *CountingEvent) error
	Delete(ctx context.Context, eventID id.ID) error

	GetDetails(ctx context.Context, eventID id.ID) ([]CountingDetail, error)
	SaveDetails(ctx context.Context, eventID id.ID, details []CountingDetail) error
	SaveDetail(ctx context.Context, detail *CountingDetail) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*CountingEvent], error)
	GetForUpdate(ctx context.Context, eventID id.ID) (*CountingEvent, error)
}

// AdjustmentRepository persists the immutable adjustment audit trail.
type AdjustmentRepository interface {
	Create(ctx context.Context, adj *CountingAdjustment) error
	GetByID(ctx context.Context, adjID id.ID) (*CountingAdjustment, error)
	GetByDetail(ctx context.Context, detailID id.ID) (*CountingAdjustment, error)
	ListByEvent(ctx context.Context, eventID id.ID) ([]CountingAdjustment, error)
	MarkApplied(ctx context.Context, adjID id.ID, appliedAt time.Time) error
}

// ScheduleRepository persists counting schedules.
type ScheduleRepository interface {
	Create(ctx context.Context, sched *CountingSchedule) error
	GetByID(ctx context.Context, schedID id.ID) (*CountingSchedule, error)
	Update(ctx context.Context, sched *CountingSchedule) error
	Delete(ctx context.Context, schedID id.ID) error

	List(ctx context.Context, filter ScheduleListFilter) (domain.ListResult[*CountingSchedule], error)
	ListDue(ctx context.Context, at time.Time) ([]*CountingSchedule, error)
}

// ListFilter for filtering counting events.
type ListFilter struct {
	domain.ListFilter

	Status    *EventStatus
	EventType *EventType
	ABCGroup  *ABCGroup
	DateFrom  *time.Time
	DateTo    *time.Time
}

// ScheduleListFilter for filtering counting schedules.
type ScheduleListFilter struct {
	domain.ListFilter

	Kind      *ScheduleKind
	EventType *EventType
	Active    *bool
}
