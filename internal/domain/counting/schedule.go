package counting

import (
	"context"
	"time"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/entity"
)

// ScheduleKind distinguishes repeating schedules from single occurrences.
type ScheduleKind string

const (
	ScheduleRecurring ScheduleKind = "RECURRING"
	ScheduleOneTime   ScheduleKind = "ONE_TIME"
)

// Frequency is the repeat interval of a recurring schedule.
type Frequency string

const (
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// CountingSchedule plans future counting events. Recurring schedules
// advance NextRun after each generated event; one-time schedules are
// deactivated once their event exists.
type CountingSchedule struct {
	entity.BaseDocument

	Name      string       `db:"name" json:"name"`
	Kind      ScheduleKind `db:"kind" json:"kind"`
	EventType EventType    `db:"event_type" json:"eventType"`
	Frequency *Frequency   `db:"frequency" json:"frequency,omitempty"`
	ABCGroup  *ABCGroup    `db:"abc_group" json:"abcGroup,omitempty"`

	NextRun time.Time  `db:"next_run" json:"nextRun"`
	LastRun *time.Time `db:"last_run" json:"lastRun,omitempty"`
	Active  bool       `db:"active" json:"active"`

	AssignedTo []string `db:"assigned_to" json:"assignedTo,omitempty"`
	Notes      string   `db:"notes" json:"notes,omitempty"`
}

// NewCountingSchedule creates an active schedule with the first run date.
func NewCountingSchedule(name string, kind ScheduleKind, eventType EventType, firstRun time.Time) *CountingSchedule {
	return &CountingSchedule{
		BaseDocument: entity.NewBaseDocument(),
		Name:         name,
		Kind:         kind,
		EventType:    eventType,
		NextRun:      firstRun,
		Active:       true,
	}
}

// Validate implements entity.Validatable.
func (s *CountingSchedule) Validate(ctx context.Context) error {
	if s.Name == "" {
		return apperror.NewValidation("schedule name is required").
			WithDetail("field", "name")
	}

	switch s.Kind {
	case ScheduleRecurring, ScheduleOneTime:
	default:
		return apperror.NewValidation("unknown schedule kind").
			WithDetail("field", "kind").
			WithDetail("value", string(s.Kind))
	}

	switch s.EventType {
	case TypeFull, TypeCycle, TypeSpot:
	default:
		return apperror.NewValidation("unknown event type").
			WithDetail("field", "eventType").
			WithDetail("value", string(s.EventType))
	}

	if s.Kind == ScheduleRecurring {
		if s.Frequency == nil {
			return apperror.NewValidation("recurring schedule requires a frequency").
				WithDetail("field", "frequency")
		}
		switch *s.Frequency {
		case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		default:
			return apperror.NewValidation("unknown frequency").
				WithDetail("field", "frequency").
				WithDetail("value", string(*s.Frequency))
		}
	}

	if s.EventType == TypeCycle && s.ABCGroup == nil {
		return apperror.NewValidation("cycle counting requires an ABC group").
			WithDetail("field", "abcGroup")
	}

	if s.NextRun.IsZero() {
		return apperror.NewValidation("next run date is required").
			WithDetail("field", "nextRun")
	}

	return nil
}

// Due reports whether the schedule should produce an event at the given time.
func (s *CountingSchedule) Due(at time.Time) bool {
	return s.Active && !s.NextRun.After(at)
}

// Advance records a run at the given time and moves NextRun forward by the
// schedule frequency. One-time schedules are deactivated instead.
func (s *CountingSchedule) Advance(ranAt time.Time) {
	s.LastRun = &ranAt

	if s.Kind == ScheduleOneTime || s.Frequency == nil {
		s.Active = false
		return
	}

	s.NextRun = NextAfter(s.NextRun, *s.Frequency)
}

// NextAfter returns the next occurrence strictly after the given date for
// the frequency. Calendar arithmetic follows time.AddDate normalization.
func NextAfter(after time.Time, freq Frequency) time.Time {
	switch freq {
	case FrequencyWeekly:
		return after.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return after.AddDate(0, 1, 0)
	case FrequencyQuarterly:
		return after.AddDate(0, 3, 0)
	case FrequencyYearly:
		return after.AddDate(1, 0, 0)
	default:
		return after
	}
}

// NewEvent materializes the planned counting event for the next run date.
func (s *CountingSchedule) NewEvent() *CountingEvent {
	e := NewCountingEvent(s.EventType, s.NextRun)
	e.ABCGroup = s.ABCGroup
	e.AssignedTo = append([]string(nil), s.AssignedTo...)
	e.Notes = s.Notes
	return e
}
