package counting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextAfter(t *testing.T) {
	base := date(2026, time.January, 31)

	assert.Equal(t, date(2026, time.February, 7), NextAfter(base, FrequencyWeekly))
	// AddDate normalizes Jan 31 + 1 month to March 3 (2026 is not a leap year).
	assert.Equal(t, date(2026, time.March, 3), NextAfter(base, FrequencyMonthly))
	assert.Equal(t, date(2026, time.May, 1), NextAfter(base, FrequencyQuarterly))
	assert.Equal(t, date(2027, time.January, 31), NextAfter(base, FrequencyYearly))

	mid := date(2026, time.June, 15)
	assert.Equal(t, date(2026, time.July, 15), NextAfter(mid, FrequencyMonthly))
	assert.Equal(t, date(2026, time.September, 15), NextAfter(mid, FrequencyQuarterly))
}

func TestCountingSchedule_Validate(t *testing.T) {
	freq := FrequencyMonthly
	s := NewCountingSchedule("monthly full count", ScheduleRecurring, TypeFull, date(2026, time.September, 1))
	s.Frequency = &freq
	assert.NoError(t, s.Validate(context.Background()))

	noName := NewCountingSchedule("", ScheduleOneTime, TypeFull, date(2026, time.September, 1))
	assert.Error(t, noName.Validate(context.Background()))

	noFreq := NewCountingSchedule("recurring", ScheduleRecurring, TypeFull, date(2026, time.September, 1))
	assert.Error(t, noFreq.Validate(context.Background()))

	cycle := NewCountingSchedule("cycle A", ScheduleOneTime, TypeCycle, date(2026, time.September, 1))
	assert.Error(t, cycle.Validate(context.Background()), "cycle without ABC group")

	group := GroupA
	cycle.ABCGroup = &group
	assert.NoError(t, cycle.Validate(context.Background()))
}

func TestCountingSchedule_Due(t *testing.T) {
	s := NewCountingSchedule("weekly", ScheduleOneTime, TypeSpot, date(2026, time.September, 1))

	assert.False(t, s.Due(date(2026, time.August, 31)))
	assert.True(t, s.Due(date(2026, time.September, 1)))
	assert.True(t, s.Due(date(2026, time.September, 2)))

	s.Active = false
	assert.False(t, s.Due(date(2026, time.September, 2)))
}

func TestCountingSchedule_Advance_Recurring(t *testing.T) {
	freq := FrequencyWeekly
	s := NewCountingSchedule("weekly spot", ScheduleRecurring, TypeSpot, date(2026, time.September, 1))
	s.Frequency = &freq

	ranAt := date(2026, time.September, 1)
	s.Advance(ranAt)

	assert.True(t, s.Active)
	require.NotNil(t, s.LastRun)
	assert.Equal(t, ranAt, *s.LastRun)
	assert.Equal(t, date(2026, time.September, 8), s.NextRun)
}

func TestCountingSchedule_Advance_OneTime(t *testing.T) {
	s := NewCountingSchedule("opening count", ScheduleOneTime, TypeFull, date(2026, time.September, 1))

	s.Advance(date(2026, time.September, 1))

	assert.False(t, s.Active)
	require.NotNil(t, s.LastRun)
}

func TestCountingSchedule_NewEvent(t *testing.T) {
	group := GroupB
	freq := FrequencyMonthly
	s := NewCountingSchedule("cycle B", ScheduleRecurring, TypeCycle, date(2026, time.October, 1))
	s.Frequency = &freq
	s.ABCGroup = &group
	s.AssignedTo = []string{"operator1", "operator2"}
	s.Notes = "aisle 3 first"

	e := s.NewEvent()

	assert.Equal(t, StatusPlanned, e.Status)
	assert.Equal(t, TypeCycle, e.EventType)
	assert.Equal(t, s.NextRun, e.ScheduledDate)
	require.NotNil(t, e.ABCGroup)
	assert.Equal(t, GroupB, *e.ABCGroup)
	assert.Equal(t, []string{"operator1", "operator2"}, e.AssignedTo)
	assert.Equal(t, "aisle 3 first", e.Notes)
	assert.NoError(t, e.Validate(context.Background()))
}
