package counting

import (
	"context"
	"time"

	"stocktally/internal/core/id"
	"stocktally/internal/core/tx"
	"stocktally/internal/domain"
	"stocktally/pkg/logger"
)

// ScheduleService manages counting schedules and generates the planned
// events that are due.
type ScheduleService struct {
	repo      ScheduleRepository
	events    *Service
	txManager tx.Manager
}

// NewScheduleService creates a new schedule service.
func NewScheduleService(repo ScheduleRepository, events *Service, txManager tx.Manager) *ScheduleService {
	return &ScheduleService{
		repo:      repo,
		events:    events,
		txManager: txManager,
	}
}

// Create creates a new counting schedule.
func (s *ScheduleService) Create(ctx context.Context, sched *CountingSchedule) error {
	if err := sched.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, sched)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "counting schedule created", "id", sched.ID, "name", sched.Name)
	return nil
}

// GetByID retrieves a schedule.
func (s *ScheduleService) GetByID(ctx context.Context, schedID id.ID) (*CountingSchedule, error) {
	return s.repo.GetByID(ctx, schedID)
}

// Update updates a schedule.
func (s *ScheduleService) Update(ctx context.Context, sched *CountingSchedule) error {
	if err := sched.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, sched)
	})
}

// Delete soft-deletes a schedule.
func (s *ScheduleService) Delete(ctx context.Context, schedID id.ID) error {
	return s.repo.Delete(ctx, schedID)
}

// List retrieves schedules with filtering.
func (s *ScheduleService) List(ctx context.Context, filter ScheduleListFilter) (domain.ListResult[*CountingSchedule], error) {
	return s.repo.List(ctx, filter)
}

// RunDue generates one planned counting event for every due schedule and
// advances the schedules. Returns the created events. A failing schedule
// is logged and skipped so one bad row cannot stall the rest.
func (s *ScheduleService) RunDue(ctx context.Context, at time.Time) ([]*CountingEvent, error) {
	due, err := s.repo.ListDue(ctx, at)
	if err != nil {
		return nil, err
	}

	created := make([]*CountingEvent, 0, len(due))
	for _, sched := range due {
		event := sched.NewEvent()
		if err := s.events.Create(ctx, event); err != nil {
			logger.Error(ctx, "schedule run failed", "schedule_id", sched.ID, "error", err)
			continue
		}

		sched.Advance(at)
		if err := s.repo.Update(ctx, sched); err != nil {
			logger.Error(ctx, "schedule advance failed", "schedule_id", sched.ID, "error", err)
			continue
		}

		created = append(created, event)
	}

	if len(created) > 0 {
		logger.Info(ctx, "scheduled counting events generated", "count", len(created))
	}
	return created, nil
}
