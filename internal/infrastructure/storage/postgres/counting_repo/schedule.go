package counting_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocktally/internal/core/id"
	"stocktally/internal/domain"
	"stocktally/internal/domain/counting"
	"stocktally/internal/infrastructure/storage/postgres"
)

const schedulesTable = "counting_schedules"

// ScheduleRepo implements counting.ScheduleRepository.
type ScheduleRepo struct {
	*baseRepo[*counting.CountingSchedule]
}

// NewScheduleRepo creates a new schedule repository.
func NewScheduleRepo(txm *postgres.TxManager) *ScheduleRepo {
	return &ScheduleRepo{
		baseRepo: newBaseRepo(
			txm,
			schedulesTable,
			postgres.ExtractDBColumns[counting.CountingSchedule](),
			func() *counting.CountingSchedule { return &counting.CountingSchedule{} },
		),
	}
}

var _ counting.ScheduleRepository = (*ScheduleRepo)(nil)

func (r *ScheduleRepo) Create(ctx context.Context, sched *counting.CountingSchedule) error {
	return r.create(ctx, sched)
}

func (r *ScheduleRepo) GetByID(ctx context.Context, schedID id.ID) (*counting.CountingSchedule, error) {
	return r.getByID(ctx, schedID)
}

func (r *ScheduleRepo) Update(ctx context.Context, sched *counting.CountingSchedule) error {
	if err := r.update(ctx, sched); err != nil {
		return err
	}
	sched.Touch()
	return nil
}

func (r *ScheduleRepo) Delete(ctx context.Context, schedID id.ID) error {
	return r.delete(ctx, schedID)
}

func (r *ScheduleRepo) List(ctx context.Context, filter counting.ScheduleListFilter) (domain.ListResult[*counting.CountingSchedule], error) {
	result := domain.ListResult[*counting.CountingSchedule]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.EventType != nil {
		q = q.Where(squirrel.Eq{"event_type": *filter.EventType})
	}
	if filter.Active != nil {
		q = q.Where(squirrel.Eq{"active": *filter.Active})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "next_run"
	}

	err := r.countAndPage(ctx, q, orderBy, filter.Limit, filter.Offset, &result.TotalCount, &result.Items)
	return result, err
}

// ListDue returns active schedules whose next run is at or before the
// given time, locked against concurrent scheduler runs.
func (r *ScheduleRepo) ListDue(ctx context.Context, at time.Time) ([]*counting.CountingSchedule, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.LtOrEq{"next_run": at}).
		OrderBy("next_run").
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var schedules []*counting.CountingSchedule
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &schedules, sql, args...); err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	return schedules, nil
}
