package counting_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/domain"
	"stocktally/internal/domain/counting"
	"stocktally/internal/infrastructure/storage/postgres"
)

const (
	eventsTable  = "counting_events"
	detailsTable = "counting_details"
)

// EventRepo implements counting.Repository.
type EventRepo struct {
	*baseRepo[*counting.CountingEvent]
	detailCols []string
}

// NewEventRepo creates a new counting event repository.
func NewEventRepo(txm *postgres.TxManager) *EventRepo {
	return &EventRepo{
		baseRepo: newBaseRepo(
			txm,
			eventsTable,
			postgres.ExtractDBColumns[counting.CountingEvent](),
			func() *counting.CountingEvent { return &counting.CountingEvent{} },
		),
		detailCols: postgres.ExtractDBColumns[counting.CountingDetail](),
	}
}

var _ counting.Repository = (*EventRepo)(nil)

func (r *EventRepo) Create(ctx context.Context, event *counting.CountingEvent) error {
	return r.create(ctx, event)
}

func (r *EventRepo) GetByID(ctx context.Context, eventID id.ID) (*counting.CountingEvent, error) {
	return r.getByID(ctx, eventID)
}

func (r *EventRepo) Update(ctx context.Context, event *counting.CountingEvent) error {
	if err := r.update(ctx, event); err != nil {
		return err
	}
	event.Touch()
	return nil
}

func (r *EventRepo) Delete(ctx context.Context, eventID id.ID) error {
	return r.delete(ctx, eventID)
}

func (r *EventRepo) GetForUpdate(ctx context.Context, eventID id.ID) (*counting.CountingEvent, error) {
	return r.getForUpdate(ctx, eventID)
}

func (r *EventRepo) GetDetails(ctx context.Context, eventID id.ID) ([]counting.CountingDetail, error) {
	sql, args, err := r.builder().
		Select(r.detailCols...).
		From(detailsTable).
		Where(squirrel.Eq{"event_id": eventID}).
		OrderBy("brand", "product_code", "color_code", "size").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var details []counting.CountingDetail
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &details, sql, args...); err != nil {
		return nil, fmt.Errorf("get details: %w", err)
	}
	return details, nil
}

// SaveDetails replaces the full detail set of an event. Used once at
// event start; individual count mutations go through SaveDetail.
func (r *EventRepo) SaveDetails(ctx context.Context, eventID id.ID, details []counting.CountingDetail) error {
	querier := r.txm.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+detailsTable+" WHERE event_id = $1", eventID); err != nil {
		return fmt.Errorf("delete existing details: %w", err)
	}

	if len(details) == 0 {
		return nil
	}

	q := r.builder().Insert(detailsTable).Columns(r.detailCols...)
	for i := range details {
		data := postgres.StructToMap(&details[i])
		row := make([]any, len(r.detailCols))
		for j, col := range r.detailCols {
			row[j] = data[col]
		}
		q = q.Values(row...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert details: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert details: %w", err)
	}
	return nil
}

// SaveDetail updates a single detail with optimistic locking.
func (r *EventRepo) SaveDetail(ctx context.Context, detail *counting.CountingDetail) error {
	data := postgres.StructToMap(detail)

	filtered := make(map[string]any, len(r.detailCols))
	for _, col := range r.detailCols {
		switch col {
		case "id", "event_id", "created_at", "version":
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().
		Update(detailsTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": detail.ID}).
		Where(squirrel.Eq{"version": detail.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update detail: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update detail: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(detailsTable, detail.ID)
	}

	detail.Version++
	return nil
}

func (r *EventRepo) List(ctx context.Context, filter counting.ListFilter) (domain.ListResult[*counting.CountingEvent], error) {
	result := domain.ListResult[*counting.CountingEvent]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.EventType != nil {
		q = q.Where(squirrel.Eq{"event_type": *filter.EventType})
	}
	if filter.ABCGroup != nil {
		q = q.Where(squirrel.Eq{"abc_group": *filter.ABCGroup})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"scheduled_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"scheduled_date": *filter.DateTo})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"event_code": pattern},
			squirrel.ILike{"notes": pattern},
		})
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "-scheduled_date"
	}

	err := r.countAndPage(ctx, q, orderBy, filter.Limit, filter.Offset, &result.TotalCount, &result.Items)
	return result, err
}
