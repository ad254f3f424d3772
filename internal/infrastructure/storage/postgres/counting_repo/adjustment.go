package counting_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/domain/counting"
	"stocktally/internal/infrastructure/storage/postgres"
)

const adjustmentsTable = "counting_adjustments"

// AdjustmentRepo implements counting.AdjustmentRepository. Adjustments are
// append-only; the only mutation is flagging a row as applied.
type AdjustmentRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewAdjustmentRepo creates a new adjustment repository.
func NewAdjustmentRepo(txm *postgres.TxManager) *AdjustmentRepo {
	return &AdjustmentRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[counting.CountingAdjustment](),
	}
}

var _ counting.AdjustmentRepository = (*AdjustmentRepo)(nil)

func (r *AdjustmentRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *AdjustmentRepo) Create(ctx context.Context, adj *counting.CountingAdjustment) error {
	data := postgres.StructToMap(adj)

	filtered := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().Insert(adjustmentsTable).SetMap(filtered).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

func (r *AdjustmentRepo) GetByID(ctx context.Context, adjID id.ID) (*counting.CountingAdjustment, error) {
	return r.getOne(ctx, squirrel.Eq{"id": adjID}, adjID.String())
}

func (r *AdjustmentRepo) GetByDetail(ctx context.Context, detailID id.ID) (*counting.CountingAdjustment, error) {
	return r.getOne(ctx, squirrel.Eq{"detail_id": detailID}, detailID.String())
}

func (r *AdjustmentRepo) getOne(ctx context.Context, where squirrel.Eq, key string) (*counting.CountingAdjustment, error) {
	sql, args, err := r.builder().
		Select(r.cols...).
		From(adjustmentsTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var adj counting.CountingAdjustment
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &adj, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(adjustmentsTable, key)
		}
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	return &adj, nil
}

func (r *AdjustmentRepo) ListByEvent(ctx context.Context, eventID id.ID) ([]counting.CountingAdjustment, error) {
	sql, args, err := r.builder().
		Select(r.cols...).
		From(adjustmentsTable).
		Where(squirrel.Eq{"event_id": eventID}).
		OrderBy("approved_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var adjustments []counting.CountingAdjustment
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &adjustments, sql, args...); err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	return adjustments, nil
}

func (r *AdjustmentRepo) MarkApplied(ctx context.Context, adjID id.ID, appliedAt time.Time) error {
	q := r.builder().
		Update(adjustmentsTable).
		Set("applied_to_inventory", true).
		Set("applied_at", appliedAt).
		Where(squirrel.Eq{"id": adjID}).
		Where(squirrel.Eq{"applied_to_inventory": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark applied: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewInvalidTransition("counting adjustment", "apply", "applied").
			WithDetail("adjustment_id", adjID.String())
	}
	return nil
}
