// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/domain"
	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/internal/infrastructure/storage/postgres"
)

const stockItemsTable = "stock_items"

// StockItemRepo implements stockitem.Repository.
type StockItemRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewStockItemRepo creates a new stock item repository.
func NewStockItemRepo(txm *postgres.TxManager) *StockItemRepo {
	return &StockItemRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[stockitem.StockItem](),
	}
}

var _ stockitem.Repository = (*StockItemRepo)(nil)

func (r *StockItemRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *StockItemRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(r.cols...).From(stockItemsTable)
}

func (r *StockItemRepo) insertMap(item *stockitem.StockItem) map[string]any {
	data := postgres.StructToMap(item)
	filtered := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return filtered
}

func (r *StockItemRepo) Create(ctx context.Context, item *stockitem.StockItem) error {
	sql, args, err := r.builder().Insert(stockItemsTable).SetMap(r.insertMap(item)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock item: %w", err)
	}
	return nil
}

func (r *StockItemRepo) GetByID(ctx context.Context, itemID id.ID) (*stockitem.StockItem, error) {
	return r.getOne(ctx, squirrel.Eq{"id": itemID}, itemID.String())
}

func (r *StockItemRepo) GetByBarcode(ctx context.Context, barcode string) (*stockitem.StockItem, error) {
	return r.getOne(ctx, squirrel.Eq{"barcode": barcode, "deletion_mark": false}, barcode)
}

func (r *StockItemRepo) GetByProductKey(ctx context.Context, brand, productCode, colorCode, size string) (*stockitem.StockItem, error) {
	return r.getOne(ctx, squirrel.Eq{
		"brand":         brand,
		"product_code":  productCode,
		"color_code":    colorCode,
		"size":          size,
		"deletion_mark": false,
	}, brand+"/"+productCode+"/"+colorCode+"/"+size)
}

func (r *StockItemRepo) getOne(ctx context.Context, where squirrel.Eq, key string) (*stockitem.StockItem, error) {
	sql, args, err := r.baseSelect().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item stockitem.StockItem
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(stockItemsTable, key)
		}
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return &item, nil
}

func (r *StockItemRepo) Update(ctx context.Context, item *stockitem.StockItem) error {
	data := r.insertMap(item)
	delete(data, "id")
	delete(data, "version")

	q := r.builder().
		Update(stockItemsTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": item.ID}).
		Where(squirrel.Eq{"version": item.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(stockItemsTable, item.ID)
	}

	item.Touch()
	return nil
}

func (r *StockItemRepo) Delete(ctx context.Context, itemID id.ID) error {
	q := r.builder().
		Update(stockItemsTable).
		Set("deletion_mark", true).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete stock item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(stockItemsTable, itemID.String())
	}
	return nil
}

func (r *StockItemRepo) List(ctx context.Context, filter stockitem.ListFilter) (domain.ListResult[*stockitem.StockItem], error) {
	result := domain.ListResult[*stockitem.StockItem]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Brand != nil {
		q = q.Where(squirrel.Eq{"brand": *filter.Brand})
	}
	if filter.ProductGroup != nil {
		q = q.Where(squirrel.Eq{"product_group": *filter.ProductGroup})
	}
	if filter.Season != nil {
		q = q.Where(squirrel.Eq{"season": *filter.Season})
	}
	if filter.ABCGroup != nil {
		q = q.Where(squirrel.Eq{"abc_group": *filter.ABCGroup})
	}
	if filter.InStockOnly {
		q = q.Where(squirrel.Gt{"quantity": 0})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"brand": pattern},
			squirrel.ILike{"product_code": pattern},
			squirrel.ILike{"barcode": pattern},
		})
	}

	querier := r.txm.GetQuerier(ctx)

	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("brand", "product_code", "color_code", "size")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list stock items: %w", err)
	}
	return result, nil
}

// ReplaceAll swaps the whole catalog inside the caller's transaction.
func (r *StockItemRepo) ReplaceAll(ctx context.Context, items []*stockitem.StockItem) error {
	querier := r.txm.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+stockItemsTable); err != nil {
		return fmt.Errorf("clear stock items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	// Imports run to a few thousand rows; chunk the multi-row insert to
	// stay well under the parameter limit.
	const chunkSize = 500
	for start := 0; start < len(items); start += chunkSize {
		end := min(start+chunkSize, len(items))

		q := r.builder().Insert(stockItemsTable).Columns(r.cols...)
		for _, item := range items[start:end] {
			data := postgres.StructToMap(item)
			row := make([]any, len(r.cols))
			for j, col := range r.cols {
				row[j] = data[col]
			}
			q = q.Values(row...)
		}

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert stock items: %w", err)
		}
	}
	return nil
}

func (r *StockItemRepo) UpdateABCGroups(ctx context.Context, groups map[id.ID]stockitem.ABCGroup) error {
	querier := r.txm.GetQuerier(ctx)

	for itemID, group := range groups {
		sql, args, err := r.builder().
			Update(stockItemsTable).
			Set("abc_group", group).
			Where(squirrel.Eq{"id": itemID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("update abc group: %w", err)
		}
	}
	return nil
}
