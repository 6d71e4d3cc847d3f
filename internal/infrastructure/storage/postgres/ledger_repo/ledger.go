// Package ledger_repo provides the PostgreSQL implementation of the
// stock ledger repository.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/core/types"
	"fuelstock/internal/domain/ledger"
	"fuelstock/internal/infrastructure/storage/postgres"
)

const balanceTable = "warehouse_items"

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	tm         *postgres.TxManager
	selectCols []string
}

// NewLedgerRepo creates a new balance repository.
func NewLedgerRepo(tm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		tm:         tm,
		selectCols: postgres.ExtractDBColumns[ledger.WarehouseItem](),
	}
}

func (r *LedgerRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *LedgerRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(balanceTable)
}

// CreateBalance inserts a new balance row.
func (r *LedgerRepo) CreateBalance(ctx context.Context, wi *ledger.WarehouseItem) error {
	data := postgres.StructToMap(wi)

	q := r.builder().
		Insert(balanceTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return mapInsertError(err, wi)
	}

	return nil
}

func mapInsertError(err error, wi *ledger.WarehouseItem) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperror.NewConflict("balance already exists for warehouse and item").
				WithDetail("warehouseId", wi.WarehouseID.String()).
				WithDetail("itemId", wi.ItemID.String()).
				WithCause(err)
		case "23503":
			// Dangling catalog reference.
			return apperror.NewNotFound("catalog reference", pgErr.ConstraintName).
				WithDetail("warehouseId", wi.WarehouseID.String()).
				WithDetail("itemId", wi.ItemID.String()).
				WithCause(err)
		}
	}
	return fmt.Errorf("insert balance: %w", err)
}

// GetBalance returns the balance for warehouse+item.
func (r *LedgerRepo) GetBalance(ctx context.Context, warehouseID, itemID id.ID) (*ledger.WarehouseItem, error) {
	return r.getPair(ctx, warehouseID, itemID, false)
}

// GetBalanceForUpdate returns the balance with a row lock.
func (r *LedgerRepo) GetBalanceForUpdate(ctx context.Context, warehouseID, itemID id.ID) (*ledger.WarehouseItem, error) {
	return r.getPair(ctx, warehouseID, itemID, true)
}

func (r *LedgerRepo) getPair(ctx context.Context, warehouseID, itemID id.ID, forUpdate bool) (*ledger.WarehouseItem, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		Where(squirrel.Eq{"item_id": itemID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	wi := &ledger.WarehouseItem{}
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), wi, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse_item", warehouseID.String()+"/"+itemID.String())
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}

	return wi, nil
}

// UpdateQuantity writes a new current_quantity and bumps last_updated.
func (r *LedgerRepo) UpdateQuantity(ctx context.Context, balanceID id.ID, quantity types.Quantity, at time.Time) error {
	q := r.builder().
		Update(balanceTable).
		Set("current_quantity", quantity).
		Set("last_updated", at).
		Where(squirrel.Eq{"id": balanceID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("warehouse_item", balanceID.String())
	}

	return nil
}

// ListByWarehouse returns balances for a warehouse, all warehouses if nil.
func (r *LedgerRepo) ListByWarehouse(ctx context.Context, warehouseID *id.ID) ([]*ledger.WarehouseItem, error) {
	q := r.baseSelect().OrderBy("warehouse_id", "item_id")
	if warehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *warehouseID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*ledger.WarehouseItem
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list by warehouse: %w", err)
	}

	return items, nil
}

// ListByItem returns balances across warehouses for one item.
func (r *LedgerRepo) ListByItem(ctx context.Context, itemID id.ID) ([]*ledger.WarehouseItem, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("warehouse_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*ledger.WarehouseItem
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list by item: %w", err)
	}

	return items, nil
}

// GetByID returns a single balance row.
func (r *LedgerRepo) GetByID(ctx context.Context, balanceID id.ID) (*ledger.WarehouseItem, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": balanceID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	wi := &ledger.WarehouseItem{}
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), wi, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse_item", balanceID.String())
		}
		return nil, fmt.Errorf("get balance by id: %w", err)
	}

	return wi, nil
}

var _ ledger.Repository = (*LedgerRepo)(nil)
