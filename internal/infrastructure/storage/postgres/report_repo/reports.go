// Package report_repo provides the PostgreSQL implementation of the
// report repository.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fuelstock/internal/core/id"
	"fuelstock/internal/domain/catalogs/party"
	"fuelstock/internal/domain/reports"
	"fuelstock/internal/infrastructure/storage/postgres"
)

// movementSource projects every undeleted operation into movement rows.
// Regular kinds contribute one row per line with the effective quantity;
// modifications contribute one row carrying the quantity delta, with the
// item resolved through the original line. warehouse_id is the source
// side for transfers.
const movementSource = `
	SELECT
		o.id AS operation_id,
		o.kind,
		o.number,
		o.operation_date,
		COALESCE(o.warehouse_id, o.from_warehouse_id) AS warehouse_id,
		w.name AS warehouse_name,
		l.item_id,
		i.name AS item_name,
		COALESCE(o.supplier_id, o.beneficiary_id) AS party_id,
		COALESCE(p.name, '') AS party_name,
		l.quantity - l.returned_quantity AS quantity,
		l.returned_quantity,
		o.paper_ref_number,
		o.statement,
		o.to_warehouse_id,
		o.supplier_id,
		o.beneficiary_id,
		o.station_id
	FROM operation_lines l
	JOIN operations o ON o.id = l.operation_id
	JOIN cat_warehouses w ON w.id = COALESCE(o.warehouse_id, o.from_warehouse_id)
	JOIN cat_items i ON i.id = l.item_id
	LEFT JOIN cat_parties p ON p.id = COALESCE(o.supplier_id, o.beneficiary_id)
	WHERE o.deletion_mark = false AND o.kind <> 'modify_supply'

	UNION ALL

	SELECT
		o.id,
		o.kind,
		o.number,
		o.operation_date,
		o.warehouse_id,
		w.name,
		ol.item_id,
		i.name,
		NULL::uuid,
		'',
		o.new_quantity - o.old_quantity,
		0,
		o.paper_ref_number,
		o.statement,
		NULL::uuid,
		NULL::uuid,
		NULL::uuid,
		NULL::uuid
	FROM operations o
	JOIN operation_lines ol ON ol.line_id = o.original_line_id
	JOIN cat_warehouses w ON w.id = o.warehouse_id
	JOIN cat_items i ON i.id = ol.item_id
	WHERE o.deletion_mark = false AND o.kind = 'modify_supply'
`

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	tm *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(tm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{tm: tm}
}

func (r *ReportRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetMovements returns operation lines matching the filter, ordered by
// operation date.
func (r *ReportRepo) GetMovements(ctx context.Context, filter reports.MovementFilter) ([]reports.MovementRow, error) {
	q := r.builder().
		Select(
			"m.operation_id", "m.kind", "m.number", "m.operation_date",
			"m.warehouse_id", "m.warehouse_name",
			"m.item_id", "m.item_name",
			"m.party_id", "m.party_name",
			"m.quantity", "m.returned_quantity",
			"m.paper_ref_number", "m.statement",
		).
		From("(" + movementSource + ") m")

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"m.warehouse_id": *filter.WarehouseID},
			squirrel.Eq{"m.to_warehouse_id": *filter.WarehouseID},
		})
	}

	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"m.item_id": *filter.ItemID})
	}

	if filter.PartyID != nil {
		col, err := partyColumn(filter.PartyKind)
		if err != nil {
			return nil, err
		}
		q = q.Where(squirrel.Eq{col: *filter.PartyID})
	}

	if len(filter.Kinds) > 0 {
		q = q.Where(squirrel.Eq{"m.kind": filter.Kinds})
	}

	if filter.Range.From != nil {
		q = q.Where(squirrel.GtOrEq{"m.operation_date": *filter.Range.From})
	}
	if filter.Range.To != nil {
		q = q.Where(squirrel.LtOrEq{"m.operation_date": *filter.Range.To})
	}

	q = q.OrderBy("m.operation_date", "m.number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build movements query: %w", err)
	}

	var rows []reports.MovementRow
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("get movements: %w", err)
	}

	return rows, nil
}

func partyColumn(kind party.Kind) (string, error) {
	switch kind {
	case party.KindSupplier:
		return "m.supplier_id", nil
	case party.KindBeneficiary:
		return "m.beneficiary_id", nil
	case party.KindStation:
		return "m.station_id", nil
	}
	return "", fmt.Errorf("unknown party kind: %s", kind)
}

// GetStatusRows returns balance snapshot rows with resolved names.
// Level is left for the service to fill.
func (r *ReportRepo) GetStatusRows(ctx context.Context, warehouseID, itemID *id.ID) ([]reports.StatusRow, error) {
	q := r.builder().
		Select(
			"wi.warehouse_id", "w.name AS warehouse_name",
			"wi.item_id", "i.name AS item_name",
			"wi.opening_balance", "wi.current_quantity",
			"wi.unit_of_measure AS unit", "wi.last_updated",
		).
		From("warehouse_items wi").
		Join("cat_warehouses w ON w.id = wi.warehouse_id").
		Join("cat_items i ON i.id = wi.item_id")

	if warehouseID != nil {
		q = q.Where(squirrel.Eq{"wi.warehouse_id": *warehouseID})
	}
	if itemID != nil {
		q = q.Where(squirrel.Eq{"wi.item_id": *itemID})
	}

	q = q.OrderBy("w.name", "i.name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build status query: %w", err)
	}

	var rows []reports.StatusRow
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("get status rows: %w", err)
	}

	return rows, nil
}

var _ reports.Repository = (*ReportRepo)(nil)
