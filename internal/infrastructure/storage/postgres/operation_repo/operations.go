// Package operation_repo provides the PostgreSQL implementation of the
// operation repository.
package operation_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/core/types"
	"fuelstock/internal/domain"
	"fuelstock/internal/domain/operations"
	"fuelstock/internal/infrastructure/storage/postgres"
)

const (
	operationsTable  = "operations"
	linesTable       = "operation_lines"
	attachmentsTable = "operation_attachments"
)

// OperationRepo implements operations.Repository.
type OperationRepo struct {
	tm         *postgres.TxManager
	selectCols []string
}

// NewOperationRepo creates a new operation repository.
func NewOperationRepo(tm *postgres.TxManager) *OperationRepo {
	return &OperationRepo{
		tm:         tm,
		selectCols: postgres.ExtractDBColumns[operations.Operation](),
	}
}

func (r *OperationRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *OperationRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(operationsTable)
}

// Create inserts the operation header.
func (r *OperationRepo) Create(ctx context.Context, op *operations.Operation) error {
	data := postgres.StructToMap(op)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Insert(operationsTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}

	return nil
}

// GetByID retrieves an operation with its lines and attachments.
func (r *OperationRepo) GetByID(ctx context.Context, opID id.ID) (*operations.Operation, error) {
	return r.get(ctx, opID, false)
}

// GetByIDForUpdate retrieves an operation with a row lock.
func (r *OperationRepo) GetByIDForUpdate(ctx context.Context, opID id.ID) (*operations.Operation, error) {
	return r.get(ctx, opID, true)
}

func (r *OperationRepo) get(ctx context.Context, opID id.ID, forUpdate bool) (*operations.Operation, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": opID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	op := &operations.Operation{}
	querier := r.tm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, op, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("operation", opID.String())
		}
		return nil, fmt.Errorf("get operation: %w", err)
	}

	if op.Lines, err = r.getLines(ctx, opID); err != nil {
		return nil, err
	}
	if op.Attachments, err = r.getAttachments(ctx, opID); err != nil {
		return nil, err
	}

	return op, nil
}

func (r *OperationRepo) getLines(ctx context.Context, opID id.ID) ([]operations.Line, error) {
	q := r.builder().
		Select("line_id", "line_no", "item_id", "quantity", "returned_quantity").
		From(linesTable).
		Where(squirrel.Eq{"operation_id": opID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []operations.Line
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *OperationRepo) getAttachments(ctx context.Context, opID id.ID) ([]operations.Attachment, error) {
	q := r.builder().
		Select("id", "storage_key", "file_name").
		From(attachmentsTable).
		Where(squirrel.Eq{"operation_id": opID}).
		OrderBy("file_name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var atts []operations.Attachment
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &atts, sql, args...); err != nil {
		return nil, fmt.Errorf("get attachments: %w", err)
	}

	return atts, nil
}

// GetLineForUpdate retrieves one line with a row lock, together with its
// parent operation.
func (r *OperationRepo) GetLineForUpdate(ctx context.Context, lineID id.ID) (*operations.Line, *operations.Operation, error) {
	q := r.builder().
		Select("line_id", "line_no", "item_id", "quantity", "returned_quantity", "operation_id").
		From(linesTable).
		Where(squirrel.Eq{"line_id": lineID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build query: %w", err)
	}

	var row struct {
		operations.Line
		OperationID id.ID `db:"operation_id"`
	}
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil, apperror.NewNotFound("operation_line", lineID.String())
		}
		return nil, nil, fmt.Errorf("get line for update: %w", err)
	}

	op, err := r.get(ctx, row.OperationID, true)
	if err != nil {
		return nil, nil, err
	}

	return &row.Line, op, nil
}

// SaveLines persists the lines of an operation (delete existing + insert new).
func (r *OperationRepo) SaveLines(ctx context.Context, opID id.ID, lines []operations.Line) error {
	querier := r.tm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + linesTable + " WHERE operation_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, opID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder().
		Insert(linesTable).
		Columns("line_id", "operation_id", "line_no", "item_id", "quantity", "returned_quantity")

	for _, line := range lines {
		q = q.Values(line.LineID, opID, line.LineNo, line.ItemID, line.Quantity, line.ReturnedQuantity)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// SaveAttachments persists attachment associations.
func (r *OperationRepo) SaveAttachments(ctx context.Context, opID id.ID, atts []operations.Attachment) error {
	querier := r.tm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + attachmentsTable + " WHERE operation_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, opID); err != nil {
		return fmt.Errorf("delete existing attachments: %w", err)
	}

	if len(atts) == 0 {
		return nil
	}

	q := r.builder().
		Insert(attachmentsTable).
		Columns("id", "operation_id", "storage_key", "file_name")

	for _, att := range atts {
		q = q.Values(att.ID, opID, att.StorageKey, att.FileName)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert attachments: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert attachments: %w", err)
	}

	return nil
}

// UpdateLineReturned sets the cumulative returned quantity on a line.
func (r *OperationRepo) UpdateLineReturned(ctx context.Context, lineID id.ID, returned types.Quantity) error {
	return r.updateLineColumn(ctx, lineID, "returned_quantity", returned)
}

// UpdateLineQuantity overwrites a line's effective quantity.
func (r *OperationRepo) UpdateLineQuantity(ctx context.Context, lineID id.ID, quantity types.Quantity) error {
	return r.updateLineColumn(ctx, lineID, "quantity", quantity)
}

func (r *OperationRepo) updateLineColumn(ctx context.Context, lineID id.ID, column string, value types.Quantity) error {
	q := r.builder().
		Update(linesTable).
		Set(column, value).
		Where(squirrel.Eq{"line_id": lineID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update line %s: %w", column, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("operation_line", lineID.String())
	}

	return nil
}

// MarkDeleted soft-deletes an operation record.
func (r *OperationRepo) MarkDeleted(ctx context.Context, opID id.ID) error {
	q := r.builder().
		Update(operationsTable).
		Set("deletion_mark", true).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": opID}).
		Where(squirrel.Eq{"deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build mark deleted: %w", err)
	}

	result, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark deleted: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("operation", opID.String())
	}

	return nil
}

// HasDependents reports whether undeleted returns or modifications
// reference the operation or any of its lines.
func (r *OperationRepo) HasDependents(ctx context.Context, opID id.ID) (bool, error) {
	sql := fmt.Sprintf(`
		SELECT 1 FROM %s o
		WHERE o.deletion_mark = false
		  AND (o.original_operation_id = $1
		       OR o.original_line_id IN (
		           SELECT line_id FROM %s WHERE operation_id = $1
		       ))
		LIMIT 1
	`, operationsTable, linesTable)

	var exists int
	err := r.tm.GetQuerier(ctx).QueryRow(ctx, sql, opID).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has dependents: %w", err)
	}

	return true, nil
}

// List retrieves operation headers with filtering. Lines are loaded on
// GetByID, not here.
func (r *OperationRepo) List(ctx context.Context, filter operations.ListFilter) (domain.ListResult[*operations.Operation], error) {
	result := domain.ListResult[*operations.Operation]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if len(filter.Kinds) > 0 {
		q = q.Where(squirrel.Eq{"kind": filter.Kinds})
	}

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"warehouse_id": *filter.WarehouseID},
			squirrel.Eq{"from_warehouse_id": *filter.WarehouseID},
			squirrel.Eq{"to_warehouse_id": *filter.WarehouseID},
		})
	}

	if filter.ItemID != nil {
		itemSQL := fmt.Sprintf(
			"id IN (SELECT operation_id FROM %s WHERE item_id = ?)", linesTable)
		q = q.Where(squirrel.Expr(itemSQL, *filter.ItemID))
	}

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	if filter.BeneficiaryID != nil {
		q = q.Where(squirrel.Eq{"beneficiary_id": *filter.BeneficiaryID})
	}

	if filter.StationID != nil {
		q = q.Where(squirrel.Eq{"station_id": *filter.StationID})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"operation_date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"operation_date": *filter.DateTo})
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"paper_ref_number": pattern},
		})
	}

	countQ := r.builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

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
		return result, fmt.Errorf("list operations: %w", err)
	}

	return result, nil
}

func (r *OperationRepo) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "operation_date DESC, number DESC", nil
	}

	// "-field" sorts descending
	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	allowed := make(map[string]struct{}, len(r.selectCols))
	for _, col := range r.selectCols {
		allowed[col] = struct{}{}
	}
	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return field + " " + direction, nil
}

var _ operations.Repository = (*OperationRepo)(nil)
