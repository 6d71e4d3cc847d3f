package ledger_repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/domain/ledger"
)

func TestMapInsertError(t *testing.T) {
	wi := &ledger.WarehouseItem{WarehouseID: id.New(), ItemID: id.New()}

	dup := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, apperror.IsConflict(mapInsertError(dup, wi)))

	dangling := fmt.Errorf("exec: %w", &pgconn.PgError{
		Code:           "23503",
		ConstraintName: "warehouse_items_warehouse_id_fkey",
	})
	assert.True(t, apperror.IsNotFound(mapInsertError(dangling, wi)))

	plain := errors.New("connection reset")
	err := mapInsertError(plain, wi)
	assert.False(t, apperror.IsAppError(err))
	assert.ErrorIs(t, err, plain)
}
