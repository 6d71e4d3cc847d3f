package operation_repo

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/domain/operations"
	"fuelstock/internal/infrastructure/storage/postgres"
)

// migrationColumns extracts the column names of one CREATE TABLE block from
// the initial migration.
func migrationColumns(t *testing.T, table string) map[string]struct{} {
	t.Helper()

	path := filepath.Join("..", "..", "..", "..", "..", "migrations", "0001_init.up.sql")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	marker := "CREATE TABLE " + table + " ("
	start := strings.Index(string(raw), marker)
	require.GreaterOrEqual(t, start, 0, "table %s not found in migration", table)

	block := string(raw)[start+len(marker):]
	end := strings.Index(block, "\n);")
	require.GreaterOrEqual(t, end, 0)
	block = block[:end]

	colRe := regexp.MustCompile(`(?m)^\s*([a-z_]+)\s`)
	cols := make(map[string]struct{})
	for _, m := range colRe.FindAllStringSubmatch(block, -1) {
		cols[m[1]] = struct{}{}
	}
	return cols
}

func TestOperationColumnsMatchSchema(t *testing.T) {
	schema := migrationColumns(t, "operations")

	for _, col := range postgres.ExtractDBColumns[operations.Operation]() {
		_, ok := schema[col]
		assert.True(t, ok, "column %s is not in the operations table", col)
	}

	lineSchema := migrationColumns(t, "operation_lines")
	for _, col := range []string{"line_id", "operation_id", "line_no", "item_id", "quantity", "returned_quantity"} {
		_, ok := lineSchema[col]
		assert.True(t, ok, "column %s is not in the operation_lines table", col)
	}

	attSchema := migrationColumns(t, "operation_attachments")
	for _, col := range []string{"id", "operation_id", "storage_key", "file_name"} {
		_, ok := attSchema[col]
		assert.True(t, ok, "column %s is not in the operation_attachments table", col)
	}
}

func TestParseOrderBy(t *testing.T) {
	repo := NewOperationRepo(nil)

	orderBy, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "operation_date DESC, number DESC", orderBy)

	orderBy, err = repo.parseOrderBy("number")
	require.NoError(t, err)
	assert.Equal(t, "number ASC", orderBy)

	orderBy, err = repo.parseOrderBy("-operation_date")
	require.NoError(t, err)
	assert.Equal(t, "operation_date DESC", orderBy)
}

func TestParseOrderByRejectsUnknownField(t *testing.T) {
	repo := NewOperationRepo(nil)

	cases := []string{
		"lines",
		"number; DROP TABLE operations",
		"(SELECT CASE WHEN (SELECT current_quantity FROM warehouse_items LIMIT 1) > 0 THEN number ELSE kind END)",
	}
	for _, input := range cases {
		_, err := repo.parseOrderBy(input)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "input %q", input)
	}
}
