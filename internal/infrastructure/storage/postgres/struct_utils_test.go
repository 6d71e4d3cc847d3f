package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fuelstock/internal/core/entity"
	"fuelstock/internal/core/id"
)

type MockCatalog struct {
	entity.BaseCatalog
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[MockCatalog]()

	expectedCols := []string{
		"id", "deletion_mark", "version", "code", "name",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
}

func TestExtractDBColumnsSkipsUntagged(t *testing.T) {
	type row struct {
		Code   string `db:"code"`
		Hidden string `db:"-"`
		NoTag  string
	}

	cols := ExtractDBColumns[row]()
	assert.Equal(t, []string{"code"}, cols)
}

func TestStructToMap(t *testing.T) {
	cat := MockCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
			},
		},
		Code: "TEST",
		Name: "Test Name",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "TEST", m["code"])
	assert.Equal(t, "Test Name", m["name"])
}

func TestStructToMapPointer(t *testing.T) {
	cat := &MockCatalog{Code: "PTR"}

	m := StructToMap(cat)
	assert.Equal(t, "PTR", m["code"])
}
