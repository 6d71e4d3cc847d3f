// Package item provides the Item catalog (fuel and material types).
package item

import (
	"context"

	"fuelstock/internal/core/entity"
)

// Item represents a stock-keeping material (diesel, gasoline, oil).
// Identity is immutable; items are deactivated, never removed.
type Item struct {
	entity.Catalog

	// IsActive indicates the item can appear on new operations
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewItem creates a new active Item.
func NewItem(code, name string) *Item {
	return &Item{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (i *Item) Validate(ctx context.Context) error {
	return i.Catalog.Validate(ctx)
}

// Usable returns true if the item can be referenced by new operations.
func (i *Item) Usable() bool {
	return i.IsActive && !i.DeletionMark && !i.IsFolder
}
