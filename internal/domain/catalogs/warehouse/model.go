// Package warehouse provides the Warehouse catalog.
// Warehouses are physical fuel storage locations, optionally affiliated
// to a main warehouse (parent chain forms a tree).
package warehouse

import (
	"context"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/entity"
)

// Warehouse represents a fuel storage location.
type Warehouse struct {
	entity.Catalog

	// Classification is a free-form category (main, station tank, depot)
	Classification string `db:"classification" json:"classification"`

	// Storekeeper is the responsible person's name
	Storekeeper string `db:"storekeeper" json:"storekeeper"`

	// Phone is the contact number
	Phone string `db:"phone" json:"phone"`
}

// NewWarehouse creates a new Warehouse with required fields.
func NewWarehouse(code, name string) *Warehouse {
	return &Warehouse{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable interface.
func (w *Warehouse) Validate(ctx context.Context) error {
	if err := w.Catalog.Validate(ctx); err != nil {
		return err
	}

	if w.ParentID != nil && *w.ParentID == w.ID.String() {
		return apperror.NewValidation("warehouse cannot be its own parent").
			WithDetail("field", "parentId")
	}

	return nil
}

// CanHoldStock returns true if the warehouse can carry balances.
func (w *Warehouse) CanHoldStock() bool {
	return !w.DeletionMark && !w.IsFolder
}
