// Package ledger provides the stock ledger: authoritative per
// (warehouse, item) balances and the single mutation path for them.
package ledger

import (
	"time"

	"fuelstock/internal/core/id"
	"fuelstock/internal/core/types"
)

// Unit is the unit of measure for a balance, fixed at creation.
type Unit string

const (
	UnitLiters Unit = "liters"
	UnitBarrel Unit = "barrel"
	UnitGallon Unit = "gallon"
	UnitUnits  Unit = "units"
)

// ValidUnit reports whether u is one of the known units.
func ValidUnit(u Unit) bool {
	switch u {
	case UnitLiters, UnitBarrel, UnitGallon, UnitUnits:
		return true
	}
	return false
}

// WarehouseItem is the stock record for one (warehouse, item) pair.
type WarehouseItem struct {
	ID id.ID `db:"id" json:"id"`

	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
	ItemID      id.ID `db:"item_id" json:"itemId"`

	// OpeningBalance is set once at creation and never changes
	OpeningBalance types.Quantity `db:"opening_balance" json:"openingBalance"`

	// CurrentQuantity is mutated only through Service.Adjust
	CurrentQuantity types.Quantity `db:"current_quantity" json:"currentQuantity"`

	// Unit is fixed at creation
	Unit Unit `db:"unit_of_measure" json:"unitOfMeasure"`

	// LastUpdated is bumped on every mutation
	LastUpdated time.Time `db:"last_updated" json:"lastUpdated"`
}
