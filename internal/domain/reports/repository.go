package reports

import (
	"context"

	"fuelstock/internal/core/id"
	"fuelstock/internal/domain/catalogs/party"
	"fuelstock/internal/domain/operations"
)

// MovementFilter selects operation lines for movement reports.
// Soft-deleted operations are always excluded.
type MovementFilter struct {
	WarehouseID *id.ID // matches warehouse, from or to
	ItemID      *id.ID
	PartyID     *id.ID
	PartyKind   party.Kind // with PartyID: supplier, beneficiary or station
	Kinds       []operations.Kind
	Range       DateRange
}

// Repository defines read-only report data access. Rows come back with
// effective quantities and resolved catalog names.
type Repository interface {
	// GetMovements returns operation lines matching the filter,
	// ordered by operation date.
	GetMovements(ctx context.Context, filter MovementFilter) ([]MovementRow, error)

	// GetStatusRows returns balance snapshot rows, optionally scoped to
	// one warehouse or one item. Level is left for the service to fill.
	GetStatusRows(ctx context.Context, warehouseID, itemID *id.ID) ([]StatusRow, error)
}
