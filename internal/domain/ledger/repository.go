package ledger

import (
	"context"
	"time"

	"fuelstock/internal/core/id"
	"fuelstock/internal/core/types"
)

// Repository defines persistence for warehouse-item balances.
type Repository interface {
	// CreateBalance inserts a new balance row.
	// Returns a CONFLICT error if the (warehouse, item) pair exists.
	CreateBalance(ctx context.Context, wi *WarehouseItem) error

	// GetBalance returns the balance for warehouse+item.
	GetBalance(ctx context.Context, warehouseID, itemID id.ID) (*WarehouseItem, error)

	// GetBalanceForUpdate returns the balance with a row lock.
	// Must be called inside a transaction.
	GetBalanceForUpdate(ctx context.Context, warehouseID, itemID id.ID) (*WarehouseItem, error)

	// UpdateQuantity writes a new current_quantity and bumps last_updated.
	UpdateQuantity(ctx context.Context, balanceID id.ID, quantity types.Quantity, at time.Time) error

	// ListByWarehouse returns balances for a warehouse, all warehouses if nil.
	ListByWarehouse(ctx context.Context, warehouseID *id.ID) ([]*WarehouseItem, error)

	// ListByItem returns balances across warehouses for one item.
	ListByItem(ctx context.Context, itemID id.ID) ([]*WarehouseItem, error)

	// GetByID returns a single balance row.
	GetByID(ctx context.Context, balanceID id.ID) (*WarehouseItem, error)
}
