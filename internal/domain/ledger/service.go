package ledger

import (
	"context"
	"fmt"
	"time"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/core/tx"
	"fuelstock/internal/core/types"
	"fuelstock/pkg/logger"
)

// Service owns balance mutation. Adjust is the only writer of
// current_quantity in the whole system; the operation engine calls it
// inside its transaction.
type Service struct {
	repo Repository
	sink EventSink
	log  *logger.Logger
}

// NewService creates a new ledger service.
func NewService(repo Repository, sink EventSink, log *logger.Logger) *Service {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		repo: repo,
		sink: sink,
		log:  log.WithComponent("ledger"),
	}
}

// CreateBalance registers a new (warehouse, item) stock record.
// The opening balance becomes the initial current quantity.
func (s *Service) CreateBalance(ctx context.Context, warehouseID, itemID id.ID, opening types.Quantity, unit Unit) (*WarehouseItem, error) {
	if opening.IsNegative() {
		return nil, apperror.NewFieldValidation("openingBalance", "must not be negative")
	}
	if !ValidUnit(unit) {
		return nil, apperror.NewFieldValidation("unitOfMeasure", "unknown unit")
	}

	wi := &WarehouseItem{
		ID:              id.New(),
		WarehouseID:     warehouseID,
		ItemID:          itemID,
		OpeningBalance:  opening,
		CurrentQuantity: opening,
		Unit:            unit,
		LastUpdated:     time.Now().UTC(),
	}

	if err := s.repo.CreateBalance(ctx, wi); err != nil {
		return nil, err
	}

	s.emit(ctx, wi)
	return wi, nil
}

// GetBalance returns the balance for warehouse+item.
func (s *Service) GetBalance(ctx context.Context, warehouseID, itemID id.ID) (*WarehouseItem, error) {
	return s.repo.GetBalance(ctx, warehouseID, itemID)
}

// Adjust applies delta to the balance of (warehouse, item).
// Fails with INSUFFICIENT_STOCK if the result would be negative.
// Must run inside a transaction; the row stays locked until commit.
func (s *Service) Adjust(ctx context.Context, warehouseID, itemID id.ID, delta types.Quantity) (*WarehouseItem, error) {
	wi, err := s.repo.GetBalanceForUpdate(ctx, warehouseID, itemID)
	if err != nil {
		return nil, fmt.Errorf("lock balance: %w", err)
	}

	next := wi.CurrentQuantity + delta
	if next.IsNegative() {
		return nil, apperror.NewInsufficientStock(
			itemID.String(),
			delta.Neg().Float64(),
			wi.CurrentQuantity.Float64(),
		)
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateQuantity(ctx, wi.ID, next, now); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	wi.CurrentQuantity = next
	wi.LastUpdated = now

	s.emit(ctx, wi)
	return wi, nil
}

// LockPair returns the balance with a row lock without mutating it.
// Used by the operation engine to establish lock order before the
// first adjustment of a multi-leg operation.
func (s *Service) LockPair(ctx context.Context, warehouseID, itemID id.ID) (*WarehouseItem, error) {
	return s.repo.GetBalanceForUpdate(ctx, warehouseID, itemID)
}

// ListByWarehouse returns balances for one warehouse, or all when nil.
func (s *Service) ListByWarehouse(ctx context.Context, warehouseID *id.ID) ([]*WarehouseItem, error) {
	return s.repo.ListByWarehouse(ctx, warehouseID)
}

// ListByItem returns balances across warehouses for one item.
func (s *Service) ListByItem(ctx context.Context, itemID id.ID) ([]*WarehouseItem, error) {
	return s.repo.ListByItem(ctx, itemID)
}

// GetByID returns one balance row.
func (s *Service) GetByID(ctx context.Context, balanceID id.ID) (*WarehouseItem, error) {
	return s.repo.GetByID(ctx, balanceID)
}

// emit delivers the changed event after the surrounding transaction
// commits. A rolled-back adjustment must never reach the sink, or the
// report cache would rebuild from uncommitted state.
func (s *Service) emit(ctx context.Context, wi *WarehouseItem) {
	ev := ChangedEvent{
		WarehouseID: wi.WarehouseID,
		ItemID:      wi.ItemID,
		At:          wi.LastUpdated,
	}
	deliver := func(ctx context.Context) {
		if err := s.sink.LedgerChanged(ctx, ev); err != nil {
			s.log.WithContext(ctx).Warnw("ledger event sink failed",
				"warehouse_id", wi.WarehouseID,
				"item_id", wi.ItemID,
				"error", err,
			)
		}
	}

	if tx.AfterCommit(ctx, deliver) {
		return
	}
	deliver(ctx)
}
