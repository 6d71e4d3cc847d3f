package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/core/tx"
	"fuelstock/internal/core/types"
)

// --- in-memory fakes ---

type memRepo struct {
	balances map[string]*WarehouseItem
}

func newMemRepo() *memRepo {
	return &memRepo{balances: make(map[string]*WarehouseItem)}
}

func key(warehouseID, itemID id.ID) string {
	return warehouseID.String() + "/" + itemID.String()
}

func (m *memRepo) CreateBalance(ctx context.Context, wi *WarehouseItem) error {
	k := key(wi.WarehouseID, wi.ItemID)
	if _, ok := m.balances[k]; ok {
		return apperror.NewConflict("balance already exists for warehouse and item")
	}
	cp := *wi
	m.balances[k] = &cp
	return nil
}

func (m *memRepo) GetBalance(ctx context.Context, warehouseID, itemID id.ID) (*WarehouseItem, error) {
	wi, ok := m.balances[key(warehouseID, itemID)]
	if !ok {
		return nil, apperror.NewNotFound("warehouse item", itemID.String())
	}
	cp := *wi
	return &cp, nil
}

func (m *memRepo) GetBalanceForUpdate(ctx context.Context, warehouseID, itemID id.ID) (*WarehouseItem, error) {
	return m.GetBalance(ctx, warehouseID, itemID)
}

func (m *memRepo) UpdateQuantity(ctx context.Context, balanceID id.ID, quantity types.Quantity, at time.Time) error {
	for _, wi := range m.balances {
		if wi.ID == balanceID {
			wi.CurrentQuantity = quantity
			wi.LastUpdated = at
			return nil
		}
	}
	return apperror.NewNotFound("warehouse item", balanceID.String())
}

func (m *memRepo) ListByWarehouse(ctx context.Context, warehouseID *id.ID) ([]*WarehouseItem, error) {
	var out []*WarehouseItem
	for _, wi := range m.balances {
		if warehouseID == nil || wi.WarehouseID == *warehouseID {
			cp := *wi
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepo) ListByItem(ctx context.Context, itemID id.ID) ([]*WarehouseItem, error) {
	var out []*WarehouseItem
	for _, wi := range m.balances {
		if wi.ItemID == itemID {
			cp := *wi
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepo) GetByID(ctx context.Context, balanceID id.ID) (*WarehouseItem, error) {
	for _, wi := range m.balances {
		if wi.ID == balanceID {
			cp := *wi
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse item", balanceID.String())
}

type recordingSink struct {
	events []ChangedEvent
}

func (r *recordingSink) LedgerChanged(ctx context.Context, ev ChangedEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func TestCreateBalance(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	warehouseID, itemID := id.New(), id.New()

	wi, err := svc.CreateBalance(context.Background(), warehouseID, itemID, qty(500), UnitLiters)
	require.NoError(t, err)

	assert.Equal(t, qty(500), wi.OpeningBalance)
	assert.Equal(t, qty(500), wi.CurrentQuantity)
	assert.Equal(t, UnitLiters, wi.Unit)
	assert.False(t, id.IsNil(wi.ID))
}

func TestCreateBalanceRejectsNegativeOpening(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)

	_, err := svc.CreateBalance(context.Background(), id.New(), id.New(), qty(-1), UnitLiters)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreateBalanceRejectsUnknownUnit(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)

	_, err := svc.CreateBalance(context.Background(), id.New(), id.New(), qty(10), Unit("fathoms"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreateBalanceDuplicatePair(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	warehouseID, itemID := id.New(), id.New()

	_, err := svc.CreateBalance(context.Background(), warehouseID, itemID, qty(100), UnitLiters)
	require.NoError(t, err)

	_, err = svc.CreateBalance(context.Background(), warehouseID, itemID, qty(200), UnitLiters)
	assert.True(t, apperror.IsConflict(err))
}

func TestAdjust(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	warehouseID, itemID := id.New(), id.New()

	_, err := svc.CreateBalance(context.Background(), warehouseID, itemID, qty(100), UnitLiters)
	require.NoError(t, err)

	wi, err := svc.Adjust(context.Background(), warehouseID, itemID, qty(-30))
	require.NoError(t, err)
	assert.Equal(t, qty(70), wi.CurrentQuantity)

	wi, err = svc.Adjust(context.Background(), warehouseID, itemID, qty(50))
	require.NoError(t, err)
	assert.Equal(t, qty(120), wi.CurrentQuantity)

	// Opening never moves.
	assert.Equal(t, qty(100), wi.OpeningBalance)
}

func TestAdjustRejectsOverdraw(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	warehouseID, itemID := id.New(), id.New()

	_, err := svc.CreateBalance(context.Background(), warehouseID, itemID, qty(100), UnitLiters)
	require.NoError(t, err)

	_, err = svc.Adjust(context.Background(), warehouseID, itemID, qty(-100.5))
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// Balance unchanged after the rejected adjustment.
	wi, err := svc.GetBalance(context.Background(), warehouseID, itemID)
	require.NoError(t, err)
	assert.Equal(t, qty(100), wi.CurrentQuantity)
}

func TestAdjustToExactlyZero(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	warehouseID, itemID := id.New(), id.New()

	_, err := svc.CreateBalance(context.Background(), warehouseID, itemID, qty(100), UnitLiters)
	require.NoError(t, err)

	wi, err := svc.Adjust(context.Background(), warehouseID, itemID, qty(-100))
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), wi.CurrentQuantity)
}

func TestAdjustUnknownPair(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)

	_, err := svc.Adjust(context.Background(), id.New(), id.New(), qty(10))
	assert.Error(t, err)
}

func TestMutationsEmitChangedEvents(t *testing.T) {
	sink := &recordingSink{}
	svc := NewService(newMemRepo(), sink, nil)
	warehouseID, itemID := id.New(), id.New()

	_, err := svc.CreateBalance(context.Background(), warehouseID, itemID, qty(100), UnitLiters)
	require.NoError(t, err)
	_, err = svc.Adjust(context.Background(), warehouseID, itemID, qty(-10))
	require.NoError(t, err)

	require.Len(t, sink.events, 2)
	assert.Equal(t, warehouseID, sink.events[0].WarehouseID)
	assert.Equal(t, itemID, sink.events[1].ItemID)
}

func TestEventsDeliveredAfterCommit(t *testing.T) {
	sink := &recordingSink{}
	svc := NewService(newMemRepo(), sink, nil)
	warehouseID, itemID := id.New(), id.New()

	ctx, hooks := tx.WithAfterCommitHooks(context.Background())

	_, err := svc.CreateBalance(ctx, warehouseID, itemID, qty(100), UnitLiters)
	require.NoError(t, err)
	_, err = svc.Adjust(ctx, warehouseID, itemID, qty(-10))
	require.NoError(t, err)

	// Nothing reaches the sink while the transaction is open.
	assert.Empty(t, sink.events)

	hooks.Run(context.Background())
	require.Len(t, sink.events, 2)
	assert.Equal(t, warehouseID, sink.events[0].WarehouseID)
	assert.Equal(t, itemID, sink.events[1].ItemID)
}
