package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelstock/internal/core/id"
	"fuelstock/internal/core/types"
	"fuelstock/internal/domain/catalogs/party"
	"fuelstock/internal/domain/operations"
)

// --- in-memory fakes ---

type fakeReportRepo struct {
	movements   []MovementRow
	statusRows  []StatusRow
	movesCalled int
}

func (f *fakeReportRepo) GetMovements(ctx context.Context, filter MovementFilter) ([]MovementRow, error) {
	f.movesCalled++
	return f.movements, nil
}

func (f *fakeReportRepo) GetStatusRows(ctx context.Context, warehouseID, itemID *id.ID) ([]StatusRow, error) {
	return f.statusRows, nil
}

type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, ok := m.entries[key]
	return payload, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, payload []byte) error {
	m.entries[key] = payload
	return nil
}

func newTestService(t *testing.T, repo Repository, cache Cache) *Service {
	t.Helper()
	classifier, err := NewClassifier("", "")
	require.NoError(t, err)
	return NewService(repo, cache, classifier, nil)
}

func movementRow(kind operations.Kind, warehouseID id.ID, qty float64) MovementRow {
	return MovementRow{
		OperationID:   id.New(),
		Kind:          kind,
		Number:        "N-1",
		OperationDate: time.Now().UTC(),
		WarehouseID:   warehouseID,
		Quantity:      types.NewQuantityFromFloat64(qty),
	}
}

func TestWarehouseReportBucketsByKind(t *testing.T) {
	warehouseID := id.New()
	otherID := id.New()

	repo := &fakeReportRepo{
		movements: []MovementRow{
			movementRow(operations.KindSupply, warehouseID, 100),
			movementRow(operations.KindExport, warehouseID, 40),
			movementRow(operations.KindDamage, warehouseID, 5),
			movementRow(operations.KindReturnSupply, warehouseID, 10),
			movementRow(operations.KindModifySupply, warehouseID, 20),
			// Transfer rows carry the source warehouse.
			movementRow(operations.KindTransfer, warehouseID, 30),
			movementRow(operations.KindTransfer, otherID, 15),
		},
	}
	svc := newTestService(t, repo, nil)

	report, err := svc.Warehouse(context.Background(), warehouseID, DateRange{})
	require.NoError(t, err)

	assert.Len(t, report.Supplies, 1)
	assert.Len(t, report.Exports, 1)
	assert.Len(t, report.Damages, 1)
	assert.Len(t, report.ReturnSupply, 1)
	assert.Len(t, report.Modifications, 1)
	assert.Len(t, report.TransfersOut, 1)
	assert.Len(t, report.TransfersIn, 1)
	assert.Empty(t, report.ReturnExport)
}

func TestWarehouseReportServedFromCache(t *testing.T) {
	warehouseID := id.New()
	repo := &fakeReportRepo{
		movements: []MovementRow{movementRow(operations.KindSupply, warehouseID, 100)},
	}
	svc := newTestService(t, repo, newMemoryCache())

	_, err := svc.Warehouse(context.Background(), warehouseID, DateRange{})
	require.NoError(t, err)

	report, err := svc.Warehouse(context.Background(), warehouseID, DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.movesCalled)
	assert.Len(t, report.Supplies, 1)
}

func TestWarehouseReportCacheKeyIncludesRange(t *testing.T) {
	warehouseID := id.New()
	repo := &fakeReportRepo{
		movements: []MovementRow{movementRow(operations.KindSupply, warehouseID, 100)},
	}
	svc := newTestService(t, repo, newMemoryCache())

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Warehouse(context.Background(), warehouseID, DateRange{})
	require.NoError(t, err)
	_, err = svc.Warehouse(context.Background(), warehouseID, DateRange{From: &from})
	require.NoError(t, err)

	assert.Equal(t, 2, repo.movesCalled)
}

func TestItemReport(t *testing.T) {
	itemID := id.New()
	repo := &fakeReportRepo{
		movements: []MovementRow{
			movementRow(operations.KindSupply, id.New(), 100),
			movementRow(operations.KindExport, id.New(), 40),
		},
	}
	svc := newTestService(t, repo, nil)

	report, err := svc.Item(context.Background(), itemID, DateRange{})
	require.NoError(t, err)

	assert.Equal(t, itemID, report.ItemID)
	assert.Len(t, report.Rows, 2)
}

func TestWarehouseStatusClassifiesRows(t *testing.T) {
	repo := &fakeReportRepo{
		statusRows: []StatusRow{
			{OpeningBalance: types.NewQuantityFromFloat64(1000), CurrentQuantity: types.NewQuantityFromFloat64(900)},
			{OpeningBalance: types.NewQuantityFromFloat64(1000), CurrentQuantity: types.NewQuantityFromFloat64(400)},
			{OpeningBalance: types.NewQuantityFromFloat64(1000), CurrentQuantity: types.NewQuantityFromFloat64(100)},
		},
	}
	svc := newTestService(t, repo, nil)

	report, err := svc.WarehouseStatus(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, report.Rows, 3)
	assert.Equal(t, LevelNormal, report.Rows[0].Level)
	assert.Equal(t, LevelLow, report.Rows[1].Level)
	assert.Equal(t, LevelCritical, report.Rows[2].Level)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestPartyReport(t *testing.T) {
	partyID := id.New()
	repo := &fakeReportRepo{
		movements: []MovementRow{movementRow(operations.KindSupply, id.New(), 50)},
	}
	svc := newTestService(t, repo, nil)

	report, err := svc.Party(context.Background(), party.KindSupplier, partyID, DateRange{})
	require.NoError(t, err)

	assert.Equal(t, partyID, report.PartyID)
	assert.Equal(t, string(party.KindSupplier), report.Kind)
	assert.Len(t, report.Rows, 1)
}
