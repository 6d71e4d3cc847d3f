package operations

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/core/types"
	"fuelstock/internal/domain"
	"fuelstock/internal/domain/catalogs/item"
	"fuelstock/internal/domain/catalogs/party"
	"fuelstock/internal/domain/catalogs/warehouse"
	"fuelstock/internal/domain/ledger"
	"fuelstock/pkg/numerator"
)

// --- in-memory fakes ---

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLedgerRepo struct {
	balances map[string]*ledger.WarehouseItem
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{balances: make(map[string]*ledger.WarehouseItem)}
}

func pairKey(warehouseID, itemID id.ID) string {
	return warehouseID.String() + "/" + itemID.String()
}

func (f *fakeLedgerRepo) CreateBalance(ctx context.Context, wi *ledger.WarehouseItem) error {
	key := pairKey(wi.WarehouseID, wi.ItemID)
	if _, ok := f.balances[key]; ok {
		return apperror.NewConflict("balance already exists")
	}
	cp := *wi
	f.balances[key] = &cp
	return nil
}

func (f *fakeLedgerRepo) GetBalance(ctx context.Context, warehouseID, itemID id.ID) (*ledger.WarehouseItem, error) {
	wi, ok := f.balances[pairKey(warehouseID, itemID)]
	if !ok {
		return nil, apperror.NewNotFound("warehouse item", itemID.String())
	}
	cp := *wi
	return &cp, nil
}

func (f *fakeLedgerRepo) GetBalanceForUpdate(ctx context.Context, warehouseID, itemID id.ID) (*ledger.WarehouseItem, error) {
	return f.GetBalance(ctx, warehouseID, itemID)
}

func (f *fakeLedgerRepo) UpdateQuantity(ctx context.Context, balanceID id.ID, quantity types.Quantity, at time.Time) error {
	for _, wi := range f.balances {
		if wi.ID == balanceID {
			wi.CurrentQuantity = quantity
			wi.LastUpdated = at
			return nil
		}
	}
	return apperror.NewNotFound("warehouse item", balanceID.String())
}

func (f *fakeLedgerRepo) ListByWarehouse(ctx context.Context, warehouseID *id.ID) ([]*ledger.WarehouseItem, error) {
	var out []*ledger.WarehouseItem
	for _, wi := range f.balances {
		if warehouseID == nil || wi.WarehouseID == *warehouseID {
			cp := *wi
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListByItem(ctx context.Context, itemID id.ID) ([]*ledger.WarehouseItem, error) {
	var out []*ledger.WarehouseItem
	for _, wi := range f.balances {
		if wi.ItemID == itemID {
			cp := *wi
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) GetByID(ctx context.Context, balanceID id.ID) (*ledger.WarehouseItem, error) {
	for _, wi := range f.balances {
		if wi.ID == balanceID {
			cp := *wi
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse item", balanceID.String())
}

type fakeOpsRepo struct {
	ops map[id.ID]*Operation
}

func newFakeOpsRepo() *fakeOpsRepo {
	return &fakeOpsRepo{ops: make(map[id.ID]*Operation)}
}

func (f *fakeOpsRepo) Create(ctx context.Context, op *Operation) error {
	cp := *op
	f.ops[op.ID] = &cp
	return nil
}

func (f *fakeOpsRepo) GetByID(ctx context.Context, opID id.ID) (*Operation, error) {
	op, ok := f.ops[opID]
	if !ok {
		return nil, apperror.NewNotFound("operation", opID.String())
	}
	return op, nil
}

func (f *fakeOpsRepo) GetByIDForUpdate(ctx context.Context, opID id.ID) (*Operation, error) {
	return f.GetByID(ctx, opID)
}

func (f *fakeOpsRepo) GetLineForUpdate(ctx context.Context, lineID id.ID) (*Line, *Operation, error) {
	for _, op := range f.ops {
		for i := range op.Lines {
			if op.Lines[i].LineID == lineID {
				return &op.Lines[i], op, nil
			}
		}
	}
	return nil, nil, apperror.NewNotFound("operation line", lineID.String())
}

func (f *fakeOpsRepo) SaveLines(ctx context.Context, opID id.ID, lines []Line) error {
	op, ok := f.ops[opID]
	if !ok {
		return apperror.NewNotFound("operation", opID.String())
	}
	op.Lines = append([]Line(nil), lines...)
	return nil
}

func (f *fakeOpsRepo) SaveAttachments(ctx context.Context, opID id.ID, atts []Attachment) error {
	op, ok := f.ops[opID]
	if !ok {
		return apperror.NewNotFound("operation", opID.String())
	}
	op.Attachments = append([]Attachment(nil), atts...)
	return nil
}

func (f *fakeOpsRepo) UpdateLineReturned(ctx context.Context, lineID id.ID, returned types.Quantity) error {
	for _, op := range f.ops {
		for i := range op.Lines {
			if op.Lines[i].LineID == lineID {
				op.Lines[i].ReturnedQuantity = returned
				return nil
			}
		}
	}
	return apperror.NewNotFound("operation line", lineID.String())
}

func (f *fakeOpsRepo) UpdateLineQuantity(ctx context.Context, lineID id.ID, quantity types.Quantity) error {
	for _, op := range f.ops {
		for i := range op.Lines {
			if op.Lines[i].LineID == lineID {
				op.Lines[i].Quantity = quantity
				return nil
			}
		}
	}
	return apperror.NewNotFound("operation line", lineID.String())
}

func (f *fakeOpsRepo) MarkDeleted(ctx context.Context, opID id.ID) error {
	op, ok := f.ops[opID]
	if !ok {
		return apperror.NewNotFound("operation", opID.String())
	}
	op.DeletionMark = true
	return nil
}

func (f *fakeOpsRepo) HasDependents(ctx context.Context, opID id.ID) (bool, error) {
	lineIDs := make(map[id.ID]bool)
	if op, ok := f.ops[opID]; ok {
		for _, l := range op.Lines {
			lineIDs[l.LineID] = true
		}
	}
	for _, op := range f.ops {
		if op.DeletionMark {
			continue
		}
		if op.OriginalOperationID != nil && *op.OriginalOperationID == opID {
			return true, nil
		}
		if op.OriginalLineID != nil && lineIDs[*op.OriginalLineID] {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOpsRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Operation], error) {
	return domain.ListResult[*Operation]{}, nil
}

type fakeWarehouses struct{ byID map[id.ID]*warehouse.Warehouse }

func (f *fakeWarehouses) GetByID(ctx context.Context, whID id.ID) (*warehouse.Warehouse, error) {
	wh, ok := f.byID[whID]
	if !ok {
		return nil, apperror.NewNotFound("warehouse", whID.String())
	}
	return wh, nil
}

type fakeItems struct{ byID map[id.ID]*item.Item }

func (f *fakeItems) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	it, ok := f.byID[itemID]
	if !ok {
		return nil, apperror.NewNotFound("item", itemID.String())
	}
	return it, nil
}

type fakeParties struct{ byID map[id.ID]*party.Party }

func (f *fakeParties) GetByIDAndKind(ctx context.Context, partyID id.ID, kind party.Kind) (*party.Party, error) {
	p, ok := f.byID[partyID]
	if !ok || p.Kind != kind {
		return nil, apperror.NewNotFound(string(kind), partyID.String())
	}
	return p, nil
}

// seqRow / seqQuerier back the numerator without a database.
type seqRow struct{ val int64 }

func (r *seqRow) Scan(dest ...any) error {
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = r.val
	}
	return nil
}

type seqQuerier struct{ current int64 }

func (q *seqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.current++
	return &seqRow{val: q.current}
}

// --- fixture ---

type fixture struct {
	engine     *Engine
	ledger     *ledger.Service
	ledgerRepo *fakeLedgerRepo
	opsRepo    *fakeOpsRepo

	warehouseID id.ID
	warehouse2  id.ID
	itemID      id.ID
	supplierID  id.ID
	beneficiary id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	wh := warehouse.NewWarehouse("WH-1", "Main Depot")
	wh2 := warehouse.NewWarehouse("WH-2", "Station Tank")
	it := item.NewItem("ITM-1", "Diesel")
	sup := party.NewParty(party.KindSupplier, "SUPL-1", "Fuel Co")
	ben := party.NewParty(party.KindBeneficiary, "BENF-1", "City Fleet")

	ledgerRepo := newFakeLedgerRepo()
	ledgerSvc := ledger.NewService(ledgerRepo, nil, nil)
	opsRepo := newFakeOpsRepo()

	engine := NewEngine(EngineConfig{
		Repo:       opsRepo,
		Ledger:     ledgerSvc,
		Warehouses: &fakeWarehouses{byID: map[id.ID]*warehouse.Warehouse{wh.ID: wh, wh2.ID: wh2}},
		Items:      &fakeItems{byID: map[id.ID]*item.Item{it.ID: it}},
		Parties:    &fakeParties{byID: map[id.ID]*party.Party{sup.ID: sup, ben.ID: ben}},
		TxManager:  passthroughTx{},
		Numerator:  numerator.New(&seqQuerier{}),
	})

	return &fixture{
		engine:      engine,
		ledger:      ledgerSvc,
		ledgerRepo:  ledgerRepo,
		opsRepo:     opsRepo,
		warehouseID: wh.ID,
		warehouse2:  wh2.ID,
		itemID:      it.ID,
		supplierID:  sup.ID,
		beneficiary: ben.ID,
	}
}

func (f *fixture) createBalance(t *testing.T, warehouseID id.ID, opening int64) {
	t.Helper()
	_, err := f.ledger.CreateBalance(context.Background(), warehouseID, f.itemID,
		types.NewQuantityFromInt64Scaled(opening*types.QuantityScale), ledger.UnitLiters)
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, warehouseID id.ID) types.Quantity {
	t.Helper()
	wi, err := f.ledger.GetBalance(context.Background(), warehouseID, f.itemID)
	require.NoError(t, err)
	return wi.CurrentQuantity
}

func qty(v int64) types.Quantity {
	return types.NewQuantityFromInt64Scaled(v * types.QuantityScale)
}

func (f *fixture) supply(t *testing.T, amount int64) *Operation {
	t.Helper()
	op := New(KindSupply, time.Now())
	op.WarehouseID = &f.warehouseID
	op.SupplierID = &f.supplierID
	op.AddLine(f.itemID, qty(amount))
	require.NoError(t, f.engine.Apply(context.Background(), op))
	return op
}

func (f *fixture) export(t *testing.T, amount int64) *Operation {
	t.Helper()
	op := New(KindExport, time.Now())
	op.WarehouseID = &f.warehouseID
	op.BeneficiaryID = &f.beneficiary
	op.AddLine(f.itemID, qty(amount))
	require.NoError(t, f.engine.Apply(context.Background(), op))
	return op
}

// --- tests ---

func TestSupplyExportReturnScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)

	f.supply(t, 100)
	assert.Equal(t, qty(100), f.balance(t, f.warehouseID))

	exp := f.export(t, 40)
	assert.Equal(t, qty(60), f.balance(t, f.warehouseID))

	ret := New(KindReturnExport, time.Now())
	ret.OriginalOperationID = &exp.ID
	ret.AddLine(f.itemID, qty(10))
	require.NoError(t, f.engine.Apply(ctx, ret))

	assert.Equal(t, qty(70), f.balance(t, f.warehouseID))

	stored, err := f.engine.GetByID(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(30), stored.Lines[0].Effective())
}

func TestExportInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	f.supply(t, 50)

	op := New(KindExport, time.Now())
	op.WarehouseID = &f.warehouseID
	op.BeneficiaryID = &f.beneficiary
	op.AddLine(f.itemID, qty(80))

	err := f.engine.Apply(ctx, op)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, qty(50), f.balance(t, f.warehouseID))
}

func TestTransferAtomicity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 100)
	f.createBalance(t, f.warehouse2, 5)

	op := New(KindTransfer, time.Now())
	op.FromWarehouseID = &f.warehouseID
	op.ToWarehouseID = &f.warehouse2
	op.AddLine(f.itemID, qty(30))
	require.NoError(t, f.engine.Apply(ctx, op))

	assert.Equal(t, qty(70), f.balance(t, f.warehouseID))
	assert.Equal(t, qty(35), f.balance(t, f.warehouse2))
}

func TestTransferSameWarehouseRejected(t *testing.T) {
	f := newFixture(t)

	op := New(KindTransfer, time.Now())
	op.FromWarehouseID = &f.warehouseID
	op.ToWarehouseID = &f.warehouseID
	op.AddLine(f.itemID, qty(10))

	err := f.engine.Apply(context.Background(), op)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestOverReturnRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	f.supply(t, 100)
	exp := f.export(t, 40)

	ret := New(KindReturnExport, time.Now())
	ret.OriginalOperationID = &exp.ID
	ret.AddLine(f.itemID, qty(30))
	require.NoError(t, f.engine.Apply(ctx, ret))

	// Only 10 outstanding on the export line now.
	ret2 := New(KindReturnExport, time.Now())
	ret2.OriginalOperationID = &exp.ID
	ret2.AddLine(f.itemID, qty(20))

	err := f.engine.Apply(ctx, ret2)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeOverReturn))
	assert.Equal(t, qty(90), f.balance(t, f.warehouseID))

	stored, err := f.engine.GetByID(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(30), stored.Lines[0].ReturnedQuantity)
}

func TestReturnSupplyDecreasesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	sup := f.supply(t, 100)

	ret := New(KindReturnSupply, time.Now())
	ret.OriginalOperationID = &sup.ID
	ret.AddLine(f.itemID, qty(25))
	require.NoError(t, f.engine.Apply(ctx, ret))

	assert.Equal(t, qty(75), f.balance(t, f.warehouseID))
}

func TestReturnKindMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	sup := f.supply(t, 100)

	ret := New(KindReturnExport, time.Now())
	ret.OriginalOperationID = &sup.ID
	ret.AddLine(f.itemID, qty(10))

	err := f.engine.Apply(ctx, ret)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Equal(t, qty(100), f.balance(t, f.warehouseID))
}

func TestModifySupply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	sup := f.supply(t, 100)
	lineID := sup.Lines[0].LineID

	oldQ, newQ := qty(100), qty(120)
	mod := New(KindModifySupply, time.Now())
	mod.OriginalLineID = &lineID
	mod.OldQuantity = &oldQ
	mod.NewQuantity = &newQ
	mod.Reason = "meter correction"
	require.NoError(t, f.engine.Apply(ctx, mod))

	assert.Equal(t, qty(120), f.balance(t, f.warehouseID))

	stored, err := f.engine.GetByID(ctx, sup.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(120), stored.Lines[0].Quantity)
}

func TestModifySupplyStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	sup := f.supply(t, 100)
	lineID := sup.Lines[0].LineID

	oldQ, newQ := qty(90), qty(120)
	mod := New(KindModifySupply, time.Now())
	mod.OriginalLineID = &lineID
	mod.OldQuantity = &oldQ
	mod.NewQuantity = &newQ
	mod.Reason = "meter correction"

	err := f.engine.Apply(ctx, mod)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeStaleModification))
	assert.Equal(t, qty(100), f.balance(t, f.warehouseID))
}

func TestModifySupplyExcludedByReturns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	sup := f.supply(t, 100)

	ret := New(KindReturnSupply, time.Now())
	ret.OriginalOperationID = &sup.ID
	ret.AddLine(f.itemID, qty(10))
	require.NoError(t, f.engine.Apply(ctx, ret))

	lineID := sup.Lines[0].LineID
	oldQ, newQ := qty(90), qty(120)
	mod := New(KindModifySupply, time.Now())
	mod.OriginalLineID = &lineID
	mod.OldQuantity = &oldQ
	mod.NewQuantity = &newQ
	mod.Reason = "meter correction"

	err := f.engine.Apply(ctx, mod)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestDeleteExportRestoresBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	f.supply(t, 100)
	exp := f.export(t, 40)

	require.NoError(t, f.engine.Delete(ctx, exp.ID))
	assert.Equal(t, qty(100), f.balance(t, f.warehouseID))

	_, err := f.engine.GetByID(ctx, exp.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeleteSupplyWithDependentsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	sup := f.supply(t, 100)

	ret := New(KindReturnSupply, time.Now())
	ret.OriginalOperationID = &sup.ID
	ret.AddLine(f.itemID, qty(10))
	require.NoError(t, f.engine.Apply(ctx, ret))

	err := f.engine.Delete(ctx, sup.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
	assert.Equal(t, qty(90), f.balance(t, f.warehouseID))
}

func TestDeleteReturnRestoresOriginalLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	f.supply(t, 100)
	exp := f.export(t, 40)

	ret := New(KindReturnExport, time.Now())
	ret.OriginalOperationID = &exp.ID
	ret.AddLine(f.itemID, qty(10))
	require.NoError(t, f.engine.Apply(ctx, ret))
	assert.Equal(t, qty(70), f.balance(t, f.warehouseID))

	require.NoError(t, f.engine.Delete(ctx, ret.ID))
	assert.Equal(t, qty(60), f.balance(t, f.warehouseID))

	stored, err := f.engine.GetByID(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), stored.Lines[0].ReturnedQuantity)
}

func TestSupplyUnknownSupplierRejected(t *testing.T) {
	f := newFixture(t)
	f.createBalance(t, f.warehouseID, 0)

	bogus := id.New()
	op := New(KindSupply, time.Now())
	op.WarehouseID = &f.warehouseID
	op.SupplierID = &bogus
	op.AddLine(f.itemID, qty(10))

	err := f.engine.Apply(context.Background(), op)
	assert.True(t, apperror.IsNotFound(err))
}

func TestNumbersCarryKindPrefix(t *testing.T) {
	f := newFixture(t)
	f.createBalance(t, f.warehouseID, 0)

	sup := f.supply(t, 10)
	assert.Contains(t, sup.Number, "SUP-")

	exp := f.export(t, 5)
	assert.Contains(t, exp.Number, "EXP-")
}

func TestDeleteModifyRestoresLineAndBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	sup := f.supply(t, 100)
	lineID := sup.Lines[0].LineID

	oldQ, newQ := qty(100), qty(120)
	mod := New(KindModifySupply, time.Now())
	mod.OriginalLineID = &lineID
	mod.OldQuantity = &oldQ
	mod.NewQuantity = &newQ
	mod.Reason = "meter correction"
	require.NoError(t, f.engine.Apply(ctx, mod))
	assert.Equal(t, qty(120), f.balance(t, f.warehouseID))

	require.NoError(t, f.engine.Delete(ctx, mod.ID))
	assert.Equal(t, qty(100), f.balance(t, f.warehouseID))

	stored, err := f.engine.GetByID(ctx, sup.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(100), stored.Lines[0].Quantity)
}

func TestDeleteSupersededModifyRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	sup := f.supply(t, 100)
	lineID := sup.Lines[0].LineID

	apply := func(oldV, newV int64) *Operation {
		oldQ, newQ := qty(oldV), qty(newV)
		mod := New(KindModifySupply, time.Now())
		mod.OriginalLineID = &lineID
		mod.OldQuantity = &oldQ
		mod.NewQuantity = &newQ
		mod.Reason = "meter correction"
		require.NoError(t, f.engine.Apply(ctx, mod))
		return mod
	}

	first := apply(100, 120)
	apply(120, 90)

	// The second modification supersedes the first; deleting the first
	// out of order would corrupt the line.
	err := f.engine.Delete(ctx, first.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeStaleModification))
	assert.Equal(t, qty(90), f.balance(t, f.warehouseID))
}

func TestDeleteReturnWithCorruptedLineRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createBalance(t, f.warehouseID, 0)
	f.supply(t, 100)
	exp := f.export(t, 40)

	ret := New(KindReturnExport, time.Now())
	ret.OriginalOperationID = &exp.ID
	ret.AddLine(f.itemID, qty(30))
	require.NoError(t, f.engine.Apply(ctx, ret))

	// Force the original line to account for less than the return.
	lineID := exp.Lines[0].LineID
	require.NoError(t, f.opsRepo.UpdateLineReturned(ctx, lineID, qty(10)))

	before := f.balance(t, f.warehouseID)
	err := f.engine.Delete(ctx, ret.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
	assert.Equal(t, before, f.balance(t, f.warehouseID))
}

// Balance must always equal opening plus the net effective movement of
// every non-deleted operation, whatever sequence of accepted and
// rejected operations led there.
func TestBalanceMatchesOperationHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const opening = 500
	f.createBalance(t, f.warehouseID, opening)

	expected := func() types.Quantity {
		total := qty(opening)
		for _, op := range f.opsRepo.ops {
			if op.DeletionMark {
				continue
			}
			for _, line := range op.Lines {
				switch op.Kind {
				case KindSupply:
					total += line.Effective()
				case KindExport, KindDamage:
					total -= line.Effective()
				}
			}
		}
		return total
	}

	rng := rand.New(rand.NewSource(7))
	var supplies, exports []*Operation

	liveExport := func() *Operation {
		for _, i := range rng.Perm(len(exports)) {
			if stored, ok := f.opsRepo.ops[exports[i].ID]; ok && !stored.DeletionMark {
				return exports[i]
			}
		}
		return nil
	}

	for step := 0; step < 300; step++ {
		before := f.balance(t, f.warehouseID)
		var err error

		switch rng.Intn(7) {
		case 0:
			op := New(KindSupply, time.Now())
			op.WarehouseID = &f.warehouseID
			op.SupplierID = &f.supplierID
			op.AddLine(f.itemID, qty(int64(1+rng.Intn(100))))
			if err = f.engine.Apply(ctx, op); err == nil {
				supplies = append(supplies, op)
			}
		case 1:
			op := New(KindExport, time.Now())
			op.WarehouseID = &f.warehouseID
			op.BeneficiaryID = &f.beneficiary
			op.AddLine(f.itemID, qty(int64(1+rng.Intn(150))))
			if err = f.engine.Apply(ctx, op); err == nil {
				exports = append(exports, op)
			}
		case 2:
			op := New(KindDamage, time.Now())
			op.WarehouseID = &f.warehouseID
			op.Reason = "spillage"
			op.AddLine(f.itemID, qty(int64(1+rng.Intn(80))))
			err = f.engine.Apply(ctx, op)
		case 3:
			if len(supplies) == 0 {
				continue
			}
			orig := supplies[rng.Intn(len(supplies))]
			op := New(KindReturnSupply, time.Now())
			op.OriginalOperationID = &orig.ID
			op.AddLine(f.itemID, qty(int64(1+rng.Intn(60))))
			err = f.engine.Apply(ctx, op)
		case 4:
			if len(exports) == 0 {
				continue
			}
			orig := exports[rng.Intn(len(exports))]
			op := New(KindReturnExport, time.Now())
			op.OriginalOperationID = &orig.ID
			op.AddLine(f.itemID, qty(int64(1+rng.Intn(60))))
			err = f.engine.Apply(ctx, op)
		case 5:
			if len(supplies) == 0 {
				continue
			}
			orig := supplies[rng.Intn(len(supplies))]
			var stored *Operation
			if stored, err = f.engine.GetByID(ctx, orig.ID); err != nil {
				continue
			}
			oldQ := stored.Lines[0].Quantity
			newQ := qty(int64(1 + rng.Intn(150)))
			op := New(KindModifySupply, time.Now())
			op.OriginalLineID = &stored.Lines[0].LineID
			op.OldQuantity = &oldQ
			op.NewQuantity = &newQ
			op.Reason = "meter correction"
			err = f.engine.Apply(ctx, op)
		case 6:
			orig := liveExport()
			if orig == nil {
				continue
			}
			err = f.engine.Delete(ctx, orig.ID)
		}

		if err != nil {
			assert.True(t, apperror.IsAppError(err), "step %d: %v", step, err)
			assert.Equal(t, before, f.balance(t, f.warehouseID),
				"rejected operation moved the balance at step %d", step)
		}
		assert.Equal(t, expected(), f.balance(t, f.warehouseID), "step %d", step)
		assert.False(t, f.balance(t, f.warehouseID).IsNegative(), "step %d", step)
	}
}
