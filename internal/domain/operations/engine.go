package operations

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/core/tx"
	"fuelstock/internal/core/types"
	"fuelstock/internal/domain"
	"fuelstock/internal/domain/catalogs/item"
	"fuelstock/internal/domain/catalogs/party"
	"fuelstock/internal/domain/catalogs/warehouse"
	"fuelstock/internal/domain/ledger"
	"fuelstock/pkg/logger"
	"fuelstock/pkg/numerator"
)

// WarehouseCatalog is the engine's view of the warehouse catalog.
type WarehouseCatalog interface {
	GetByID(ctx context.Context, id id.ID) (*warehouse.Warehouse, error)
}

// ItemCatalog is the engine's view of the item catalog.
type ItemCatalog interface {
	GetByID(ctx context.Context, id id.ID) (*item.Item, error)
}

// PartyCatalog is the engine's view of the party catalogs.
type PartyCatalog interface {
	GetByIDAndKind(ctx context.Context, id id.ID, kind party.Kind) (*party.Party, error)
}

// Auditor records applied and deleted operations. Implementations must
// tolerate being called inside the apply transaction.
type Auditor interface {
	Record(ctx context.Context, action string, op *Operation) error
}

// NopAuditor discards audit records.
type NopAuditor struct{}

func (NopAuditor) Record(context.Context, string, *Operation) error { return nil }

var numberPrefixes = map[Kind]string{
	KindSupply:       "SUP",
	KindExport:       "EXP",
	KindTransfer:     "TRF",
	KindDamage:       "DMG",
	KindReturnSupply: "RSUP",
	KindReturnExport: "REXP",
	KindModifySupply: "MOD",
}

// Engine validates and atomically applies operations against the stock
// ledger, then persists the immutable operation record.
type Engine struct {
	repo       Repository
	ledger     *ledger.Service
	warehouses WarehouseCatalog
	items      ItemCatalog
	parties    PartyCatalog
	txManager  tx.Manager
	numerator  *numerator.Service
	auditor    Auditor
	log        *logger.Logger
}

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Repo       Repository
	Ledger     *ledger.Service
	Warehouses WarehouseCatalog
	Items      ItemCatalog
	Parties    PartyCatalog
	TxManager  tx.Manager
	Numerator  *numerator.Service
	Auditor    Auditor
	Logger     *logger.Logger
}

// NewEngine creates a new operation engine.
func NewEngine(cfg EngineConfig) *Engine {
	auditor := cfg.Auditor
	if auditor == nil {
		auditor = NopAuditor{}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Engine{
		repo:       cfg.Repo,
		ledger:     cfg.Ledger,
		warehouses: cfg.Warehouses,
		items:      cfg.Items,
		parties:    cfg.Parties,
		txManager:  cfg.TxManager,
		numerator:  cfg.Numerator,
		auditor:    auditor,
		log:        log.WithComponent("operation_engine"),
	}
}

// Apply validates op and applies it to the ledger in one transaction.
// On any failure the ledger is left unchanged.
func (e *Engine) Apply(ctx context.Context, op *Operation) error {
	if err := op.Validate(ctx); err != nil {
		return err
	}
	if err := e.checkReferences(ctx, op); err != nil {
		return err
	}

	if op.Number == "" {
		number, err := e.numerator.GetNextNumber(ctx, numerator.DefaultConfig(numberPrefixes[op.Kind]), nil, op.OperationDate)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		op.Number = number
	}

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		switch op.Kind {
		case KindSupply:
			if err := e.applyAdjustments(ctx, *op.WarehouseID, op.Lines, +1); err != nil {
				return err
			}
		case KindExport, KindDamage:
			if err := e.applyAdjustments(ctx, *op.WarehouseID, op.Lines, -1); err != nil {
				return err
			}
		case KindTransfer:
			if err := e.applyTransfer(ctx, op); err != nil {
				return err
			}
		case KindReturnSupply, KindReturnExport:
			if err := e.applyReturn(ctx, op); err != nil {
				return err
			}
		case KindModifySupply:
			if err := e.applyModify(ctx, op); err != nil {
				return err
			}
		}

		if err := e.repo.Create(ctx, op); err != nil {
			return fmt.Errorf("create operation: %w", err)
		}
		if err := e.repo.SaveLines(ctx, op.ID, op.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if len(op.Attachments) > 0 {
			if err := e.repo.SaveAttachments(ctx, op.ID, op.Attachments); err != nil {
				return fmt.Errorf("save attachments: %w", err)
			}
		}

		return e.auditor.Record(ctx, "apply", op)
	})
	if err != nil {
		return err
	}

	e.log.WithContext(ctx).Infow("operation applied",
		"id", op.ID,
		"kind", op.Kind,
		"number", op.Number,
	)
	return nil
}

// Delete removes an operation as an administrative action,
// reversing its ledger effect in the same transaction.
func (e *Engine) Delete(ctx context.Context, opID id.ID) error {
	var deleted *Operation

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		op, err := e.repo.GetByIDForUpdate(ctx, opID)
		if err != nil {
			return err
		}
		if op.DeletionMark {
			return apperror.NewNotFound("operation", opID.String())
		}

		switch op.Kind {
		case KindSupply:
			if err := e.requireNoDependents(ctx, op); err != nil {
				return err
			}
			if err := e.applyAdjustments(ctx, *op.WarehouseID, op.Lines, -1); err != nil {
				return err
			}
		case KindExport:
			if err := e.requireNoDependents(ctx, op); err != nil {
				return err
			}
			if err := e.applyAdjustments(ctx, *op.WarehouseID, op.Lines, +1); err != nil {
				return err
			}
		case KindDamage:
			if err := e.applyAdjustments(ctx, *op.WarehouseID, op.Lines, +1); err != nil {
				return err
			}
		case KindTransfer:
			if err := e.reverseTransfer(ctx, op); err != nil {
				return err
			}
		case KindReturnSupply, KindReturnExport:
			if err := e.reverseReturn(ctx, op); err != nil {
				return err
			}
		case KindModifySupply:
			if err := e.reverseModify(ctx, op); err != nil {
				return err
			}
		}

		if err := e.repo.MarkDeleted(ctx, op.ID); err != nil {
			return fmt.Errorf("mark deleted: %w", err)
		}

		deleted = op
		return e.auditor.Record(ctx, "delete", op)
	})
	if err != nil {
		return err
	}

	e.log.WithContext(ctx).Infow("operation deleted",
		"id", deleted.ID,
		"kind", deleted.Kind,
		"number", deleted.Number,
	)
	return nil
}

// GetByID retrieves an operation with its lines.
func (e *Engine) GetByID(ctx context.Context, opID id.ID) (*Operation, error) {
	op, err := e.repo.GetByID(ctx, opID)
	if err != nil {
		return nil, err
	}
	if op.DeletionMark {
		return nil, apperror.NewNotFound("operation", opID.String())
	}
	return op, nil
}

// List retrieves operation history.
func (e *Engine) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Operation], error) {
	return e.repo.List(ctx, filter)
}

// --- reference checks (outside the apply transaction) ---

func (e *Engine) checkReferences(ctx context.Context, op *Operation) error {
	switch op.Kind {
	case KindSupply:
		if err := e.checkWarehouse(ctx, *op.WarehouseID); err != nil {
			return err
		}
		if _, err := e.parties.GetByIDAndKind(ctx, *op.SupplierID, party.KindSupplier); err != nil {
			return err
		}
		if op.StationID != nil && !id.IsNil(*op.StationID) {
			if _, err := e.parties.GetByIDAndKind(ctx, *op.StationID, party.KindStation); err != nil {
				return err
			}
		}
	case KindExport:
		if err := e.checkWarehouse(ctx, *op.WarehouseID); err != nil {
			return err
		}
		if _, err := e.parties.GetByIDAndKind(ctx, *op.BeneficiaryID, party.KindBeneficiary); err != nil {
			return err
		}
	case KindTransfer:
		if err := e.checkWarehouse(ctx, *op.FromWarehouseID); err != nil {
			return err
		}
		if err := e.checkWarehouse(ctx, *op.ToWarehouseID); err != nil {
			return err
		}
	case KindDamage:
		if err := e.checkWarehouse(ctx, *op.WarehouseID); err != nil {
			return err
		}
	case KindReturnSupply, KindReturnExport, KindModifySupply:
		// Originals are loaded and checked under lock inside the transaction.
		return nil
	}

	for i, line := range op.Lines {
		it, err := e.items.GetByID(ctx, line.ItemID)
		if err != nil {
			return err
		}
		if !it.Usable() {
			return apperror.NewValidation("item is not active").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1).
				WithDetail("itemId", line.ItemID.String())
		}
	}
	return nil
}

func (e *Engine) checkWarehouse(ctx context.Context, warehouseID id.ID) error {
	wh, err := e.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if !wh.CanHoldStock() {
		return apperror.NewValidation("warehouse cannot hold stock").
			WithDetail("warehouseId", warehouseID.String())
	}
	return nil
}

// --- apply helpers (inside the transaction) ---

type balancePair struct {
	warehouseID id.ID
	itemID      id.ID
	delta       types.Quantity
}

func comparePairs(a, b balancePair) int {
	if c := bytes.Compare(a.warehouseID[:], b.warehouseID[:]); c != 0 {
		return c
	}
	return bytes.Compare(a.itemID[:], b.itemID[:])
}

// adjustPairs locks the touched balance rows in primary-key order, then
// applies the deltas. Deterministic lock order prevents deadlocks
// between concurrent multi-pair operations.
func (e *Engine) adjustPairs(ctx context.Context, pairs []balancePair) error {
	sorted := make([]balancePair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		return comparePairs(sorted[i], sorted[j]) < 0
	})

	for _, p := range sorted {
		if _, err := e.ledger.LockPair(ctx, p.warehouseID, p.itemID); err != nil {
			return err
		}
	}
	for _, p := range pairs {
		if _, err := e.ledger.Adjust(ctx, p.warehouseID, p.itemID, p.delta); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) applyAdjustments(ctx context.Context, warehouseID id.ID, lines []Line, sign int) error {
	pairs := make([]balancePair, 0, len(lines))
	for _, line := range lines {
		delta := line.Quantity
		if sign < 0 {
			delta = delta.Neg()
		}
		pairs = append(pairs, balancePair{warehouseID, line.ItemID, delta})
	}
	return e.adjustPairs(ctx, pairs)
}

func (e *Engine) applyTransfer(ctx context.Context, op *Operation) error {
	pairs := make([]balancePair, 0, 2*len(op.Lines))
	for _, line := range op.Lines {
		pairs = append(pairs,
			balancePair{*op.FromWarehouseID, line.ItemID, line.Quantity.Neg()},
			balancePair{*op.ToWarehouseID, line.ItemID, line.Quantity},
		)
	}
	return e.adjustPairs(ctx, pairs)
}

func (e *Engine) reverseTransfer(ctx context.Context, op *Operation) error {
	pairs := make([]balancePair, 0, 2*len(op.Lines))
	for _, line := range op.Lines {
		pairs = append(pairs,
			balancePair{*op.FromWarehouseID, line.ItemID, line.Quantity},
			balancePair{*op.ToWarehouseID, line.ItemID, line.Quantity.Neg()},
		)
	}
	return e.adjustPairs(ctx, pairs)
}

// applyReturn reverses part of the original operation's effect. The
// bound is the original line's effective quantity, so repeated partial
// returns can never exceed the originally moved amount.
func (e *Engine) applyReturn(ctx context.Context, op *Operation) error {
	orig, err := e.repo.GetByIDForUpdate(ctx, *op.OriginalOperationID)
	if err != nil {
		return err
	}
	if orig.DeletionMark {
		return apperror.NewNotFound("operation", orig.ID.String())
	}

	wantKind := KindSupply
	if op.Kind == KindReturnExport {
		wantKind = KindExport
	}
	if orig.Kind != wantKind {
		return apperror.NewValidation("original operation kind mismatch").
			WithDetail("originalOperationId", orig.ID.String()).
			WithDetail("expected", string(wantKind)).
			WithDetail("actual", string(orig.Kind))
	}

	// Returns settle at the original operation's warehouse.
	op.WarehouseID = orig.WarehouseID
	op.SupplierID = orig.SupplierID
	op.BeneficiaryID = orig.BeneficiaryID

	pairs := make([]balancePair, 0, len(op.Lines))
	updates := make(map[id.ID]types.Quantity, len(op.Lines))

	for i, line := range op.Lines {
		origLine := orig.LineByItem(line.ItemID)
		if origLine == nil {
			return apperror.NewValidation("item not present in original operation").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1).
				WithDetail("itemId", line.ItemID.String())
		}

		outstanding := origLine.Effective()
		if line.Quantity > outstanding {
			return apperror.NewOverReturn(
				line.ItemID.String(),
				line.Quantity.Float64(),
				outstanding.Float64(),
			)
		}

		// Returning a supply takes fuel back out; returning an export
		// brings it back in.
		delta := line.Quantity
		if op.Kind == KindReturnSupply {
			delta = delta.Neg()
		}
		pairs = append(pairs, balancePair{*orig.WarehouseID, line.ItemID, delta})
		updates[origLine.LineID] = origLine.ReturnedQuantity + line.Quantity
	}

	if err := e.adjustPairs(ctx, pairs); err != nil {
		return err
	}
	for lineID, returned := range updates {
		if err := e.repo.UpdateLineReturned(ctx, lineID, returned); err != nil {
			return fmt.Errorf("update returned quantity: %w", err)
		}
	}
	return nil
}

// applyModify replaces a supply line's effective quantity and adjusts
// stock by the delta. A line with outstanding returns cannot be
// modified; a line is either returned-against or modified, never both.
func (e *Engine) applyModify(ctx context.Context, op *Operation) error {
	line, orig, err := e.repo.GetLineForUpdate(ctx, *op.OriginalLineID)
	if err != nil {
		return err
	}
	if orig.DeletionMark {
		return apperror.NewNotFound("operation", orig.ID.String())
	}
	if orig.Kind != KindSupply {
		return apperror.NewValidation("original line does not belong to a supply").
			WithDetail("originalLineId", line.LineID.String()).
			WithDetail("kind", string(orig.Kind))
	}
	if line.ReturnedQuantity.IsPositive() {
		return apperror.NewConflict("line has outstanding returns and cannot be modified").
			WithDetail("originalLineId", line.LineID.String()).
			WithDetail("returnedQuantity", line.ReturnedQuantity.String())
	}
	if *op.OldQuantity != line.Quantity {
		return apperror.NewStaleModification("supply line", line.LineID.String()).
			WithDetail("oldQuantity", op.OldQuantity.String()).
			WithDetail("currentQuantity", line.Quantity.String())
	}

	op.WarehouseID = orig.WarehouseID
	op.OriginalOperationID = &orig.ID

	delta := *op.NewQuantity - *op.OldQuantity
	if !delta.IsZero() {
		if _, err := e.ledger.Adjust(ctx, *orig.WarehouseID, line.ItemID, delta); err != nil {
			return err
		}
	}
	if err := e.repo.UpdateLineQuantity(ctx, line.LineID, *op.NewQuantity); err != nil {
		return fmt.Errorf("update line quantity: %w", err)
	}
	return nil
}

func (e *Engine) reverseReturn(ctx context.Context, op *Operation) error {
	orig, err := e.repo.GetByIDForUpdate(ctx, *op.OriginalOperationID)
	if err != nil {
		return err
	}

	pairs := make([]balancePair, 0, len(op.Lines))
	updates := make(map[id.ID]types.Quantity, len(op.Lines))

	for _, line := range op.Lines {
		origLine := orig.LineByItem(line.ItemID)
		if origLine == nil {
			return apperror.NewNotFound("original line", line.ItemID.String())
		}

		delta := line.Quantity
		if op.Kind == KindReturnExport {
			delta = delta.Neg()
		}
		// A cumulative returned quantity below this return's amount means
		// the line no longer accounts for it; refuse rather than guess.
		remaining := origLine.ReturnedQuantity - line.Quantity
		if remaining.IsNegative() {
			return apperror.NewConflict("returned quantity on original line is less than the return being deleted").
				WithDetail("originalLineId", origLine.LineID.String()).
				WithDetail("returnedQuantity", origLine.ReturnedQuantity.String()).
				WithDetail("returnQuantity", line.Quantity.String())
		}
		pairs = append(pairs, balancePair{*orig.WarehouseID, line.ItemID, delta})
		updates[origLine.LineID] = remaining
	}

	if err := e.adjustPairs(ctx, pairs); err != nil {
		return err
	}
	for lineID, returned := range updates {
		if err := e.repo.UpdateLineReturned(ctx, lineID, returned); err != nil {
			return fmt.Errorf("update returned quantity: %w", err)
		}
	}
	return nil
}

func (e *Engine) reverseModify(ctx context.Context, op *Operation) error {
	line, orig, err := e.repo.GetLineForUpdate(ctx, *op.OriginalLineID)
	if err != nil {
		return err
	}
	if line.ReturnedQuantity.IsPositive() {
		return apperror.NewConflict("line has outstanding returns").
			WithDetail("originalLineId", line.LineID.String())
	}
	// A later modification supersedes this one; deleting out of order
	// would corrupt the line's quantity.
	if line.Quantity != *op.NewQuantity {
		return apperror.NewStaleModification("supply line", line.LineID.String()).
			WithDetail("expectedQuantity", op.NewQuantity.String()).
			WithDetail("currentQuantity", line.Quantity.String())
	}

	delta := *op.OldQuantity - *op.NewQuantity
	if !delta.IsZero() {
		if _, err := e.ledger.Adjust(ctx, *orig.WarehouseID, line.ItemID, delta); err != nil {
			return err
		}
	}
	return e.repo.UpdateLineQuantity(ctx, line.LineID, *op.OldQuantity)
}

func (e *Engine) requireNoDependents(ctx context.Context, op *Operation) error {
	has, err := e.repo.HasDependents(ctx, op.ID)
	if err != nil {
		return err
	}
	if has {
		return apperror.NewConflict("operation has dependent returns or modifications").
			WithDetail("operationId", op.ID.String())
	}
	return nil
}
