// Package operations provides the operation engine: the seven operation
// kinds, their validation rules and their atomic application against the
// stock ledger.
package operations

import (
	"context"
	"time"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/entity"
	"fuelstock/internal/core/id"
	"fuelstock/internal/core/types"
)

// Kind discriminates the operation union.
type Kind string

const (
	KindSupply       Kind = "supply"
	KindExport       Kind = "export"
	KindTransfer     Kind = "transfer"
	KindDamage       Kind = "damage"
	KindReturnSupply Kind = "return_supply"
	KindReturnExport Kind = "return_export"
	KindModifySupply Kind = "modify_supply"
)

// ValidKind reports whether k is a known operation kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindSupply, KindExport, KindTransfer, KindDamage,
		KindReturnSupply, KindReturnExport, KindModifySupply:
		return true
	}
	return false
}

// Line is one (item, quantity) entry of an operation.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ItemID id.ID `db:"item_id" json:"itemId"`

	// Quantity is the line's effective quantity. ModifySupply overwrites
	// it; returns leave it and accumulate in ReturnedQuantity instead.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// ReturnedQuantity is the cumulative quantity returned against this line.
	ReturnedQuantity types.Quantity `db:"returned_quantity" json:"returnedQuantity"`
}

// Effective returns the line quantity net of returns.
func (l Line) Effective() types.Quantity {
	return l.Quantity - l.ReturnedQuantity
}

// Attachment associates an externally stored file with an operation.
// Content lives elsewhere; only the association is recorded.
type Attachment struct {
	ID         id.ID  `db:"id" json:"id"`
	StorageKey string `db:"storage_key" json:"storageKey"`
	FileName   string `db:"file_name" json:"fileName"`
}

// Operation is the tagged union over all seven kinds. Kind-specific
// fields are nullable and validated per kind.
type Operation struct {
	entity.BaseDocument

	// Number is auto-generated per kind (e.g. SUP-2026-00001)
	Number string `db:"number" json:"number"`

	Kind Kind `db:"kind" json:"kind"`

	// OperationDate is the business date
	OperationDate time.Time `db:"operation_date" json:"operationDate"`

	PaperRefNumber string `db:"paper_ref_number" json:"paperRefNumber,omitempty"`
	Statement      string `db:"statement" json:"statement,omitempty"`
	Description    string `db:"description" json:"description,omitempty"`

	// Supply / Export / Damage / returns
	WarehouseID *id.ID `db:"warehouse_id" json:"warehouseId,omitempty"`

	// Supply
	SupplierID      *id.ID `db:"supplier_id" json:"supplierId,omitempty"`
	StationID       *id.ID `db:"station_id" json:"stationId,omitempty"`
	SupplyBonNumber string `db:"supply_bon_number" json:"supplyBonNumber,omitempty"`
	DelivererName   string `db:"deliverer_name" json:"delivererName,omitempty"`
	DelivererJobNo  string `db:"deliverer_job_number" json:"delivererJobNumber,omitempty"`

	// Export
	BeneficiaryID      *id.ID `db:"beneficiary_id" json:"beneficiaryId,omitempty"`
	RecipientName      string `db:"recipient_name" json:"recipientName,omitempty"`
	RecipientJobNumber string `db:"recipient_job_number" json:"recipientJobNumber,omitempty"`

	// Transfer
	FromWarehouseID *id.ID `db:"from_warehouse_id" json:"fromWarehouseId,omitempty"`
	ToWarehouseID   *id.ID `db:"to_warehouse_id" json:"toWarehouseId,omitempty"`

	// Damage / ModifySupply
	Reason string `db:"reason" json:"reason,omitempty"`

	// ReturnSupply / ReturnExport
	OriginalOperationID *id.ID `db:"original_operation_id" json:"originalOperationId,omitempty"`

	// ModifySupply
	OriginalLineID *id.ID          `db:"original_line_id" json:"originalLineId,omitempty"`
	OldQuantity    *types.Quantity `db:"old_quantity" json:"oldQuantity,omitempty"`
	NewQuantity    *types.Quantity `db:"new_quantity" json:"newQuantity,omitempty"`

	Lines       []Line       `db:"-" json:"lines"`
	Attachments []Attachment `db:"-" json:"attachments,omitempty"`
}

// New creates an operation of the given kind with generated ID and
// audit timestamps.
func New(kind Kind, operationDate time.Time) *Operation {
	return &Operation{
		BaseDocument:  entity.NewBaseDocument(),
		Kind:          kind,
		OperationDate: operationDate,
		Lines:         make([]Line, 0),
	}
}

// AddLine appends a line, enforcing one line per item elsewhere
// (Validate checks duplicates).
func (o *Operation) AddLine(itemID id.ID, qty types.Quantity) {
	o.Lines = append(o.Lines, Line{
		LineID:   id.New(),
		LineNo:   len(o.Lines) + 1,
		ItemID:   itemID,
		Quantity: qty,
	})
}

// LineByItem returns the line for itemID, nil if absent.
func (o *Operation) LineByItem(itemID id.ID) *Line {
	for i := range o.Lines {
		if o.Lines[i].ItemID == itemID {
			return &o.Lines[i]
		}
	}
	return nil
}

// Validate implements entity.Validatable. Checks structural invariants
// only; reference existence is the engine's job.
func (o *Operation) Validate(ctx context.Context) error {
	if !ValidKind(o.Kind) {
		return apperror.NewFieldValidation("kind", "unknown operation kind")
	}
	if o.OperationDate.IsZero() {
		return apperror.NewFieldValidation("operationDate", "operation date is required")
	}

	if o.Kind == KindModifySupply {
		return o.validateModify()
	}

	if len(o.Lines) == 0 {
		return apperror.NewFieldValidation("lines", "at least one line is required")
	}
	seen := make(map[id.ID]bool, len(o.Lines))
	for i, line := range o.Lines {
		if id.IsNil(line.ItemID) {
			return apperror.NewValidation("item is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if seen[line.ItemID] {
			return apperror.NewValidation("duplicate item line").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		seen[line.ItemID] = true
	}

	switch o.Kind {
	case KindSupply:
		if o.WarehouseID == nil || id.IsNil(*o.WarehouseID) {
			return apperror.NewFieldValidation("warehouseId", "warehouse is required")
		}
		if o.SupplierID == nil || id.IsNil(*o.SupplierID) {
			return apperror.NewFieldValidation("supplierId", "supplier is required")
		}
	case KindExport:
		if o.WarehouseID == nil || id.IsNil(*o.WarehouseID) {
			return apperror.NewFieldValidation("warehouseId", "warehouse is required")
		}
		if o.BeneficiaryID == nil || id.IsNil(*o.BeneficiaryID) {
			return apperror.NewFieldValidation("beneficiaryId", "beneficiary is required")
		}
	case KindTransfer:
		if o.FromWarehouseID == nil || id.IsNil(*o.FromWarehouseID) {
			return apperror.NewFieldValidation("fromWarehouseId", "source warehouse is required")
		}
		if o.ToWarehouseID == nil || id.IsNil(*o.ToWarehouseID) {
			return apperror.NewFieldValidation("toWarehouseId", "destination warehouse is required")
		}
		if *o.FromWarehouseID == *o.ToWarehouseID {
			return apperror.NewFieldValidation("toWarehouseId", "source and destination must differ")
		}
	case KindDamage:
		if o.WarehouseID == nil || id.IsNil(*o.WarehouseID) {
			return apperror.NewFieldValidation("warehouseId", "warehouse is required")
		}
		if o.Reason == "" {
			return apperror.NewFieldValidation("reason", "reason is required")
		}
	case KindReturnSupply, KindReturnExport:
		if o.OriginalOperationID == nil || id.IsNil(*o.OriginalOperationID) {
			return apperror.NewFieldValidation("originalOperationId", "original operation is required")
		}
	}

	return nil
}

func (o *Operation) validateModify() error {
	if o.OriginalLineID == nil || id.IsNil(*o.OriginalLineID) {
		return apperror.NewFieldValidation("originalLineId", "original item line is required")
	}
	if o.OldQuantity == nil {
		return apperror.NewFieldValidation("oldQuantity", "old quantity is required")
	}
	if o.NewQuantity == nil {
		return apperror.NewFieldValidation("newQuantity", "new quantity is required")
	}
	if !o.NewQuantity.IsPositive() {
		return apperror.NewFieldValidation("newQuantity", "new quantity must be positive")
	}
	if o.Reason == "" {
		return apperror.NewFieldValidation("reason", "reason is required")
	}
	if len(o.Lines) != 0 {
		return apperror.NewFieldValidation("lines", "modification carries no lines")
	}
	return nil
}
