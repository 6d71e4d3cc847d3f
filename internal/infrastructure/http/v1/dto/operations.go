package dto

import (
	"time"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/id"
	"fuelstock/internal/core/types"
	"fuelstock/internal/domain/operations"
)

// OperationLineRequest is one line of an operation request.
type OperationLineRequest struct {
	ItemID   string         `json:"itemId" binding:"required"`
	Quantity types.Quantity `json:"quantity"`
}

// AttachmentRequest associates an externally stored file.
type AttachmentRequest struct {
	StorageKey string `json:"storageKey" binding:"required"`
	FileName   string `json:"fileName" binding:"required"`
}

// CreateOperationRequest is the request body for all operation kinds.
// Kind comes from the route; kind-specific fields are validated by the
// domain layer.
type CreateOperationRequest struct {
	OperationDate  time.Time `json:"operationDate" binding:"required"`
	PaperRefNumber string    `json:"paperRefNumber"`
	Statement      string    `json:"statement"`
	Description    string    `json:"description"`

	Lines       []OperationLineRequest `json:"lines"`
	Attachments []AttachmentRequest    `json:"attachments"`

	WarehouseID *string `json:"warehouseId"`

	SupplierID      *string `json:"supplierId"`
	StationID       *string `json:"stationId"`
	SupplyBonNumber string  `json:"supplyBonNumber"`
	DelivererName   string  `json:"delivererName"`
	DelivererJobNo  string  `json:"delivererJobNumber"`

	BeneficiaryID      *string `json:"beneficiaryId"`
	RecipientName      string  `json:"recipientName"`
	RecipientJobNumber string  `json:"recipientJobNumber"`

	FromWarehouseID *string `json:"fromWarehouseId"`
	ToWarehouseID   *string `json:"toWarehouseId"`

	Reason string `json:"reason"`

	OriginalOperationID *string `json:"originalOperationId"`

	OriginalLineID *string         `json:"originalLineId"`
	OldQuantity    *types.Quantity `json:"oldQuantity"`
	NewQuantity    *types.Quantity `json:"newQuantity"`
}

// ToEntity converts the request to a domain operation of the given kind.
func (r *CreateOperationRequest) ToEntity(kind operations.Kind) (*operations.Operation, error) {
	op := operations.New(kind, r.OperationDate)
	op.PaperRefNumber = r.PaperRefNumber
	op.Statement = r.Statement
	op.Description = r.Description
	op.SupplyBonNumber = r.SupplyBonNumber
	op.DelivererName = r.DelivererName
	op.DelivererJobNo = r.DelivererJobNo
	op.RecipientName = r.RecipientName
	op.RecipientJobNumber = r.RecipientJobNumber
	op.Reason = r.Reason
	op.OldQuantity = r.OldQuantity
	op.NewQuantity = r.NewQuantity

	var err error
	if op.WarehouseID, err = parseOptionalID(r.WarehouseID, "warehouseId"); err != nil {
		return nil, err
	}
	if op.SupplierID, err = parseOptionalID(r.SupplierID, "supplierId"); err != nil {
		return nil, err
	}
	if op.StationID, err = parseOptionalID(r.StationID, "stationId"); err != nil {
		return nil, err
	}
	if op.BeneficiaryID, err = parseOptionalID(r.BeneficiaryID, "beneficiaryId"); err != nil {
		return nil, err
	}
	if op.FromWarehouseID, err = parseOptionalID(r.FromWarehouseID, "fromWarehouseId"); err != nil {
		return nil, err
	}
	if op.ToWarehouseID, err = parseOptionalID(r.ToWarehouseID, "toWarehouseId"); err != nil {
		return nil, err
	}
	if op.OriginalOperationID, err = parseOptionalID(r.OriginalOperationID, "originalOperationId"); err != nil {
		return nil, err
	}
	if op.OriginalLineID, err = parseOptionalID(r.OriginalLineID, "originalLineId"); err != nil {
		return nil, err
	}

	for _, line := range r.Lines {
		itemID, err := id.Parse(line.ItemID)
		if err != nil {
			return nil, apperror.NewFieldValidation("lines", "invalid item id").
				WithDetail("itemId", line.ItemID)
		}
		op.AddLine(itemID, line.Quantity)
	}

	for _, att := range r.Attachments {
		op.Attachments = append(op.Attachments, operations.Attachment{
			ID:         id.New(),
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
		})
	}

	return op, nil
}

func parseOptionalID(s *string, field string) (*id.ID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := id.Parse(*s)
	if err != nil {
		return nil, apperror.NewFieldValidation(field, "invalid id format")
	}
	return &parsed, nil
}

// OperationLineResponse is one line of an operation response.
type OperationLineResponse struct {
	LineID            string         `json:"lineId"`
	LineNo            int            `json:"lineNo"`
	ItemID            string         `json:"itemId"`
	Quantity          types.Quantity `json:"quantity"`
	ReturnedQuantity  types.Quantity `json:"returnedQuantity"`
	EffectiveQuantity types.Quantity `json:"effectiveQuantity"`
}

// AttachmentResponse is one attachment association.
type AttachmentResponse struct {
	ID         string `json:"id"`
	StorageKey string `json:"storageKey"`
	FileName   string `json:"fileName"`
}

// OperationResponse is the full operation record.
type OperationResponse struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"`
	Kind          string    `json:"kind"`
	OperationDate time.Time `json:"operationDate"`
	DeletionMark  bool      `json:"deletionMark"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	CreatedBy     string    `json:"createdBy,omitempty"`

	PaperRefNumber string `json:"paperRefNumber,omitempty"`
	Statement      string `json:"statement,omitempty"`
	Description    string `json:"description,omitempty"`

	WarehouseID *string `json:"warehouseId,omitempty"`

	SupplierID      *string `json:"supplierId,omitempty"`
	StationID       *string `json:"stationId,omitempty"`
	SupplyBonNumber string  `json:"supplyBonNumber,omitempty"`
	DelivererName   string  `json:"delivererName,omitempty"`
	DelivererJobNo  string  `json:"delivererJobNumber,omitempty"`

	BeneficiaryID      *string `json:"beneficiaryId,omitempty"`
	RecipientName      string  `json:"recipientName,omitempty"`
	RecipientJobNumber string  `json:"recipientJobNumber,omitempty"`

	FromWarehouseID *string `json:"fromWarehouseId,omitempty"`
	ToWarehouseID   *string `json:"toWarehouseId,omitempty"`

	Reason string `json:"reason,omitempty"`

	OriginalOperationID *string         `json:"originalOperationId,omitempty"`
	OriginalLineID      *string         `json:"originalLineId,omitempty"`
	OldQuantity         *types.Quantity `json:"oldQuantity,omitempty"`
	NewQuantity         *types.Quantity `json:"newQuantity,omitempty"`

	Lines       []OperationLineResponse `json:"lines"`
	Attachments []AttachmentResponse    `json:"attachments,omitempty"`
}

// FromOperation creates response DTO from domain entity.
func FromOperation(op *operations.Operation) *OperationResponse {
	resp := &OperationResponse{
		ID:                  op.ID.String(),
		Number:              op.Number,
		Kind:                string(op.Kind),
		OperationDate:       op.OperationDate,
		DeletionMark:        op.DeletionMark,
		Version:             op.Version,
		CreatedAt:           op.CreatedAt,
		UpdatedAt:           op.UpdatedAt,
		CreatedBy:           op.CreatedBy,
		PaperRefNumber:      op.PaperRefNumber,
		Statement:           op.Statement,
		Description:         op.Description,
		SupplyBonNumber:     op.SupplyBonNumber,
		DelivererName:       op.DelivererName,
		DelivererJobNo:      op.DelivererJobNo,
		RecipientName:       op.RecipientName,
		RecipientJobNumber:  op.RecipientJobNumber,
		Reason:              op.Reason,
		OldQuantity:         op.OldQuantity,
		NewQuantity:         op.NewQuantity,
		WarehouseID:         idString(op.WarehouseID),
		SupplierID:          idString(op.SupplierID),
		StationID:           idString(op.StationID),
		BeneficiaryID:       idString(op.BeneficiaryID),
		FromWarehouseID:     idString(op.FromWarehouseID),
		ToWarehouseID:       idString(op.ToWarehouseID),
		OriginalOperationID: idString(op.OriginalOperationID),
		OriginalLineID:      idString(op.OriginalLineID),
	}

	resp.Lines = make([]OperationLineResponse, len(op.Lines))
	for i, line := range op.Lines {
		resp.Lines[i] = OperationLineResponse{
			LineID:            line.LineID.String(),
			LineNo:            line.LineNo,
			ItemID:            line.ItemID.String(),
			Quantity:          line.Quantity,
			ReturnedQuantity:  line.ReturnedQuantity,
			EffectiveQuantity: line.Effective(),
		}
	}

	for _, att := range op.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{
			ID:         att.ID.String(),
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
		})
	}

	return resp
}

func idString(v *id.ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
