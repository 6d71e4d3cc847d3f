// Package reports provides the reporting engine: read-only projections
// over the operation history and the stock ledger.
package reports

import (
	"time"

	"fuelstock/internal/core/id"
	"fuelstock/internal/core/types"
	"fuelstock/internal/domain/operations"
)

// DateRange bounds a report period. Nil ends are open.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// MovementRow is one operation line projected for a report.
// Quantity is the effective quantity (net of returns).
type MovementRow struct {
	OperationID   id.ID           `json:"operationId"`
	Kind          operations.Kind `json:"kind"`
	Number        string          `json:"number"`
	OperationDate time.Time       `json:"operationDate"`

	WarehouseID   id.ID  `json:"warehouseId"`
	WarehouseName string `json:"warehouseName"`
	ItemID        id.ID  `json:"itemId"`
	ItemName      string `json:"itemName"`

	PartyID   *id.ID `json:"partyId,omitempty"`
	PartyName string `json:"partyName,omitempty"`

	Quantity         types.Quantity `json:"quantity"`
	ReturnedQuantity types.Quantity `json:"returnedQuantity"`

	PaperRefNumber string `json:"paperRefNumber,omitempty"`
	Statement      string `json:"statement,omitempty"`
}

// WarehouseReport groups a warehouse's movement history by kind.
type WarehouseReport struct {
	WarehouseID id.ID     `json:"warehouseId"`
	Range       DateRange `json:"range"`

	Supplies      []MovementRow `json:"supplies"`
	Exports       []MovementRow `json:"exports"`
	Damages       []MovementRow `json:"damages"`
	ReturnSupply  []MovementRow `json:"returnSupply"`
	ReturnExport  []MovementRow `json:"returnExport"`
	TransfersIn   []MovementRow `json:"transfersIn"`
	TransfersOut  []MovementRow `json:"transfersOut"`
	Modifications []MovementRow `json:"modifications"`
}

// ItemReport is the cross-warehouse movement history for one item.
type ItemReport struct {
	ItemID id.ID         `json:"itemId"`
	Range  DateRange     `json:"range"`
	Rows   []MovementRow `json:"rows"`
}

// Level classifies a stock balance against its opening.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelLow      Level = "low"
	LevelCritical Level = "critical"
)

// StatusRow is one balance snapshot row with its classification.
type StatusRow struct {
	WarehouseID   id.ID  `json:"warehouseId"`
	WarehouseName string `json:"warehouseName"`
	ItemID        id.ID  `json:"itemId"`
	ItemName      string `json:"itemName"`

	OpeningBalance  types.Quantity `json:"openingBalance"`
	CurrentQuantity types.Quantity `json:"currentQuantity"`
	Unit            string         `json:"unitOfMeasure"`
	LastUpdated     time.Time      `json:"lastUpdated"`

	Level Level `json:"level"`
}

// StatusReport is a point-in-time stock snapshot.
type StatusReport struct {
	GeneratedAt time.Time   `json:"generatedAt"`
	Rows        []StatusRow `json:"rows"`
}

// PartyReport is the movement history scoped to one counterparty.
type PartyReport struct {
	PartyID id.ID         `json:"partyId"`
	Kind    string        `json:"kind"`
	Range   DateRange     `json:"range"`
	Rows    []MovementRow `json:"rows"`
}
