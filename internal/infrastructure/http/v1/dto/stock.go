package dto

import (
	"time"

	"fuelstock/internal/core/types"
	"fuelstock/internal/domain/ledger"
)

// CreateBalanceRequest opens a (warehouse, item) stock record.
type CreateBalanceRequest struct {
	WarehouseID    string         `json:"warehouseId" binding:"required"`
	ItemID         string         `json:"itemId" binding:"required"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	UnitOfMeasure  string         `json:"unitOfMeasure" binding:"required"`
}

// BalanceResponse is the response body for one stock record.
type BalanceResponse struct {
	ID              string         `json:"id"`
	WarehouseID     string         `json:"warehouseId"`
	ItemID          string         `json:"itemId"`
	OpeningBalance  types.Quantity `json:"openingBalance"`
	CurrentQuantity types.Quantity `json:"currentQuantity"`
	UnitOfMeasure   string         `json:"unitOfMeasure"`
	LastUpdated     time.Time      `json:"lastUpdated"`
}

// FromBalance creates response DTO from domain entity.
func FromBalance(wi *ledger.WarehouseItem) *BalanceResponse {
	return &BalanceResponse{
		ID:              wi.ID.String(),
		WarehouseID:     wi.WarehouseID.String(),
		ItemID:          wi.ItemID.String(),
		OpeningBalance:  wi.OpeningBalance,
		CurrentQuantity: wi.CurrentQuantity,
		UnitOfMeasure:   string(wi.Unit),
		LastUpdated:     wi.LastUpdated,
	}
}

// FromBalances maps a list of stock records.
func FromBalances(items []*ledger.WarehouseItem) []*BalanceResponse {
	out := make([]*BalanceResponse, len(items))
	for i, wi := range items {
		out[i] = FromBalance(wi)
	}
	return out
}
