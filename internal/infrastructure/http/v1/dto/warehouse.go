package dto

import (
	"fuelstock/internal/domain/catalogs/warehouse"
)

// --- Request DTOs ---

// CreateWarehouseRequest is the request body for creating a warehouse.
type CreateWarehouseRequest struct {
	Code           string  `json:"code"`
	Name           string  `json:"name" binding:"required"`
	Classification string  `json:"classification"`
	Storekeeper    string  `json:"storekeeper"`
	Phone          string  `json:"phone"`
	ParentID       *string `json:"parentId"`
	IsFolder       bool    `json:"isFolder"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateWarehouseRequest) ToEntity() *warehouse.Warehouse {
	wh := warehouse.NewWarehouse(r.Code, r.Name)
	wh.Classification = r.Classification
	wh.Storekeeper = r.Storekeeper
	wh.Phone = r.Phone
	wh.ParentID = r.ParentID
	wh.IsFolder = r.IsFolder
	return wh
}

// UpdateWarehouseRequest is the request body for updating a warehouse.
type UpdateWarehouseRequest struct {
	Code           string  `json:"code"`
	Name           string  `json:"name" binding:"required"`
	Classification string  `json:"classification"`
	Storekeeper    string  `json:"storekeeper"`
	Phone          string  `json:"phone"`
	ParentID       *string `json:"parentId,omitempty"`
	IsFolder       bool    `json:"isFolder"`
	Version        int     `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateWarehouseRequest) ApplyTo(wh *warehouse.Warehouse) {
	wh.Code = r.Code
	wh.Name = r.Name
	wh.Classification = r.Classification
	wh.Storekeeper = r.Storekeeper
	wh.Phone = r.Phone
	wh.ParentID = r.ParentID
	wh.IsFolder = r.IsFolder
	wh.Version = r.Version
}

// --- Response DTOs ---

// WarehouseResponse is the response body for a warehouse.
type WarehouseResponse struct {
	CatalogResponse
	Classification string `json:"classification"`
	Storekeeper    string `json:"storekeeper"`
	Phone          string `json:"phone"`
}

// FromWarehouse creates response DTO from domain entity.
func FromWarehouse(wh *warehouse.Warehouse) *WarehouseResponse {
	return &WarehouseResponse{
		CatalogResponse: FromCatalog(wh.Catalog),
		Classification:  wh.Classification,
		Storekeeper:     wh.Storekeeper,
		Phone:           wh.Phone,
	}
}
