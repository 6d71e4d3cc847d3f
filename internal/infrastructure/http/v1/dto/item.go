package dto

import (
	"fuelstock/internal/domain/catalogs/item"
)

// CreateItemRequest is the request body for creating an item.
type CreateItemRequest struct {
	Code     string  `json:"code"`
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parentId"`
	IsFolder bool    `json:"isFolder"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateItemRequest) ToEntity() *item.Item {
	it := item.NewItem(r.Code, r.Name)
	it.ParentID = r.ParentID
	it.IsFolder = r.IsFolder
	return it
}

// UpdateItemRequest is the request body for updating an item.
type UpdateItemRequest struct {
	Code     string  `json:"code"`
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parentId,omitempty"`
	IsFolder bool    `json:"isFolder"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateItemRequest) ApplyTo(it *item.Item) {
	it.Code = r.Code
	it.Name = r.Name
	it.ParentID = r.ParentID
	it.IsFolder = r.IsFolder
	if r.IsActive != nil {
		it.IsActive = *r.IsActive
	}
	it.Version = r.Version
}

// ItemResponse is the response body for an item.
type ItemResponse struct {
	CatalogResponse
	IsActive bool `json:"isActive"`
}

// FromItem creates response DTO from domain entity.
func FromItem(it *item.Item) *ItemResponse {
	return &ItemResponse{
		CatalogResponse: FromCatalog(it.Catalog),
		IsActive:        it.IsActive,
	}
}
