package dto

import (
	"fuelstock/internal/domain/catalogs/party"
)

// CreatePartyRequest is the request body for creating a counterparty.
// Kind comes from the route, not the body.
type CreatePartyRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// ToEntity converts DTO to domain entity of the given kind.
func (r *CreatePartyRequest) ToEntity(kind party.Kind) *party.Party {
	p := party.NewParty(kind, r.Code, r.Name)
	p.Phone = r.Phone
	p.Location = r.Location
	return p
}

// UpdatePartyRequest is the request body for updating a counterparty.
type UpdatePartyRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	IsActive *bool  `json:"isActive"`
	Version  int    `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity. Kind never changes.
func (r *UpdatePartyRequest) ApplyTo(p *party.Party) {
	p.Code = r.Code
	p.Name = r.Name
	p.Phone = r.Phone
	p.Location = r.Location
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	p.Version = r.Version
}

// PartyResponse is the response body for a counterparty.
type PartyResponse struct {
	CatalogResponse
	Kind     string `json:"kind"`
	Phone    string `json:"phone"`
	Location string `json:"location,omitempty"`
	IsActive bool   `json:"isActive"`
}

// FromParty creates response DTO from domain entity.
func FromParty(p *party.Party) *PartyResponse {
	return &PartyResponse{
		CatalogResponse: FromCatalog(p.Catalog),
		Kind:            string(p.Kind),
		Phone:           p.Phone,
		Location:        p.Location,
		IsActive:        p.IsActive,
	}
}
