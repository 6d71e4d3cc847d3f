// Package party provides the counterparty catalogs: suppliers,
// beneficiaries and stations. The three kinds share one structure but
// are never interchangeable across operation kinds.
package party

import (
	"context"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/core/entity"
)

// Kind discriminates the three counterparty catalogs.
type Kind string

const (
	KindSupplier    Kind = "supplier"
	KindBeneficiary Kind = "beneficiary"
	KindStation     Kind = "station"
)

// Party represents a counterparty referenced by operations.
type Party struct {
	entity.Catalog

	// Kind is fixed at creation, never changed
	Kind Kind `db:"kind" json:"kind"`

	// Phone is the contact number
	Phone string `db:"phone" json:"phone"`

	// Location is used for stations
	Location string `db:"location" json:"location,omitempty"`

	// IsActive indicates the party can appear on new operations
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewParty creates a new active Party of the given kind.
func NewParty(kind Kind, code, name string) *Party {
	return &Party{
		Catalog:  entity.NewCatalog(code, name),
		Kind:     kind,
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Party) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch p.Kind {
	case KindSupplier, KindBeneficiary, KindStation:
	default:
		return apperror.NewValidation("invalid party kind").
			WithDetail("field", "kind").
			WithDetail("value", string(p.Kind))
	}

	return nil
}

// Usable returns true if the party can be referenced by new operations.
func (p *Party) Usable() bool {
	return p.IsActive && !p.DeletionMark && !p.IsFolder
}
