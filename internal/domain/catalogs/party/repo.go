package party

import (
	"context"

	"fuelstock/internal/core/id"
	"fuelstock/internal/domain"
)

// Repository defines the interface for Party persistence.
type Repository interface {
	domain.CatalogRepository[*Party]

	// GetByIDAndKind retrieves a party only if it has the expected kind.
	GetByIDAndKind(ctx context.Context, id id.ID, kind Kind) (*Party, error)

	// ListByKind retrieves parties of one kind with filtering.
	ListByKind(ctx context.Context, kind Kind, filter domain.ListFilter) (domain.ListResult[*Party], error)
}
