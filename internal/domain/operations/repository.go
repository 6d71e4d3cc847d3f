package operations

import (
	"context"
	"time"

	"fuelstock/internal/core/id"
	"fuelstock/internal/core/types"
	"fuelstock/internal/domain"
)

// Repository defines persistence for operation records.
type Repository interface {
	// Create inserts the operation header.
	Create(ctx context.Context, op *Operation) error

	// GetByID retrieves an operation with its lines and attachments.
	GetByID(ctx context.Context, opID id.ID) (*Operation, error)

	// GetByIDForUpdate retrieves an operation with a row lock
	// (returns and modifications lock their original).
	GetByIDForUpdate(ctx context.Context, opID id.ID) (*Operation, error)

	// GetLineForUpdate retrieves one line with a row lock, together with
	// its parent operation's id and kind.
	GetLineForUpdate(ctx context.Context, lineID id.ID) (*Line, *Operation, error)

	// SaveLines persists the lines of an operation.
	SaveLines(ctx context.Context, opID id.ID, lines []Line) error

	// SaveAttachments persists attachment associations.
	SaveAttachments(ctx context.Context, opID id.ID, atts []Attachment) error

	// UpdateLineReturned sets the cumulative returned quantity on a line.
	UpdateLineReturned(ctx context.Context, lineID id.ID, returned types.Quantity) error

	// UpdateLineQuantity overwrites a line's effective quantity.
	UpdateLineQuantity(ctx context.Context, lineID id.ID, quantity types.Quantity) error

	// MarkDeleted soft-deletes an operation record.
	MarkDeleted(ctx context.Context, opID id.ID) error

	// HasDependents reports whether undeleted returns or modifications
	// reference the operation or any of its lines.
	HasDependents(ctx context.Context, opID id.ID) (bool, error)

	// List retrieves operations with filtering.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Operation], error)
}

// ListFilter for filtering operation history.
type ListFilter struct {
	domain.ListFilter

	Kinds         []Kind
	WarehouseID   *id.ID // matches warehouse, from or to
	ItemID        *id.ID
	SupplierID    *id.ID
	BeneficiaryID *id.ID
	StationID     *id.ID
	DateFrom      *time.Time
	DateTo        *time.Time
}
