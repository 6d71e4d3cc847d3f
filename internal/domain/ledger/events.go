package ledger

import (
	"context"
	"time"

	"fuelstock/internal/core/id"
)

// ChangedEvent is emitted after every successful balance mutation.
type ChangedEvent struct {
	WarehouseID id.ID
	ItemID      id.ID
	At          time.Time
}

// EventSink consumes ledger-changed events (report cache invalidation).
// Sinks must not fail the mutation; errors are logged by the service.
type EventSink interface {
	LedgerChanged(ctx context.Context, ev ChangedEvent) error
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) LedgerChanged(context.Context, ChangedEvent) error { return nil }
