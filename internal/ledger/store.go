package ledger

import (
	"context"

	"github.com/iliyamo/transit-ticketing/internal/ticket"
)

// Store is the durable backing of the registry.  LoadAll returns every
// persisted ticket in insertion order; Append durably records one new
// ticket.  The registry calls Append while holding its lock, so a Store
// implementation never sees two concurrent writers.
type Store interface {
	LoadAll(ctx context.Context) ([]ticket.Ticket, error)
	Append(ctx context.Context, t ticket.Ticket) error
}
