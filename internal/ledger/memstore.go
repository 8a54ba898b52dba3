package ledger

import (
	"context"
	"sync"

	"github.com/iliyamo/transit-ticketing/internal/ticket"
)

// MemStore is an in-memory Store.  It backs tests and file-less development
// runs of the back-office; production uses the MySQL store in
// internal/repository.
type MemStore struct {
	mu      sync.Mutex
	tickets []ticket.Ticket
}

// NewMemStore returns an empty in-memory store, optionally pre-seeded.
func NewMemStore(seed ...ticket.Ticket) *MemStore {
	return &MemStore{tickets: append([]ticket.Ticket(nil), seed...)}
}

// LoadAll returns the stored tickets in insertion order.
func (s *MemStore) LoadAll(ctx context.Context) ([]ticket.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ticket.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out, nil
}

// Append records one ticket.
func (s *MemStore) Append(ctx context.Context, t ticket.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append(s.tickets, t)
	return nil
}
