// Package ledger implements the authoritative ticket registry used by the
// back-office service.  The registry is the only component allowed to mint
// ticket IDs.  All state lives behind one mutex; durable writes happen while
// the lock is held so concurrent creates never interleave in the store.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/transit-ticketing/internal/ticket"
)

// idPrefix is the first segment of every minted ticket ID.
const idPrefix = "TKT"

// Report is one gate report as received, stored verbatim.
type Report struct {
	ContentType string
	ReceivedAt  time.Time
	Body        string
}

// Registry holds every issued ticket in memory, mirrored to a Store.  It is
// safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	store   Store
	tickets []ticket.Ticket
	index   map[string]int // ticket ID -> position in tickets
	counter int            // highest sequence number handed out so far
	reports []Report
}

// NewRegistry loads all persisted tickets from the store and seeds the ID
// counter from the highest sequence number found, so a restarted back-office
// never reissues an ID.
func NewRegistry(ctx context.Context, store Store) (*Registry, error) {
	loaded, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	r := &Registry{
		store:   store,
		tickets: loaded,
		index:   make(map[string]int, len(loaded)),
	}
	for i, t := range loaded {
		r.index[t.ID] = i
		if seq, ok := sequenceOf(t.ID); ok && seq > r.counter {
			r.counter = seq
		}
	}
	return r, nil
}

// sequenceOf extracts the numeric sequence segment from an ID of the form
// TKT-<seq>-<epoch>.  IDs from older stock files that do not match are
// ignored for counter seeding.
func sequenceOf(id string) (int, bool) {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return 0, false
	}
	seq, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return seq, true
}

// Create mints a new ticket, appends it to the registry and persists it
// before returning.  Input validation (e.g. rejecting negative validity) is
// the caller's concern; the registry accepts any integers.
func (r *Registry) Create(ctx context.Context, validityDays, lineNumber int) (ticket.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counter++
	id := fmt.Sprintf("%s-%d-%d", idPrefix, r.counter, time.Now().Unix())
	t := ticket.New(id, validityDays, lineNumber)

	if err := r.store.Append(ctx, t); err != nil {
		// Roll the counter back so the sequence stays dense on retry.
		r.counter--
		return ticket.Ticket{}, fmt.Errorf("persist ticket: %w", err)
	}
	r.index[t.ID] = len(r.tickets)
	r.tickets = append(r.tickets, t)
	return t, nil
}

// Validate decodes the token and reports existence and expiry independently,
// so callers can tell "unknown ticket" apart from "known but expired".
// Codec errors propagate unchanged.
func (r *Registry) Validate(token string) (exists, expired bool, t ticket.Ticket, err error) {
	t, err = ticket.DecodeToken(token)
	if err != nil {
		return false, false, ticket.Ticket{}, err
	}
	expired = t.IsExpired(time.Now())

	r.mu.Lock()
	_, exists = r.index[t.ID]
	r.mu.Unlock()
	return exists, expired, t, nil
}

// List returns a snapshot of every issued ticket in insertion order.
func (r *Registry) List() []ticket.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ticket.Ticket, len(r.tickets))
	copy(out, r.tickets)
	return out
}

// Len returns the number of issued tickets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickets)
}

// RecordReport appends a gate report to the in-memory report log.  The body
// is treated as an opaque attachment; the registry never inspects it.
func (r *Registry) RecordReport(contentType string, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, Report{
		ContentType: contentType,
		ReceivedAt:  time.Now(),
		Body:        string(body),
	})
}

// Reports returns a snapshot of all received gate reports, oldest first.
func (r *Registry) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}
