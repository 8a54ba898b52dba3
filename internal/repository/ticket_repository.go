package repository // repository for ticket persistence

import (
	"context"        // context for managing deadlines
	"database/sql"   // sql provides DB interfaces
	"fmt"

	"github.com/iliyamo/transit-ticketing/internal/ticket"
)

// TicketRepo encapsulates database operations for issued tickets.  The
// tickets table is append-only: rows are inserted at sale time and never
// updated or deleted.  The auto-increment seq column preserves insertion
// order so the registry can be rebuilt exactly as it was.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo given a DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// DB exposes the underlying handle for callers that need it.
func (r *TicketRepo) DB() *sql.DB { return r.db }

// EnsureSchema creates the tickets table when it does not exist yet.
func (r *TicketRepo) EnsureSchema(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS tickets (
		seq           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		id            VARCHAR(64)  NOT NULL,
		issued_at     VARCHAR(19)  NOT NULL,
		validity_days INT          NOT NULL,
		line_number   INT          NOT NULL,
		PRIMARY KEY (seq),
		UNIQUE KEY uq_tickets_id (id)
	)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tickets table: %w", err)
	}
	return nil
}

// LoadAll returns every persisted ticket in insertion order.  It is called
// once at startup to seed the in-memory registry and the ID counter.
func (r *TicketRepo) LoadAll(ctx context.Context) ([]ticket.Ticket, error) {
	const query = `SELECT id, issued_at, validity_days, line_number FROM tickets ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select tickets: %w", err)
	}
	defer rows.Close()

	var out []ticket.Ticket
	for rows.Next() {
		var t ticket.Ticket
		if err := rows.Scan(&t.ID, &t.IssuedAt, &t.ValidityDays, &t.LineNumber); err != nil {
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticket rows: %w", err)
	}
	return out, nil
}

// Append durably records one newly issued ticket.  The registry holds its
// lock across this call, so inserts are never interleaved.
func (r *TicketRepo) Append(ctx context.Context, t ticket.Ticket) error {
	const query = `INSERT INTO tickets (id, issued_at, validity_days, line_number) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.IssuedAt, t.ValidityDays, t.LineNumber); err != nil {
		return fmt.Errorf("insert ticket %s: %w", t.ID, err)
	}
	return nil
}
