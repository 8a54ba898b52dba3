// Package ticket defines the Ticket value type and its canonical token
// encoding.  A token is the ticket's JSON field map passed through standard
// base64 so it can travel inside a single text field on the message bus and
// the back-office HTTP API.  Decoding is strict: a token containing symbols
// outside the base64 alphabet is rejected whole rather than truncated at the
// first bad symbol.
package ticket

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateLayout is the fixed calendar format used for IssuedAt.  Timestamps are
// local to the issuing process, second precision.
const DateLayout = "2006-01-02T15:04:05"

// ErrMalformedToken is returned when a token is not valid base64 or the
// decoded text is not a well-formed ticket field map.
var ErrMalformedToken = errors.New("malformed ticket token")

// ErrDateParse is returned when a ticket's IssuedAt does not match DateLayout.
var ErrDateParse = errors.New("unparsable issue date")

// Ticket is the immutable value carried between the vending machines, the
// gates and the back-office.  The JSON tags define the canonical field map
// serialized into tokens.
type Ticket struct {
	ID           string `json:"ticketId"`
	IssuedAt     string `json:"issuedAt"`
	ValidityDays int    `json:"validityDays"`
	LineNumber   int    `json:"lineNumber"`
}

// New builds a ticket issued now.  Only the back-office registry mints IDs;
// everything else receives tickets through tokens.
func New(id string, validityDays, lineNumber int) Ticket {
	return Ticket{
		ID:           id,
		IssuedAt:     time.Now().Format(DateLayout),
		ValidityDays: validityDays,
		LineNumber:   lineNumber,
	}
}

// IsWellFormed reports whether the ticket carries a non-empty ID and a
// non-negative validity window.  A validity of zero means the ticket expires
// immediately after issue.
func (t Ticket) IsWellFormed() bool {
	return t.ID != "" && t.ValidityDays >= 0
}

// ExpiresAt returns the instant the ticket stops being valid.  Returns
// ErrDateParse when IssuedAt does not match DateLayout.
func (t Ticket) ExpiresAt() (time.Time, error) {
	issued, err := time.ParseInLocation(DateLayout, t.IssuedAt, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateParse, t.IssuedAt)
	}
	return issued.Add(time.Duration(t.ValidityDays) * 24 * time.Hour), nil
}

// IsExpired reports whether now is past the ticket's validity window.  A
// ticket whose issue date cannot be parsed is treated as expired, never as
// fresh.
func (t Ticket) IsExpired(now time.Time) bool {
	expires, err := t.ExpiresAt()
	if err != nil {
		return true
	}
	return now.After(expires)
}

// EncodeToken serializes the ticket to its canonical token.  Equal tickets
// produce identical tokens: json.Marshal emits struct fields in declaration
// order, so the field map is deterministic.
func EncodeToken(t Ticket) string {
	b, err := json.Marshal(t)
	if err != nil {
		// A Ticket contains only strings and ints; Marshal cannot fail.
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeToken is the inverse of EncodeToken.  It fails with
// ErrMalformedToken when the token is not valid padded base64 or when the
// decoded text lacks a required field.
func DecodeToken(token string) (Ticket, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Ticket{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	var fields struct {
		ID           *string `json:"ticketId"`
		IssuedAt     *string `json:"issuedAt"`
		ValidityDays *int    `json:"validityDays"`
		LineNumber   *int    `json:"lineNumber"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Ticket{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if fields.ID == nil || *fields.ID == "" ||
		fields.IssuedAt == nil || fields.ValidityDays == nil || fields.LineNumber == nil {
		return Ticket{}, fmt.Errorf("%w: missing required field", ErrMalformedToken)
	}
	return Ticket{
		ID:           *fields.ID,
		IssuedAt:     *fields.IssuedAt,
		ValidityDays: *fields.ValidityDays,
		LineNumber:   *fields.LineNumber,
	}, nil
}
