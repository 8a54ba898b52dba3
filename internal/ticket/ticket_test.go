package ticket_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/transit-ticketing/internal/ticket"
)

func TestNewStampsIssueDate(t *testing.T) {
	tk := ticket.New("TKT-1-1700000000", 7, 3)

	assert.Equal(t, "TKT-1-1700000000", tk.ID)
	assert.Equal(t, 7, tk.ValidityDays)
	assert.Equal(t, 3, tk.LineNumber)

	_, err := time.ParseInLocation(ticket.DateLayout, tk.IssuedAt, time.Local)
	require.NoError(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	tickets := []ticket.Ticket{
		{ID: "TKT-1-1700000000", IssuedAt: "2024-01-07T10:30:00", ValidityDays: 7, LineNumber: 1},
		{ID: "TKT-42-1700000099", IssuedAt: "2024-06-30T23:59:59", ValidityDays: 0, LineNumber: 0},
		{ID: "TKT-9000-1800000000", IssuedAt: "2025-12-01T00:00:00", ValidityDays: 365, LineNumber: 12},
	}
	for _, original := range tickets {
		tok := ticket.EncodeToken(original)
		decoded, err := ticket.DecodeToken(tok)
		require.NoError(t, err)
		assert.Equal(t, original, decoded)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	tk := ticket.Ticket{ID: "TKT-8-1700000000", IssuedAt: "2024-03-01T08:00:00", ValidityDays: 30, LineNumber: 5}
	assert.Equal(t, ticket.EncodeToken(tk), ticket.EncodeToken(tk))
}

func TestTokenAlphabetClosure(t *testing.T) {
	alphabet := regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

	tk := ticket.Ticket{ID: "TKT-3-1700000000", IssuedAt: "2024-01-07T10:30:00", ValidityDays: 7, LineNumber: 1}
	tok := ticket.EncodeToken(tk)

	assert.Regexp(t, alphabet, tok)
	assert.Zero(t, len(tok)%4, "token length must be a multiple of 4")
}

func TestDecodeRejectsNonAlphabetInput(t *testing.T) {
	_, err := ticket.DecodeToken("!!!not-base64!!!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ticket.ErrMalformedToken))
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	// Valid base64, valid JSON, but no ticketId.
	_, err := ticket.DecodeToken("eyJ2YWxpZGl0eURheXMiOjd9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ticket.ErrMalformedToken))
}

func TestDecodeRejectsNonJSONPayload(t *testing.T) {
	_, err := ticket.DecodeToken("aGVsbG8gd29ybGQ=") // "hello world"
	require.Error(t, err)
	assert.True(t, errors.Is(err, ticket.ErrMalformedToken))
}

func TestWellFormedness(t *testing.T) {
	valid := ticket.Ticket{ID: "TKT-1-1", IssuedAt: "2024-01-01T00:00:00", ValidityDays: 0}
	assert.True(t, valid.IsWellFormed())

	noID := ticket.Ticket{IssuedAt: "2024-01-01T00:00:00", ValidityDays: 7}
	assert.False(t, noID.IsWellFormed())

	negative := ticket.Ticket{ID: "TKT-1-1", IssuedAt: "2024-01-01T00:00:00", ValidityDays: -1}
	assert.False(t, negative.IsWellFormed())
}

func TestExpiryMonotonicity(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	issuedStr := issued.Format(ticket.DateLayout)
	now := time.Now()

	week := ticket.Ticket{ID: "TKT-1-1", IssuedAt: issuedStr, ValidityDays: 7}
	assert.False(t, week.IsExpired(now))

	sameDay := ticket.Ticket{ID: "TKT-2-1", IssuedAt: issuedStr, ValidityDays: 0}
	assert.True(t, sameDay.IsExpired(now))
}

func TestExpiresAtAddsWholeDays(t *testing.T) {
	tk := ticket.Ticket{ID: "TKT-1-1", IssuedAt: "2024-01-07T10:30:00", ValidityDays: 7}

	expires, err := tk.ExpiresAt()
	require.NoError(t, err)

	want := time.Date(2024, 1, 14, 10, 30, 0, 0, time.Local)
	assert.True(t, expires.Equal(want), "got %s, want %s", expires, want)
}

func TestUnparsableDateIsExpired(t *testing.T) {
	tk := ticket.Ticket{ID: "TKT-1-1", IssuedAt: "07/01/2024", ValidityDays: 365}

	assert.True(t, tk.IsExpired(time.Now()))

	_, err := tk.ExpiresAt()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ticket.ErrDateParse))
}
