package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/transit-ticketing/internal/config"
	"github.com/iliyamo/transit-ticketing/internal/handler"
	"github.com/iliyamo/transit-ticketing/internal/ledger"
	"github.com/iliyamo/transit-ticketing/internal/router"
	"github.com/iliyamo/transit-ticketing/internal/ticket"
	"github.com/iliyamo/transit-ticketing/internal/utils"
)

// newTestAPI wires the full back-office router against an in-memory store.
// Rate limiting is off (no Redis in tests) and auth is controlled per test.
func newTestAPI(t *testing.T, authSecret string, seed ...ticket.Ticket) (*echo.Echo, *ledger.Registry) {
	reg, err := ledger.NewRegistry(context.Background(), ledger.NewMemStore(seed...))
	require.NoError(t, err)

	e := echo.New()
	router.RegisterRoutes(e,
		handler.NewTicketHandler(reg),
		handler.NewReportHandler(reg),
		config.RateLimitConfig{Enabled: false}, nil, authSecret)
	return e, reg
}

func do(e *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newTestAPI(t, "")
	rec := do(e, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCreateThenValidate(t *testing.T) {
	e, _ := newTestAPI(t, "")

	rec := do(e, http.MethodPost, "/api/tickets/create", `{"validityDays":7,"lineNumber":1}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		Success     bool          `json:"success"`
		TicketID    string        `json:"ticketId"`
		Ticket      ticket.Ticket `json:"ticket"`
		TicketToken string        `json:"ticketToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.True(t, strings.HasPrefix(created.TicketID, "TKT-"), "got %s", created.TicketID)
	assert.NotEmpty(t, created.TicketToken)

	rec = do(e, http.MethodPost, "/api/tickets/validate", `{"ticketToken":"`+created.TicketToken+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var validated struct {
		Success    bool   `json:"success"`
		Valid      bool   `json:"valid"`
		Message    string `json:"message"`
		TicketID   string `json:"ticketId"`
		LineNumber int    `json:"lineNumber"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &validated))
	assert.True(t, validated.Valid)
	assert.Equal(t, "Ticket is valid", validated.Message)
	assert.Equal(t, created.TicketID, validated.TicketID)
	assert.Equal(t, 1, validated.LineNumber)
}

func TestCreateRejectsNegativeValidity(t *testing.T) {
	e, reg := newTestAPI(t, "")

	rec := do(e, http.MethodPost, "/api/tickets/create", `{"validityDays":-1,"lineNumber":1}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "negative")
	assert.Zero(t, reg.Len(), "nothing issued on rejection")
}

func TestCreateRejectsMissingFields(t *testing.T) {
	e, _ := newTestAPI(t, "")
	rec := do(e, http.MethodPost, "/api/tickets/create", `{"validityDays":7}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateUnknownTicket(t *testing.T) {
	e, _ := newTestAPI(t, "")

	stranger := ticket.Ticket{
		ID:           "TKT-99-1800000000",
		IssuedAt:     time.Now().Format(ticket.DateLayout),
		ValidityDays: 7,
		LineNumber:   2,
	}
	rec := do(e, http.MethodPost, "/api/tickets/validate", `{"ticketToken":"`+ticket.EncodeToken(stranger)+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":false`)
	assert.Contains(t, rec.Body.String(), "Ticket not found in database")
}

func TestValidateExpiredTicket(t *testing.T) {
	expired := ticket.Ticket{
		ID:           "TKT-1-1700000000",
		IssuedAt:     time.Now().Add(-48 * time.Hour).Format(ticket.DateLayout),
		ValidityDays: 1,
		LineNumber:   2,
	}
	e, _ := newTestAPI(t, "", expired)

	rec := do(e, http.MethodPost, "/api/tickets/validate", `{"ticketToken":"`+ticket.EncodeToken(expired)+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":false`)
	assert.Contains(t, rec.Body.String(), "Ticket expired")
}

func TestValidateMalformedTokenIs500(t *testing.T) {
	e, _ := newTestAPI(t, "")
	rec := do(e, http.MethodPost, "/api/tickets/validate", `{"ticketToken":"!!!not-base64!!!"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestListReturnsIssuedTickets(t *testing.T) {
	e, _ := newTestAPI(t, "")

	for i := 0; i < 3; i++ {
		rec := do(e, http.MethodPost, "/api/tickets/create", `{"validityDays":7,"lineNumber":1}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(e, http.MethodGet, "/api/tickets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []ticket.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 3)
}

func TestReportRoundTrip(t *testing.T) {
	e, reg := newTestAPI(t, "")

	body := `<?xml version="1.0"?><GateReport><GateId>007</GateId></GateReport>`
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, "application/xml")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Report received")

	reports := reg.Reports()
	require.Len(t, reports, 1)
	assert.Equal(t, body, reports[0].Body)
	assert.Equal(t, "application/xml", reports[0].ContentType)
}

func TestServiceAuthGuardsAPI(t *testing.T) {
	const secret = "test-secret"
	e, _ := newTestAPI(t, secret)

	// No token: rejected.
	rec := do(e, http.MethodPost, "/api/tickets/create", `{"validityDays":7,"lineNumber":1}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays open.
	rec = do(e, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Valid service token: accepted.
	tok, err := utils.NewServiceToken(secret, "GATE-007")
	require.NoError(t, err)
	rec = do(e, http.MethodPost, "/api/tickets/create", `{"validityDays":7,"lineNumber":1}`,
		map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Token signed with the wrong secret: rejected.
	bad, err := utils.NewServiceToken("other-secret", "GATE-007")
	require.NoError(t, err)
	rec = do(e, http.MethodPost, "/api/tickets/create", `{"validityDays":7,"lineNumber":1}`,
		map[string]string{"Authorization": "Bearer " + bad})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
