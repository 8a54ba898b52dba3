package handler

import (
	"log"      // request logging
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/transit-ticketing/internal/ledger"
	"github.com/iliyamo/transit-ticketing/internal/ticket"
)

// TicketHandler exposes the back-office ticket registry over HTTP.  It is
// the single issuing and validating authority: vending machine bridges call
// Create, gates call Validate.
type TicketHandler struct {
	Registry *ledger.Registry
}

// NewTicketHandler constructs a TicketHandler.  The registry must be non-nil.
func NewTicketHandler(reg *ledger.Registry) *TicketHandler {
	if reg == nil {
		panic("nil registry passed to NewTicketHandler")
	}
	return &TicketHandler{Registry: reg}
}

// createRequest is the sale payload forwarded by a vending machine bridge.
type createRequest struct {
	ValidityDays *int `json:"validityDays"`
	LineNumber   *int `json:"lineNumber"`
}

// Create handles POST /api/tickets/create.  It mints a new ticket, persists
// it and returns the ticket together with its encoded token.  Negative
// validity or line numbers are rejected here at the input boundary; the
// registry core accepts any integers.
func (h *TicketHandler) Create(c echo.Context) error {
	var body createRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request body"})
	}
	if body.ValidityDays == nil || body.LineNumber == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "validityDays and lineNumber are required"})
	}
	if *body.ValidityDays < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "validityDays must not be negative"})
	}
	if *body.LineNumber < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "lineNumber must not be negative"})
	}

	t, err := h.Registry.Create(c.Request().Context(), *body.ValidityDays, *body.LineNumber)
	if err != nil {
		log.Printf("backoffice: create ticket failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "ticket creation failed"})
	}
	log.Printf("backoffice: ticket created id=%s validity=%dd line=%d", t.ID, t.ValidityDays, t.LineNumber)

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"ticketId":    t.ID,
		"ticket":      t,
		"ticketToken": ticket.EncodeToken(t),
	})
}

// validateRequest carries the token a gate wants checked.
type validateRequest struct {
	TicketToken string `json:"ticketToken"`
}

// Validate handles POST /api/tickets/validate.  Existence and expiry are
// reported through a single valid flag plus a message that tells an unknown
// ticket apart from a known-but-expired one.  A token that cannot be decoded
// is a 500, which a gate treats the same as the back-office being down.
func (h *TicketHandler) Validate(c echo.Context) error {
	var body validateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "invalid request body"})
	}

	exists, expired, t, err := h.Registry.Validate(body.TicketToken)
	if err != nil {
		log.Printf("backoffice: validate failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": err.Error()})
	}

	valid := false
	var message string
	switch {
	case !exists:
		message = "Ticket not found in database"
	case expired:
		message = "Ticket expired"
	default:
		valid = true
		message = "Ticket is valid"
	}
	log.Printf("backoffice: validate id=%s valid=%t (%s)", t.ID, valid, message)

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"valid":      valid,
		"message":    message,
		"ticketId":   t.ID,
		"lineNumber": t.LineNumber,
	})
}

// List handles GET /api/tickets and returns every issued ticket in
// insertion order.
func (h *TicketHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Registry.List())
}
