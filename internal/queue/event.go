// Package queue defines message payloads exchanged over the message broker
// and the durable queues that carry them.
package queue

// Queue names.  Per-gate validation requests go to
// ValidationRequestQueue + "." + gateID.
const (
	SaleRequestQueue        = "ticket.sale.request"
	SaleResponseQueue       = "ticket.sale.response"
	ValidationRequestQueue  = "ticket.validation.request"
	ValidationResponseQueue = "ticket.validation.response"
)

// GateRequestQueue returns the targeted validation-request queue for one
// gate, used to dispatch a token to a specific gate instead of the shared
// queue.
func GateRequestQueue(gateID string) string {
	return ValidationRequestQueue + "." + gateID
}

// SaleRequest asks a vending machine bridge to issue a ticket.  Pointer
// fields let the bridge tell a missing field apart from an explicit zero.
type SaleRequest struct {
	ValidityDays *int `json:"validityDays"`
	LineNumber   *int `json:"lineNumber"`
}

// SaleResponse is published after the bridge has heard back from the
// back-office (or failed to reach it).  Status is "success" or "error".
type SaleResponse struct {
	Status      string `json:"status"`
	TicketID    string `json:"ticketId,omitempty"`
	TicketToken string `json:"ticketToken,omitempty"`
	Message     string `json:"message,omitempty"`
}

// ValidationRequest carries one encoded ticket token to a gate.
type ValidationRequest struct {
	TicketToken string `json:"ticketToken"`
}

// ValidationResponse is the gate's decision for one request.  GateAction is
// "OPEN" or "CLOSED"; ValidationMode is "online", "offline", or "n/a" when
// the token never decoded.
type ValidationResponse struct {
	GateID         string `json:"gateId"`
	TicketID       string `json:"ticketId"`
	Valid          bool   `json:"valid"`
	GateAction     string `json:"gateAction"`
	ValidationMode string `json:"validationMode"`
	Message        string `json:"message"`
}
