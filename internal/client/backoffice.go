// Package client is the HTTP client the gates and vending machine bridges
// use to reach the back-office.  Any transport failure, timeout or non-200
// status collapses into ErrBackOfficeUnavailable: callers do not care why
// the back-office could not answer, only that it did not.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/iliyamo/transit-ticketing/internal/ticket"
	"github.com/iliyamo/transit-ticketing/internal/utils"
)

// ErrBackOfficeUnavailable marks a failed round trip to the back-office.
// For a gate this is routine and triggers offline fallback; for a vending
// bridge it becomes an error response on the bus.
var ErrBackOfficeUnavailable = errors.New("back-office unavailable")

// Client talks to the back-office HTTP API with a split connect/read
// timeout, mirroring how the gates are deployed: fail fast when the host is
// down, allow a slower answer once connected.
type Client struct {
	base       string
	service    string // name presented in service tokens
	authSecret string // empty disables auth headers
	http       *http.Client
}

// New builds a Client for the given base URL.  connectTimeout bounds TCP
// dialing; requestTimeout bounds the whole round trip including reading the
// response.
func New(base, service, authSecret string, connectTimeout, requestTimeout time.Duration) *Client {
	return &Client{
		base:       base,
		service:    service,
		authSecret: authSecret,
		http: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
				MaxIdleConnsPerHost: 4,
			},
		},
	}
}

// CreateResult is the back-office answer to a sale.
type CreateResult struct {
	Success     bool          `json:"success"`
	TicketID    string        `json:"ticketId"`
	Ticket      ticket.Ticket `json:"ticket"`
	TicketToken string        `json:"ticketToken"`
	Error       string        `json:"error"`
}

// Create asks the back-office to mint a ticket.  A 400 (input rejected)
// comes back as a plain error carrying the back-office message; transport
// failures and other statuses come back as ErrBackOfficeUnavailable.
func (c *Client) Create(ctx context.Context, validityDays, lineNumber int) (CreateResult, error) {
	payload := map[string]int{"validityDays": validityDays, "lineNumber": lineNumber}
	var out CreateResult
	status, err := c.postJSON(ctx, "/api/tickets/create", payload, &out)
	if err != nil {
		return CreateResult{}, err
	}
	switch {
	case status == http.StatusOK && out.Success:
		return out, nil
	case status == http.StatusBadRequest:
		return CreateResult{}, fmt.Errorf("sale rejected: %s", out.Error)
	default:
		return CreateResult{}, fmt.Errorf("%w: create returned status %d", ErrBackOfficeUnavailable, status)
	}
}

// ValidateResult is the back-office answer to a validation.
type ValidateResult struct {
	Success    bool   `json:"success"`
	Valid      bool   `json:"valid"`
	Message    string `json:"message"`
	TicketID   string `json:"ticketId"`
	LineNumber int    `json:"lineNumber"`
}

// Validate submits a token for an authoritative check.  Anything but a 200
// answer is ErrBackOfficeUnavailable; the gate falls back to its offline
// check in that case.
func (c *Client) Validate(ctx context.Context, token string) (ValidateResult, error) {
	payload := map[string]string{"ticketToken": token}
	var out ValidateResult
	status, err := c.postJSON(ctx, "/api/tickets/validate", payload, &out)
	if err != nil {
		return ValidateResult{}, err
	}
	if status != http.StatusOK {
		return ValidateResult{}, fmt.Errorf("%w: validate returned status %d", ErrBackOfficeUnavailable, status)
	}
	return out, nil
}

// SubmitReport posts a gate report body verbatim.  Best-effort: callers log
// and swallow the returned error.
func (c *Client) SubmitReport(ctx context.Context, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/reports", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if err := c.authorize(req); err != nil {
		return err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackOfficeUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: report returned status %d", ErrBackOfficeUnavailable, res.StatusCode)
	}
	return nil
}

// postJSON sends payload and decodes the JSON response into out, returning
// the HTTP status.  Non-2xx responses are still decoded when possible so
// callers can surface the back-office error message.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return 0, err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackOfficeUnavailable, err)
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil && res.StatusCode == http.StatusOK {
		return res.StatusCode, fmt.Errorf("%w: undecodable response: %v", ErrBackOfficeUnavailable, err)
	}
	return res.StatusCode, nil
}

// authorize attaches a fresh service token when auth is configured.
func (c *Client) authorize(req *http.Request) error {
	if c.authSecret == "" {
		return nil
	}
	tok, err := utils.NewServiceToken(c.authSecret, c.service)
	if err != nil {
		return fmt.Errorf("mint service token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return nil
}
