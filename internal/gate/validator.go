// Package gate implements the gate validator: an online-first,
// offline-fallback decision per incoming token.  The authoritative check
// goes to the back-office under a short timeout; when the back-office cannot
// answer, the gate degrades to a local expiry-only check so passengers keep
// moving.  Offline mode knowingly trusts any structurally valid, unexpired
// token - the gate holds no copy of the registry.
package gate

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"log"
	"time"

	"github.com/iliyamo/transit-ticketing/internal/client"
	"github.com/iliyamo/transit-ticketing/internal/queue"
	"github.com/iliyamo/transit-ticketing/internal/ticket"
)

// Validation modes reported on the bus.
const (
	ModeOnline  = "online"
	ModeOffline = "offline"
	ModeNone    = "n/a" // token never decoded, no check ran
)

// Gate actions derived from a decision.
const (
	ActionOpen   = "OPEN"
	ActionClosed = "CLOSED"
)

// reportTimeout bounds the best-effort report push.
const reportTimeout = 2 * time.Second

// Publisher is the subset of the queue publisher the validator needs.
type Publisher interface {
	Publish(ctx context.Context, queueName string, v any) error
}

// BackOffice is the subset of the back-office client the validator needs.
type BackOffice interface {
	Validate(ctx context.Context, token string) (client.ValidateResult, error)
	SubmitReport(ctx context.Context, contentType string, body []byte) error
}

// Validator processes validation requests for one gate.  Requests may be
// handled concurrently; the shared state (counters, history) lives in stats
// behind its own lock.
type Validator struct {
	gateID     string
	backoffice BackOffice
	publisher  Publisher
	stats      stats
}

// NewValidator constructs a Validator for one gate.
func NewValidator(gateID string, bo BackOffice, pub Publisher) *Validator {
	return &Validator{gateID: gateID, backoffice: bo, publisher: pub}
}

// HandleValidation runs the full per-request state machine: decode, online
// attempt, offline fallback, decide, record, report, publish.  Exactly one
// response is published per request, after the decision.  The returned
// error covers only the response publish.
func (v *Validator) HandleValidation(ctx context.Context, payload []byte) error {
	var req queue.ValidationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("gate %s: malformed validation request: %v", v.gateID, err)
		return v.decide(ctx, queue.ValidationResponse{
			GateID:         v.gateID,
			Valid:          false,
			ValidationMode: ModeNone,
			Message:        "malformed ticket",
		})
	}

	t, err := ticket.DecodeToken(req.TicketToken)
	if err != nil {
		// Undecodable token: no online or offline attempt at all.
		log.Printf("gate %s: token decode failed: %v", v.gateID, err)
		return v.decide(ctx, queue.ValidationResponse{
			GateID:         v.gateID,
			Valid:          false,
			ValidationMode: ModeNone,
			Message:        "malformed ticket",
		})
	}
	log.Printf("gate %s: validating id=%s line=%d validity=%dd", v.gateID, t.ID, t.LineNumber, t.ValidityDays)

	valid, mode, message := v.check(ctx, req.TicketToken, t)

	return v.decide(ctx, queue.ValidationResponse{
		GateID:         v.gateID,
		TicketID:       t.ID,
		Valid:          valid,
		ValidationMode: mode,
		Message:        message,
	})
}

// check runs the online attempt and, when the back-office cannot answer,
// the offline expiry-only fallback.  Any transport error, timeout or non-200
// falls through to offline: the gate must keep deciding while the
// back-office is unreachable.
func (v *Validator) check(ctx context.Context, token string, t ticket.Ticket) (valid bool, mode, message string) {
	res, err := v.backoffice.Validate(ctx, token)
	if err == nil && res.Success {
		return res.Valid, ModeOnline, res.Message
	}
	log.Printf("gate %s: back-office unavailable, using offline validation: %v", v.gateID, err)

	if t.IsWellFormed() && !t.IsExpired(time.Now()) {
		return true, ModeOffline, "Valid (offline check - expiry only)"
	}
	return false, ModeOffline, "Expired (offline check)"
}

// decide finalizes one request: derive the gate action, record the decision,
// kick the periodic report flush and publish the response exactly once.
func (v *Validator) decide(ctx context.Context, res queue.ValidationResponse) error {
	if res.Valid {
		res.GateAction = ActionOpen
	} else {
		res.GateAction = ActionClosed
	}

	total := v.stats.record(Record{
		TicketID:  res.TicketID,
		Timestamp: time.Now().Format(timestampLayout),
		Valid:     res.Valid,
		Mode:      res.ValidationMode,
	})
	if total%reportEvery == 0 {
		// Fire and forget: the response below must not wait on the report.
		go v.flushReport()
	}

	log.Printf("gate %s: id=%s action=%s mode=%s (%s)", v.gateID, res.TicketID, res.GateAction, res.ValidationMode, res.Message)
	return v.publisher.Publish(ctx, queue.ValidationResponseQueue, res)
}

// flushReport builds the XML report and pushes it to the back-office.
// Failures are logged and swallowed; reporting is best-effort and never
// affects a validation response.
func (v *Validator) flushReport() {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	report := v.stats.buildReport(v.gateID, time.Now())
	body, err := xml.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("gate %s: marshal report failed: %v", v.gateID, err)
		return
	}
	body = append([]byte(xml.Header), body...)

	if err := v.backoffice.SubmitReport(ctx, "application/xml", body); err != nil {
		log.Printf("gate %s: report send failed: %v", v.gateID, err)
		return
	}
	log.Printf("gate %s: report sent (total=%d)", v.gateID, report.Statistics.TotalProcessed)
}
