// Package vending implements the ticket vending machine bridge: a stateless
// translator between sale requests on the bus and the back-office create
// endpoint.  The bridge never retries a failed sale; retry policy belongs to
// whoever published the request.
package vending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/transit-ticketing/internal/client"
	"github.com/iliyamo/transit-ticketing/internal/queue"
)

// Publisher is the subset of the queue publisher the bridge needs.
type Publisher interface {
	Publish(ctx context.Context, queueName string, v any) error
}

// BackOffice is the subset of the back-office client the bridge needs.
type BackOffice interface {
	Create(ctx context.Context, validityDays, lineNumber int) (client.CreateResult, error)
}

// Bridge handles sale requests one at a time: parse, create, republish.
type Bridge struct {
	backoffice BackOffice
	publisher  Publisher
}

// NewBridge constructs a Bridge.
func NewBridge(bo BackOffice, pub Publisher) *Bridge {
	return &Bridge{backoffice: bo, publisher: pub}
}

// HandleSale processes one sale request from the bus and publishes exactly
// one response.  A malformed payload short-circuits to an error response
// without touching the back-office.  The returned error covers only the
// response publish itself; a failed sale is still a handled message.
func (b *Bridge) HandleSale(ctx context.Context, payload []byte) error {
	var req queue.SaleRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("tvm: malformed sale request: %v", err)
		return b.publishError(ctx, "malformed sale request")
	}
	if req.ValidityDays == nil || req.LineNumber == nil {
		log.Printf("tvm: sale request missing fields: %s", payload)
		return b.publishError(ctx, "validityDays and lineNumber are required")
	}

	res, err := b.backoffice.Create(ctx, *req.ValidityDays, *req.LineNumber)
	if err != nil {
		log.Printf("tvm: sale failed: %v", err)
		return b.publishError(ctx, saleErrorMessage(err))
	}

	log.Printf("tvm: ticket created id=%s", res.TicketID)
	return b.publisher.Publish(ctx, queue.SaleResponseQueue, queue.SaleResponse{
		Status:      "success",
		TicketID:    res.TicketID,
		TicketToken: res.TicketToken,
	})
}

func (b *Bridge) publishError(ctx context.Context, msg string) error {
	return b.publisher.Publish(ctx, queue.SaleResponseQueue, queue.SaleResponse{
		Status:  "error",
		Message: msg,
	})
}

// saleErrorMessage keeps bus-facing messages stable: transport trouble is
// always reported as the back-office being unavailable, anything else
// carries the rejection through.
func saleErrorMessage(err error) string {
	if errors.Is(err, client.ErrBackOfficeUnavailable) {
		return "Back-Office unavailable"
	}
	return fmt.Sprintf("Ticket creation failed: %v", err)
}
