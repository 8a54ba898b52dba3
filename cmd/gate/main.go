package main // Entry point for one gate validator instance

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/transit-ticketing/internal/client"
	"github.com/iliyamo/transit-ticketing/internal/config"
	"github.com/iliyamo/transit-ticketing/internal/gate"
	"github.com/iliyamo/transit-ticketing/internal/queue"
)

func main() {
	cfg := config.LoadGate()

	// Short connect window so a dead back-office fails over fast; longer
	// read window once connected.
	bo := client.New(cfg.BackOfficeURL, "GATE-"+cfg.GateID, cfg.AuthSecret, 2*time.Second, 5*time.Second)
	pub := queue.NewPublisher(cfg.AMQPURL)
	defer pub.Close()

	validator := gate.NewValidator(cfg.GateID, bo, pub)

	// Every gate consumes the shared queue plus its targeted one.
	queues := []string{
		queue.ValidationRequestQueue,
		queue.GateRequestQueue(cfg.GateID),
	}
	log.Printf("gate %s: back-office=%s", cfg.GateID, cfg.BackOfficeURL)
	err := queue.Consume(cfg.AMQPURL, "gate-"+cfg.GateID, queues,
		func(_ string, body []byte) error {
			return validator.HandleValidation(context.Background(), body)
		})
	log.Fatalf("gate %s: consumer stopped: %v", cfg.GateID, err)
}
