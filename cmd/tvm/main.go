package main // Entry point for the ticket vending machine bridge

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/transit-ticketing/internal/client"
	"github.com/iliyamo/transit-ticketing/internal/config"
	"github.com/iliyamo/transit-ticketing/internal/queue"
	"github.com/iliyamo/transit-ticketing/internal/vending"
)

func main() {
	cfg := config.LoadTVM()

	bo := client.New(cfg.BackOfficeURL, cfg.ClientID, cfg.AuthSecret, 5*time.Second, 10*time.Second)
	pub := queue.NewPublisher(cfg.AMQPURL)
	defer pub.Close()

	bridge := vending.NewBridge(bo, pub)

	log.Printf("tvm: %s bridging %s -> %s", cfg.ClientID, queue.SaleRequestQueue, cfg.BackOfficeURL)
	err := queue.Consume(cfg.AMQPURL, "tvm", []string{queue.SaleRequestQueue},
		func(_ string, body []byte) error {
			return bridge.HandleSale(context.Background(), body)
		})
	log.Fatalf("tvm: consumer stopped: %v", err)
}
