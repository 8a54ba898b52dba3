package main // Entry point for the back-office (ledger) service

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-ticketing/internal/config"
	"github.com/iliyamo/transit-ticketing/internal/database"
	"github.com/iliyamo/transit-ticketing/internal/handler"
	"github.com/iliyamo/transit-ticketing/internal/ledger"
	"github.com/iliyamo/transit-ticketing/internal/repository"
	"github.com/iliyamo/transit-ticketing/internal/router"
)

func main() {
	cfg := config.LoadBackOffice()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("backoffice: open database: %v", err)
	}
	defer db.Close()

	store := repository.NewTicketRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("backoffice: ensure schema: %v", err)
	}

	registry, err := ledger.NewRegistry(ctx, store)
	if err != nil {
		log.Fatalf("backoffice: load registry: %v", err)
	}
	log.Printf("backoffice: loaded %d tickets", registry.Len())

	// Rate limiting degrades to a pass-through when Redis is absent.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("backoffice: redis unavailable, rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e,
		handler.NewTicketHandler(registry),
		handler.NewReportHandler(registry),
		config.LoadRateLimitConfig(), rdb, cfg.AuthSecret)

	addr := ":" + cfg.Port
	log.Printf("backoffice: listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
