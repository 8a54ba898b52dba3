package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/transit-ticketing/internal/config"
	"github.com/iliyamo/transit-ticketing/internal/handler"
	"github.com/iliyamo/transit-ticketing/internal/middleware"
)

// RegisterRoutes wires the back-office API onto the provided Echo instance.
// The health endpoint stays outside the /api group so load balancers can
// probe it without auth or rate limiting.  Everything under /api shares the
// Redis token bucket and, when a secret is configured, service-token auth.
func RegisterRoutes(e *echo.Echo, th *handler.TicketHandler, rh *handler.ReportHandler, rlCfg config.RateLimitConfig, rdb *redis.Client, authSecret string) {
	e.GET("/health", handler.Health)

	api := e.Group("/api")
	api.Use(middleware.NewTokenBucket(rlCfg, rdb))
	api.Use(middleware.ServiceAuth(authSecret))

	// Sale: vending machine bridges create tickets here.
	api.POST("/tickets/create", th.Create)
	// Validation: gates check tokens here during online attempts.
	api.POST("/tickets/validate", th.Validate)
	// Listing for debugging and the shell harnesses.
	api.GET("/tickets", th.List)
	// Periodic gate reports.
	api.POST("/reports", rh.Receive)
	api.GET("/reports", rh.List)
}
