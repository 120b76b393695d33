package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Applications   *handlers.ApplicationsHandler
	AuthMiddleware *auth.AuthMiddleware
	// Metrics serves the Prometheus exposition; nil leaves /metrics unrouted.
	Metrics fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	v1 := app.Group("/v1", cfg.AuthMiddleware.Handle)

	tickets := v1.Group("/tickets", auth.RequireScope(auth.ScopeTickets))
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/:channel/claim", cfg.Tickets.ClaimTicket)
	tickets.Post("/:channel/close", cfg.Tickets.CloseTicket)
	tickets.Post("/:channel/transcript", cfg.Tickets.CreateTranscript)

	v1.Get("/stats", auth.RequireScope(auth.ScopeStats), cfg.Tickets.Statistics)

	applications := v1.Group("/applications", auth.RequireScope(auth.ScopeApplications))
	applications.Post("/", cfg.Applications.CreateApplication)
	applications.Get("/", cfg.Applications.ListPending)
	applications.Post("/:channel/accept", cfg.Applications.Accept)
	applications.Post("/:channel/reject", cfg.Applications.Reject)
}
