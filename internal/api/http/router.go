package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	Pages   *handlers.PagesHandler
	// Metrics serves the Prometheus exposition; nil leaves /metrics unregistered.
	Metrics fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	api := app.Group("/api")
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Post("/tickets/:id/retry-triage", cfg.Tickets.RetryTriage)

	if cfg.Pages != nil {
		app.Get("/", cfg.Pages.SubmitForm)
		app.Post("/", cfg.Pages.Submit)
		app.Get("/dashboard", cfg.Pages.Dashboard)
		app.Post("/dashboard/tickets/:id/retry", cfg.Pages.RetryTriage)
	}
}
