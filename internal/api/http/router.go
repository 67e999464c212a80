package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/careportal/complaint-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Tickets     *handlers.TicketsHandler
	Escalations *handlers.EscalationsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/respond", cfg.Tickets.Respond)
	tickets.Post("/:id/escalate", cfg.Escalations.Escalate)
	tickets.Post("/:id/flag", cfg.Tickets.Flag)
	tickets.Post("/:id/resolve", cfg.Tickets.Resolve)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Get("/:id/escalation-units", cfg.Escalations.ListEscalationUnits)

	app.Patch("/escalation-units/:id/status", cfg.Escalations.UpdateEscalationUnit)
}
