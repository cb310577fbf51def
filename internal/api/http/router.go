package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/plantops/maintenance-service/internal/api/http/handlers"
	"github.com/plantops/maintenance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Workflow       *handlers.WorkflowHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)
	app.Get("/auth/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	app.Post("/auth/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/number/:number", cfg.Tickets.GetTicketByNumber)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/images", cfg.Tickets.AttachImages)

	tickets.Post("/:id/accept", cfg.Workflow.Accept)
	tickets.Post("/:id/reject", cfg.Workflow.Reject)
	tickets.Post("/:id/complete", cfg.Workflow.Complete)
	tickets.Post("/:id/escalate", cfg.Workflow.Escalate)
	tickets.Post("/:id/close", cfg.Workflow.Close)
	tickets.Post("/:id/reopen", cfg.Workflow.Reopen)
	tickets.Post("/:id/reassign", cfg.Workflow.Reassign)
}
