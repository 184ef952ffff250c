package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oumaimagaidi/TicketFlow/internal/api/http/handlers"
	"github.com/oumaimagaidi/TicketFlow/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/register", cfg.Users.Register)
	app.Post("/login", cfg.Users.Login)
	app.Post("/token/refresh", cfg.Users.Refresh)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/logout", cfg.Users.Logout)
	protected.Get("/users/me", cfg.Users.Me)

	tickets := protected.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Patch("/:id/update_status", auth.RequireAdmin(), cfg.Tickets.UpdateStatus)
	tickets.Get("/:id/download", cfg.Tickets.DownloadAttachment)
	tickets.Get("/:id/view", cfg.Tickets.ViewAttachment)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
}
