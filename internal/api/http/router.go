package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aparate/handover/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration. Exactly one of
// UserBot/TABot is set per process.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	UserBot *handlers.UserBotHandler
	TABot   *handlers.TABotHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.UserBot != nil {
		app.Post("/api/messages", cfg.UserBot.Messages)
		app.Post("/api/ta-response", cfg.UserBot.TAResponse)
	}
	if cfg.TABot != nil {
		app.Post("/api/messages", cfg.TABot.Messages)
		app.Post("/api/handover", cfg.TABot.Handover)
	}
}
