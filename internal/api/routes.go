// Package api wires charsoupd's HTTP and websocket routes onto a Fiber
// app.
package api

import (
	"github.com/agentx/charsoup/internal/api/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SetupRoutes registers every charsoupd endpoint on app.
func SetupRoutes(app *fiber.App, deps *handlers.Deps) {
	v1 := app.Group("/v1")

	v1.Post("/detect", handlers.Detect(deps))
	v1.Post("/arbitrate", handlers.Arbitrate(deps))
	v1.Get("/languages", handlers.Languages(deps))

	app.Use("/v1/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/v1/stream", websocket.New(handlers.Stream(deps)))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "charsoupd",
		})
	})
}
