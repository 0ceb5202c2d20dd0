package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/kursadbilgin/gcmpush/internal/observability"
)

// RegisterHealthRoutes mounts liveness and, when metrics is set, the Prometheus scrape endpoint.
func RegisterHealthRoutes(app fiber.Router, metrics *observability.Metrics) {
	app.Get("/livez", LivezHandler())
	if metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	}
}

func LivezHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	}
}
