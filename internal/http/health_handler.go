package http

import (
	"github.com/gofiber/fiber/v2"
)

// HomeAction answers the root path so load balancers and humans get a
// cheap liveness signal.
func (h *Handler) HomeAction(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("Hello World")
}

// HealthAction reports process and database health.
func (h *Handler) HealthAction(c *fiber.Ctx) error {
	status := "ok"
	code := fiber.StatusOK

	if db := h.db(); db != nil {
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}
	} else {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{"status": status})
}
