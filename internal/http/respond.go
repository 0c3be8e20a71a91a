package http

import (
	"github.com/gofiber/fiber/v2"
)

const (
	messageUnauthorized = "Unauthorized"
	messageWentWrong    = "Something went wrong"
)

// dataResponse renders the standard success envelope.
func dataResponse(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// failureResponse renders a structured failure with a 200 status. Used
// where the contract reports errors inside the envelope rather than
// through HTTP status codes.
func failureResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": false,
		"message": message,
		"data":    nil,
	})
}

// unauthorizedResponse renders the envelope failure used when no
// authenticated principal is present.
func unauthorizedResponse(c *fiber.Ctx) error {
	return failureResponse(c, messageUnauthorized)
}
