package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Ping is the liveness probe used by deploy checks and the polling
// driver before it starts a run.
func Ping(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "ok",
	})
}
