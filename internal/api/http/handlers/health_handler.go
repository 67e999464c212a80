package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	version string
}

// NewHealthHandler constructs handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": h.version})
}

// Ready GET /health/ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ready", "version": h.version})
}
