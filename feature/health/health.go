// Package health serves the availability probe used by the generator page
// before it tries to record a pass.
package health

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	configured bool
	now        func() time.Time
}

// NewFeature creates the health feature. configured reports whether the
// primary store has its connection settings.
func NewFeature(configured bool) *Feature {
	return &Feature{configured: configured, now: time.Now}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "health"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	// fiber registers HEAD alongside GET.
	app.Get("/api/health", f.HandleHealth)
	return nil
}

// HandleHealth reports API availability.
// @Summary Health Check
// @Description Reports whether the API is available. HEAD returns the status only.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Available"
// @Failure 503 {object} map[string]interface{} "Primary store not configured"
// @Router /api/health [get]
func (f *Feature) HandleHealth(c *fiber.Ctx) error {
	if !f.configured {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "error",
			"message": "Database configuration missing",
		})
	}
	if c.Method() == fiber.MethodHead {
		return c.SendStatus(fiber.StatusOK)
	}
	return c.JSON(fiber.Map{
		"status":    "ok",
		"message":   "API is available",
		"timestamp": f.now().UTC().Format(time.RFC3339Nano),
	})
}
