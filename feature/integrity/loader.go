package integrity

import (
	"press-pass/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
	apiKey  string
	enabled bool
}

// NewFeature creates the integrity feature. It is only useful with a
// reachable primary, so enabled is usually the primary's readiness.
func NewFeature(service *Service, apiKey string, enabled bool) *Feature {
	return &Feature{handler: NewHandler(service), apiKey: apiKey, enabled: enabled}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "integrity"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app, auth.New(auth.Config{ApiKey: f.apiKey}))
	return nil
}
