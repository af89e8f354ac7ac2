package passes

import (
	"press-pass/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
	apiKey  string
}

// NewFeature creates the passes feature. apiKey guards the admin routes.
func NewFeature(service *Service, apiKey string) *Feature {
	return &Feature{service: service, handler: NewHandler(service), apiKey: apiKey}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "passes"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app, auth.New(auth.Config{ApiKey: f.apiKey}))
	return nil
}
