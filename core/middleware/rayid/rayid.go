// Package rayid tags every request with a trace id.
package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const (
	// Header carries the ray id on requests and responses.
	Header = "X-Ray-ID"
	// LocalKey is the fiber.Ctx locals key read by logger.WithRayID.
	LocalKey = "ray_id"
)

// New returns a middleware that reuses an incoming X-Ray-ID or generates one,
// stores it in locals and echoes it on the response.
func New() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     Header,
		Generator:  uuid.NewString,
		ContextKey: LocalKey,
	})
}
