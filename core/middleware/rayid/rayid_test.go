package rayid_test

import (
	"net/http/httptest"
	"testing"

	"press-pass/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(rayid.New())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(rayid.LocalKey).(string))
	})
	return app
}

func TestRayID_Generated(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest("GET", "/", nil))
	assert.NoError(t, err)

	rid := resp.Header.Get(rayid.Header)
	_, perr := uuid.Parse(rid)
	assert.NoError(t, perr)
}

func TestRayID_Propagated(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(rayid.Header, "trace-123")

	resp, err := newApp().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, "trace-123", resp.Header.Get(rayid.Header))
}
