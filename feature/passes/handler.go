package passes

import (
	"encoding/json"
	"strings"

	"press-pass/core/logger"
	"press-pass/core/pass"
	"press-pass/core/server"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for press passes.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the public route on app and the admin routes
// behind guard.
func (h *Handler) RegisterRoutes(app fiber.Router, guard fiber.Handler) {
	group := app.Group("/api/passes")
	group.Post("/", h.HandleTrack)

	group.Get("/", guard, h.HandleList)
	group.Get("/stats", guard, h.HandleStats)
	group.Get("/:id", guard, h.HandleGet)
	group.Patch("/:id", guard, h.HandleUpdate)
	group.Delete("/:id", guard, h.HandleDelete)
}

// HandleTrack records a generated press pass.
// @Summary Track Press Pass
// @Description Validate and store a press pass created by the generator page.
// @Tags passes
// @Accept json
// @Produce json
// @Param pass body map[string]interface{} true "Pass fields (name, email, title, organization, pass_number, download_type)"
// @Success 200 {object} map[string]interface{} "Created pass"
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 503 {object} map[string]interface{} "Storage unavailable"
// @Router /api/passes [post]
func (h *Handler) HandleTrack(c *fiber.Ctx) error {
	in, err := decodeInput(c)
	if err != nil {
		return server.Failure(c, h.service.logger, err)
	}

	rec, err := h.service.Track(c.UserContext(), in)
	if err != nil {
		return server.Failure(c, h.service.logger, err)
	}

	logger.WithRayID(h.service.logger, c).Info("Press pass tracked", zap.String("id", rec.ID))
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Press pass created successfully",
		"data":    rec,
	})
}

// HandleList lists press passes.
// @Summary List Press Passes
// @Description List passes newest first. Filters, sort and paging are not applied while the fallback store serves the request (degraded=true).
// @Tags passes
// @Produce json
// @Param email query string false "Exact email"
// @Param organization query string false "Exact organization"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param offset query int false "Offset"
// @Param limit query int false "Limit"
// @Success 200 {object} map[string]interface{} "Passes"
// @Failure 400 {object} map[string]interface{} "Invalid query"
// @Failure 503 {object} map[string]interface{} "Storage unavailable"
// @Router /api/passes [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	q, err := ParseQuery(func(key string) string { return c.Query(key) })
	if err != nil {
		return server.Failure(c, h.service.logger, err)
	}

	page, err := h.service.List(c.UserContext(), q)
	if err != nil {
		return server.Failure(c, h.service.logger, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"data":     page.Records,
		"degraded": page.Degraded,
		"source":   page.Source,
	})
}

// HandleStats returns dashboard statistics.
// @Summary Press Pass Statistics
// @Description Total passes, passes this month and distinct email domains.
// @Tags passes
// @Produce json
// @Success 200 {object} map[string]interface{} "Statistics"
// @Failure 503 {object} map[string]interface{} "Storage unavailable"
// @Router /api/passes/stats [get]
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	st, err := h.service.Stats(c.UserContext())
	if err != nil {
		return server.Failure(c, h.service.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": st})
}

// HandleGet returns one press pass.
// @Summary Get Press Pass
// @Tags passes
// @Produce json
// @Param id path string true "Pass number (e.g. 'FP-ABC123')"
// @Success 200 {object} map[string]interface{} "Pass"
// @Failure 404 {object} map[string]interface{} "Not found"
// @Router /api/passes/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	rec, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return server.Failure(c, h.service.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": rec})
}

// HandleUpdate applies a partial update.
// @Summary Update Press Pass
// @Tags passes
// @Accept json
// @Produce json
// @Param id path string true "Pass number"
// @Param patch body map[string]interface{} true "Fields to change"
// @Success 200 {object} map[string]interface{} "Updated pass"
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 404 {object} map[string]interface{} "Not found"
// @Router /api/passes/{id} [patch]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	in, err := decodeInput(c)
	if err != nil {
		return server.Failure(c, h.service.logger, err)
	}

	rec, err := h.service.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return server.Failure(c, h.service.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": rec})
}

// HandleDelete removes a press pass from both stores.
// @Summary Delete Press Pass
// @Tags passes
// @Produce json
// @Param id path string true "Pass number"
// @Success 200 {object} map[string]interface{} "Deleted"
// @Failure 404 {object} map[string]interface{} "Not found"
// @Router /api/passes/{id} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return server.Failure(c, h.service.logger, err)
	}
	logger.WithRayID(h.service.logger, c).Info("Press pass deleted", zap.String("id", id))
	return c.JSON(fiber.Map{"success": true, "message": "Press pass deleted"})
}

// decodeInput reads a JSON object body into a field map.
func decodeInput(c *fiber.Ctx) (pass.Input, error) {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, &pass.ValidationError{Field: "body", Message: "is required"}
	}
	var in pass.Input
	if err := json.Unmarshal(body, &in); err != nil || in == nil {
		return nil, &pass.ValidationError{Field: "body", Message: "must be a JSON object"}
	}
	return in, nil
}
