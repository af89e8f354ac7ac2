package integrity

import (
	"errors"

	"press-pass/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes behind guard.
func (h *Handler) RegisterRoutes(app fiber.Router, guard fiber.Handler) {
	group := app.Group("/api/integrity", guard)
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/mirrors", h.HandleMirrorCheck)
	group.Get("/mirrors/:id", h.HandlePassCheck)
	group.Get("/schema", h.HandleSchemaCheck)
}

// HandleIntegrityCheck runs every check.
// @Summary Run All Integrity Checks
// @Description Compares the primary with the fallback and verifies the SQL schema when there is one.
// @Tags integrity
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /api/integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.UserContext()
	report := fiber.Map{}

	if plan, _, err := h.service.CheckMirrors(ctx, false, false); err != nil {
		report["mirrors"] = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		report["mirrors"] = fiber.Map{"status": "ok", "summary": plan.Summary}
	}

	switch missing, err := h.service.CheckSchema(ctx); {
	case errors.Is(err, ErrNoSchema):
		report["schema"] = fiber.Map{"status": "skipped"}
	case err != nil:
		report["schema"] = fiber.Map{"status": "error", "error": err.Error()}
	default:
		report["schema"] = fiber.Map{"status": "ok", "missing": missing}
	}

	return c.JSON(report)
}

// HandleMirrorCheck reports fallback entries and optionally purges mirrors.
// @Summary Check Mirrors
// @Description Lists passes present only in the fallback and fallback copies shadowed by the primary. With purge=true matching copies are removed; include_mismatched=true removes differing copies too.
// @Tags integrity
// @Produce json
// @Security ApiKeyAuth
// @Param purge query boolean false "Remove mirrored fallback copies"
// @Param include_mismatched query boolean false "Also remove copies that differ from the primary"
// @Success 200 {object} map[string]interface{} "Mirror Report"
// @Failure 503 {object} map[string]string "Primary unreachable"
// @Router /api/integrity/mirrors [get]
func (h *Handler) HandleMirrorCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	purge := c.QueryBool("purge")

	plan, purged, err := h.service.CheckMirrors(c.UserContext(), purge, c.QueryBool("include_mismatched"))
	if err != nil {
		l.Error("Mirror check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Mirror check failed"})
	}
	if purge {
		l.Info("Purged fallback mirrors", zap.Int("count", purged))
	}

	status := "checked"
	if purge {
		status = "purged"
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"summary": plan.Summary,
		"results": plan.Results,
		"actions": plan.Actions,
		"purged":  purged,
	})
}

// HandlePassCheck reports one pass across both stores.
// @Summary Check One Pass
// @Tags integrity
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Pass id or legacy id"
// @Success 200 {object} map[string]interface{} "Pass Report"
// @Failure 503 {object} map[string]string "Primary unreachable"
// @Router /api/integrity/mirrors/{id} [get]
func (h *Handler) HandlePassCheck(c *fiber.Ctx) error {
	result, err := h.service.CheckPass(c.UserContext(), c.Params("id"))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Pass check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Pass check failed"})
	}
	return c.JSON(result)
}

// HandleSchemaCheck verifies the SQL primary table.
// @Summary Check Schema
// @Tags integrity
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{} "Schema Report"
// @Failure 404 {object} map[string]string "No SQL primary"
// @Router /api/integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	missing, err := h.service.CheckSchema(c.UserContext())
	if errors.Is(err, ErrNoSchema) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Schema check failed"})
	}
	status := "ok"
	if len(missing) > 0 {
		status = "outdated"
	}
	return c.JSON(fiber.Map{"status": status, "missing": missing})
}
