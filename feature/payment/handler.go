package payment

import (
	"encoding/json"

	"press-pass/core/logger"
	"press-pass/core/pass"
	"press-pass/core/server"
	"press-pass/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

// Handler handles HTTP requests for payments.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the payment routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/api/checkout", h.HandleCheckout)
	app.Post("/api/webhooks/stripe", h.HandleWebhook)
}

// HandleCheckout starts a paid checkout for a laminated pass.
// @Summary Create Checkout Session
// @Description Record the pass as awaiting payment and return the hosted checkout URL.
// @Tags payment
// @Accept json
// @Produce json
// @Param checkout body map[string]interface{} true "name, passId, email, title, organization, quantity"
// @Success 200 {object} map[string]string "Checkout URL"
// @Failure 400 {object} map[string]string "Missing fields"
// @Failure 500 {object} map[string]string "Checkout failed"
// @Router /api/checkout [post]
func (h *Handler) HandleCheckout(c *fiber.Ctx) error {
	var body map[string]any
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON body"})
	}

	req := CheckoutRequest{
		PassID:       utils.ToString(body["passId"]),
		Name:         utils.ToString(body["name"]),
		Email:        utils.ToString(body["email"]),
		Title:        utils.ToString(body["title"]),
		Organization: utils.ToString(body["organization"]),
		Quantity:     utils.ToInt64(body["quantity"]),
	}
	if req.Name == "" || req.PassID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields: name or passId",
		})
	}

	url, err := h.service.Checkout(c.UserContext(), req)
	if err != nil {
		if pass.IsValidation(err) {
			return server.Failure(c, h.service.logger, err)
		}
		logger.WithRayID(h.service.logger, c).Error("Checkout failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create checkout session",
		})
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleWebhook applies payment notifications.
// @Summary Stripe Webhook
// @Description Verify and apply checkout.session.completed and payment_intent.succeeded events.
// @Tags payment
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool "Received"
// @Failure 400 {object} map[string]string "Invalid signature"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Router /api/webhooks/stripe [post]
func (h *Handler) HandleWebhook(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	ev, err := h.service.provider.ParseEvent(c.Body(), c.Get(SignatureHeader))
	if err != nil {
		l.Warn("Webhook verification failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Webhook Error: " + err.Error()})
	}

	if err := h.service.HandleEvent(c.UserContext(), ev); err != nil {
		// A non-2xx answer makes the provider retry the delivery.
		return server.Failure(c, h.service.logger, err)
	}
	return c.JSON(fiber.Map{"received": true})
}
