package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

// StripeProvider implements Provider with Stripe Checkout.
type StripeProvider struct {
	api *client.API
	cfg Config
}

// NewStripeProvider creates a provider using cfg.SecretKey.
func NewStripeProvider(cfg Config) *StripeProvider {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeProvider{api: api, cfg: cfg}
}

// CreateCheckout creates a one line item payment session.
func (p *StripeProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	site := strings.TrimRight(p.cfg.SiteURL, "/")

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.cfg.ProductName),
						Description: stripe.String("Laminated Press Pass for " + req.Name),
						Images:      stripe.StringSlice([]string{p.cfg.ImageURL}),
					},
					UnitAmount: stripe.Int64(p.cfg.UnitAmount),
				},
				Quantity: stripe.Int64(quantity),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(fmt.Sprintf("%s/success.html?session_id={CHECKOUT_SESSION_ID}&pass_id=%s", site, req.PassID)),
		CancelURL:  stripe.String(site + "/"),
		Metadata: map[string]string{
			"passId":       req.PassID,
			"name":         req.Name,
			"email":        req.Email,
			"title":        req.Title,
			"organization": req.Organization,
		},
	}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return s.URL, nil
}

// ParseEvent verifies the Stripe-Signature header against the webhook secret.
func (p *StripeProvider) ParseEvent(payload []byte, signature string) (Event, error) {
	return ParseStripeEvent(payload, signature, p.cfg.WebhookSecret)
}

// ParseStripeEvent verifies and decodes a Stripe webhook payload.
func ParseStripeEvent(payload []byte, signature, secret string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}

	switch ev.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return Event{}, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.ObjectID = s.ID
		out.Amount = s.AmountTotal
		out.PassID = s.Metadata["passId"]
	case stripe.EventTypePaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return Event{}, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		out.ObjectID = pi.ID
		out.Amount = pi.Amount
	}
	return out, nil
}

// PassForPaymentIntent looks up the checkout session of a payment intent.
func (p *StripeProvider) PassForPaymentIntent(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.CheckoutSessionListParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Limit = stripe.Int64(1)
	params.Context = ctx

	it := p.api.CheckoutSessions.List(params)
	if it.Next() {
		return it.CheckoutSession().Metadata["passId"], nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("failed to list checkout sessions: %w", err)
	}
	return "", nil
}
