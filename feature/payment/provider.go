package payment

import (
	"context"
	"errors"
)

// Event types acted upon.
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
)

// ErrInvalidSignature is returned by ParseEvent for unverifiable payloads.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// CheckoutRequest describes the pass being paid for.
type CheckoutRequest struct {
	PassID       string
	Name         string
	Email        string
	Title        string
	Organization string
	Quantity     int64
}

// Event is a verified provider notification.
type Event struct {
	// Type is the provider event type.
	Type string
	// ObjectID is the checkout session or payment intent id.
	ObjectID string
	// PassID comes from checkout metadata. Payment intents carry none.
	PassID string
	// Amount is the amount paid in the smallest currency unit.
	Amount int64
}

// Provider is the payment collaborator.
type Provider interface {
	// CreateCheckout starts a hosted checkout and returns its URL.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
	// ParseEvent verifies and decodes a webhook payload.
	ParseEvent(payload []byte, signature string) (Event, error)
	// PassForPaymentIntent finds the pass id of the checkout that created
	// the payment intent. It returns "" when there is none.
	PassForPaymentIntent(ctx context.Context, paymentIntentID string) (string, error)
}
