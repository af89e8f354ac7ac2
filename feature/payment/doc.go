// Package payment sells laminated press passes through Stripe Checkout.
//
// POST /api/checkout records the pass as awaiting payment and returns the
// hosted checkout URL. A storage outage does not block the sale; the pass
// is marked paid later by the webhook.
//
// POST /api/webhooks/stripe verifies the Stripe-Signature header and marks
// the pass paid on checkout.session.completed or payment_intent.succeeded.
// Payment intents carry no metadata, so their pass is found through the
// checkout session that created them.
package payment
