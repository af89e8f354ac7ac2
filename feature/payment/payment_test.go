package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"press-pass/core/pass"
	"press-pass/core/server"
	"press-pass/core/store"
	"press-pass/core/store/local"
	"press-pass/core/store/storetest"
	"press-pass/feature/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const webhookSecret = "whsec_test"

type brokenFallback struct{}

func (brokenFallback) Load(context.Context) ([]pass.Record, error) {
	return nil, errors.New("disk unreadable")
}

func (brokenFallback) Save(context.Context, []pass.Record) error {
	return errors.New("disk full")
}

type fakeProvider struct {
	checkouts []payment.CheckoutRequest
	intents   map[string]string
	err       error
}

func (f *fakeProvider) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.checkouts = append(f.checkouts, req)
	return "https://checkout.stripe.com/c/pay/cs_test_" + req.PassID, nil
}

func (f *fakeProvider) ParseEvent(payload []byte, signature string) (payment.Event, error) {
	return payment.ParseStripeEvent(payload, signature, webhookSecret)
}

func (f *fakeProvider) PassForPaymentIntent(_ context.Context, id string) (string, error) {
	return f.intents[id], nil
}

type testEnv struct {
	app      *fiber.App
	primary  *storetest.Primary
	fallback *local.FileStore
	provider *fakeProvider
}

func newEnv(t *testing.T) testEnv {
	t.Helper()
	env := testEnv{
		primary:  storetest.NewPrimary(),
		fallback: local.NewMemoryStore(),
		provider: &fakeProvider{intents: map[string]string{"pi_123": "FP-ABC123"}},
	}
	svc := payment.NewService(store.New(env.primary, env.fallback), env.provider, zap.NewNop())
	env.app = fiber.New(fiber.Config{ErrorHandler: server.ErrorHandler(zap.NewNop())})
	require.NoError(t, payment.NewFeature(svc, true).Load(env.app))
	return env
}

func sign(payload []byte, ts time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    webhookSecret,
		Timestamp: ts,
	}).Header
}

func eventPayload(t *testing.T, typ string, object map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"id":          "evt_test",
		"object":      "event",
		"type":        typ,
		"api_version": "2020-08-27",
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return data
}

func (env testEnv) post(t *testing.T, target string, body []byte, signature string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(payment.SignatureHeader, signature)
	}
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(data, &out)
	return resp.StatusCode, out
}

func TestHandleCheckout(t *testing.T) {
	env := newEnv(t)

	status, body := env.post(t, "/api/checkout", []byte(`{"name":"Jane Doe","passId":"FP-ABC123","organization":"Daily Planet","quantity":2}`), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_FP-ABC123", body["url"])

	require.Len(t, env.provider.checkouts, 1)
	assert.Equal(t, int64(2), env.provider.checkouts[0].Quantity)

	rec := env.primary.Rows()["FP-ABC123"]
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Empty(t, rec.Email)
	assert.True(t, rec.PaymentPending)
	assert.False(t, rec.Paid)
}

func TestHandleCheckout_ExistingPass(t *testing.T) {
	env := newEnv(t)
	env.primary.Put(pass.Record{ID: "FP-ABC123", Name: "Jane Doe", Email: "jane@example.com"})

	status, _ := env.post(t, "/api/checkout", []byte(`{"name":"Jane Doe","passId":"FP-ABC123"}`), "")
	assert.Equal(t, http.StatusOK, status)

	rec := env.primary.Rows()["FP-ABC123"]
	assert.True(t, rec.PaymentPending)
	assert.Equal(t, "jane@example.com", rec.Email)
}

func TestHandleCheckout_MissingFields(t *testing.T) {
	env := newEnv(t)
	for _, body := range []string{`{"name":"Jane"}`, `{"passId":"FP-ABC123"}`} {
		status, out := env.post(t, "/api/checkout", []byte(body), "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Missing required fields: name or passId", out["error"])
	}
	assert.Empty(t, env.provider.checkouts)
}

func TestHandleCheckout_StorageDownStillCharges(t *testing.T) {
	primary := storetest.NewPrimary()
	primary.SetDown(true)
	provider := &fakeProvider{}
	svc := payment.NewService(store.New(primary, brokenFallback{}), provider, zap.NewNop())

	url, err := svc.Checkout(context.Background(), payment.CheckoutRequest{PassID: "FP-ABC123", Name: "Jane"})
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.Len(t, provider.checkouts, 1)
}

func TestCheckout_InvalidEmail(t *testing.T) {
	env := newEnv(t)

	status, body := env.post(t, "/api/checkout", []byte(`{"name":"Jane","passId":"FP-ABC123","email":"not-an-email"}`), "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "email")
	assert.Empty(t, env.provider.checkouts)
}

func TestHandleCheckout_ProviderError(t *testing.T) {
	env := newEnv(t)
	env.provider.err = errors.New("stripe: invalid api key sk_live_xxx")

	status, body := env.post(t, "/api/checkout", []byte(`{"name":"Jane","passId":"FP-ABC123"}`), "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to create checkout session", body["error"])
}

func TestHandleWebhook_CheckoutCompleted(t *testing.T) {
	env := newEnv(t)
	env.primary.Put(pass.Record{ID: "FP-ABC123", Name: "Jane", PaymentPending: true})

	payload := eventPayload(t, "checkout.session.completed", map[string]any{
		"id":             "cs_test_1",
		"object":         "checkout.session",
		"amount_total":   1500,
		"metadata":       map[string]string{"passId": "FP-ABC123"},
		"payment_intent": "pi_123",
	})
	status, body := env.post(t, "/api/webhooks/stripe", payload, sign(payload, time.Now()))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["received"])

	rec := env.primary.Rows()["FP-ABC123"]
	assert.True(t, rec.Paid)
	assert.False(t, rec.PaymentPending)
	require.NotNil(t, rec.PaymentID)
	assert.Equal(t, "cs_test_1", *rec.PaymentID)
	require.NotNil(t, rec.PaymentAmount)
	assert.Equal(t, int64(1500), *rec.PaymentAmount)
	assert.NotNil(t, rec.PaymentDate)
}

func TestHandleWebhook_PaymentIntentSucceeded(t *testing.T) {
	env := newEnv(t)
	env.primary.Put(pass.Record{ID: "FP-ABC123", Name: "Jane", PaymentPending: true})

	payload := eventPayload(t, "payment_intent.succeeded", map[string]any{
		"id":     "pi_123",
		"object": "payment_intent",
		"amount": 3000,
	})
	status, _ := env.post(t, "/api/webhooks/stripe", payload, sign(payload, time.Now()))
	assert.Equal(t, http.StatusOK, status)

	rec := env.primary.Rows()["FP-ABC123"]
	assert.True(t, rec.Paid)
	assert.Equal(t, "pi_123", *rec.PaymentID)
	assert.Equal(t, int64(3000), *rec.PaymentAmount)
}

func TestHandleWebhook_Ignored(t *testing.T) {
	env := newEnv(t)

	for _, payload := range [][]byte{
		eventPayload(t, "customer.created", map[string]any{"id": "cus_1", "object": "customer"}),
		eventPayload(t, "checkout.session.completed", map[string]any{"id": "cs_2", "object": "checkout.session"}),
		eventPayload(t, "checkout.session.completed", map[string]any{
			"id": "cs_3", "object": "checkout.session", "metadata": map[string]string{"passId": "FP-GHOST1"},
		}),
		eventPayload(t, "payment_intent.succeeded", map[string]any{"id": "pi_unknown", "object": "payment_intent"}),
	} {
		status, body := env.post(t, "/api/webhooks/stripe", payload, sign(payload, time.Now()))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["received"])
	}
	assert.Empty(t, env.primary.Rows())
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	env := newEnv(t)
	payload := eventPayload(t, "checkout.session.completed", map[string]any{"id": "cs_1", "object": "checkout.session"})

	tests := map[string]string{
		"Missing":  "",
		"Tampered": sign([]byte(`{"id":"evt_other"}`), time.Now()),
		"Expired":  sign(payload, time.Now().Add(-time.Hour)),
	}
	for name, sig := range tests {
		t.Run(name, func(t *testing.T) {
			status, body := env.post(t, "/api/webhooks/stripe", payload, sig)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, body["error"], "Webhook Error")
		})
	}
}

func TestHandleWebhook_StorageDown(t *testing.T) {
	primary := storetest.NewPrimary()
	primary.SetDown(true)
	svc := payment.NewService(store.New(primary, brokenFallback{}), &fakeProvider{}, zap.NewNop())
	app := fiber.New(fiber.Config{ErrorHandler: server.ErrorHandler(zap.NewNop())})
	require.NoError(t, payment.NewFeature(svc, true).Load(app))
	env := testEnv{app: app}

	payload := eventPayload(t, "checkout.session.completed", map[string]any{
		"id":       "cs_test_1",
		"object":   "checkout.session",
		"metadata": map[string]string{"passId": "FP-ABC123"},
	})
	status, _ := env.post(t, "/api/webhooks/stripe", payload, sign(payload, time.Now()))
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestHandleWebhook_PassHeldByUnreachablePrimary(t *testing.T) {
	env := newEnv(t)
	env.primary.Put(pass.Record{ID: "FP-ABC123", Name: "Jane Doe", PaymentPending: true})
	env.primary.SetDown(true)

	payload := eventPayload(t, "checkout.session.completed", map[string]any{
		"id":           "cs_test_1",
		"object":       "checkout.session",
		"amount_total": 1500,
		"metadata":     map[string]string{"passId": "FP-ABC123"},
	})
	status, _ := env.post(t, "/api/webhooks/stripe", payload, sign(payload, time.Now()))
	assert.Equal(t, http.StatusServiceUnavailable, status)

	env.primary.SetDown(false)
	status, _ = env.post(t, "/api/webhooks/stripe", payload, sign(payload, time.Now()))
	assert.Equal(t, http.StatusOK, status)

	rec := env.primary.Rows()["FP-ABC123"]
	assert.True(t, rec.Paid)
	assert.False(t, rec.PaymentPending)
}

func TestParseStripeEvent(t *testing.T) {
	payload := eventPayload(t, "checkout.session.completed", map[string]any{
		"id":           "cs_test_9",
		"object":       "checkout.session",
		"amount_total": 4500,
		"metadata":     map[string]string{"passId": "FP-XYZ789"},
	})

	ev, err := payment.ParseStripeEvent(payload, sign(payload, time.Now()), webhookSecret)
	require.NoError(t, err)
	assert.Equal(t, payment.Event{
		Type:     payment.EventCheckoutCompleted,
		ObjectID: "cs_test_9",
		PassID:   "FP-XYZ789",
		Amount:   4500,
	}, ev)

	_, err = payment.ParseStripeEvent(payload, sign(payload, time.Now()), "whsec_other")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
}

func TestFeature_Disabled(t *testing.T) {
	f := payment.NewFeature(nil, false)
	assert.False(t, f.IsEnabled())
	assert.Equal(t, "payment", f.Name())
}
