package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"press-pass/core/pass"
	"press-pass/core/store"

	"go.uber.org/zap"
)

// Service ties checkout and webhook events to the pass store.
type Service struct {
	store    *store.Store
	provider Provider
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a Service.
func NewService(s *store.Store, provider Provider, logger *zap.Logger) *Service {
	return &Service{store: s, provider: provider, logger: logger, now: time.Now}
}

// Checkout records the pass as awaiting payment and starts a checkout.
// Storage failures are logged and do not block the checkout.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (string, error) {
	if err := s.recordPending(ctx, req); err != nil {
		if pass.IsValidation(err) {
			return "", err
		}
		s.logger.Warn("Failed to record pending pass, continuing with checkout",
			zap.String("pass_id", req.PassID), zap.Error(err))
	}
	return s.provider.CreateCheckout(ctx, req)
}

func (s *Service) recordPending(ctx context.Context, req CheckoutRequest) error {
	_, err := s.store.Get(ctx, req.PassID)
	switch {
	case err == nil:
		pending := true
		_, err = s.store.Update(ctx, req.PassID, pass.Patch{PaymentPending: &pending})
		return err
	case !errors.Is(err, pass.ErrNotFound):
		return err
	}

	in := pass.Input{
		"name":        req.Name,
		"pass_number": req.PassID,
	}
	if req.Email != "" {
		in["email"] = req.Email
	}
	if req.Title != "" {
		in["title"] = req.Title
	}
	if req.Organization != "" {
		in["organization"] = req.Organization
	}
	_, err = s.store.Create(ctx, in, store.Untracked(), store.PaymentPending())
	return err
}

// HandleEvent applies a verified event. Unknown types and events that do
// not name a pass are ignored.
func (s *Service) HandleEvent(ctx context.Context, ev Event) error {
	l := s.logger.With(zap.String("event", ev.Type), zap.String("object_id", ev.ObjectID))

	switch ev.Type {
	case EventCheckoutCompleted:
	case EventPaymentIntentSucceeded:
		passID, err := s.provider.PassForPaymentIntent(ctx, ev.ObjectID)
		if err != nil {
			return err
		}
		ev.PassID = passID
	default:
		l.Debug("Ignoring payment event")
		return nil
	}

	if ev.PassID == "" {
		l.Warn("Payment event without pass id")
		return nil
	}

	_, err := s.store.Update(ctx, ev.PassID, pass.MarkPaid(ev.ObjectID, ev.Amount, s.now().UTC()))
	if store.Unconfirmed(err) {
		// The pass may only live in the primary; answer so the event is redelivered.
		l.Warn("Payment for pass held by unreachable primary", zap.String("pass_id", ev.PassID), zap.Error(err))
		return fmt.Errorf("pass %s: %w", ev.PassID, pass.ErrStorageUnavailable)
	}
	if errors.Is(err, pass.ErrNotFound) {
		l.Warn("Payment for unknown pass", zap.String("pass_id", ev.PassID))
		return nil
	}
	if err != nil {
		return err
	}
	l.Info("Press pass paid", zap.String("pass_id", ev.PassID), zap.Int64("amount", ev.Amount))
	return nil
}
