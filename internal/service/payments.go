package service

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/notify"
	"github.com/Shivanand-hulikatti/school-portal/internal/payment"
)

var (
	errAmountMismatch   = errors.New("payment amount mismatch")
	errUnmatchedPayment = errors.New("payment for registration not awaiting payment")
)

// PaymentGateway creates and confirms card payments. Implemented by *payment.Stripe.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, registrationID string, amountCents int64, email string) (*payment.Intent, error)
	ParseWebhook(payload []byte, signature string) (*payment.Succeeded, error)
}

// PaymentService settles paid registrations.
type PaymentService struct {
	registrations RegistrationStore
	events        EventStore
	gateway       PaymentGateway
	Common
}

// NewPaymentService constructs a PaymentService. A nil gateway disables
// online payment.
func NewPaymentService(registrations RegistrationStore, events EventStore, gateway PaymentGateway, common Common) *PaymentService {
	return &PaymentService{registrations: registrations, events: events, gateway: gateway, Common: common.withDefaults()}
}

// CreateIntent starts payment for one of the caller's pending registrations.
func (s *PaymentService) CreateIntent(ctx context.Context, actor *auth.Principal, registrationID string) (*payment.Intent, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, apperr.Unavailable("online payment is not enabled")
	}
	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.UserID != actor.UserID {
		return nil, apperr.NotFound("registration")
	}
	if reg.Status != model.RegistrationPending || reg.TotalCents <= 0 {
		return nil, apperr.Conflict("registration is not awaiting payment")
	}

	intent, err := s.gateway.CreateIntent(ctx, reg.ID, reg.TotalCents, reg.UserEmail)
	if err != nil {
		return nil, err
	}
	if err := s.registrations.SetPaymentIntent(ctx, reg.ID, intent.ID); err != nil {
		return nil, err
	}
	return intent, nil
}

// HandleWebhook applies a verified Stripe event. Only succeeded payment
// intents change state; redelivery of an already applied event is a no-op.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return apperr.Unavailable("online payment is not enabled")
	}
	succeeded, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return apperr.Invalid("invalid webhook signature")
		}
		return err
	}
	if succeeded == nil {
		return nil
	}

	reg, err := s.registrations.MarkPaid(ctx, succeeded.PaymentIntentID)
	if err != nil {
		return err
	}
	if reg == nil {
		s.unmatchedPayment(ctx, succeeded)
		return nil
	}
	if succeeded.AmountCents != reg.TotalCents {
		s.Log.Error("payment amount differs from registration total", errAmountMismatch, logger.Fields{
			"payment_intent_id": succeeded.PaymentIntentID,
			"registration_id":   reg.ID,
			"amount_cents":      succeeded.AmountCents,
			"total_cents":       reg.TotalCents,
		})
	}

	msg := notify.Message{
		Kind:        notify.RegistrationPaid,
		Email:       reg.UserEmail,
		ReferenceID: reg.ID,
		Quantity:    reg.Quantity,
		TotalCents:  reg.TotalCents,
		Currency:    s.Currency,
	}
	if event, err := s.events.GetByID(ctx, reg.EventID); err == nil {
		msg.Title, msg.StartAt = event.Title, event.StartAt
	}
	s.publish(ctx, msg)
	return nil
}

// unmatchedPayment reports a settled payment that MarkPaid did not apply.
// Redelivery for an already paid registration is expected; anything else
// (a cancelled or unknown registration) needs a refund or manual review.
func (s *PaymentService) unmatchedPayment(ctx context.Context, succeeded *payment.Succeeded) {
	fields := logger.Fields{
		"payment_intent_id": succeeded.PaymentIntentID,
		"registration_id":   succeeded.RegistrationID,
		"amount_cents":      succeeded.AmountCents,
	}
	if succeeded.RegistrationID != "" {
		reg, err := s.registrations.GetByID(ctx, succeeded.RegistrationID)
		if err == nil {
			fields["status"] = reg.Status
			if reg.Status == model.RegistrationPaid && reg.PaymentIntentID != nil &&
				*reg.PaymentIntentID == succeeded.PaymentIntentID {
				s.Log.Info("payment already applied", fields)
				return
			}
		}
	}
	s.Log.Error("payment received for registration not awaiting payment", errUnmatchedPayment, fields)
}
