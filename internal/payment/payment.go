// Package payment creates Stripe PaymentIntents for paid registrations and
// verifies Stripe webhooks.
package payment

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/paymentintent"
	"github.com/stripe/stripe-go/webhook"
)

// ErrInvalidSignature is returned for webhook payloads that fail verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

const (
	metadataRegistrationID = "registration_id"
	eventIntentSucceeded   = "payment_intent.succeeded"
)

// Intent is the part of a PaymentIntent the browser needs to confirm payment.
type Intent struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
}

// Succeeded describes a settled PaymentIntent reported by a webhook.
type Succeeded struct {
	PaymentIntentID string
	RegistrationID  string
	AmountCents     int64
}

// Stripe talks to the Stripe API with a secret key.
type Stripe struct {
	currency      string
	webhookSecret string
	newIntent     func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// NewStripe configures the Stripe client. The key is process-wide, as
// stripe-go expects.
func NewStripe(secretKey, webhookSecret, currency string) *Stripe {
	stripe.Key = secretKey
	return &Stripe{
		currency:      currency,
		webhookSecret: webhookSecret,
		newIntent:     paymentintent.New,
	}
}

// CreateIntent creates a PaymentIntent for a registration. The registration ID
// is used as the idempotency key, so retries return the same intent.
func (s *Stripe) CreateIntent(ctx context.Context, registrationID string, amountCents int64, email string) (*Intent, error) {
	if amountCents <= 0 {
		return nil, errors.New("amount must be greater than 0")
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(s.currency),
	}
	if email != "" {
		params.ReceiptEmail = stripe.String(email)
	}
	params.Context = ctx
	params.SetIdempotencyKey("registration-" + registrationID)
	params.AddMetadata(metadataRegistrationID, registrationID)

	pi, err := s.newIntent(params)
	if err != nil {
		return nil, errors.Wrap(err, "create payment intent")
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ParseWebhook verifies payload against the Stripe-Signature header. It
// returns nil, nil for event types the portal does not act on.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Succeeded, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	if event.Type != eventIntentSucceeded {
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, errors.Wrap(err, "decode payment intent")
	}
	return &Succeeded{
		PaymentIntentID: pi.ID,
		RegistrationID:  pi.Metadata[metadataRegistrationID],
		AmountCents:     pi.Amount,
	}, nil
}
