package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/payment"
)

// Stripe recommends capping webhook payloads at 64KB.
const maxWebhookBytes = 65536

// PaymentService creates payment intents and consumes provider webhooks.
type PaymentService interface {
	CreateIntent(ctx context.Context, actor *auth.Principal, registrationID string) (*payment.Intent, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// PaymentHandler holds the payment HTTP handlers.
type PaymentHandler struct {
	svc PaymentService
	base
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(svc PaymentService, log logger.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, base: base{log: log}}
}

// CreateIntent handles POST /registrations/{id}/payment-intent
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := h.svc.CreateIntent(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

// StripeWebhook handles POST /webhooks/stripe. The body is passed through
// untouched because the signature covers the raw bytes.
func (h *PaymentHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	if err := h.svc.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
