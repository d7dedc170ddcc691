package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/notify"
	"github.com/Shivanand-hulikatti/school-portal/internal/payment"
)

func newPaymentFixture() (*memStore, *mockGateway, *mockPublisher, *PaymentService) {
	store := newMemStore(testEvent("evt", nil, 1500))
	gw := &mockGateway{}
	pub := &mockPublisher{}
	svc := NewPaymentService(store.registrations(), store, gw, Common{Publisher: pub, Currency: "usd"})
	return store, gw, pub, svc
}

func TestCreateIntent(t *testing.T) {
	store, gw, _, svc := newPaymentFixture()
	reg := store.seed(model.Registration{
		EventID: "evt", UserID: parent.UserID, UserEmail: parent.Email,
		Quantity: 2, TotalCents: 3000, Status: model.RegistrationPending,
	})
	gw.On("CreateIntent", mock.Anything, reg.ID, int64(3000), parent.Email).
		Return(&payment.Intent{ID: "pi_1", ClientSecret: "secret"}, nil).Once()

	intent, err := svc.CreateIntent(context.Background(), parent, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", intent.ClientSecret)

	stored, _ := store.registrations().GetByID(context.Background(), reg.ID)
	require.NotNil(t, stored.PaymentIntentID)
	assert.Equal(t, "pi_1", *stored.PaymentIntentID)
	gw.AssertExpectations(t)
}

func TestCreateIntent_Guards(t *testing.T) {
	store, gw, _, svc := newPaymentFixture()
	ctx := context.Background()
	paid := store.seed(model.Registration{EventID: "evt", UserID: parent.UserID, TotalCents: 0, Status: model.RegistrationPaid})
	pending := store.seed(model.Registration{EventID: "evt", UserID: parent.UserID, TotalCents: 1500, Status: model.RegistrationPending})

	_, err := svc.CreateIntent(ctx, parent, paid.ID)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	_, err = svc.CreateIntent(ctx, other, pending.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "other families cannot see the registration")

	_, err = svc.CreateIntent(ctx, nil, pending.ID)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	gw.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	disabled := NewPaymentService(store.registrations(), store, nil, Common{})
	_, err = disabled.CreateIntent(ctx, parent, pending.ID)
	assert.Equal(t, 503, apperr.Status(err))
}

func TestHandleWebhook_MarksPaid(t *testing.T) {
	store, gw, pub, svc := newPaymentFixture()
	pi := "pi_7"
	reg := store.seed(model.Registration{
		EventID: "evt", UserID: parent.UserID, UserEmail: parent.Email, Quantity: 1,
		TotalCents: 1500, Status: model.RegistrationPending, PaymentIntentID: &pi,
	})
	gw.On("ParseWebhook", []byte("payload"), "sig").
		Return(&payment.Succeeded{PaymentIntentID: pi, RegistrationID: reg.ID, AmountCents: 1500}, nil).Twice()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return m.Kind == notify.RegistrationPaid && m.Title == "Winter Concert" && m.ReferenceID == reg.ID
	})).Return(nil).Once()

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("payload"), "sig"))
	stored, _ := store.registrations().GetByID(context.Background(), reg.ID)
	assert.Equal(t, model.RegistrationPaid, stored.Status)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("payload"), "sig"), "redelivery is harmless")
	pub.AssertExpectations(t)
}

func TestHandleWebhook_Errors(t *testing.T) {
	_, gw, _, svc := newPaymentFixture()
	gw.On("ParseWebhook", []byte("forged"), "bad").Return(nil, payment.ErrInvalidSignature).Once()
	gw.On("ParseWebhook", []byte("refund"), "ok").Return(nil, nil).Once()

	err := svc.HandleWebhook(context.Background(), []byte("forged"), "bad")
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte("refund"), "ok"))
}

func TestHandleWebhook_FlagsPaymentsNeedingReconciliation(t *testing.T) {
	store := newMemStore(testEvent("evt", nil, 1500))
	gw := &mockGateway{}
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	var logs bytes.Buffer
	svc := NewPaymentService(store.registrations(), store, gw, Common{Log: logger.NewStd(&logs), Publisher: pub})
	ctx := context.Background()

	piShort, piCancelled := "pi_short", "pi_cancelled"
	short := store.seed(model.Registration{
		EventID: "evt", UserID: parent.UserID, Quantity: 2, TotalCents: 3000,
		Status: model.RegistrationPending, PaymentIntentID: &piShort,
	})
	cancelled := store.seed(model.Registration{
		EventID: "evt", UserID: parent.UserID, Quantity: 1, TotalCents: 1500,
		Status: model.RegistrationCancelled, PaymentIntentID: &piCancelled,
	})
	gw.On("ParseWebhook", []byte("short"), "sig").
		Return(&payment.Succeeded{PaymentIntentID: piShort, RegistrationID: short.ID, AmountCents: 1500}, nil)
	gw.On("ParseWebhook", []byte("cancelled"), "sig").
		Return(&payment.Succeeded{PaymentIntentID: piCancelled, RegistrationID: cancelled.ID, AmountCents: 1500}, nil)

	require.NoError(t, svc.HandleWebhook(ctx, []byte("short"), "sig"))
	assert.Contains(t, logs.String(), "ERROR payment amount differs from registration total")
	assert.Contains(t, logs.String(), "amount_cents=1500")
	assert.Contains(t, logs.String(), "total_cents=3000")

	logs.Reset()
	require.NoError(t, svc.HandleWebhook(ctx, []byte("cancelled"), "sig"))
	assert.Contains(t, logs.String(), "ERROR payment received for registration not awaiting payment")
	assert.Contains(t, logs.String(), "status=cancelled")

	logs.Reset()
	require.NoError(t, svc.HandleWebhook(ctx, []byte("short"), "sig"), "redelivery of an applied payment")
	assert.Contains(t, logs.String(), "INFO payment already applied")
	assert.NotContains(t, logs.String(), "ERROR")
}
