package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/crm"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/notify"
)

func TestBook(t *testing.T) {
	store := &mockBookingStore{}
	tracker := &mockTracker{}
	pub := &mockPublisher{}
	svc := NewBookingService(store, nil, Common{Tracker: tracker, Publisher: pub})

	store.On("Create", mock.Anything, mock.AnythingOfType("*model.Booking")).
		Return(func(_ context.Context, b *model.Booking) *model.Booking {
			b.ID = "bk-1"
			return b
		}, nil).Once()
	tracker.On("UpsertFromBooking", mock.Anything, "sam@example.com", "Sam Rivera", (*string)(nil)).
		Return(&model.Contact{}, nil).Once()
	tracker.On("Track", mock.Anything, "sam@example.com", crm.TourBooking, mock.Anything).
		Return(&model.Contact{}, nil).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return m.Kind == notify.BookingRequested && m.ReferenceID == "bk-1"
	})).Return(nil).Once()

	b, err := svc.Book(context.Background(), model.BookingRequest{
		Name: " Sam Rivera ", Email: "Sam@Example.com", Date: "2026-11-03", Time: "09:30",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 3, 9, 30, 0, 0, time.UTC), b.StartAt)
	assert.Equal(t, 45*time.Minute, b.EndAt.Sub(b.StartAt))
	assert.Equal(t, "pending", b.Status)
	assert.Equal(t, "default", b.CalendarID)
	store.AssertExpectations(t)
	tracker.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestBook_CRMFailureDoesNotFailBooking(t *testing.T) {
	store := &mockBookingStore{}
	tracker := &mockTracker{}
	svc := NewBookingService(store, nil, Common{Tracker: tracker})

	store.On("Create", mock.Anything, mock.Anything).Return(&model.Booking{ID: "bk-2", Email: "a@b.co"}, nil)
	tracker.On("UpsertFromBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	tracker.On("Track", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	b, err := svc.Book(context.Background(), model.BookingRequest{Name: "A", Email: "a@b.co", Date: "2026-11-03", Time: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, "bk-2", b.ID)
}

func TestBook_Validation(t *testing.T) {
	store := &mockBookingStore{}
	svc := NewBookingService(store, nil, Common{})

	_, err := svc.Book(context.Background(), model.BookingRequest{Name: "A", Email: "a@b.co", Date: "2026-02-30", Time: "10:00"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = svc.Book(context.Background(), model.BookingRequest{Email: "a@b.co"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBook_Location(t *testing.T) {
	loc := time.FixedZone("school", -5*3600)
	store := &mockBookingStore{}
	store.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, b *model.Booking) *model.Booking { return b }, nil)
	svc := NewBookingService(store, loc, Common{})

	b, err := svc.Book(context.Background(), model.BookingRequest{Name: "A", Email: "a@b.co", Date: "2026-11-03", Time: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, 14, b.StartAt.Hour())
}
