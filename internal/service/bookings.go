package service

import (
	"context"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/crm"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/notify"
)

// TourLength is the duration of a campus tour slot.
const TourLength = 45 * time.Minute

// BookingStore persists tour bookings.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) (*model.Booking, error)
}

// BookingService schedules campus tours.
type BookingService struct {
	bookings BookingStore
	location *time.Location
	Common
}

// NewBookingService constructs a BookingService. Requested dates and times
// are interpreted in loc; nil means UTC.
func NewBookingService(bookings BookingStore, loc *time.Location, common Common) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{bookings: bookings, location: loc, Common: common.withDefaults()}
}

// Book stores a pending tour request and marks the family as a prospect.
// CRM failures are logged and never fail the booking.
func (s *BookingService) Book(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.Validator.Struct(req); err != nil {
		return nil, err
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, s.location)
	if err != nil {
		return nil, apperr.Invalid("date and time do not form a valid moment")
	}

	booking, err := s.bookings.Create(ctx, &model.Booking{
		CalendarID: "default",
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		StartAt:    start.UTC(),
		EndAt:      start.Add(TourLength).UTC(),
		Status:     "pending",
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}

	if s.Tracker != nil {
		if _, err := s.Tracker.UpsertFromBooking(ctx, req.Email, req.Name, req.Phone); err != nil {
			s.Log.Error("crm contact upsert failed", err, logger.Fields{"booking_id": booking.ID})
		}
	}
	s.track(ctx, req.Email, crm.TourBooking, map[string]any{
		"booking_id": booking.ID,
		"date":       booking.StartAt.Format(time.RFC3339),
	})
	s.publish(ctx, notify.Message{
		Kind:        notify.BookingRequested,
		Email:       booking.Email,
		Name:        booking.Name,
		ReferenceID: booking.ID,
		StartAt:     booking.StartAt,
	})
	return booking, nil
}
