package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/school-portal/internal/model"
)

// BookingRepository handles persistence for campus tour bookings.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create stores a booking.
func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	b.ID = newID()
	b.CreatedAt = time.Now().UTC()
	if b.CalendarID == "" {
		b.CalendarID = "default"
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO bookings (id, calendar_id, booking_name, email, phone, start_at, end_at, status, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.CalendarID, b.Name, b.Email, b.Phone, b.StartAt, b.EndAt, b.Status, b.Notes, b.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert booking")
	}
	return b, nil
}
