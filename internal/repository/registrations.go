package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
)

const registrationColumns = `id, event_id, user_id, user_email, student_id, qty, total_cents,
	status, payment_intent_id, created_at, updated_at`

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.UserEmail, &reg.StudentID, &reg.Quantity,
		&reg.TotalCents, &reg.Status, &reg.PaymentIntentID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func collectRegistrations(rows pgx.Rows) ([]model.Registration, error) {
	defer rows.Close()
	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan registration")
		}
		regs = append(regs, *reg)
	}
	return regs, errors.Wrap(rows.Err(), "read registrations")
}

// AdmitFunc inspects a locked event and the registrations currently holding
// seats, and returns the registration to insert or an error to abort.
type AdmitFunc func(event *model.Event, active []model.Registration) (*model.Registration, error)

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Admit runs the capacity decision and the insert as one transaction.
//
// Checking seats and inserting in two separate statements lets two requests
// for the last seat both see it free and both insert. Locking the event row
// with SELECT … FOR UPDATE first makes every other admission for the same
// event wait until this transaction commits or rolls back, so the decision
// always sees the registrations committed before it.
func (r *RegistrationRepository) Admit(ctx context.Context, eventID string, decide AdmitFunc) (*model.Registration, error) {
	if !validID(eventID) {
		return nil, notFound("event")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}
	// Rollback is a no-op once the transaction has committed.
	defer func() { _ = tx.Rollback(ctx) }()

	event, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("event")
		}
		return nil, errors.Wrap(err, "lock event row")
	}

	rows, err := tx.Query(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE event_id = $1 AND status IN ('pending', 'paid')`, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "load active registrations")
	}
	active, err := collectRegistrations(rows)
	if err != nil {
		return nil, err
	}

	reg, err := decide(event, active)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reg.ID = newID()
	reg.EventID = event.ID
	reg.CreatedAt, reg.UpdatedAt = now, now
	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		reg.ID, reg.EventID, reg.UserID, reg.UserEmail, reg.StudentID, reg.Quantity, reg.TotalCents,
		reg.Status, reg.PaymentIntentID, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert registration")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit transaction")
	}
	return reg, nil
}

// ActiveByEvent returns the registrations currently holding seats.
func (r *RegistrationRepository) ActiveByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE event_id = $1 AND status IN ('pending', 'paid')`, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "list active registrations")
	}
	return collectRegistrations(rows)
}

// ListByEvent returns all registrations for a given event.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE event_id = $1
		 ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "list registrations")
	}
	return collectRegistrations(rows)
}

// ListByUser returns a family's registrations, newest first.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list user registrations")
	}
	return collectRegistrations(rows)
}

// GetByID returns a single registration.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	if !validID(id) {
		return nil, notFound("registration")
	}
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("registration")
		}
		return nil, errors.Wrap(err, "get registration")
	}
	return reg, nil
}

// Cancel releases a registration's seats. Already-cancelled registrations
// are reported as a conflict.
func (r *RegistrationRepository) Cancel(ctx context.Context, id string) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		`UPDATE registrations SET status = 'cancelled', updated_at = $2
		 WHERE id = $1 AND status <> 'cancelled'
		 RETURNING `+registrationColumns, id, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflict("registration is already cancelled")
		}
		return nil, errors.Wrap(err, "cancel registration")
	}
	return reg, nil
}

// SetPaymentIntent links a pending registration to its payment intent.
func (r *RegistrationRepository) SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations SET payment_intent_id = $2, updated_at = $3
		 WHERE id = $1 AND status = 'pending'`, id, paymentIntentID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "set payment intent")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("registration is not awaiting payment")
	}
	return nil
}

// MarkPaid settles the pending registration linked to paymentIntentID.
// It returns nil, nil when no pending registration matches, which makes
// webhook redelivery harmless.
func (r *RegistrationRepository) MarkPaid(ctx context.Context, paymentIntentID string) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		`UPDATE registrations SET status = 'paid', updated_at = $2
		 WHERE payment_intent_id = $1 AND status = 'pending'
		 RETURNING `+registrationColumns, paymentIntentID, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "mark registration paid")
	}
	return reg, nil
}
