package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
)

const eventColumns = `id, slug, title, description, type, location, capacity, price_cents,
	start_at, end_at, is_published, created_by, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Slug, &e.Title, &e.Description, &e.Type, &e.Location, &e.Capacity,
		&e.PriceCents, &e.StartAt, &e.EndAt, &e.IsPublished, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event, assigning its ID and timestamps.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) (*model.Event, error) {
	now := time.Now().UTC()
	e.ID = newID()
	e.CreatedAt, e.UpdatedAt = now, now

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.Slug, e.Title, e.Description, e.Type, e.Location, e.Capacity, e.PriceCents,
		e.StartAt, e.EndAt, e.IsPublished, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("an event with slug %q already exists", e.Slug)
		}
		return nil, errors.Wrap(err, "insert event")
	}
	return e, nil
}

// ListPublished returns published events ordered by start time.
func (r *EventRepository) ListPublished(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	where := []string{"is_published = TRUE"}
	var args []any
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.StartFrom != nil {
		args = append(args, *f.StartFrom)
		where = append(where, fmt.Sprintf("start_at >= $%d", len(args)))
	}
	if f.StartTo != nil {
		args = append(args, *f.StartTo)
		where = append(where, fmt.Sprintf("start_at <= $%d", len(args)))
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY start_at ASC`,
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		events = append(events, *e)
	}
	return events, errors.Wrap(rows.Err(), "list events")
}

// GetByID returns a single event or a not-found error.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if !validID(id) {
		return nil, notFound("event")
	}
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("event")
		}
		return nil, errors.Wrap(err, "get event")
	}
	return e, nil
}

// Update writes every editable column of e.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	e.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET title = $2, description = $3, type = $4, location = $5, capacity = $6,
		        price_cents = $7, start_at = $8, end_at = $9, is_published = $10, updated_at = $11
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Type, e.Location, e.Capacity,
		e.PriceCents, e.StartAt, e.EndAt, e.IsPublished, e.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "update event")
	}
	if tag.RowsAffected() == 0 {
		return notFound("event")
	}
	return nil
}

// Delete removes an event and, through the foreign key, its registrations.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound("event")
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete event")
	}
	if tag.RowsAffected() == 0 {
		return notFound("event")
	}
	return nil
}
