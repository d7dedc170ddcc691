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

// FormRepository handles persistence for dynamic forms and their submissions.
type FormRepository struct {
	db *pgxpool.Pool
}

// NewFormRepository constructs a FormRepository.
func NewFormRepository(db *pgxpool.Pool) *FormRepository {
	return &FormRepository{db: db}
}

// Create stores a form definition.
func (r *FormRepository) Create(ctx context.Context, f *model.Form) (*model.Form, error) {
	f.ID = newID()
	f.CreatedAt = time.Now().UTC()
	if f.Schema.Fields == nil {
		f.Schema.Fields = []model.FormField{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO forms (id, slug, title, schema, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.Slug, f.Title, f.Schema, f.IsActive, f.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("a form with slug %q already exists", f.Slug)
		}
		return nil, errors.Wrap(err, "insert form")
	}
	return f, nil
}

// GetActiveBySlug returns an active form. Inactive forms are reported as missing.
func (r *FormRepository) GetActiveBySlug(ctx context.Context, slug string) (*model.Form, error) {
	var f model.Form
	err := r.db.QueryRow(ctx,
		`SELECT id, slug, title, schema, is_active, created_at FROM forms
		 WHERE slug = $1 AND is_active = TRUE`, slug,
	).Scan(&f.ID, &f.Slug, &f.Title, &f.Schema, &f.IsActive, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("form")
		}
		return nil, errors.Wrap(err, "get form")
	}
	return &f, nil
}

// CreateSubmission stores a set of answers to a form.
func (r *FormRepository) CreateSubmission(ctx context.Context, s *model.FormSubmission) (*model.FormSubmission, error) {
	s.ID = newID()
	s.CreatedAt = time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO form_submissions (id, form_id, data, contact_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.FormID, s.Data, s.ContactID, s.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert form submission")
	}
	return s, nil
}
