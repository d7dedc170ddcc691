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

const contactColumns = `id, email, first_name, last_name, phone, status, source, grade_interest,
	tags, opted_out, engagement_score, created_at, updated_at`

func scanContact(row pgx.Row) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.Status, &c.Source,
		&c.GradeInterest, &c.Tags, &c.OptedOut, &c.EngagementScore, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}

// ContactRepository handles persistence for CRM contacts, their
// interactions and staff notes.
type ContactRepository struct {
	db *pgxpool.Pool
}

// NewContactRepository constructs a ContactRepository.
func NewContactRepository(db *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{db: db}
}

func prepareContact(c *model.Contact) {
	now := time.Now().UTC()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Status == "" {
		c.Status = model.ContactLead
	}
}

// FindOrCreate returns the contact with c.Email, inserting c when none exists.
func (r *ContactRepository) FindOrCreate(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	prepareContact(c)
	created, err := scanContact(r.db.QueryRow(ctx,
		`INSERT INTO crm_contacts (`+contactColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING `+contactColumns,
		c.ID, c.Email, c.FirstName, c.LastName, c.Phone, c.Status, c.Source, c.GradeInterest,
		c.Tags, c.OptedOut, c.EngagementScore, c.CreatedAt, c.UpdatedAt,
	))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "insert contact")
	}
	return r.GetByEmail(ctx, c.Email)
}

// UpsertProspect inserts c or fills in the blanks of the existing contact
// with the same email. A lead is promoted to prospect; later stages are kept.
func (r *ContactRepository) UpsertProspect(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	prepareContact(c)
	out, err := scanContact(r.db.QueryRow(ctx,
		`INSERT INTO crm_contacts (`+contactColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (email) DO UPDATE SET
		     first_name = COALESCE(crm_contacts.first_name, EXCLUDED.first_name),
		     last_name  = COALESCE(crm_contacts.last_name, EXCLUDED.last_name),
		     phone      = COALESCE(EXCLUDED.phone, crm_contacts.phone),
		     status     = CASE WHEN crm_contacts.status = 'lead' THEN EXCLUDED.status ELSE crm_contacts.status END,
		     updated_at = EXCLUDED.updated_at
		 RETURNING `+contactColumns,
		c.ID, c.Email, c.FirstName, c.LastName, c.Phone, c.Status, c.Source, c.GradeInterest,
		c.Tags, c.OptedOut, c.EngagementScore, c.CreatedAt, c.UpdatedAt,
	))
	if err != nil {
		return nil, errors.Wrap(err, "upsert contact")
	}
	return out, nil
}

// Create inserts a contact entered by staff. Duplicate emails are a conflict.
func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	prepareContact(c)
	_, err := r.db.Exec(ctx,
		`INSERT INTO crm_contacts (`+contactColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.Email, c.FirstName, c.LastName, c.Phone, c.Status, c.Source, c.GradeInterest,
		c.Tags, c.OptedOut, c.EngagementScore, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("a contact with email %q already exists", c.Email)
		}
		return nil, errors.Wrap(err, "insert contact")
	}
	return c, nil
}

// AddInteraction appends an interaction to a contact's history.
func (r *ContactRepository) AddInteraction(ctx context.Context, in *model.Interaction) error {
	in.ID = newID()
	if in.OccurredAt.IsZero() {
		in.OccurredAt = time.Now().UTC()
	}
	if in.Details == nil {
		in.Details = map[string]any{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO crm_interactions (id, contact_id, type, details, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		in.ID, in.ContactID, in.Type, in.Details, in.OccurredAt,
	)
	return errors.Wrap(err, "insert interaction")
}

// AddScore increments the engagement score in place so concurrent
// interactions never lose an update.
func (r *ContactRepository) AddScore(ctx context.Context, contactID string, delta int) (int, error) {
	var score int
	err := r.db.QueryRow(ctx,
		`UPDATE crm_contacts SET engagement_score = engagement_score + $2, updated_at = $3
		 WHERE id = $1
		 RETURNING engagement_score`,
		contactID, delta, time.Now().UTC(),
	).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFound("contact")
		}
		return 0, errors.Wrap(err, "update engagement score")
	}
	return score, nil
}

// List returns contacts matching f, newest first.
func (r *ContactRepository) List(ctx context.Context, f model.ContactFilter) ([]model.Contact, error) {
	var where []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Source != "" {
		args = append(args, f.Source)
		where = append(where, fmt.Sprintf("source = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)", n, n, n))
	}
	if len(f.Tags) > 0 {
		args = append(args, f.Tags)
		where = append(where, fmt.Sprintf("tags @> $%d", len(args)))
	}

	query := `SELECT ` + contactColumns + ` FROM crm_contacts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list contacts")
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan contact")
		}
		contacts = append(contacts, *c)
	}
	return contacts, errors.Wrap(rows.Err(), "list contacts")
}

// GetByID returns a single contact.
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	if !validID(id) {
		return nil, notFound("contact")
	}
	c, err := scanContact(r.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM crm_contacts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("contact")
		}
		return nil, errors.Wrap(err, "get contact")
	}
	return c, nil
}

// GetByEmail returns the contact with the given (normalised) email.
func (r *ContactRepository) GetByEmail(ctx context.Context, email string) (*model.Contact, error) {
	c, err := scanContact(r.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM crm_contacts WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("contact")
		}
		return nil, errors.Wrap(err, "get contact by email")
	}
	return c, nil
}

// Update writes the editable columns of c.
func (r *ContactRepository) Update(ctx context.Context, c *model.Contact) error {
	c.UpdatedAt = time.Now().UTC()
	if c.Tags == nil {
		c.Tags = []string{}
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE crm_contacts SET first_name = $2, last_name = $3, phone = $4, status = $5,
		        grade_interest = $6, tags = $7, opted_out = $8, updated_at = $9
		 WHERE id = $1`,
		c.ID, c.FirstName, c.LastName, c.Phone, c.Status, c.GradeInterest, c.Tags, c.OptedOut, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "update contact")
	}
	if tag.RowsAffected() == 0 {
		return notFound("contact")
	}
	return nil
}

// Interactions returns a contact's history, newest first.
func (r *ContactRepository) Interactions(ctx context.Context, contactID string) ([]model.Interaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, contact_id, type, details, occurred_at FROM crm_interactions
		 WHERE contact_id = $1
		 ORDER BY occurred_at DESC`, contactID)
	if err != nil {
		return nil, errors.Wrap(err, "list interactions")
	}
	defer rows.Close()

	out := []model.Interaction{}
	for rows.Next() {
		var in model.Interaction
		if err := rows.Scan(&in.ID, &in.ContactID, &in.Type, &in.Details, &in.OccurredAt); err != nil {
			return nil, errors.Wrap(err, "scan interaction")
		}
		out = append(out, in)
	}
	return out, errors.Wrap(rows.Err(), "list interactions")
}

// AddNote attaches a staff note to a contact.
func (r *ContactRepository) AddNote(ctx context.Context, n *model.Note) (*model.Note, error) {
	n.ID = newID()
	n.CreatedAt = time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO crm_notes (id, contact_id, note, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.ContactID, n.Body, n.CreatedBy, n.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert note")
	}
	return n, nil
}

// Notes returns a contact's notes, newest first.
func (r *ContactRepository) Notes(ctx context.Context, contactID string) ([]model.Note, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, contact_id, note, created_by, created_at FROM crm_notes
		 WHERE contact_id = $1
		 ORDER BY created_at DESC`, contactID)
	if err != nil {
		return nil, errors.Wrap(err, "list notes")
	}
	defer rows.Close()

	out := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.ContactID, &n.Body, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan note")
		}
		out = append(out, n)
	}
	return out, errors.Wrap(rows.Err(), "list notes")
}
