package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/school-portal/internal/model"
)

const (
	familyColumns  = `id, primary_user_id, secondary_user_id, address, phone, created_at, updated_at`
	studentColumns = `id, family_id, name, to_char(dob, 'YYYY-MM-DD'), grade, created_at, updated_at`
)

func scanFamily(row pgx.Row) (*model.Family, error) {
	var f model.Family
	err := row.Scan(&f.ID, &f.PrimaryUserID, &f.SecondaryUserID, &f.Address, &f.Phone, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	var s model.Student
	err := row.Scan(&s.ID, &s.FamilyID, &s.Name, &s.DOB, &s.Grade, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ProfileRepository handles persistence for parent profiles, families and
// their students.
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetUser returns the profile of a signed-in user.
func (r *ProfileRepository) GetUser(ctx context.Context, id string) (*model.UserProfile, error) {
	var u model.UserProfile
	err := r.db.QueryRow(ctx,
		`SELECT id, email, name, created_at, updated_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("user")
		}
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

// UpsertUser stores u, replacing the email and name of an existing profile.
func (r *ProfileRepository) UpsertUser(ctx context.Context, u *model.UserProfile) (*model.UserProfile, error) {
	now := time.Now().UTC()
	var out model.UserProfile
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (id, email, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = EXCLUDED.updated_at
		 RETURNING id, email, name, created_at, updated_at`,
		u.ID, u.Email, u.Name, now,
	).Scan(&out.ID, &out.Email, &out.Name, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "upsert user")
	}
	return &out, nil
}

// FamilyByUser returns the family userID is a primary or secondary parent of.
func (r *ProfileRepository) FamilyByUser(ctx context.Context, userID string) (*model.Family, error) {
	f, err := scanFamily(r.db.QueryRow(ctx,
		`SELECT `+familyColumns+` FROM families
		 WHERE primary_user_id = $1 OR secondary_user_id = $1
		 ORDER BY primary_user_id = $1 DESC
		 LIMIT 1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("family")
		}
		return nil, errors.Wrap(err, "get family")
	}
	return f, nil
}

// CreateFamily inserts f. When the primary parent already has a family,
// that family is returned instead.
func (r *ProfileRepository) CreateFamily(ctx context.Context, f *model.Family) (*model.Family, error) {
	now := time.Now().UTC()
	f.ID = newID()
	f.CreatedAt, f.UpdatedAt = now, now
	created, err := scanFamily(r.db.QueryRow(ctx,
		`INSERT INTO families (`+familyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (primary_user_id) DO NOTHING
		 RETURNING `+familyColumns,
		f.ID, f.PrimaryUserID, f.SecondaryUserID, f.Address, f.Phone, f.CreatedAt, f.UpdatedAt,
	))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "insert family")
	}
	return r.FamilyByUser(ctx, f.PrimaryUserID)
}

// UpdateFamily saves the household details of f.
func (r *ProfileRepository) UpdateFamily(ctx context.Context, f *model.Family) error {
	f.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx,
		`UPDATE families SET address = $2, phone = $3, updated_at = $4 WHERE id = $1`,
		f.ID, f.Address, f.Phone, f.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "update family")
	}
	if tag.RowsAffected() == 0 {
		return notFound("family")
	}
	return nil
}

// Students returns the students of a family, oldest first.
func (r *ProfileRepository) Students(ctx context.Context, familyID string) ([]model.Student, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE family_id = $1 ORDER BY dob, name`, familyID)
	if err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan student")
		}
		students = append(students, *s)
	}
	return students, errors.Wrap(rows.Err(), "list students")
}

// Student returns a single student.
func (r *ProfileRepository) Student(ctx context.Context, id string) (*model.Student, error) {
	if !validID(id) {
		return nil, notFound("student")
	}
	s, err := scanStudent(r.db.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("student")
		}
		return nil, errors.Wrap(err, "get student")
	}
	return s, nil
}

// CreateStudent inserts s.
func (r *ProfileRepository) CreateStudent(ctx context.Context, s *model.Student) (*model.Student, error) {
	now := time.Now().UTC()
	s.ID = newID()
	s.CreatedAt, s.UpdatedAt = now, now
	_, err := r.db.Exec(ctx,
		`INSERT INTO students (id, family_id, name, dob, grade, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::date, $5, $6, $7)`,
		s.ID, s.FamilyID, s.Name, s.DOB, s.Grade, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert student")
	}
	return s, nil
}

// UpdateStudent saves the name, date of birth and grade of s.
func (r *ProfileRepository) UpdateStudent(ctx context.Context, s *model.Student) error {
	s.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx,
		`UPDATE students SET name = $2, dob = $3::date, grade = $4, updated_at = $5 WHERE id = $1`,
		s.ID, s.Name, s.DOB, s.Grade, s.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "update student")
	}
	if tag.RowsAffected() == 0 {
		return notFound("student")
	}
	return nil
}

// DeleteStudent removes a student. Registrations naming the student keep
// their seats and lose the reference.
func (r *ProfileRepository) DeleteStudent(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound("student")
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete student")
	}
	if tag.RowsAffected() == 0 {
		return notFound("student")
	}
	return nil
}
