// Package repository implements all database queries for the school portal.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// validID reports whether id can be compared against a UUID column.
// Malformed ids can never match a row, so callers treat them as not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(what string) error {
	return apperr.NotFound(what)
}

func newID() string {
	return uuid.New().String()
}
