// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicateEdge is returned when an insert loses a race against the
// store's unique index. Callers translate it into a typed conflict response
// instead of failing hard.
var ErrDuplicateEdge = errors.New("duplicate edge")

// isUniqueViolation reports whether err is a unique-constraint violation.
// Postgres surfaces SQLSTATE 23505 via pgconn; the sqlite driver used in
// tests only exposes the message text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// IsMissingTable reports whether err means the target table does not exist.
// Postgres surfaces SQLSTATE 42P01; sqlite only the message text. Callers
// that normally swallow storage errors treat this one as fatal, since every
// retry would fail the same way until the schema is migrated.
func IsMissingTable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "does not exist")
}
