package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres unique", &pgconn.PgError{Code: "23505"}, true},
		{"postgres other", &pgconn.PgError{Code: "23503"}, false},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, true},
		{"sqlite message", errors.New("UNIQUE constraint failed: friendships.user_id, friendships.friend_id"), true},
		{"postgres message", errors.New(`duplicate key value violates unique constraint "idx_friendship_edge"`), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("isUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsMissingTable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres undefined table", &pgconn.PgError{Code: "42P01"}, true},
		{"postgres other", &pgconn.PgError{Code: "23505"}, false},
		{"sqlite message", errors.New("no such table: email_events"), true},
		{"postgres message", errors.New(`relation "email_events" does not exist`), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsMissingTable(tc.err); got != tc.want {
				t.Fatalf("IsMissingTable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
