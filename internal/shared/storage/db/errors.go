package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// ErrUniqueViolation is returned by repositories when a write breaks a unique
// constraint. Wrapped errors keep the constraint name in their message.
var ErrUniqueViolation = errors.New("unique constraint violation")

// UniqueViolation reports whether err is a Postgres unique violation and, if
// so, which constraint fired.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}
