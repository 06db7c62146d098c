package users

import (
	"errors"
	"fmt"

	"ui-agent-backend/internal/shared/storage/db"
)

// Conflict fields.
const (
	FieldEmail      = "email"
	FieldExternalID = "externalId"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrStaleWrite means a guarded update matched no row because the
	// record's linkage changed after it was read.
	ErrStaleWrite = errors.New("user changed concurrently")
)

// InvalidClaimsError reports a missing or malformed required claim.
type InvalidClaimsError struct {
	Field  string
	Reason string
}

func (e *InvalidClaimsError) Error() string {
	return fmt.Sprintf("invalid claims: %s %s", e.Field, e.Reason)
}

// ConflictError reports a write rejected by a uniqueness rule. Retryable
// conflicts come from a concurrent writer and resolve on a fresh reconcile.
type ConflictError struct {
	Field     string
	Retryable bool
	Err       error
}

func (e *ConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conflict on %s: %v", e.Field, e.Err)
	}
	return "conflict on " + e.Field
}

func (e *ConflictError) Unwrap() error { return e.Err }

// DuplicateError is returned by repositories when a unique key is taken.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return "duplicate " + e.Field }

func (e *DuplicateError) Unwrap() error { return db.ErrUniqueViolation }

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
