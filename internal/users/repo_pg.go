package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ui-agent-backend/internal/shared/storage/db"
)

const (
	emailConstraint      = "users_email_lower_unique"
	externalIDConstraint = "users_auth0_id_unique"

	userColumns = `id, email, auth0_id, first_name, last_name, nickname, picture, email_verified, is_active, last_login, created_at, updated_at`
)

// PGRepo stores users in Postgres. GivenName maps to first_name and
// FamilyName to last_name.
type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

func (r *PGRepo) GetByID(ctx context.Context, id string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
}

func (r *PGRepo) GetByExternalID(ctx context.Context, externalID string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE auth0_id = $1 LIMIT 1`, externalID)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`, email)
}

func (r *PGRepo) List(ctx context.Context, offset, limit int) ([]User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2`, offset, limit)
	} else {
		rows, err = r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id OFFSET $1`, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *PGRepo) Insert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, auth0_id, first_name, last_name, nickname, picture, email_verified, is_active, last_login, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.ExternalID),
		nullableString(user.GivenName),
		nullableString(user.FamilyName),
		nullableString(user.Nickname),
		nullableString(user.Picture),
		user.EmailVerified,
		user.Active,
		nullableTime(user.LastLogin),
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapWriteError(err)
}

// Update rewrites the mutable columns. The auth0_id guard keeps an existing
// link from being replaced or cleared.
func (r *PGRepo) Update(ctx context.Context, user User) error {
	const query = `
UPDATE users SET
  email = $2,
  auth0_id = $3,
  first_name = $4,
  last_name = $5,
  nickname = $6,
  picture = $7,
  email_verified = $8,
  is_active = $9,
  last_login = $10,
  updated_at = GREATEST(updated_at, $11)
WHERE id = $1 AND (auth0_id IS NULL OR auth0_id = $3)`
	res, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.ExternalID),
		nullableString(user.GivenName),
		nullableString(user.FamilyName),
		nullableString(user.Nickname),
		nullableString(user.Picture),
		user.EmailVerified,
		user.Active,
		nullableTime(user.LastLogin),
		user.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleWrite
	}
	return nil
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg any) (User, error) {
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (User, error) {
	var user User
	var externalID, givenName, familyName, nickname, picture sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Email,
		&externalID,
		&givenName,
		&familyName,
		&nickname,
		&picture,
		&user.EmailVerified,
		&user.Active,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	user.ExternalID = externalID.String
	user.GivenName = givenName.String
	user.FamilyName = familyName.String
	user.Nickname = nickname.String
	user.Picture = picture.String
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		user.LastLogin = &t
	}
	return user, nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	constraint, ok := db.UniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case emailConstraint:
		return &DuplicateError{Field: FieldEmail}
	case externalIDConstraint:
		return &DuplicateError{Field: FieldExternalID}
	default:
		return fmt.Errorf("%w: %s", db.ErrUniqueViolation, constraint)
	}
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
