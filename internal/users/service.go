package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"ui-agent-backend/internal/shared/metrics"
	"ui-agent-backend/internal/shared/telemetry"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ReconcileResult is a reconciled record and what happened to it.
type ReconcileResult struct {
	User    User
	Outcome string
}

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

// Reconcile maps verified provider claims onto exactly one local user:
// lookup by subject, then by email for one-time linkage, else create.
func (s *Service) Reconcile(ctx context.Context, raw IdentityClaims) (ReconcileResult, error) {
	if s == nil || s.Repo == nil {
		return ReconcileResult{}, errors.New("users service not configured")
	}
	claims, err := NormalizeClaims(raw)
	if err != nil {
		metrics.IncReconcile(metrics.OutcomeInvalid)
		telemetry.Warn("users.reconcile", map[string]any{"outcome": metrics.OutcomeInvalid, "error": err.Error()})
		return ReconcileResult{}, err
	}

	res, err := s.reconcile(ctx, claims)
	fields := map[string]any{"subject": claims.Subject}
	if err != nil {
		outcome := metrics.OutcomeError
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			outcome = metrics.OutcomeConflict
			fields["field"] = conflict.Field
			fields["retryable"] = conflict.Retryable
		}
		fields["outcome"] = outcome
		fields["error"] = err.Error()
		metrics.IncReconcile(outcome)
		telemetry.Warn("users.reconcile", fields)
		return ReconcileResult{}, err
	}
	fields["outcome"] = res.Outcome
	fields["user_id"] = res.User.ID
	metrics.IncReconcile(res.Outcome)
	telemetry.Info("users.reconcile", fields)
	return res, nil
}

func (s *Service) reconcile(ctx context.Context, c IdentityClaims) (ReconcileResult, error) {
	existing, err := s.Repo.GetByExternalID(ctx, c.Subject)
	if err == nil {
		next, changed := applyClaims(existing, c)
		if !changed {
			return ReconcileResult{User: existing, Outcome: metrics.OutcomeUnchanged}, nil
		}
		return s.save(ctx, existing, next, metrics.OutcomeUpdated)
	}
	if !errors.Is(err, ErrNotFound) {
		return ReconcileResult{}, err
	}

	byEmail, err := s.Repo.GetByEmail(ctx, c.Email)
	if err == nil {
		if byEmail.ExternalID != "" {
			// Linked under the same subject means another request won the race.
			return ReconcileResult{}, &ConflictError{
				Field:     FieldEmail,
				Retryable: byEmail.ExternalID == c.Subject,
				Err:       errors.New("email is linked to another identity"),
			}
		}
		next, _ := applyClaims(byEmail, c)
		next.ExternalID = c.Subject
		return s.save(ctx, byEmail, next, metrics.OutcomeLinked)
	}
	if !errors.Is(err, ErrNotFound) {
		return ReconcileResult{}, err
	}

	now := s.now()
	user := User{
		ID:         uuid.NewString(),
		Email:      c.Email,
		ExternalID: c.Subject,
		GivenName:  deref(c.GivenName),
		FamilyName: deref(c.FamilyName),
		Nickname:   deref(c.Nickname),
		Picture:    deref(c.Picture),
		Active:     true,
		LastLogin:  c.LastLogin,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if c.EmailVerified != nil {
		user.EmailVerified = *c.EmailVerified
	}
	if err := s.Repo.Insert(ctx, user); err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			return ReconcileResult{}, &ConflictError{Field: dup.Field, Retryable: true, Err: err}
		}
		return ReconcileResult{}, err
	}
	return ReconcileResult{User: user, Outcome: metrics.OutcomeCreated}, nil
}

// save persists next over prev. A stale linkage or a duplicate subject means
// a concurrent writer got there first.
func (s *Service) save(ctx context.Context, prev, next User, outcome string) (ReconcileResult, error) {
	next.UpdatedAt = s.stamp(prev)
	if err := s.Repo.Update(ctx, next); err != nil {
		if errors.Is(err, ErrStaleWrite) {
			return ReconcileResult{}, &ConflictError{Field: FieldExternalID, Retryable: true, Err: err}
		}
		var dup *DuplicateError
		if errors.As(err, &dup) {
			return ReconcileResult{}, &ConflictError{Field: dup.Field, Retryable: dup.Field == FieldExternalID, Err: err}
		}
		return ReconcileResult{}, err
	}
	return ReconcileResult{User: next, Outcome: outcome}, nil
}

// applyClaims copies present claims that differ from u. Absent claims never
// clear stored data.
func applyClaims(u User, c IdentityClaims) (User, bool) {
	changed := false
	setString := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	if c.Email != "" && !strings.EqualFold(u.Email, c.Email) {
		u.Email = c.Email
		changed = true
	}
	setString(&u.GivenName, c.GivenName)
	setString(&u.FamilyName, c.FamilyName)
	setString(&u.Nickname, c.Nickname)
	setString(&u.Picture, c.Picture)
	if c.EmailVerified != nil && u.EmailVerified != *c.EmailVerified {
		u.EmailVerified = *c.EmailVerified
		changed = true
	}
	if c.LastLogin != nil && (u.LastLogin == nil || !u.LastLogin.Equal(*c.LastLogin)) {
		t := *c.LastLogin
		u.LastLogin = &t
		changed = true
	}
	return u, changed
}

// Create adds a user administratively. The external id is optional.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Var(email, "required,email"); err != nil {
		return User{}, invalidInput("email is not a valid address")
	}
	externalID := strings.TrimSpace(in.ExternalID)
	if len(externalID) > maxSubjectLen || strings.ContainsAny(externalID, " \t\r\n") {
		return User{}, invalidInput("externalId is malformed")
	}
	now := s.now()
	user := User{
		ID:         uuid.NewString(),
		Email:      email,
		ExternalID: externalID,
		GivenName:  strings.TrimSpace(in.GivenName),
		FamilyName: strings.TrimSpace(in.FamilyName),
		Nickname:   strings.TrimSpace(in.Nickname),
		Picture:    strings.TrimSpace(in.Picture),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Insert(ctx, user); err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			return User{}, &ConflictError{Field: dup.Field, Err: err}
		}
		return User{}, err
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return User{}, invalidInput("id must be a UUID")
	}
	return s.Repo.GetByID(ctx, parsed.String())
}

// GetByIdentifier treats a UUID as an internal id and anything else as an
// external id.
func (s *Service) GetByIdentifier(ctx context.Context, identifier string) (User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return User{}, invalidInput("identifier is required")
	}
	if parsed, err := uuid.Parse(identifier); err == nil {
		return s.Repo.GetByID(ctx, parsed.String())
	}
	return s.Repo.GetByExternalID(ctx, identifier)
}

func (s *Service) GetByExternalID(ctx context.Context, externalID string) (User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return User{}, invalidInput("externalId is required")
	}
	return s.Repo.GetByExternalID(ctx, externalID)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return User{}, invalidInput("email is required")
	}
	return s.Repo.GetByEmail(ctx, email)
}

// List returns one page ordered by creation time.
func (s *Service) List(ctx context.Context, skip, limit int) (Page, error) {
	if skip < 0 {
		return Page{}, invalidInput("skip must be >= 0")
	}
	if limit < 1 || limit > MaxPageSize {
		return Page{}, invalidInput("limit must be between 1 and %d", MaxPageSize)
	}
	list, err := s.Repo.List(ctx, skip, limit)
	if err != nil {
		return Page{}, err
	}
	total, err := s.Repo.Count(ctx)
	if err != nil {
		return Page{}, err
	}
	return Page{Users: list, Total: total}, nil
}

func (s *Service) ListAll(ctx context.Context) ([]User, error) {
	return s.Repo.List(ctx, 0, 0)
}

// Update applies a partial edit. The external id is not editable.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validate.Var(email, "required,email"); err != nil {
			return User{}, invalidInput("email is not a valid address")
		}
		in.Email = &email
	}
	next, changed := applyClaims(current, IdentityClaims{
		Email:      deref(in.Email),
		GivenName:  trimOptionalKeepEmpty(in.GivenName),
		FamilyName: trimOptionalKeepEmpty(in.FamilyName),
		Nickname:   trimOptionalKeepEmpty(in.Nickname),
		Picture:    trimOptionalKeepEmpty(in.Picture),
	})
	if in.Active != nil && next.Active != *in.Active {
		next.Active = *in.Active
		changed = true
	}
	if !changed {
		return current, nil
	}
	return s.write(ctx, current, next)
}

// Deactivate soft-deletes a user. Deactivating an inactive user is a no-op.
func (s *Service) Deactivate(ctx context.Context, id string) (User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !current.Active {
		return current, nil
	}
	next := current
	next.Active = false
	return s.write(ctx, current, next)
}

func (s *Service) write(ctx context.Context, prev, next User) (User, error) {
	next.UpdatedAt = s.stamp(prev)
	if err := s.Repo.Update(ctx, next); err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			return User{}, &ConflictError{Field: dup.Field, Err: err}
		}
		if errors.Is(err, ErrStaleWrite) {
			return User{}, &ConflictError{Field: FieldExternalID, Retryable: true, Err: err}
		}
		return User{}, err
	}
	return next, nil
}

// stamp returns the next updated timestamp, never earlier than the stored one.
func (s *Service) stamp(prev User) time.Time {
	now := s.now()
	if now.Before(prev.UpdatedAt) {
		return prev.UpdatedAt
	}
	return now
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func trimOptionalKeepEmpty(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
