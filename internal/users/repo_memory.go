package users

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepo is an in-process Repo with the same uniqueness rules as the
// Postgres schema.
type MemoryRepo struct {
	mu         sync.RWMutex
	users      map[string]User
	order      []string
	byEmail    map[string]string
	byExternal map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:      make(map[string]User),
		byEmail:    make(map[string]string),
		byExternal: make(map[string]string),
	}
}

var _ Repo = (*MemoryRepo)(nil)

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return clone(user), nil
}

func (r *MemoryRepo) GetByExternalID(ctx context.Context, externalID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byExternal[externalID]
	if !ok {
		return User{}, ErrNotFound
	}
	return clone(r.users[id]), nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return clone(r.users[id]), nil
}

func (r *MemoryRepo) List(ctx context.Context, offset, limit int) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(r.order) {
		return []User{}, nil
	}
	end := len(r.order)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]User, 0, end-offset)
	for _, id := range r.order[offset:end] {
		out = append(out, clone(r.users[id]))
	}
	return out, nil
}

func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *MemoryRepo) Insert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return &DuplicateError{Field: "id"}
	}
	if _, ok := r.byEmail[emailKey(user.Email)]; ok {
		return &DuplicateError{Field: FieldEmail}
	}
	if user.ExternalID != "" {
		if _, ok := r.byExternal[user.ExternalID]; ok {
			return &DuplicateError{Field: FieldExternalID}
		}
		r.byExternal[user.ExternalID] = user.ID
	}
	r.byEmail[emailKey(user.Email)] = user.ID
	r.users[user.ID] = clone(user)
	r.order = append(r.order, user.ID)
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return ErrStaleWrite
	}
	if existing.ExternalID != "" && existing.ExternalID != user.ExternalID {
		return ErrStaleWrite
	}
	if id, ok := r.byEmail[emailKey(user.Email)]; ok && id != user.ID {
		return &DuplicateError{Field: FieldEmail}
	}
	if user.ExternalID != "" {
		if id, ok := r.byExternal[user.ExternalID]; ok && id != user.ID {
			return &DuplicateError{Field: FieldExternalID}
		}
		r.byExternal[user.ExternalID] = user.ID
	}
	delete(r.byEmail, emailKey(existing.Email))
	r.byEmail[emailKey(user.Email)] = user.ID

	user.CreatedAt = existing.CreatedAt
	if user.UpdatedAt.Before(existing.UpdatedAt) {
		user.UpdatedAt = existing.UpdatedAt
	}
	r.users[user.ID] = clone(user)
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func clone(u User) User {
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}
