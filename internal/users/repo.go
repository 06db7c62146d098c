package users

import "context"

// Repo is the user store. Insert and Update return *DuplicateError when a
// unique key is taken; Update returns ErrStaleWrite when the stored linkage no
// longer allows the write.
type Repo interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByExternalID(ctx context.Context, externalID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// List returns users ordered by creation; limit <= 0 returns all.
	List(ctx context.Context, offset, limit int) ([]User, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, user User) error
	Update(ctx context.Context, user User) error
}
