package users

import (
	"strings"
	"time"
)

// User is one local account. ExternalID is the identity provider subject and
// is empty until the account is linked.
type User struct {
	ID            string
	Email         string
	ExternalID    string
	GivenName     string
	FamilyName    string
	Nickname      string
	Picture       string
	EmailVerified bool
	Active        bool
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName joins the name fragments.
func (u User) FullName() string {
	return strings.TrimSpace(u.GivenName + " " + u.FamilyName)
}

// Page is one slice of a user listing.
type Page struct {
	Users []User
	Total int
}

// CreateInput is an administrative user creation.
type CreateInput struct {
	Email      string
	ExternalID string
	GivenName  string
	FamilyName string
	Nickname   string
	Picture    string
}

// UpdateInput is a partial administrative edit. Nil fields are left alone.
type UpdateInput struct {
	Email      *string
	GivenName  *string
	FamilyName *string
	Nickname   *string
	Picture    *string
	Active     *bool
}
