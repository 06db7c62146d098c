package users

import (
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const maxSubjectLen = 255

var validate = validator.New()

// IdentityClaims is the normalized provider payload fed to Reconcile. Nil
// optional fields mean the claim was absent and the stored value is kept.
type IdentityClaims struct {
	Subject       string
	Email         string
	EmailVerified *bool
	GivenName     *string
	FamilyName    *string
	Nickname      *string
	Picture       *string
	// Name is a combined display name. It is split into GivenName and
	// FamilyName only when neither structured claim is present.
	Name      string
	LastLogin *time.Time
}

// ClaimsFromMap reads a verified claim set. Older payloads that carry
// first_name/last_name instead of given_name/family_name are accepted.
func ClaimsFromMap(m map[string]any) IdentityClaims {
	c := IdentityClaims{
		Subject:    firstString(m, "sub", "auth0_id"),
		Email:      firstString(m, "email"),
		GivenName:  optional(firstString(m, "given_name", "first_name")),
		FamilyName: optional(firstString(m, "family_name", "last_name")),
		Nickname:   optional(firstString(m, "nickname")),
		Picture:    optional(firstString(m, "picture")),
		Name:       firstString(m, "name"),
	}
	if v, ok := m["email_verified"].(bool); ok {
		c.EmailVerified = &v
	}
	return c
}

// NormalizeClaims validates the required claims, trims and lowercases, and
// applies the display-name split.
func NormalizeClaims(c IdentityClaims) (IdentityClaims, error) {
	c.Subject = strings.TrimSpace(c.Subject)
	switch {
	case c.Subject == "":
		return IdentityClaims{}, &InvalidClaimsError{Field: "sub", Reason: "is required"}
	case len(c.Subject) > maxSubjectLen:
		return IdentityClaims{}, &InvalidClaimsError{Field: "sub", Reason: "is too long"}
	case strings.IndexFunc(c.Subject, unicode.IsSpace) >= 0:
		return IdentityClaims{}, &InvalidClaimsError{Field: "sub", Reason: "must not contain whitespace"}
	}

	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Email == "" {
		return IdentityClaims{}, &InvalidClaimsError{Field: "email", Reason: "is required"}
	}
	if err := validate.Var(c.Email, "email"); err != nil {
		return IdentityClaims{}, &InvalidClaimsError{Field: "email", Reason: "is not a valid address"}
	}

	c.GivenName = trimOptional(c.GivenName)
	c.FamilyName = trimOptional(c.FamilyName)
	c.Nickname = trimOptional(c.Nickname)
	c.Picture = trimOptional(c.Picture)

	if c.GivenName == nil && c.FamilyName == nil {
		if given, rest := splitName(c.Name); given != "" {
			c.GivenName = &given
			c.FamilyName = optional(rest)
		}
	}
	c.Name = ""
	if c.LastLogin != nil {
		t := c.LastLogin.UTC()
		c.LastLogin = &t
	}
	return c, nil
}

// splitName splits on the first space: the first token is the given name and
// the remainder the family name.
func splitName(name string) (given, rest string) {
	given, rest, _ = strings.Cut(strings.TrimSpace(name), " ")
	return given, strings.TrimSpace(rest)
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func trimOptional(p *string) *string {
	if p == nil {
		return nil
	}
	return optional(*p)
}
