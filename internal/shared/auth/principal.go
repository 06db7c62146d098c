package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidToken is returned by verifiers for any token they refuse.
var ErrInvalidToken = errors.New("invalid token")

// DefaultRolesClaim is used when no custom roles claim is configured.
const DefaultRolesClaim = "roles"

// Principal is the verified identity behind a request.
type Principal struct {
	Subject string
	Email   string
	Roles   []string
	// Claims holds every verified claim so callers can reconcile the profile.
	Claims map[string]any
}

// HasRole reports whether the principal carries role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// Verifier turns a bearer token into a Principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// ChainVerifier tries each verifier in order and returns the first success.
type ChainVerifier []Verifier

func (c ChainVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	for _, v := range c {
		if v == nil {
			continue
		}
		p, err := v.Verify(ctx, token)
		if err == nil {
			return p, nil
		}
	}
	return Principal{}, ErrInvalidToken
}

func principalFromClaims(claims map[string]any, rolesClaim string) (Principal, error) {
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return Principal{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	return Principal{
		Subject: sub,
		Email:   email,
		Roles:   RolesFromClaims(claims, rolesClaim),
		Claims:  claims,
	}, nil
}

// RolesFromClaims extracts roles from claims under rolesClaim.
func RolesFromClaims(claims map[string]any, rolesClaim string) []string {
	if rolesClaim == "" {
		rolesClaim = DefaultRolesClaim
	}
	return rolesOf(claims[rolesClaim])
}

func rolesOf(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(v)
	default:
		return nil
	}
}

type principalKey struct{}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored on ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
