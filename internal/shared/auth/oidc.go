package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier validates provider-issued bearer tokens against the issuer's
// published keys.
type OIDCVerifier struct {
	verifier   *oidc.IDTokenVerifier
	rolesClaim string
}

// NewOIDCVerifier discovers the issuer and verifies tokens minted for audience.
func NewOIDCVerifier(ctx context.Context, issuer, audience, rolesClaim string) (*OIDCVerifier, error) {
	if issuer == "" || audience == "" {
		return nil, errors.New("oidc verifier requires issuer and audience")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}
	return &OIDCVerifier{
		verifier:   provider.Verifier(&oidc.Config{ClientID: audience}),
		rolesClaim: rolesClaim,
	}, nil
}

// NewOIDCVerifierWithKeys skips discovery and verifies against keys directly.
func NewOIDCVerifierWithKeys(issuer, audience, rolesClaim string, keys oidc.KeySet, cfg *oidc.Config) *OIDCVerifier {
	if cfg == nil {
		cfg = &oidc.Config{}
	}
	if cfg.ClientID == "" {
		cfg.ClientID = audience
	}
	return &OIDCVerifier{
		verifier:   oidc.NewVerifier(issuer, keys, cfg),
		rolesClaim: rolesClaim,
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return Principal{}, ErrInvalidToken
	}
	return principalFromClaims(claims, v.rolesClaim)
}
