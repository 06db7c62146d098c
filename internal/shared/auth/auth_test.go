package auth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

func TestHMACSignVerifyRoundTrip(t *testing.T) {
	h, err := NewHMACVerifier("test-secret", time.Hour, "")
	if err != nil {
		t.Fatalf("NewHMACVerifier: %v", err)
	}
	verified := true
	token, err := h.Sign(SessionClaims{
		Subject:       "auth0|abc",
		Email:         "ada@example.com",
		EmailVerified: &verified,
		GivenName:     "Ada",
		Roles:         []string{"admin"},
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	p, err := h.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.Subject != "auth0|abc" || p.Email != "ada@example.com" {
		t.Fatalf("unexpected principal %+v", p)
	}
	if !p.HasRole("ADMIN") {
		t.Fatalf("expected admin role, got %v", p.Roles)
	}
	if p.Claims["given_name"] != "Ada" || p.Claims["email_verified"] != true {
		t.Fatalf("expected profile claims to survive, got %v", p.Claims)
	}
}

func TestHMACRejectsExpiredAndForeignTokens(t *testing.T) {
	h, _ := NewHMACVerifier("test-secret", time.Minute, "")
	h.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := h.Sign(SessionClaims{Subject: "user-1"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	h.now = time.Now
	if _, err := h.Verify(context.Background(), expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejection, got %v", err)
	}

	other, _ := NewHMACVerifier("other-secret", time.Hour, "")
	foreign, _ := other.Sign(SessionClaims{Subject: "user-1"})
	if _, err := h.Verify(context.Background(), foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature rejection, got %v", err)
	}

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1", "iss": sessionIssuer, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := h.Verify(context.Background(), unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg=none rejection, got %v", err)
	}
}

func TestNewHMACVerifierRequiresSecret(t *testing.T) {
	if _, err := NewHMACVerifier("  ", time.Hour, ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestOIDCVerifierWithStaticKeys(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	const issuer = "https://tenant.example.auth0.com/"
	const audience = "https://api.example.com"

	v := NewOIDCVerifierWithKeys(issuer, audience, "https://example.com/roles",
		&oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}, nil)

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":                       issuer,
		"aud":                       audience,
		"sub":                       "auth0|xyz",
		"email":                     "grace@example.com",
		"https://example.com/roles": []string{"admin", "editor"},
		"iat":                       time.Now().Unix(),
		"exp":                       time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	p, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.Subject != "auth0|xyz" || p.Email != "grace@example.com" || !p.HasRole("editor") {
		t.Fatalf("unexpected principal %+v", p)
	}

	wrongAud, _ := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss": issuer, "aud": "someone-else", "sub": "auth0|xyz",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	if _, err := v.Verify(context.Background(), wrongAud); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected audience rejection, got %v", err)
	}
}

func TestChainVerifierFallsThrough(t *testing.T) {
	h, _ := NewHMACVerifier("test-secret", time.Hour, "")
	token, _ := h.Sign(SessionClaims{Subject: "user-2"})

	other, _ := NewHMACVerifier("other-secret", time.Hour, "")
	chain := ChainVerifier{other, nil, h}
	p, err := chain.Verify(context.Background(), token)
	if err != nil || p.Subject != "user-2" {
		t.Fatalf("expected chain to accept via second verifier, got %+v %v", p, err)
	}
	if _, err := (ChainVerifier{other}).Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	ctx := WithPrincipal(context.Background(), Principal{Subject: "s"})
	p, ok := PrincipalFrom(ctx)
	if !ok || p.Subject != "s" {
		t.Fatalf("expected principal on context")
	}
	if _, ok := PrincipalFrom(context.Background()); ok {
		t.Fatalf("expected no principal on bare context")
	}
}
