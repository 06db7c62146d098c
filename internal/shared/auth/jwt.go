package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionIssuer     = "ui-agent-backend"
	defaultSessionTTL = 24 * time.Hour
)

var errMissingSecret = errors.New("jwt secret not configured")

// SessionClaims is the identity carried by a session token.
type SessionClaims struct {
	Subject       string
	Email         string
	EmailVerified *bool
	Name          string
	GivenName     string
	FamilyName    string
	Nickname      string
	Picture       string
	Roles         []string
}

// HMACVerifier signs and verifies HS256 session tokens.
type HMACVerifier struct {
	secret     []byte
	ttl        time.Duration
	rolesClaim string
	now        func() time.Time
}

// NewHMACVerifier builds a session signer. ttl <= 0 means 24h.
func NewHMACVerifier(secret string, ttl time.Duration, rolesClaim string) (*HMACVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errMissingSecret
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if rolesClaim == "" {
		rolesClaim = DefaultRolesClaim
	}
	return &HMACVerifier{secret: []byte(secret), ttl: ttl, rolesClaim: rolesClaim, now: time.Now}, nil
}

// Sign issues a session token for the given claims.
func (h *HMACVerifier) Sign(c SessionClaims) (string, error) {
	if strings.TrimSpace(c.Subject) == "" {
		return "", errors.New("sub is required")
	}
	now := h.now().UTC()
	claims := jwt.MapClaims{
		"sub": c.Subject,
		"iss": sessionIssuer,
		"iat": now.Unix(),
		"exp": now.Add(h.ttl).Unix(),
	}
	setString(claims, "email", c.Email)
	setString(claims, "name", c.Name)
	setString(claims, "given_name", c.GivenName)
	setString(claims, "family_name", c.FamilyName)
	setString(claims, "nickname", c.Nickname)
	setString(claims, "picture", c.Picture)
	if c.EmailVerified != nil {
		claims["email_verified"] = *c.EmailVerified
	}
	if len(c.Roles) > 0 {
		claims[h.rolesClaim] = c.Roles
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// Verify checks signature, issuer and expiry.
func (h *HMACVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.now),
	)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	return principalFromClaims(claims, h.rolesClaim)
}

func setString(claims jwt.MapClaims, key, value string) {
	if value != "" {
		claims[key] = value
	}
}
