package auth

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	sharedauth "ui-agent-backend/internal/shared/auth"
	"ui-agent-backend/internal/shared/server/respond"
	"ui-agent-backend/internal/shared/telemetry"
	"ui-agent-backend/internal/users"
)

const defaultStateTTL = 5 * time.Minute

// SessionSigner issues session tokens for reconciled users.
type SessionSigner interface {
	Sign(sharedauth.SessionClaims) (string, error)
}

type LoginConfig struct {
	FrontendURL string
	RolesClaim  string
	StateTTL    time.Duration
}

// LoginService runs the browser login: provider redirect, callback,
// user reconciliation and session token hand-off to the frontend.
type LoginService struct {
	provider   Provider
	reconciler users.Reconciler
	signer     SessionSigner
	cfg        LoginConfig
	states     *stateStore
	now        func() time.Time
}

func NewLoginService(provider Provider, reconciler users.Reconciler, signer SessionSigner, cfg LoginConfig) *LoginService {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = defaultStateTTL
	}
	return &LoginService{
		provider:   provider,
		reconciler: reconciler,
		signer:     signer,
		cfg:        cfg,
		states:     newStateStore(),
		now:        time.Now,
	}
}

func (s *LoginService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/login", s.login)
	rg.GET("/auth/callback", s.callback)
}

func (s *LoginService) login(c *gin.Context) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	s.states.put(state, verifier, s.now().Add(s.cfg.StateTTL))
	c.Redirect(http.StatusFound, s.provider.AuthCodeURL(state, verifier))
}

func (s *LoginService) callback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		respond.Error(c, http.StatusBadRequest, "auth_failed", "identity provider rejected the login", gin.H{"error": providerErr})
		return
	}
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	verifier, ok := s.states.consume(state)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	idClaims, err := s.provider.Exchange(ctx, code, verifier)
	if err != nil {
		telemetry.Warn("auth.exchange_failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to complete login", nil)
		return
	}

	claims := users.ClaimsFromMap(idClaims)
	loginAt := s.now().UTC()
	claims.LastLogin = &loginAt
	res, err := users.ReconcileWithRetry(ctx, s.reconciler, claims)
	if err != nil {
		writeReconcileError(c, err)
		return
	}
	c.Set("reconcileOutcome", res.Outcome)

	if !res.User.Active {
		respond.Error(c, http.StatusForbidden, "forbidden", "account is deactivated", nil)
		return
	}

	token, err := s.signer.Sign(sessionClaims(res.User, sharedauth.RolesFromClaims(idClaims, s.cfg.RolesClaim)))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	redirectURL, err := appendToken(s.cfg.FrontendURL, token)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
		return
	}
	c.Redirect(http.StatusFound, redirectURL)
}

func sessionClaims(u users.User, roles []string) sharedauth.SessionClaims {
	verified := u.EmailVerified
	return sharedauth.SessionClaims{
		Subject:       u.ExternalID,
		Email:         u.Email,
		EmailVerified: &verified,
		Name:          u.FullName(),
		GivenName:     u.GivenName,
		FamilyName:    u.FamilyName,
		Nickname:      u.Nickname,
		Picture:       u.Picture,
		Roles:         roles,
	}
}

func writeReconcileError(c *gin.Context, err error) {
	var invalid *users.InvalidClaimsError
	var conflict *users.ConflictError
	switch {
	case errors.As(err, &invalid):
		respond.Error(c, http.StatusBadRequest, "validation_error", invalid.Error(), gin.H{"field": invalid.Field})
	case errors.As(err, &conflict):
		respond.Error(c, http.StatusConflict, "conflict", conflict.Error(), gin.H{"field": conflict.Field, "retryable": conflict.Retryable})
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to reconcile user", nil)
	}
}

// appendToken places the token in the URL fragment.
func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.Fragment = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}
