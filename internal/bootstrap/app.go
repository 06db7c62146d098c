package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	loginauth "ui-agent-backend/internal/auth"
	"ui-agent-backend/internal/graphql"
	"ui-agent-backend/internal/jobs"
	"ui-agent-backend/internal/services/health"
	"ui-agent-backend/internal/shared/auth"
	"ui-agent-backend/internal/shared/config"
	"ui-agent-backend/internal/shared/metrics"
	"ui-agent-backend/internal/shared/server"
	"ui-agent-backend/internal/shared/server/middleware"
	"ui-agent-backend/internal/shared/storage/db"
	"ui-agent-backend/internal/shared/telemetry"
	"ui-agent-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	UsersRepo    users.Repo
	JobsRepo     jobs.Repo
	UsersService *users.Service
	JobsService  *jobs.Service
	Sessions     *auth.HMACVerifier
	Verifier     auth.Verifier
	Login        *loginauth.LoginService
}

// Hooks lets callers replace external collaborators, mainly in tests.
type Hooks struct {
	Connect     func(ctx context.Context, cfg config.Config) (*sql.DB, error)
	Migrate     func(ctx context.Context, database *sql.DB) error
	OIDC        func(ctx context.Context, cfg config.Config) (auth.Verifier, error)
	Provider    func(ctx context.Context, cfg config.Config) (loginauth.Provider, error)
	RateLimiter *middleware.RateLimiter
}

// Build wires repositories, services, handlers and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	return BuildWith(ctx, cfg, Hooks{})
}

func BuildWith(ctx context.Context, cfg config.Config, hooks Hooks) (*App, error) {
	hooks = hooks.withDefaults()

	sqlDB, err := buildDB(ctx, cfg, hooks)
	if err != nil {
		return nil, err
	}
	metrics.SetDatabaseUp(sqlDB != nil)

	app := &App{Config: cfg, DB: sqlDB}
	if sqlDB != nil {
		app.UsersRepo = &users.PGRepo{DB: sqlDB}
		app.JobsRepo = &jobs.PGRepo{DB: sqlDB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.JobsRepo = jobs.NewMemoryRepo()
	}
	app.UsersService = users.NewService(app.UsersRepo)
	app.JobsService = jobs.NewService(app.JobsRepo)

	if err := buildAuth(ctx, app, hooks); err != nil {
		return nil, err
	}

	gql, err := graphql.NewHandler(app.UsersService, app.JobsService)
	if err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		Verifier:      app.Verifier,
		HealthHandler: health.NewHandler(health.NewService(sqlDB, string(cfg.Profile), server.Version, cfg.DBPingTimeout)),
		UserHandler:   users.NewHandler(app.UsersService),
		JobHandler:    jobs.NewHandler(app.JobsService),
		GraphQL:       gql,
		Login:         app.Login,
		RateLimiter:   hooks.RateLimiter,
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// buildDB connects and migrates. Development falls back to in-memory
// repositories when either step fails; production aborts.
func buildDB(ctx context.Context, cfg config.Config, hooks Hooks) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if !cfg.IsProduction() {
			telemetry.Warn("bootstrap.memory_fallback", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, &config.MissingConfigError{Key: "DATABASE_URL", Profile: cfg.Profile}
	}

	sqlDB, err := hooks.Connect(ctx, cfg)
	if err != nil {
		return fallback(cfg, "connect", err)
	}
	if cfg.RunMigrations {
		if err := hooks.Migrate(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return fallback(cfg, "migrate", err)
		}
	}
	return sqlDB, nil
}

func fallback(cfg config.Config, step string, err error) (*sql.DB, error) {
	if cfg.IsProduction() {
		return nil, fmt.Errorf("database %s: %w", step, err)
	}
	telemetry.Warn("bootstrap.memory_fallback", map[string]any{"step": step, "error": err.Error()})
	return nil, nil
}

func buildAuth(ctx context.Context, app *App, hooks Hooks) error {
	cfg := app.Config
	sessions, err := auth.NewHMACVerifier(cfg.SecretKey, 0, cfg.RolesClaim)
	if err != nil {
		return err
	}
	app.Sessions = sessions
	chain := auth.ChainVerifier{sessions}

	if cfg.IssuerURL() != "" && cfg.Auth0Audience != "" {
		oidcVerifier, err := hooks.OIDC(ctx, cfg)
		if err != nil {
			if cfg.IsProduction() {
				return err
			}
			telemetry.Warn("bootstrap.oidc_disabled", map[string]any{"error": err.Error()})
		} else {
			chain = append(chain, oidcVerifier)
		}
	}
	app.Verifier = chain

	if !cfg.LoginEnabled() {
		telemetry.Info("bootstrap.login_disabled", map[string]any{"reason": "auth0 client settings incomplete"})
		return nil
	}
	provider, err := hooks.Provider(ctx, cfg)
	if err != nil {
		if cfg.IsProduction() {
			return err
		}
		telemetry.Warn("bootstrap.login_disabled", map[string]any{"error": err.Error()})
		return nil
	}
	app.Login = loginauth.NewLoginService(provider, app.UsersService, sessions, loginauth.LoginConfig{
		FrontendURL: cfg.FrontendURL,
		RolesClaim:  cfg.RolesClaim,
	})
	return nil
}

func (h Hooks) withDefaults() Hooks {
	if h.Connect == nil {
		h.Connect = func(ctx context.Context, cfg config.Config) (*sql.DB, error) {
			return db.ConnectWithRetry(ctx, cfg.DatabaseURL, db.OptionsFromConfig(cfg), db.DefaultRetry())
		}
	}
	if h.Migrate == nil {
		h.Migrate = db.RunMigrations
	}
	if h.OIDC == nil {
		h.OIDC = func(ctx context.Context, cfg config.Config) (auth.Verifier, error) {
			return auth.NewOIDCVerifier(ctx, cfg.IssuerURL(), cfg.Auth0Audience, cfg.RolesClaim)
		}
	}
	if h.Provider == nil {
		h.Provider = func(ctx context.Context, cfg config.Config) (loginauth.Provider, error) {
			return loginauth.NewOIDCProvider(ctx, loginauth.OIDCProviderConfig{
				Issuer:       cfg.IssuerURL(),
				ClientID:     cfg.Auth0ClientID,
				ClientSecret: cfg.Auth0ClientSecret,
				CallbackURL:  cfg.Auth0CallbackURL,
				Audience:     cfg.Auth0Audience,
			})
		}
	}
	return h
}
