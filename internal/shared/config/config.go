package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ui-agent-backend/internal/shared/telemetry"
)

const (
	defaultPort      = "8000"
	defaultHost      = "0.0.0.0"
	defaultDevSecret = "dev-secret-key-change-in-production"
	defaultRoles     = "roles"
)

// Config holds application configuration. It is built once at startup and
// passed to every consumer; nothing else reads the process environment.
type Config struct {
	Profile          Profile
	Host             string
	Port             string
	DatabaseURL      string
	FrontendURL      string
	CORSAllowOrigins []string
	Debug            bool
	LogLevel         string
	RunMigrations    bool

	SecretKey string

	Auth0Domain       string
	Auth0Audience     string
	Auth0ClientID     string
	Auth0ClientSecret string
	Auth0CallbackURL  string
	RolesClaim        string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	DBPingTimeout     time.Duration
}

// Load snapshots the process environment, layered over optional .env files,
// and resolves it into a Config.
func Load() (Config, error) {
	return FromEnv(Snapshot(".env", "cmd/.env"))
}

// Snapshot returns the process environment merged over the given dotenv files.
// Values already present in the process environment win.
func Snapshot(dotenvFiles ...string) map[string]string {
	env := readEnvFiles(dotenvFiles...)
	for _, kv := range os.Environ() {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = val
	}
	return env
}

// FromEnv resolves a Config from an environment snapshot. It fails with a
// *MissingConfigError when the production profile lacks a required value.
func FromEnv(env map[string]string) (Config, error) {
	profile := ParseProfile(env["ENVIRONMENT"])

	dbURL, err := ResolveDatabaseURL(profile, env)
	if err != nil {
		return Config{}, err
	}

	secret := strings.TrimSpace(env["SECRET_KEY"])
	if secret == "" {
		if profile == Production {
			return Config{}, &MissingConfigError{Key: "SECRET_KEY", Profile: profile}
		}
		telemetry.Warn("config.fallback", map[string]any{
			"key":     "SECRET_KEY",
			"profile": string(profile),
			"reason":  "unset; using development secret",
		})
		secret = defaultDevSecret
	}

	defaultLevel := "info"
	defaultDebug := "false"
	if profile == Development {
		defaultLevel = "debug"
		defaultDebug = "true"
	}

	port := getEnv(env, "PORT", "")
	if port == "" {
		port = getEnv(env, "API_PORT", defaultPort)
	}

	cfg := Config{
		Profile:           profile,
		Host:              getEnv(env, "API_HOST", defaultHost),
		Port:              port,
		DatabaseURL:       dbURL,
		FrontendURL:       frontendURL(profile, env),
		CORSAllowOrigins:  ResolveCORSOrigins(profile, env),
		Debug:             strings.EqualFold(getEnv(env, "DEBUG", defaultDebug), "true"),
		LogLevel:          getEnv(env, "LOG_LEVEL", defaultLevel),
		RunMigrations:     !strings.EqualFold(getEnv(env, "RUN_MIGRATIONS", "true"), "false"),
		SecretKey:         secret,
		Auth0Domain:       getEnv(env, "AUTH0_DOMAIN", ""),
		Auth0Audience:     getEnv(env, "AUTH0_AUDIENCE", ""),
		Auth0ClientID:     getEnv(env, "AUTH0_CLIENT_ID", ""),
		Auth0ClientSecret: getEnv(env, "AUTH0_CLIENT_SECRET", ""),
		Auth0CallbackURL:  getEnv(env, "AUTH0_CALLBACK_URL", ""),
		RolesClaim:        getEnv(env, "AUTH0_ROLES_CLAIM", defaultRoles),
		DBMaxOpenConns:    envInt(env, "DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    envInt(env, "DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: envDuration(env, "DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBConnMaxIdleTime: envDuration(env, "DB_CONN_MAX_IDLE_TIME", 2*time.Minute),
		DBPingTimeout:     envDuration(env, "DB_PING_TIMEOUT", 5*time.Second),
	}
	return cfg, nil
}

// IsProduction reports whether the production profile is active.
func (c Config) IsProduction() bool {
	return c.Profile == Production
}

// IssuerURL returns the OIDC issuer derived from the Auth0 domain, or "".
func (c Config) IssuerURL() string {
	domain := strings.TrimSpace(c.Auth0Domain)
	if domain == "" {
		return ""
	}
	domain = strings.TrimSuffix(domain, "/")
	if !strings.HasPrefix(domain, "https://") && !strings.HasPrefix(domain, "http://") {
		domain = "https://" + domain
	}
	return domain + "/"
}

// LoginEnabled reports whether interactive login has enough settings to run.
func (c Config) LoginEnabled() bool {
	return c.IssuerURL() != "" && c.Auth0ClientID != "" && c.Auth0ClientSecret != "" && c.Auth0CallbackURL != ""
}

func getEnv(env map[string]string, key, def string) string {
	if val := strings.TrimSpace(env[key]); val != "" {
		return val
	}
	return def
}

func envInt(env map[string]string, key string, def int) int {
	raw := strings.TrimSpace(env[key])
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "error": err.Error()})
		return def
	}
	return val
}

func envDuration(env map[string]string, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(env[key])
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "error": err.Error()})
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
