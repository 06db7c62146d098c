package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	loginauth "ui-agent-backend/internal/auth"
	"ui-agent-backend/internal/graphql"
	"ui-agent-backend/internal/jobs"
	"ui-agent-backend/internal/services/health"
	"ui-agent-backend/internal/shared/auth"
	"ui-agent-backend/internal/shared/config"
	"ui-agent-backend/internal/shared/metrics"
	"ui-agent-backend/internal/shared/server/middleware"
	"ui-agent-backend/internal/shared/server/respond"
	"ui-agent-backend/internal/users"
)

// Version is reported by the banner and health endpoints.
const Version = "1.0.0"

// RouterDeps carries everything the router mounts. Login is nil when
// interactive login is not configured.
type RouterDeps struct {
	Config        config.Config
	Verifier      auth.Verifier
	HealthHandler *health.Handler
	UserHandler   *users.Handler
	JobHandler    *jobs.Handler
	GraphQL       *graphql.Handler
	Login         *loginauth.LoginService
	RateLimiter   *middleware.RateLimiter
}

// DefaultRateLimits are per-principal token buckets by request group.
var DefaultRateLimits = map[string]middleware.RateLimitRule{
	middleware.RateLimitGroupRead:  {Rate: 20, Burst: 60},
	middleware.RateLimitGroupWrite: {Rate: 5, Burst: 20},
	middleware.RateLimitGroupAuth:  {Rate: 1, Burst: 10},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Metrics(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigins),
		middleware.Auth(deps.Verifier),
	)

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	r.GET("/", banner)
	r.GET("/metrics", metrics.Handler())

	limited := middleware.RateLimit(middleware.RateLimitConfig{
		Rules:    DefaultRateLimits,
		GroupFor: middleware.GroupByMethod,
		Limiter:  deps.RateLimiter,
	})

	root := r.Group("", limited)
	if deps.GraphQL != nil {
		deps.GraphQL.RegisterRoutes(root)
	}

	api := r.Group("/api/v1", limited)
	api.GET("/cors-config", corsConfig(deps.Config))
	if deps.HealthHandler != nil {
		deps.HealthHandler.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.JobHandler != nil {
		deps.JobHandler.RegisterRoutes(api)
	}
	if deps.Login != nil {
		deps.Login.RegisterRoutes(api)
	}

	return r
}

func banner(c *gin.Context) {
	respond.OK(c, gin.H{
		"message":   "UI Agent API",
		"version":   Version,
		"docs":      "/graphql",
		"dashboard": "/dashboard",
		"health":    "/api/v1/health",
		"metrics":   "/metrics",
	})
}

func corsConfig(cfg config.Config) gin.HandlerFunc {
	origins := append([]string{}, cfg.CORSAllowOrigins...)
	return func(c *gin.Context) {
		respond.OK(c, gin.H{
			"allowedOrigins": origins,
			"environment":    string(cfg.Profile),
			"frontendUrl":    cfg.FrontendURL,
		})
	}
}

// Addr normalizes the listen address.
func Addr(host, port string) string {
	if port == "" {
		port = "8000"
	}
	if port[0] == ':' {
		return host + port
	}
	return host + ":" + port
}
