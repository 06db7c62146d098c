package health

import (
	"context"
	"database/sql"
	"time"

	"ui-agent-backend/internal/shared/storage/db"
)

// Report is the payload of the health endpoint.
type Report struct {
	Status            string `json:"status"`
	Environment       string `json:"environment"`
	DatabaseConnected bool   `json:"databaseConnected"`
	Version           string `json:"version"`
}

// Service encapsulates health-related checks. A nil DB means the service runs
// on in-memory repositories.
type Service struct {
	DB          *sql.DB
	Environment string
	Version     string
	PingTimeout time.Duration
}

// NewService constructs a new health service.
func NewService(database *sql.DB, environment, version string, pingTimeout time.Duration) *Service {
	return &Service{DB: database, Environment: environment, Version: version, PingTimeout: pingTimeout}
}

// Status reports liveness. The service is healthy even without a database.
func (s *Service) Status(ctx context.Context) Report {
	return Report{
		Status:            "healthy",
		Environment:       s.Environment,
		DatabaseConnected: s.CheckDB(ctx) == nil,
		Version:           s.Version,
	}
}

// CheckDB pings the database.
func (s *Service) CheckDB(ctx context.Context) error {
	return db.Ping(ctx, s.DB, s.PingTimeout)
}
