package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"

	"ui-agent-backend/internal/shared/telemetry"
)

// readEnvFiles loads KEY=VALUE pairs from the given files if they exist.
// Later files override earlier ones. Missing files are skipped.
func readEnvFiles(paths ...string) map[string]string {
	out := make(map[string]string)
	for _, path := range paths {
		vals, err := godotenv.Read(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				telemetry.Warn("config.dotenv", map[string]any{"path": path, "error": err.Error()})
			}
			continue
		}
		for k, v := range vals {
			out[k] = v
		}
	}
	return out
}
