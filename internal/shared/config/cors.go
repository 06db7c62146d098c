package config

import (
	"strings"

	"ui-agent-backend/internal/shared/telemetry"
)

const defaultDevFrontendURL = "http://localhost:3000"

// devOrigins are the loopback origins trusted by the development profile.
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3000/",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:3000/",
	"http://localhost:3001",
	"http://127.0.0.1:3001",
	"http://localhost:3002",
	"http://127.0.0.1:3002",
}

// ResolveCORSOrigins returns the trusted origins for the profile, deduplicated
// in first-seen order.
//
// Production trusts exactly FRONTEND_URL plus the comma-separated
// ADDITIONAL_CORS_ORIGINS, each with and without a trailing slash. An empty
// result is allowed but logged, since it denies all cross-origin traffic.
// Development trusts a fixed loopback set plus both forms of FRONTEND_URL.
func ResolveCORSOrigins(profile Profile, env map[string]string) []string {
	set := newOriginSet()
	if profile == Production {
		candidates := append([]string{env["FRONTEND_URL"]}, splitAndTrim(env["ADDITIONAL_CORS_ORIGINS"])...)
		for _, origin := range candidates {
			set.addWithSlash(origin)
		}
		if len(set.items) == 0 {
			telemetry.Warn("config.cors_empty", map[string]any{
				"profile": string(profile),
				"reason":  "no FRONTEND_URL or ADDITIONAL_CORS_ORIGINS; all cross-origin requests will be denied",
			})
		}
		return set.items
	}

	for _, origin := range devOrigins {
		set.add(origin)
	}
	set.addWithSlash(frontendURL(profile, env))
	return set.items
}

func frontendURL(profile Profile, env map[string]string) string {
	if v := strings.TrimSpace(env["FRONTEND_URL"]); v != "" {
		return v
	}
	if profile == Production {
		return ""
	}
	return defaultDevFrontendURL
}

type originSet struct {
	seen  map[string]struct{}
	items []string
}

func newOriginSet() *originSet {
	return &originSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *originSet) add(origin string) {
	if origin == "" {
		return
	}
	if _, ok := s.seen[origin]; ok {
		return
	}
	s.seen[origin] = struct{}{}
	s.items = append(s.items, origin)
}

// addWithSlash adds origin without and with a trailing slash.
func (s *originSet) addWithSlash(origin string) {
	bare := strings.TrimRight(strings.TrimSpace(origin), "/")
	if bare == "" {
		return
	}
	s.add(bare)
	s.add(bare + "/")
}
