package config

import "strings"

// Profile names a configuration bundle selected by the ENVIRONMENT flag.
type Profile string

const (
	Development Profile = "development"
	Production  Profile = "production"
)

// ParseProfile maps the deployment flag to a profile. Only a case-insensitive
// "production" selects Production; anything else, including "", is Development.
func ParseProfile(raw string) Profile {
	if strings.EqualFold(strings.TrimSpace(raw), string(Production)) {
		return Production
	}
	return Development
}

// Strict reports whether missing values must fail instead of falling back.
func (p Profile) Strict() bool {
	return p == Production
}
