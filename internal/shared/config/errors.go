package config

import "fmt"

// MissingConfigError reports a required setting absent under a strict profile.
// It is fatal at startup.
type MissingConfigError struct {
	Key     string
	Profile Profile
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("config: %s is required in %s", e.Key, e.Profile)
}
