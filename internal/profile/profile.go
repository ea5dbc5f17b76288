// Package profile manages named configuration profiles stored under the
// user's home directory. Profiles let users switch between accounts and
// environments at invocation time; the execution engine only ever reads
// resolved values from here.
package profile

import "time"

// Profile is a named, persisted bundle of configuration values.
type Profile struct {
	Name    string        `json:"-"`
	APIKey  string        `json:"api_key"`
	AppID   string        `json:"app_id"`
	EnvName string        `json:"env_name"`
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// MaskedKey returns the profile's credential reduced to a short prefix for
// listing output.
func (p *Profile) MaskedKey() string {
	if p.APIKey == "" {
		return "not set"
	}
	if len(p.APIKey) <= 8 {
		return "********"
	}
	return p.APIKey[:8] + "..."
}
