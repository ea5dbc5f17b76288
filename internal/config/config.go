package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfiguration is returned when resolution produces an incomplete
// configuration. It is surfaced before any request is attempted.
var ErrConfiguration = errors.New("configuration error")

// DefaultBaseURL is the production endpoint of the agent platform API.
const DefaultBaseURL = "https://agent-platform.kore.ai/api/v2"

// DefaultTimeout is the request timeout applied when no source supplies one.
const DefaultTimeout = 30 * time.Second

// DefaultEnvName is the environment used when no source supplies one.
const DefaultEnvName = "production"

// Config is the effective configuration of one process invocation. It is
// built once by Resolve and never mutated afterwards, so it can be read by
// multiple components without synchronization.
type Config struct {
	APIKey  string
	AppID   string
	EnvName string
	BaseURL string
	Timeout time.Duration
}

// Masked renders the configuration for display with the credential reduced
// to a short prefix. Intended for human-facing output only.
func (c *Config) Masked() string {
	return fmt.Sprintf("Config(api_key=%s, app_id=%s, env_name=%s, base_url=%s, timeout=%s)",
		maskKey(c.APIKey), c.AppID, c.EnvName, c.BaseURL, c.Timeout)
}

// String returns the masked form so the credential cannot leak through
// format verbs or logging.
func (c *Config) String() string {
	return c.Masked()
}

func maskKey(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) <= 8 {
		return "********"
	}
	return key[:8] + "..."
}
