package config

import (
	"fmt"
	"time"

	"github.com/harun/agentic/internal/profile"
)

// Values is one configuration source's field set. Empty fields mean the
// source does not supply that field.
type Values struct {
	APIKey  string
	AppID   string
	EnvName string
	BaseURL string
	Timeout time.Duration
}

// Defaults returns the built-in source, the lowest-precedence layer of the
// merge.
func Defaults() Values {
	return Values{
		EnvName: DefaultEnvName,
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// FromProfile adapts a stored profile into a configuration source. A nil
// profile contributes nothing.
func FromProfile(p *profile.Profile) Values {
	if p == nil {
		return Values{}
	}
	return Values{
		APIKey:  p.APIKey,
		AppID:   p.AppID,
		EnvName: p.EnvName,
		BaseURL: p.BaseURL,
		Timeout: p.Timeout,
	}
}

// Resolve merges the four configuration sources, highest precedence first:
// command-line overrides, environment variables, profile values, built-in
// defaults. For each field the first source supplying a non-empty value
// wins. The merge is pure: it reads nothing beyond its arguments.
func Resolve(overrides, env, prof, defaults Values) (*Config, error) {
	sources := []Values{overrides, env, prof, defaults}

	cfg := &Config{
		APIKey:  firstString(sources, func(v Values) string { return v.APIKey }),
		AppID:   firstString(sources, func(v Values) string { return v.AppID }),
		EnvName: firstString(sources, func(v Values) string { return v.EnvName }),
		BaseURL: firstString(sources, func(v Values) string { return v.BaseURL }),
		Timeout: firstDuration(sources, func(v Values) time.Duration { return v.Timeout }),
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key not configured (set KOREAI_API_KEY, use --api-key, or add a profile)", ErrConfiguration)
	}
	if cfg.AppID == "" {
		return nil, fmt.Errorf("%w: app ID not configured (set KOREAI_APP_ID, use --app-id, or add a profile)", ErrConfiguration)
	}
	if cfg.EnvName == "" {
		return nil, fmt.Errorf("%w: environment name not configured", ErrConfiguration)
	}

	return cfg, nil
}

func firstString(sources []Values, field func(Values) string) string {
	for _, src := range sources {
		if v := field(src); v != "" {
			return v
		}
	}
	return ""
}

func firstDuration(sources []Values, field func(Values) time.Duration) time.Duration {
	for _, src := range sources {
		if v := field(src); v != 0 {
			return v
		}
	}
	return 0
}
