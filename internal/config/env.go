package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Environment variables consumed during configuration resolution.
const (
	envPrefix  = "KOREAI"
	keyAPIKey  = "api_key"
	keyAppID   = "app_id"
	keyEnvName = "env_name"
	keyBaseURL = "base_url"
	keyTimeout = "timeout"
)

// FromEnv builds the environment-variable configuration source. It reads
// KOREAI_API_KEY, KOREAI_APP_ID, KOREAI_ENV_NAME, KOREAI_BASE_URL, and
// KOREAI_TIMEOUT. When envFile names a dotenv-style file, its entries are
// layered underneath the process environment.
func FromEnv(envFile string) (Values, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for _, key := range []string{keyAPIKey, keyAppID, keyEnvName, keyBaseURL, keyTimeout} {
		if err := v.BindEnv(key); err != nil {
			return Values{}, fmt.Errorf("failed to bind %s_%s: %w", envPrefix, key, err)
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err != nil {
			return Values{}, fmt.Errorf("%w: env file %s: %v", ErrConfiguration, envFile, err)
		}
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Values{}, fmt.Errorf("%w: failed to read env file %s: %v", ErrConfiguration, envFile, err)
		}
	}

	// Dotenv files carry the full KOREAI_ names while the env bindings use
	// the bare keys; the process environment wins over the file.
	get := func(key string) string {
		if val := v.GetString(key); val != "" {
			return val
		}
		return v.GetString(envPrefix + "_" + key)
	}

	vals := Values{
		APIKey:  get(keyAPIKey),
		AppID:   get(keyAppID),
		EnvName: get(keyEnvName),
		BaseURL: get(keyBaseURL),
	}
	if raw := get(keyTimeout); raw != "" {
		timeout, err := parseTimeout(raw)
		if err != nil {
			return Values{}, err
		}
		vals.Timeout = timeout
	}
	return vals, nil
}

// parseTimeout accepts either a bare second count or a duration string.
func parseTimeout(raw string) (time.Duration, error) {
	var secs int
	if _, err := fmt.Sscanf(raw, "%d", &secs); err == nil && fmt.Sprintf("%d", secs) == raw {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid timeout %q: %v", ErrConfiguration, raw, err)
	}
	return d, nil
}
