package config

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMasked(t *testing.T) {
	cfg := &Config{
		APIKey:  "kg-0123456789abcdef",
		AppID:   "app-1",
		EnvName: "production",
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}

	masked := cfg.Masked()
	assert.NotContains(t, masked, "kg-0123456789abcdef")
	assert.Contains(t, masked, "kg-01234...")
	assert.Contains(t, masked, "app-1")
	assert.Contains(t, masked, "production")
}

func TestStringNeverLeaksCredential(t *testing.T) {
	cfg := &Config{APIKey: "kg-super-secret-key-value", AppID: "a", EnvName: "prod"}

	for _, rendered := range []string{
		cfg.String(),
		fmt.Sprintf("%v", cfg),
		fmt.Sprintf("%s", cfg),
	} {
		assert.False(t, strings.Contains(rendered, "kg-super-secret-key-value"),
			"rendered config contains raw credential: %s", rendered)
	}
}

func TestMaskedShortKey(t *testing.T) {
	cfg := &Config{APIKey: "short"}
	assert.NotContains(t, cfg.Masked(), "short")

	empty := &Config{}
	assert.Contains(t, empty.Masked(), "not set")
}
