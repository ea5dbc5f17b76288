package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("reads documented variables", func(t *testing.T) {
		t.Setenv("KOREAI_API_KEY", "kg-env-key")
		t.Setenv("KOREAI_APP_ID", "env-app")
		t.Setenv("KOREAI_ENV_NAME", "staging")
		t.Setenv("KOREAI_BASE_URL", "https://example.test/api")
		t.Setenv("KOREAI_TIMEOUT", "60")

		vals, err := FromEnv("")
		require.NoError(t, err)

		assert.Equal(t, "kg-env-key", vals.APIKey)
		assert.Equal(t, "env-app", vals.AppID)
		assert.Equal(t, "staging", vals.EnvName)
		assert.Equal(t, "https://example.test/api", vals.BaseURL)
		assert.Equal(t, 60*time.Second, vals.Timeout)
	})

	t.Run("empty environment yields empty source", func(t *testing.T) {
		for _, name := range []string{"KOREAI_API_KEY", "KOREAI_APP_ID", "KOREAI_ENV_NAME", "KOREAI_BASE_URL", "KOREAI_TIMEOUT"} {
			t.Setenv(name, "")
		}

		vals, err := FromEnv("")
		require.NoError(t, err)
		assert.Equal(t, Values{}, vals)
	})

	t.Run("loads env file", func(t *testing.T) {
		for _, name := range []string{"KOREAI_API_KEY", "KOREAI_APP_ID", "KOREAI_ENV_NAME", "KOREAI_BASE_URL", "KOREAI_TIMEOUT"} {
			t.Setenv(name, "")
		}

		envFile := filepath.Join(t.TempDir(), ".env")
		content := "KOREAI_API_KEY=kg-file-key\nKOREAI_APP_ID=file-app\nKOREAI_TIMEOUT=45\n"
		require.NoError(t, os.WriteFile(envFile, []byte(content), 0600))

		vals, err := FromEnv(envFile)
		require.NoError(t, err)

		assert.Equal(t, "kg-file-key", vals.APIKey)
		assert.Equal(t, "file-app", vals.AppID)
		assert.Equal(t, 45*time.Second, vals.Timeout)
	})

	t.Run("process environment beats env file", func(t *testing.T) {
		t.Setenv("KOREAI_API_KEY", "kg-process-key")
		t.Setenv("KOREAI_APP_ID", "")
		t.Setenv("KOREAI_ENV_NAME", "")
		t.Setenv("KOREAI_BASE_URL", "")
		t.Setenv("KOREAI_TIMEOUT", "")

		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("KOREAI_API_KEY=kg-file-key\n"), 0600))

		vals, err := FromEnv(envFile)
		require.NoError(t, err)
		assert.Equal(t, "kg-process-key", vals.APIKey)
	})

	t.Run("missing env file", func(t *testing.T) {
		_, err := FromEnv(filepath.Join(t.TempDir(), "nonexistent.env"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv("KOREAI_TIMEOUT", "not-a-number")

		_, err := FromEnv("")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("duration-style timeout", func(t *testing.T) {
		t.Setenv("KOREAI_TIMEOUT", "1m30s")

		vals, err := FromEnv("")
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, vals.Timeout)
	})
}
