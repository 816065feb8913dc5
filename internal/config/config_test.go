package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SUPPORTED_LOCALES", "")
	t.Setenv("THUMBNAIL_RETRY_AGE", "")

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 300, cfg.LLMMaxTokens)
	assert.Equal(t, []string{"en", "es"}, cfg.SupportedLocales)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 7*24*time.Hour, cfg.ThumbnailRetryAge)
	assert.False(t, cfg.IsLLMEnabled())
	assert.False(t, cfg.IsMediaEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("LLM_MAX_TOKENS", "120")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("SUPPORTED_LOCALES", " en , de ,,")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minio")
	t.Setenv("MINIO_SECRET_KEY", "minio123")

	cfg := Load()

	assert.False(t, cfg.IsDev())
	assert.Equal(t, 120, cfg.LLMMaxTokens)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"en", "de"}, cfg.SupportedLocales)
	assert.True(t, cfg.IsLLMEnabled())
	assert.True(t, cfg.IsMediaEnabled())
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "lots")
	t.Setenv("LLM_RATE_PER_SEC", "fast")
	t.Setenv("FETCH_TIMEOUT", "10")

	cfg := Load()

	assert.Equal(t, 300, cfg.LLMMaxTokens)
	assert.Equal(t, float64(2), cfg.LLMRatePerSec)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
}

func TestLoadYAMLConfigFrom_Missing(t *testing.T) {
	cfg, err := LoadYAMLConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, cfg)

	// nil config is safe to query
	assert.Nil(t, cfg.BootstrapTokens())
	assert.Nil(t, cfg.StarterCollections())
	assert.Equal(t, "en", cfg.DefaultLocale("en"))
}

func TestLoadYAMLConfigFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
bootstrap:
  tokens:
    - token: "Ab3#xY"
      role: admin
    - token: "Zz9!qq"
defaults:
  locale: es
  collections:
    - name: Music
      emoji: "🎵"
      color: "#ff0066"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadYAMLConfigFrom(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	tokens := cfg.BootstrapTokens()
	require.Len(t, tokens, 2)
	assert.Equal(t, "admin", tokens[0].Role)
	assert.Equal(t, "user", tokens[1].Role, "role defaults to user")

	assert.Equal(t, "system", cfg.Defaults.Theme)
	assert.Equal(t, "newest", cfg.Defaults.Sort)
	assert.Equal(t, "es", cfg.DefaultLocale("en"))
	require.Len(t, cfg.StarterCollections(), 1)
	assert.Equal(t, "Music", cfg.StarterCollections()[0].Name)
}

func TestLoadYAMLConfigFrom_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bootstrap: [unclosed"), 0o600))

	_, err := LoadYAMLConfigFrom(path)
	assert.Error(t, err)
}
