package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "rentNERD", cfg.Name)
	assert.Equal(t, "genai", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, "data/rentnerd.db", cfg.Store.DatabasePath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
llm:
  provider: openai-compat
  model: gpt-4o-mini
  base_url: http://localhost:8080/v1
store:
  database_path: /tmp/test.db
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai-compat", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "/tmp/test.db", cfg.Store.DatabasePath)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, "rentNERD", cfg.Name)
	assert.Equal(t, "120s", cfg.LLM.Timeout)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: from-file\n"), 0o644))

	t.Setenv("RENTNERD_LLM_MODEL", "from-env")
	t.Setenv("RENTNERD_LLM_API_KEY", "sk-test")
	t.Setenv("RENTNERD_DB_PATH", "/tmp/env.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "/tmp/env.db", cfg.Store.DatabasePath)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not: valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Model = "custom-model"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-model", loaded.LLM.Model)
}

func TestTimeoutDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, LLMConfig{Timeout: "30s"}.TimeoutDuration())
	assert.Equal(t, 120*time.Second, LLMConfig{Timeout: ""}.TimeoutDuration())
	assert.Equal(t, 120*time.Second, LLMConfig{Timeout: "garbage"}.TimeoutDuration())
	assert.Equal(t, 120*time.Second, LLMConfig{Timeout: "-5s"}.TimeoutDuration())
}
