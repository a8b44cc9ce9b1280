package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MEDFLOW_API_KEY", "")
	t.Setenv("MEDFLOW_MAX_NODES", "")
	t.Setenv("MEDFLOW_DEFAULT_PROVIDER", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openrouter", c.DefaultProvider)
	assert.Equal(t, 100, c.MaxNodes)
	assert.Equal(t, "127.0.0.1:8080", c.ServerAddr)
	assert.Equal(t, "64M", c.ServerBodyLimit)
	assert.Equal(t, 3, c.RetryMaxAttempts)
	assert.Empty(t, c.APIKey)
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: from-file\nmax_nodes: 40\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.APIKey)
	assert.Equal(t, 40, c.MaxNodes)

	t.Setenv("MEDFLOW_API_KEY", "from-env")
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.APIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("default_provider", "Local"))
	require.NoError(t, c.Set("max_nodes", "25"))
	require.NoError(t, Save(c, ""))

	_, err = os.Stat(filepath.Join(home, ".medflow", "config.yaml"))
	require.NoError(t, err)

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ollama", again.DefaultProvider)
	assert.Equal(t, 25, again.MaxNodes)
}

func TestSetValidation(t *testing.T) {
	c := &Global{}
	assert.Error(t, c.Set("default_provider", "bogus"))
	assert.Error(t, c.Set("max_nodes", "0"))
	assert.Error(t, c.Set("temperature", "3"))
	assert.Error(t, c.Set("log_json", "maybe"))
	assert.ErrorContains(t, c.Set("nope", "1"), "unknown key")

	require.NoError(t, c.Set("ollama_host", "http://localhost:11434/"))
	assert.Equal(t, "http://localhost:11434", c.OllamaHost)
	require.NoError(t, c.Set("log_json", "true"))
	assert.True(t, c.LogJSON)
}

func TestSetRejectedValueKeepsPrevious(t *testing.T) {
	c := &Global{MaxTokens: 4000, MaxNodes: 100, RetryBaseDelayMs: 500, ServerBodyLimit: "64M"}
	assert.Error(t, c.Set("max_tokens", "abc"))
	assert.Error(t, c.Set("max_nodes", "-3"))
	assert.Error(t, c.Set("retry_base_delay_ms", "soon"))
	assert.Error(t, c.Set("server_body_limit", "lots"))
	assert.Equal(t, 4000, c.MaxTokens)
	assert.Equal(t, 100, c.MaxNodes)
	assert.Equal(t, 500, c.RetryBaseDelayMs)
	assert.Equal(t, "64M", c.ServerBodyLimit)

	require.NoError(t, c.Set("server_body_limit", "8M"))
	assert.Equal(t, "8M", c.ServerBodyLimit)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MEDFLOW_TEST_DOTENV=yes\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MEDFLOW_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "yes", os.Getenv("MEDFLOW_TEST_DOTENV"))
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestKeysCoverSet(t *testing.T) {
	c := &Global{}
	for _, k := range Keys() {
		err := c.Set(k, "1")
		if err != nil {
			assert.NotContains(t, err.Error(), "unknown key", k)
		}
	}
}
