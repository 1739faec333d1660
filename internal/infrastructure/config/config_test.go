package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Storefront.SearchDebounce)
	assert.Equal(t, 50, cfg.Storefront.NotificationBuffer)
	assert.Equal(t, "qkart-storefront", cfg.OTLP.ServiceName)
	assert.True(t, cfg.OTLP.ExportEnabled)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	data := []byte(`
server:
  port: "9090"
store:
  base_url: http://qkart.internal/api/v1
  timeout: 3s
storefront:
  search_debounce: 250ms
  notification_buffer: 10
otlp:
  export_enabled: false
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port, "env overrides file")
	assert.Equal(t, "http://qkart.internal/api/v1", cfg.Store.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Storefront.SearchDebounce)
	assert.Equal(t, 10, cfg.Storefront.NotificationBuffer)
	assert.False(t, cfg.OTLP.ExportEnabled)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset keys keep defaults")
}

func TestLoadConfig_InvalidEnvValuesFallBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SEARCH_DEBOUNCE", "soon")
	t.Setenv("NOTIFICATION_BUFFER", "many")
	t.Setenv("OTEL_EXPORT_ENABLED", "maybe")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Storefront.SearchDebounce)
	assert.Equal(t, 50, cfg.Storefront.NotificationBuffer)
	assert.True(t, cfg.OTLP.ExportEnabled)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
		t.Setenv("CONFIG_FILE", path)
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("non-positive debounce", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("SEARCH_DEBOUNCE", "-1s")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
