package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ws://localhost:5000/ws", cfg.SocketURL())
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baseURL: https://admin.example.com\ndebounceWindowMs: 150\n"), 0o644))

	t.Setenv("ADMIN_REPLY_TIMEOUT_MS", "500")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wss://admin.example.com/ws", cfg.SocketURL())
	assert.Equal(t, 150, cfg.DebounceWindowMs)
	assert.Equal(t, 500, cfg.ReplyTimeoutMs)
	// untouched fields keep defaults
	assert.Equal(t, 10000, cfg.RESTTimeoutMs)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().DebounceWindowMs, cfg.DebounceWindowMs)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.BaseURL = "ftp://nope"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.DebounceWindowMs = 0
	assert.Error(t, cfg.Validate())
}
