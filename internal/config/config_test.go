package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	dir := config.Dir()
	assert.Equal(t, 15, cfg.Poll.Delay)
	assert.Equal(t, "json", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "notification_data.json"), cfg.Storage.Path)
	assert.True(t, cfg.Storage.Prune)
	assert.Equal(t, filepath.Join(dir, "config_notifications.json"), cfg.Credentials.Path)
	assert.Equal(t, "DeadlineCloud", cfg.Notifications.GroupPrefix)
	assert.Empty(t, cfg.Server.Listen)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, filepath.Join(dir, "notifier.log"), cfg.Logging.File)
	assert.False(t, cfg.Alerts.Slack.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
poll:
  delay: 60
storage:
  backend: sqlite
  path: /tmp/test.db
  prune: false
notifications:
  locale: de_DE
aws:
  profile: studio
  region: us-west-2
server:
  listen: ":9090"
logging:
  level: debug
`)
	err := os.WriteFile(cfgPath, data, 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Poll.Delay)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
	assert.False(t, cfg.Storage.Prune)
	assert.Equal(t, "de_DE", cfg.Notifications.Locale)
	assert.Equal(t, "studio", cfg.AWS.Profile)
	assert.Equal(t, "us-west-2", cfg.AWS.Region)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_SQLiteDefaultPath(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  backend: sqlite\n"), 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(config.Dir(), "notification_data.db"), cfg.Storage.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DCN_LOGGING_LEVEL", "error")
	t.Setenv("DCN_POLL_DELAY", "0")
	t.Setenv("DCN_SERVER_LISTEN", ":7070")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 0, cfg.Poll.Delay)
	assert.Equal(t, ":7070", cfg.Server.Listen)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	err := os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644)
	require.NoError(t, err)

	_, err = config.Load(cfgPath)
	assert.Error(t, err)
}
