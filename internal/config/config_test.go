package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
web:
  admin_key: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Web.Port)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval())
	assert.Equal(t, 15*time.Second, cfg.QuoteTimeout())
	assert.Equal(t, 72*time.Hour, cfg.SessionTTL())
	assert.Equal(t, "data/foliodesk.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Broker.Enabled)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "broker enabled without token",
			content: `
broker:
  enabled: true
`,
		},
		{
			name: "bad refresh interval",
			content: `
quotes:
  refresh_interval: sometimes
`,
		},
		{
			name: "telegram enabled without chat id",
			content: `
telegram:
  enabled: true
  bot_token: abc
`,
		},
		{
			name: "advisor enabled without key",
			content: `
advisor:
  enabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FOLIODESK_BROKER_TOKEN", "env-token")
	t.Setenv("FOLIODESK_ADMIN_KEY", "env-admin")

	cfg, err := Load(writeConfig(t, `
broker:
  enabled: true
  token: file-token
`))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Broker.Token)
	assert.Equal(t, "env-admin", cfg.Web.AdminKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
