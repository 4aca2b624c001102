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
	path := filepath.Join(t.TempDir(), "nodeup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validYAML = `
bot:
  token: "123:abc"
  admin_ids: "1001, 1002"
marzban:
  url: "https://panel.example.com"
  username: "admin"
  password: "hunter2"
node:
  certificate: "LS0tLS1CRUdJTg=="
`

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, []int64{1001, 1002}, cfg.Bot.AdminIDs)
	assert.Equal(t, "https://panel.example.com", cfg.Marzban.BaseURL)

	// Defaults applied.
	assert.Equal(t, 8443, cfg.Node.DefaultServicePort)
	assert.Equal(t, 8880, cfg.Node.DefaultAPIPort)
	assert.Equal(t, 10*time.Second, cfg.SSH.ConnectTimeout)
	assert.Equal(t, 2, cfg.Marzban.MaxRetries)
	assert.Equal(t, 1*time.Second, cfg.Marzban.RetryBaseDelay)
	assert.Equal(t, 15*time.Minute, cfg.Limits.SessionIdle)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("NODEUP_MARZBAN_USERNAME", "operator")
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "operator", cfg.Marzban.Username)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	_, err := Load(writeConfig(t, `bot: {token: "x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_ids")
	assert.Contains(t, err.Error(), "marzban.url")
	assert.Contains(t, err.Error(), "certificate")
}

func TestLoad_BadAdminID(t *testing.T) {
	yaml := `
bot:
  token: "x"
  admin_ids: "1001, bogus"
`
	_, err := Load(writeConfig(t, yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestLoad_EqualDefaultPortsRejected(t *testing.T) {
	_, err := Load(writeConfig(t, validYAML+`
  default_service_port: 9000
  default_api_port: 9000
`))
	require.Error(t, err)
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{Bot: BotConfig{AdminIDs: []int64{5, 9}}}
	assert.True(t, cfg.IsAdmin(5))
	assert.True(t, cfg.IsAdmin(9))
	assert.False(t, cfg.IsAdmin(7))
}
