package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nodeup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidate_GoodConfig(t *testing.T) {
	path := writeConfig(t, `
bot:
  token: "123:abc"
  admin_ids: "1001"
marzban:
  url: "https://panel.example.com"
  username: "admin"
  password: "hunter2"
node:
  certificate: "LS0tLS1CRUdJTg=="
`)

	require.NoError(t, Validate(context.Background(), path))
}

func TestValidate_MissingCredentials(t *testing.T) {
	path := writeConfig(t, `
bot:
  token: "123:abc"
  admin_ids: "1001"
`)

	err := Validate(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marzban")
}

func TestValidate_MissingFile(t *testing.T) {
	err := Validate(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
