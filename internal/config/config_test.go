package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/officelease.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "TND", cfg.Receipts.Currency)
	assert.Equal(t, "http://localhost:8085/callback", cfg.Drive.RedirectURL)
	assert.Empty(t, cfg.Backup.Schedule)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  path: /tmp/office.db
server:
  port: 9090
receipts:
  company_name: Acme Offices
backup:
  schedule: "0 3 * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("OFFICELEASE_SERVER_PORT", "9191")
	t.Setenv("OFFICELEASE_DRIVE_CLIENT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/office.db", cfg.Database.Path)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "Acme Offices", cfg.Receipts.CompanyName)
	assert.Equal(t, "0 3 * * *", cfg.Backup.Schedule)
	assert.Equal(t, "s3cret", cfg.Drive.ClientSecret)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate())
	cfg.Database.DSN = "postgres://localhost/office"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Backup.Schedule = "every day"
	assert.Error(t, cfg.Validate())
}

func TestSave_OmitsSecret(t *testing.T) {
	cfg := Default()
	cfg.Drive.ClientID = "client-id"
	cfg.Drive.ClientSecret = "do-not-write"

	path := filepath.Join(t.TempDir(), "out", "config.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "client-id")
	assert.NotContains(t, string(data), "do-not-write")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "client-id", loaded.Drive.ClientID)
}
