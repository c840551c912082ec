package commands_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/config"
	"github.com/beesaferoot/officelease/internal/database"
	_ "github.com/beesaferoot/officelease/internal/migrations"
	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/migration"
	"github.com/beesaferoot/officelease/migration/commands"
)

// provider hands out one in-memory database shared by every command run.
func provider(t *testing.T) (commands.DBProvider, *gorm.DB) {
	t.Helper()
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"}
	db, err := database.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	return func(context.Context) (*gorm.DB, func() error, error) {
		return db, func() error { return nil }, nil
	}, db
}

func run(t *testing.T, open commands.DBProvider, args ...string) (string, error) {
	t.Helper()
	cmd := commands.MigrateCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCmd(t *testing.T) {
	cmd := commands.MigrateCmd(nil)
	assert.Equal(t, "migrate", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("dry-run"))

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, name := range []string{"up", "down", "status", "history", "validate"} {
		assert.True(t, names[name], name)
	}
}

func TestUpCmd(t *testing.T) {
	cmd := commands.UpCmd(nil)
	assert.Equal(t, "up", cmd.Use)
	assert.Equal(t, "Apply all pending migrations", cmd.Short)
	assert.NotNil(t, cmd.Flags().Lookup("dry-run"))
}

func TestDownCmd(t *testing.T) {
	cmd := commands.DownCmd(nil)
	assert.Equal(t, "down", cmd.Use)
	assert.Equal(t, "1", cmd.Flags().Lookup("steps").DefValue)
}

func TestUpDryRunThenApply(t *testing.T) {
	open, db := provider(t)
	total := len(migration.GetRegisteredMigrations())

	out, err := run(t, open, "up", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Pending migrations:")
	assert.False(t, db.Migrator().HasTable("buildings"))

	out, err = run(t, open)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied migration:")
	assert.True(t, db.Migrator().HasTable("buildings"))

	out, err = run(t, open, "up")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending migrations.")

	out, err = run(t, open, "status")
	require.NoError(t, err)
	assert.NotContains(t, out, "Pending")
	assert.Contains(t, out, "Applied")

	out, err = run(t, open, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied At")

	out, err = run(t, open, "down", "--steps", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("Reverted migration:")))

	statuses, err := migration.NewMigrator(db).Status(context.Background())
	require.NoError(t, err)
	applied := 0
	for _, st := range statuses {
		if st.Applied {
			applied++
		}
	}
	assert.Equal(t, total-2, applied)
}

func TestDownWithNothingApplied(t *testing.T) {
	open, _ := provider(t)

	_, err := run(t, open, "down")
	assert.ErrorIs(t, err, migration.ErrNoMigrations)

	_, err = run(t, open, "down", "--steps", "0")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	open, db := provider(t)
	migration.GlobalModelRegistry = models.Registry{}
	t.Cleanup(func() { migration.GlobalModelRegistry = nil })

	out, err := run(t, open, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema check skipped")

	_, err = run(t, open, "up")
	require.NoError(t, err)
	out, err = run(t, open, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema matches the models")

	require.NoError(t, db.Migrator().DropColumn(&models.AuditLog{}, "request_id"))
	out, err = run(t, open, "validate")
	assert.Error(t, err)
	assert.Contains(t, out, "audit_logs.request_id")
}

func TestValidateWithoutRegistry(t *testing.T) {
	open, _ := provider(t)
	saved := migration.GlobalModelRegistry
	migration.GlobalModelRegistry = nil
	t.Cleanup(func() { migration.GlobalModelRegistry = saved })

	out, err := run(t, open, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "All migrations are valid")
	assert.Contains(t, out, "No model registry set, schema check skipped")
}
