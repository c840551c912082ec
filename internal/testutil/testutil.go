// Package testutil opens migrated in-memory databases for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/config"
	"github.com/beesaferoot/officelease/internal/database"
	_ "github.com/beesaferoot/officelease/internal/migrations"
	"github.com/beesaferoot/officelease/migration"
)

// NewDB returns an in-memory SQLite database with every migration applied.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"}
	db, err := database.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.NewMigrator(db).Up(context.Background())
	require.NoError(t, err)
	return db
}
