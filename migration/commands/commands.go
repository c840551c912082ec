// Package commands exposes the migrator as cobra subcommands.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/migration"
)

// DBProvider opens the database a command works on. The returned close
// function is always called once the command is done.
type DBProvider func(ctx context.Context) (*gorm.DB, func() error, error)

// MigrateCmd groups the migration subcommands under "migrate". Running it
// without a subcommand applies every pending migration.
func MigrateCmd(open DBProvider) *cobra.Command {
	up := UpCmd(open)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		RunE:  up.RunE,
	}
	cmd.Flags().AddFlagSet(up.Flags())
	cmd.AddCommand(
		up,
		DownCmd(open),
		StatusCmd(open),
		HistoryCmd(open),
		ValidateCmd(open),
	)
	return cmd
}

func withMigrator(cmd *cobra.Command, open DBProvider, fn func(ctx context.Context, db *gorm.DB, m *migration.Migrator) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, closeDB, err := open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeDB()
	return fn(ctx, db, migration.NewMigrator(db))
}
