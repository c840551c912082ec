package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/migration"
)

func DownCmd(open DBProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revert the last applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			out := cmd.OutOrStdout()

			return withMigrator(cmd, open, func(ctx context.Context, _ *gorm.DB, m *migration.Migrator) error {
				for i := 0; i < steps; i++ {
					reverted, err := m.Down(ctx)
					if errors.Is(err, migration.ErrNoMigrations) {
						if i == 0 {
							return err
						}
						fmt.Fprintln(out, "No more migrations to revert.")
						return nil
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Reverted migration: %s (%s)\n", reverted.Name, reverted.Version)
				}
				return nil
			})
		},
	}

	cmd.Flags().Int("steps", 1, "Number of migrations to revert")
	return cmd
}
