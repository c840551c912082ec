package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/migration"
)

func UpCmd(open DBProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			out := cmd.OutOrStdout()

			return withMigrator(cmd, open, func(ctx context.Context, _ *gorm.DB, m *migration.Migrator) error {
				pending, err := m.Pending(ctx)
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(out, "No pending migrations.")
					return nil
				}

				if dryRun {
					fmt.Fprintln(out, "Pending migrations:")
					for _, mr := range pending {
						fmt.Fprintf(out, "- %s (%s)\n", mr.Name, mr.Version)
					}
					return nil
				}

				applied, err := m.Up(ctx)
				for _, mr := range applied {
					fmt.Fprintf(out, "Applied migration: %s (%s)\n", mr.Name, mr.Version)
				}
				return err
			})
		},
	}

	cmd.Flags().Bool("dry-run", false, "Show pending migrations without executing them")
	return cmd
}
