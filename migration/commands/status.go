package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/migration"
)

func StatusCmd(open DBProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show status of all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return withMigrator(cmd, open, func(ctx context.Context, _ *gorm.DB, m *migration.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "%-16s  %-30s  %-8s\n", "Version", "Name", "Status")
				for _, st := range statuses {
					status := "Pending"
					if st.Applied {
						status = "Applied"
					}
					fmt.Fprintf(out, "%-16s  %-30s  %-8s\n", st.Version, st.Name, status)
				}
				return nil
			})
		},
	}
}

func HistoryCmd(open DBProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show migration history",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return withMigrator(cmd, open, func(ctx context.Context, _ *gorm.DB, m *migration.Migrator) error {
				records, err := m.History(ctx)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(out, "No migrations have been applied yet.")
					return nil
				}

				fmt.Fprintf(out, "%-16s  %-30s  %-24s\n", "Version", "Name", "Applied At")
				for _, record := range records {
					fmt.Fprintf(out, "%-16s  %-30s  %-24s\n", record.Version, record.Name, record.AppliedAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}
