package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/schema"
	"github.com/beesaferoot/officelease/migration"
)

// ValidateCmd checks the registered migrations and, when a model registry is
// set, that the migrated schema has every table and column the models need.
func ValidateCmd(open DBProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate migrations and check the schema against the models",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if err := migration.Validate(migration.GetRegisteredMigrations()); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			fmt.Fprintln(out, "All migrations are valid")

			if err := migration.ValidateRegistry(); err != nil {
				fmt.Fprintln(out, "No model registry set, schema check skipped")
				return nil
			}

			return withMigrator(cmd, open, func(ctx context.Context, db *gorm.DB, m *migration.Migrator) error {
				pending, err := m.Pending(ctx)
				if err != nil {
					return err
				}
				if len(pending) > 0 {
					fmt.Fprintf(out, "%d migration(s) pending, schema check skipped\n", len(pending))
					return nil
				}

				drifts, err := schema.Check(db, migration.GlobalModelRegistry.GetModels())
				if err != nil {
					return err
				}
				if len(drifts) == 0 {
					fmt.Fprintln(out, "Schema matches the models")
					return nil
				}
				for _, d := range drifts {
					fmt.Fprintln(out, "- "+d.String())
				}
				return fmt.Errorf("schema drift: %d difference(s) found", len(drifts))
			})
		},
	}
}
