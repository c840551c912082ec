package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/audit"
	"github.com/beesaferoot/officelease/internal/seed"
)

func seedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a demo dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, _ := cmd.Flags().GetBool("reset")
			out := cmd.OutOrStdout()
			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				svc, _ := a.services(db)
				res, err := seed.Run(audit.WithActor(ctx, "seed"), db, svc, time.Now(), reset, a.logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-16s %d\n", "Buildings:", res.Buildings)
				fmt.Fprintf(out, "%-16s %d\n", "Offices:", res.Offices)
				fmt.Fprintf(out, "%-16s %d\n", "Tenants:", res.Tenants)
				fmt.Fprintf(out, "%-16s %d\n", "Leases:", res.Leases)
				fmt.Fprintf(out, "%-16s %d\n", "Payments:", res.Payments)
				return nil
			})
		},
	}
	cmd.Flags().Bool("reset", false, "Delete existing data before seeding")
	return cmd
}
