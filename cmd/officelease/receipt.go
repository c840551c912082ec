package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/receipt"
)

func receiptCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipt",
		Short: "Generate payment receipts",
	}

	generate := &cobra.Command{
		Use:   "generate <payment-id>",
		Short: "Generate the PDF receipt of a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid payment id %q", args[0])
			}
			outPath, _ := cmd.Flags().GetString("out")

			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				svc := a.receipts(db)
				pdf, rc, err := svc.Generate(ctx, uint(id))
				if err != nil {
					return err
				}
				path := rc.FilePath
				if outPath != "" {
					if err := os.WriteFile(outPath, pdf, 0644); err != nil {
						return fmt.Errorf("failed to write %s: %w", outPath, err)
					}
					path = outPath
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Receipt %s written to %s\n", rc.Number, path)
				return nil
			})
		},
	}
	generate.Flags().String("out", "", "Also write the PDF to this path")

	batch := &cobra.Command{
		Use:   "batch",
		Short: "Generate receipts for every payment in a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := dateFlag(cmd, "from")
			if err != nil {
				return err
			}
			to, err := dateFlag(cmd, "to")
			if err != nil {
				return err
			}
			if from == nil || to == nil {
				return fmt.Errorf("--from and --to are required")
			}
			if to.Before(*from) {
				return fmt.Errorf("--to is before --from")
			}
			workers, _ := cmd.Flags().GetInt("workers")

			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				svc := a.receipts(db)
				svc.SetWorkers(workers)
				results, err := svc.GenerateBatch(ctx, *from, *to)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				failed := 0
				for _, r := range results {
					if r.Err != nil {
						failed++
						fmt.Fprintf(out, "%-16s payment %d: %v\n", "FAILED", r.PaymentID, r.Err)
						continue
					}
					fmt.Fprintf(out, "%-16s payment %d -> %s\n", r.Number, r.PaymentID, r.Path)
				}
				fmt.Fprintf(out, "%d generated, %d failed (%s to %s)\n",
					len(results)-failed, failed, from.Format(time.DateOnly), to.Format(time.DateOnly))
				if failed > 0 {
					return fmt.Errorf("%d receipt(s) failed", failed)
				}
				return nil
			})
		},
	}
	batch.Flags().String("from", "", "First payment date (YYYY-MM-DD)")
	batch.Flags().String("to", "", "Last payment date (YYYY-MM-DD)")
	batch.Flags().Int("workers", 0, "Number of PDFs rendered in parallel (default: CPU count)")

	cmd.AddCommand(generate, batch)
	return cmd
}

func (a *app) receipts(db *gorm.DB) *receipt.Service {
	_, rec := a.services(db)
	return receipt.NewService(db, a.cfg.Receipts, a.cfg.Storage.ReceiptsDir, rec, a.logger)
}
