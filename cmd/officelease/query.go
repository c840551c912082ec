package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/report"
	"github.com/beesaferoot/officelease/internal/repository"
)

func queryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read-only reports on leases, payments and tenants",
	}
	cmd.AddCommand(
		queryLeasesCmd(a),
		queryUnpaidCmd(a),
		queryPaymentsCmd(a),
		queryTenantsCmd(a),
		queryStatsCmd(a),
	)
	return cmd
}

// dateFlag parses an optional YYYY-MM-DD flag.
func dateFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

func officeLabels(l models.Lease) string {
	labels := make([]string, 0, len(l.Offices))
	for _, o := range l.Offices {
		labels = append(labels, o.Label())
	}
	return strings.Join(labels, ", ")
}

func printLeases(out io.Writer, leases []models.Lease) {
	if len(leases) == 0 {
		fmt.Fprintln(out, "No leases found.")
		return
	}
	fmt.Fprintf(out, "%-6s  %-24s  %-10s  %-10s  %10s  %s\n", "ID", "Tenant", "Start", "Status", "Rent", "Offices")
	for _, l := range leases {
		tenant := ""
		if l.Tenant != nil {
			tenant = l.Tenant.Name
		}
		status := "active"
		if l.Terminated {
			status = "terminated"
		}
		fmt.Fprintf(out, "%-6d  %-24s  %-10s  %-10s  %10.3f  %s\n",
			l.ID, tenant, l.StartDate.Format(time.DateOnly), status, l.MonthlyRent, officeLabels(l))
	}
}

func queryLeasesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leases",
		Short: "List leases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			active, _ := cmd.Flags().GetBool("active")
			terminated, _ := cmd.Flags().GetBool("terminated")
			tenantID, _ := cmd.Flags().GetUint("tenant")
			if active && terminated {
				return fmt.Errorf("--active and --terminated are mutually exclusive")
			}

			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				repo := repository.NewLeaseRepository(db)
				var leases []models.Lease
				var err error
				switch {
				case tenantID != 0:
					leases, err = repo.ByTenant(ctx, tenantID)
				case active:
					leases, err = repo.Active(ctx)
				case terminated:
					leases, err = repo.Terminated(ctx)
				default:
					leases, err = repo.All(ctx, repository.ListOptions{})
				}
				if err != nil {
					return err
				}
				if tenantID != 0 && (active || terminated) {
					filtered := leases[:0]
					for _, l := range leases {
						if l.Terminated == terminated {
							filtered = append(filtered, l)
						}
					}
					leases = filtered
				}
				printLeases(cmd.OutOrStdout(), leases)
				return nil
			})
		},
	}
	cmd.Flags().Bool("active", false, "Only active leases")
	cmd.Flags().Bool("terminated", false, "Only terminated leases")
	cmd.Flags().Uint("tenant", 0, "Only leases of this tenant")
	return cmd
}

func queryUnpaidCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpaid",
		Short: "List the unpaid months of a lease",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			leaseID, _ := cmd.Flags().GetUint("lease")
			if leaseID == 0 {
				return fmt.Errorf("--lease is required")
			}
			asOf, err := dateFlag(cmd, "as-of")
			if err != nil {
				return err
			}
			when := time.Now()
			if asOf != nil {
				when = *asOf
			}

			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				svc, _ := a.services(db)
				months, err := svc.Leases.UnpaidMonths(ctx, leaseID, when)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(months) == 0 {
					fmt.Fprintf(out, "Lease %d is paid up as of %s.\n", leaseID, when.Format(time.DateOnly))
					return nil
				}
				fmt.Fprintf(out, "Lease %d has %d unpaid month(s) as of %s:\n", leaseID, len(months), when.Format(time.DateOnly))
				for _, ym := range months {
					fmt.Fprintf(out, "- %s\n", ym)
				}
				return nil
			})
		},
	}
	cmd.Flags().Uint("lease", 0, "Lease ID")
	cmd.Flags().String("as-of", "", "Reference date (YYYY-MM-DD, default today)")
	return cmd
}

func queryPaymentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := repository.PaymentFilter{}
			f.LeaseID, _ = cmd.Flags().GetUint("lease")
			f.TenantID, _ = cmd.Flags().GetUint("tenant")
			if raw, _ := cmd.Flags().GetString("type"); raw != "" {
				t, err := models.ParsePaymentType(raw)
				if err != nil {
					return err
				}
				f.Type = t
			}
			var err error
			if f.From, err = dateFlag(cmd, "from"); err != nil {
				return err
			}
			if f.To, err = dateFlag(cmd, "to"); err != nil {
				return err
			}

			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				payments, err := repository.NewPaymentRepository(db).Find(ctx, f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(payments) == 0 {
					fmt.Fprintln(out, "No payments found.")
					return nil
				}
				var total float64
				fmt.Fprintf(out, "%-6s  %-10s  %-24s  %-6s  %-10s  %12s  %s\n", "ID", "Paid On", "Tenant", "Lease", "Type", "Amount", "Period")
				for _, p := range payments {
					tenant := ""
					if p.Tenant != nil {
						tenant = p.Tenant.Name
					}
					fmt.Fprintf(out, "%-6d  %-10s  %-24s  %-6d  %-10s  %12.3f  %s\n",
						p.ID, p.PaidOn.Format(time.DateOnly), tenant, p.LeaseID, p.Type, p.Amount, p.PeriodLabel())
					total += p.Amount
				}
				fmt.Fprintf(out, "%d payment(s), total %.3f\n", len(payments), total)
				return nil
			})
		},
	}
	cmd.Flags().Uint("lease", 0, "Only payments of this lease")
	cmd.Flags().Uint("tenant", 0, "Only payments of this tenant")
	cmd.Flags().String("type", "", "Payment type (rent, deposit, key_money, other)")
	cmd.Flags().String("from", "", "Paid on or after (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Paid on or before (YYYY-MM-DD)")
	return cmd
}

func queryTenantsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "List tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("status")
			status := models.TenantStatus(raw)
			if raw != "" && !status.Valid() {
				return fmt.Errorf("unknown tenant status %q", raw)
			}

			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				repo := repository.NewTenantRepository(db)
				var tenants []models.Tenant
				var err error
				if raw != "" {
					tenants, err = repo.ByStatus(ctx, status)
				} else {
					tenants, err = repo.List(ctx, repository.ListOptions{})
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(tenants) == 0 {
					fmt.Fprintln(out, "No tenants found.")
					return nil
				}
				fmt.Fprintf(out, "%-6s  %-24s  %-24s  %-16s  %s\n", "ID", "Name", "Company", "Phone", "Status")
				for _, t := range tenants {
					fmt.Fprintf(out, "%-6d  %-24s  %-24s  %-16s  %s\n", t.ID, t.Name, t.CompanyName, t.Phone, t.Status)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("status", "", "Only tenants with this status (active, historical)")
	return cmd
}

func queryStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				s, err := report.Dashboard(ctx, db, time.Now())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-28s %s\n", "As of:", s.AsOf.Format(time.DateOnly))
				fmt.Fprintf(out, "%-28s %d\n", "Buildings:", s.Buildings)
				fmt.Fprintf(out, "%-28s %d (%d available)\n", "Offices:", s.Offices, s.AvailableOffices)
				fmt.Fprintf(out, "%-28s %d\n", "Active tenants:", s.ActiveTenants)
				fmt.Fprintf(out, "%-28s %d\n", "Active leases:", s.ActiveLeases)
				fmt.Fprintf(out, "%-28s %d\n", "Leases with unpaid months:", s.LeasesWithUnpaid)
				fmt.Fprintf(out, "%-28s %d (%.3f)\n", "Payments this month:", s.PaymentsThisMonth, s.CollectedThisMonth)
				fmt.Fprintf(out, "%-28s %.3f\n", "Rent collected this year:", s.RentCollectedThisYear)
				return nil
			})
		},
	}
}
