// Package seed loads a small demo dataset through the services, so every
// business rule and audit entry applies as it would for real input.
package seed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/database"
	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/service"
)

// Result counts what Run created.
type Result struct {
	Buildings int
	Offices   int
	Tenants   int
	Leases    int
	Payments  int
}

// ErrNotEmpty is returned when the database already holds buildings and
// reset was not requested.
var ErrNotEmpty = fmt.Errorf("database already contains data, use --reset to replace it")

// Reset deletes every business row, keeping receipt templates and the
// migration history.
func Reset(ctx context.Context, db *gorm.DB) error {
	return database.Transaction(ctx, db, func(tx *gorm.DB) error {
		for _, table := range []string{"audit_logs", "documents", "document_tree_configs", "receipts", "payments", "lease_offices", "leases", "tenants", "offices", "buildings"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Run inserts the demo dataset. Lease and payment dates are relative to now
// so the payment grid always has something to show.
func Run(ctx context.Context, db *gorm.DB, svc *service.Services, now time.Time, reset bool, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var n int64
	if err := db.WithContext(ctx).Model(&models.Building{}).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		if !reset {
			return nil, ErrNotEmpty
		}
		if err := Reset(ctx, db); err != nil {
			return nil, err
		}
		logger.Info("existing data removed")
	}

	res := &Result{}
	floor := func(f int) *int { return &f }
	surface := func(s float64) *float64 { return &s }

	buildings := []*models.Building{
		{Name: "Les Berges du Lac", Address: "Rue du Lac Windermere, Tunis", Notes: "Parking in the basement"},
		{Name: "Centre Urbain Nord", Address: "Avenue de la Bourse, Tunis"},
	}
	for _, b := range buildings {
		if err := svc.Buildings.Create(ctx, b); err != nil {
			return nil, err
		}
		res.Buildings++
	}

	offices := []*models.Office{
		{BuildingID: buildings[0].ID, Number: "A101", Floor: floor(1), SurfaceM2: surface(45), Available: true},
		{BuildingID: buildings[0].ID, Number: "A102", Floor: floor(1), SurfaceM2: surface(30), Available: true},
		{BuildingID: buildings[0].ID, Number: "B201", Floor: floor(2), SurfaceM2: surface(80), Available: true},
		{BuildingID: buildings[1].ID, Number: "101", Floor: floor(1), SurfaceM2: surface(60), Available: true},
		{BuildingID: buildings[1].ID, Number: "102", Floor: floor(1), SurfaceM2: surface(25), Available: true},
	}
	for _, o := range offices {
		if err := svc.Offices.Create(ctx, o); err != nil {
			return nil, err
		}
		res.Offices++
	}

	tenants := []*models.Tenant{
		{Name: "Sami Ben Salah", CompanyName: "Ben Salah Conseil", Phone: "+216 71 000 001", Email: "sami@bensalah.tn", NationalID: "01234567"},
		{Name: "Leila Trabelsi", CompanyName: "Trabelsi Design", Phone: "+216 71 000 002", Email: "leila@trabelsi.tn", NationalID: "07654321"},
		{Name: "Karim Haddad", Phone: "+216 71 000 003"},
	}
	for _, t := range tenants {
		if err := svc.Tenants.Create(ctx, t); err != nil {
			return nil, err
		}
		res.Tenants++
	}

	thisMonth := models.YearMonthOf(now)
	start := thisMonth.Add(-5).First()

	active, err := svc.Leases.Create(ctx, &models.Lease{
		TenantID:         tenants[0].ID,
		StartDate:        start,
		MonthlyRent:      1200,
		FirstMonthRent:   1200,
		Deposit:          2400,
		ElectricityMeter: "STEG-104882",
		WaterMeter:       "SONEDE-55120",
	}, []uint{offices[0].ID, offices[1].ID})
	if err != nil {
		return nil, err
	}
	res.Leases++

	second, err := svc.Leases.Create(ctx, &models.Lease{
		TenantID:    tenants[1].ID,
		StartDate:   thisMonth.Add(-2).First(),
		MonthlyRent: 900,
		KeyMoney:    1500,
	}, []uint{offices[3].ID})
	if err != nil {
		return nil, err
	}
	res.Leases++

	old, err := svc.Leases.Create(ctx, &models.Lease{
		TenantID:    tenants[2].ID,
		StartDate:   thisMonth.Add(-14).First(),
		MonthlyRent: 700,
	}, []uint{offices[4].ID})
	if err != nil {
		return nil, err
	}
	res.Leases++
	if _, err := svc.Leases.Terminate(ctx, old.ID, thisMonth.Add(-3).Last(), "Moved to a larger office"); err != nil {
		return nil, err
	}

	pay := func(l *models.Lease, typ models.PaymentType, amount float64, paidOn time.Time, from, to *models.YearMonth) error {
		p := &models.Payment{LeaseID: l.ID, Type: typ, Amount: amount, PaidOn: paidOn}
		if from != nil && to != nil {
			s, e := from.First(), to.Last()
			p.PeriodStart, p.PeriodEnd = &s, &e
		}
		if err := svc.Payments.Create(ctx, p); err != nil {
			return err
		}
		res.Payments++
		return nil
	}

	first := models.YearMonthOf(start)
	q1End := first.Add(2)
	q2Start, q2End := first.Add(3), first.Add(4)
	secondStart := models.YearMonthOf(second.StartDate)
	oldStart := models.YearMonthOf(old.StartDate)
	oldEnd := oldStart.Add(9)

	steps := []error{
		pay(active, models.PaymentDeposit, 2400, start, nil, nil),
		pay(active, models.PaymentRent, 3600, start.AddDate(0, 0, 2), &first, &q1End),
		pay(active, models.PaymentRent, 2400, q2Start.First().AddDate(0, 0, 3), &q2Start, &q2End),
		pay(second, models.PaymentKeyMoney, 1500, second.StartDate, nil, nil),
		pay(second, models.PaymentRent, 900, second.StartDate.AddDate(0, 0, 5), &secondStart, &secondStart),
		pay(old, models.PaymentRent, 7000, old.StartDate.AddDate(0, 0, 1), &oldStart, &oldEnd),
	}
	for _, err := range steps {
		if err != nil {
			return nil, err
		}
	}

	logger.Info("demo data seeded",
		zap.Int("buildings", res.Buildings),
		zap.Int("offices", res.Offices),
		zap.Int("tenants", res.Tenants),
		zap.Int("leases", res.Leases),
		zap.Int("payments", res.Payments),
	)
	return res, nil
}
