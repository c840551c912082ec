package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/audit"
	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/report"
	"github.com/beesaferoot/officelease/internal/repository"
	"github.com/beesaferoot/officelease/internal/service"
	"github.com/beesaferoot/officelease/internal/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type world struct {
	ctx              context.Context
	db               *gorm.DB
	north, south     *models.Building
	alice, bob, carl *models.Lease
}

// build sets up two buildings:
//
//	north: 101 leased by Alice from 2024-03-15, 102 leased by Bob from 2023
//	       until 2024-04-10
//	south: 201 leased by Carl from 2024-04-01, never paid
func build(t *testing.T) *world {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := service.New(db, audit.NewRecorder(nil), zap.NewNop())
	svc.SetClock(func() time.Time { return date(2024, 4, 20) })
	w := &world{ctx: ctx, db: db}

	w.north = &models.Building{Name: "North"}
	w.south = &models.Building{Name: "South"}
	require.NoError(t, svc.Buildings.Create(ctx, w.north))
	require.NoError(t, svc.Buildings.Create(ctx, w.south))
	o101 := &models.Office{BuildingID: w.north.ID, Number: "101"}
	o102 := &models.Office{BuildingID: w.north.ID, Number: "102"}
	o201 := &models.Office{BuildingID: w.south.ID, Number: "201", Available: true}
	for _, o := range []*models.Office{o101, o102, o201} {
		require.NoError(t, svc.Offices.Create(ctx, o))
	}

	tenant := func(name string) uint {
		tn := &models.Tenant{Name: name}
		require.NoError(t, svc.Tenants.Create(ctx, tn))
		return tn.ID
	}
	var err error
	w.alice, err = svc.Leases.Create(ctx, &models.Lease{TenantID: tenant("Alice"), StartDate: date(2024, 3, 15), MonthlyRent: 1000, FirstMonthRent: 1500}, []uint{o101.ID})
	require.NoError(t, err)
	w.bob, err = svc.Leases.Create(ctx, &models.Lease{TenantID: tenant("Bob"), StartDate: date(2023, 1, 1), MonthlyRent: 800}, []uint{o102.ID})
	require.NoError(t, err)
	w.bob, err = svc.Leases.Terminate(ctx, w.bob.ID, date(2024, 4, 10), "moved out")
	require.NoError(t, err)
	w.carl, err = svc.Leases.Create(ctx, &models.Lease{TenantID: tenant("Carl"), StartDate: date(2024, 4, 1), MonthlyRent: 600}, []uint{o201.ID})
	require.NoError(t, err)

	pay := func(l *models.Lease, typ models.PaymentType, paidOn time.Time, amount float64, from, to *time.Time) {
		require.NoError(t, svc.Payments.Create(ctx, &models.Payment{LeaseID: l.ID, Type: typ, Amount: amount, PaidOn: paidOn, PeriodStart: from, PeriodEnd: to}))
	}
	mar, apr := date(2024, 3, 1), date(2024, 4, 30)
	pay(w.alice, models.PaymentRent, date(2024, 3, 20), 2500, &mar, &apr)
	marEnd := date(2024, 3, 31)
	pay(w.bob, models.PaymentRent, date(2024, 4, 2), 800, &mar, &marEnd)
	pay(w.alice, models.PaymentDeposit, date(2024, 4, 5), 3000, nil, nil)
	return w
}

func statuses(row report.GridRow) []report.CellStatus {
	out := make([]report.CellStatus, 0, len(row.Cells))
	for _, c := range row.Cells {
		out = append(out, c.Status)
	}
	return out
}

func TestPaymentGrid(t *testing.T) {
	w := build(t)

	grid, err := report.PaymentGrid(w.ctx, w.db, w.north.ID, date(2024, 4, 15))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06", "2024-07"}, grid.Months)
	require.Len(t, grid.Rows, 2)

	const (
		paid   = report.StatusPaid
		unpaid = report.StatusUnpaid
		na     = report.StatusNotApplicable
	)

	bob := grid.Rows[0]
	assert.Equal(t, w.bob.ID, bob.LeaseID)
	assert.Equal(t, "Bob", bob.TenantName)
	assert.Equal(t, "102", bob.Offices)
	assert.True(t, bob.Terminated)
	assert.Equal(t, []report.CellStatus{unpaid, unpaid, paid, unpaid, na, na, na}, statuses(bob))
	assert.Equal(t, 800.0, bob.Cells[0].AmountDue)
	assert.Zero(t, bob.Cells[4].AmountDue)

	alice := grid.Rows[1]
	assert.Equal(t, w.alice.ID, alice.LeaseID)
	assert.Equal(t, []report.CellStatus{na, na, paid, paid, unpaid, unpaid, unpaid}, statuses(alice))
	assert.Equal(t, 1500.0, alice.Cells[2].AmountDue)
	assert.Equal(t, 1000.0, alice.Cells[3].AmountDue)
}

func TestPaymentGridHidesLeasesOutsideWindow(t *testing.T) {
	w := build(t)

	grid, err := report.PaymentGrid(w.ctx, w.db, w.north.ID, date(2025, 1, 1))
	require.NoError(t, err)
	require.Len(t, grid.Rows, 1)
	assert.Equal(t, w.alice.ID, grid.Rows[0].LeaseID)

	south, err := report.PaymentGrid(w.ctx, w.db, w.south.ID, date(2024, 4, 1))
	require.NoError(t, err)
	require.Len(t, south.Rows, 1)
	assert.Equal(t, w.carl.ID, south.Rows[0].LeaseID)
}

func TestPaymentGridUnknownBuilding(t *testing.T) {
	w := build(t)
	_, err := report.PaymentGrid(w.ctx, w.db, 999, date(2024, 4, 1))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDashboard(t *testing.T) {
	w := build(t)

	s, err := report.Dashboard(w.ctx, w.db, date(2024, 4, 20))
	require.NoError(t, err)
	assert.EqualValues(t, 2, s.Buildings)
	assert.EqualValues(t, 3, s.Offices)
	assert.EqualValues(t, 1, s.AvailableOffices)
	assert.EqualValues(t, 2, s.ActiveTenants)
	assert.EqualValues(t, 2, s.ActiveLeases)
	assert.EqualValues(t, 2, s.PaymentsThisMonth)
	assert.Equal(t, 3800.0, s.CollectedThisMonth)
	assert.Equal(t, 3300.0, s.RentCollectedThisYear)
	assert.EqualValues(t, 1, s.LeasesWithUnpaid)
	assert.Equal(t, date(2024, 4, 20), s.AsOf)
}

func TestDashboardEmpty(t *testing.T) {
	db := testutil.NewDB(t)
	s, err := report.Dashboard(context.Background(), db, date(2024, 1, 1))
	require.NoError(t, err)
	assert.Zero(t, s.Buildings)
	assert.Zero(t, s.LeasesWithUnpaid)
	assert.Zero(t, s.RentCollectedThisYear)
}
