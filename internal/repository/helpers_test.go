package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
	"github.com/beesaferoot/officelease/internal/testutil"
)

type fixture struct {
	ctx       context.Context
	db        *gorm.DB
	buildings *repository.BuildingRepository
	offices   *repository.OfficeRepository
	tenants   *repository.TenantRepository
	leases    *repository.LeaseRepository
	payments  *repository.PaymentRepository
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	return &fixture{
		ctx:       context.Background(),
		db:        db,
		buildings: repository.NewBuildingRepository(db),
		offices:   repository.NewOfficeRepository(db),
		tenants:   repository.NewTenantRepository(db),
		leases:    repository.NewLeaseRepository(db),
		payments:  repository.NewPaymentRepository(db),
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) building(t *testing.T, name string) *models.Building {
	t.Helper()
	b := &models.Building{Name: name, Address: "1 Main Street"}
	require.NoError(t, f.buildings.Create(f.ctx, b))
	return b
}

func (f *fixture) office(t *testing.T, buildingID uint, number string, surface float64) *models.Office {
	t.Helper()
	o := &models.Office{BuildingID: buildingID, Number: number, SurfaceM2: &surface, Available: true}
	require.NoError(t, f.offices.Create(f.ctx, o))
	return o
}

func (f *fixture) tenant(t *testing.T, name string) *models.Tenant {
	t.Helper()
	tn := &models.Tenant{Name: name, Phone: "0600000000", Email: name + "@example.com"}
	require.NoError(t, f.tenants.Create(f.ctx, tn))
	return tn
}

func (f *fixture) lease(t *testing.T, tenantID uint, start time.Time, officeIDs ...uint) *models.Lease {
	t.Helper()
	l := &models.Lease{TenantID: tenantID, StartDate: start, MonthlyRent: 1000, FirstMonthRent: 1500}
	require.NoError(t, f.leases.CreateWithValidation(f.ctx, l, officeIDs))
	return l
}

func (f *fixture) rent(t *testing.T, l *models.Lease, paidOn, from, to time.Time) *models.Payment {
	t.Helper()
	p := &models.Payment{
		TenantID:    l.TenantID,
		LeaseID:     l.ID,
		Type:        models.PaymentRent,
		Amount:      l.MonthlyRent,
		PaidOn:      paidOn,
		PeriodStart: &from,
		PeriodEnd:   &to,
	}
	require.NoError(t, f.payments.Create(f.ctx, p))
	return p
}
