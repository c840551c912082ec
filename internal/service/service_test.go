package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/audit"
	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
	"github.com/beesaferoot/officelease/internal/service"
	"github.com/beesaferoot/officelease/internal/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type env struct {
	ctx  context.Context
	db   *gorm.DB
	svc  *service.Services
	logs *observer.ObservedLogs
}

func setup(t *testing.T) *env {
	db := testutil.NewDB(t)
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	svc := service.New(db, audit.NewRecorder(logger), logger)
	svc.SetClock(func() time.Time { return date(2024, 6, 15) })
	return &env{ctx: audit.WithActor(context.Background(), "tester"), db: db, svc: svc, logs: logs}
}

func (e *env) building(t *testing.T) *models.Building {
	t.Helper()
	b := &models.Building{Name: "North Tower"}
	require.NoError(t, e.svc.Buildings.Create(e.ctx, b))
	return b
}

func (e *env) office(t *testing.T, buildingID uint, number string) *models.Office {
	t.Helper()
	o := &models.Office{BuildingID: buildingID, Number: number, Available: true}
	require.NoError(t, e.svc.Offices.Create(e.ctx, o))
	return o
}

func (e *env) tenant(t *testing.T, name string) *models.Tenant {
	t.Helper()
	tn := &models.Tenant{Name: name}
	require.NoError(t, e.svc.Tenants.Create(e.ctx, tn))
	return tn
}

func (e *env) lease(t *testing.T, tenantID uint, start time.Time, officeIDs ...uint) *models.Lease {
	t.Helper()
	l, err := e.svc.Leases.Create(e.ctx, &models.Lease{TenantID: tenantID, StartDate: start, MonthlyRent: 1000}, officeIDs)
	require.NoError(t, err)
	return l
}

func (e *env) tenantStatus(t *testing.T, id uint) models.TenantStatus {
	t.Helper()
	tn, err := repository.NewTenantRepository(e.db).Get(e.ctx, id)
	require.NoError(t, err)
	return tn.Status
}

func TestBuildingDelete(t *testing.T) {
	e := setup(t)

	empty := e.building(t)
	require.NoError(t, e.svc.Buildings.Delete(e.ctx, empty.ID))

	full := e.building(t)
	e.office(t, full.ID, "101")
	err := e.svc.Buildings.Delete(e.ctx, full.ID)
	require.Error(t, err)
	assert.True(t, repository.IsReference(err))

	assert.ErrorIs(t, e.svc.Buildings.Delete(e.ctx, 999), repository.ErrNotFound)
}

func TestBuildingValidation(t *testing.T) {
	e := setup(t)
	assert.True(t, repository.IsValidation(e.svc.Buildings.Create(e.ctx, &models.Building{Name: "   "})))

	b := e.building(t)
	b.Address = "2 Harbour Road"
	require.NoError(t, e.svc.Buildings.Update(e.ctx, b))

	logs, err := repository.NewAuditRepository(e.db).ForEntity(e.ctx, "buildings", b.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionUpdate, logs[0].Action)
	assert.Equal(t, "tester", logs[0].User)
}

func TestOfficeRules(t *testing.T) {
	e := setup(t)
	b := e.building(t)
	o := e.office(t, b.ID, "101")

	err := e.svc.Offices.Create(e.ctx, &models.Office{BuildingID: b.ID, Number: "101"})
	assert.True(t, repository.IsValidation(err))

	err = e.svc.Offices.Create(e.ctx, &models.Office{BuildingID: 999, Number: "1"})
	assert.True(t, repository.IsValidation(err))

	o.Notes = "corner office"
	require.NoError(t, e.svc.Offices.Update(e.ctx, o))

	tn := e.tenant(t, "alice")
	l := e.lease(t, tn.ID, date(2024, 1, 1), o.ID)
	assert.True(t, repository.IsReference(e.svc.Offices.Delete(e.ctx, o.ID)))

	require.NoError(t, e.svc.Leases.Delete(e.ctx, l.ID))
	require.NoError(t, e.svc.Offices.Delete(e.ctx, o.ID))
}

func TestTenantDeleteRefusedWithLeases(t *testing.T) {
	e := setup(t)
	tn := e.tenant(t, "alice")
	e.lease(t, tn.ID, date(2024, 1, 1))

	assert.True(t, repository.IsReference(e.svc.Tenants.Delete(e.ctx, tn.ID)))

	other := e.tenant(t, "bob")
	require.NoError(t, e.svc.Tenants.Delete(e.ctx, other.ID))
}

func TestTenantChangeStatus(t *testing.T) {
	e := setup(t)
	tn := e.tenant(t, "alice")

	got, err := e.svc.Tenants.ChangeStatus(e.ctx, tn.ID, models.TenantHistorical)
	require.NoError(t, err)
	assert.Equal(t, models.TenantHistorical, got.Status)

	_, err = e.svc.Tenants.ChangeStatus(e.ctx, tn.ID, "gone")
	assert.True(t, repository.IsValidation(err))

	assert.True(t, repository.IsValidation(e.svc.Tenants.Create(e.ctx, &models.Tenant{Name: "x", Email: "nope"})))
}

func TestLeaseLifecycleRecomputesTenantStatus(t *testing.T) {
	e := setup(t)
	b := e.building(t)
	o := e.office(t, b.ID, "101")
	tn := e.tenant(t, "alice")

	l := e.lease(t, tn.ID, date(2024, 1, 1), o.ID)
	assert.Equal(t, models.TenantActive, e.tenantStatus(t, tn.ID))

	_, err := e.svc.Leases.Create(e.ctx, &models.Lease{TenantID: tn.ID, StartDate: date(2024, 2, 1)}, nil)
	assert.True(t, repository.IsValidation(err))

	terminated, err := e.svc.Leases.Terminate(e.ctx, l.ID, date(2024, 5, 31), "moved")
	require.NoError(t, err)
	assert.True(t, terminated.Terminated)
	assert.Equal(t, models.TenantHistorical, e.tenantStatus(t, tn.ID))

	_, err = e.svc.Leases.Reactivate(e.ctx, l.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TenantActive, e.tenantStatus(t, tn.ID))
}

func TestTenantUpdateKeepsDerivedStatus(t *testing.T) {
	e := setup(t)
	b := e.building(t)
	o := e.office(t, b.ID, "101")
	tn := e.tenant(t, "alice")
	l := e.lease(t, tn.ID, date(2024, 1, 1), o.ID)

	_, err := e.svc.Leases.Terminate(e.ctx, l.ID, date(2024, 5, 31), "moved")
	require.NoError(t, err)
	require.Equal(t, models.TenantHistorical, e.tenantStatus(t, tn.ID))

	edit := &models.Tenant{ID: tn.ID, Name: "Acme", Phone: "555"}
	require.NoError(t, e.svc.Tenants.Update(e.ctx, edit))
	assert.Equal(t, models.TenantHistorical, edit.Status)
	assert.Equal(t, models.TenantHistorical, e.tenantStatus(t, tn.ID))

	_, err = e.svc.Leases.Reactivate(e.ctx, l.ID, nil)
	require.NoError(t, err)
	edit = &models.Tenant{ID: tn.ID, Name: "Acme", Status: models.TenantHistorical}
	require.NoError(t, e.svc.Tenants.Update(e.ctx, edit))
	assert.Equal(t, models.TenantActive, e.tenantStatus(t, tn.ID))
}

func TestLeaseTerminateRollsBackOnFailure(t *testing.T) {
	e := setup(t)
	tn := e.tenant(t, "alice")
	l := e.lease(t, tn.ID, date(2024, 3, 1))

	_, err := e.svc.Leases.Terminate(e.ctx, l.ID, date(2024, 1, 1), "")
	assert.True(t, repository.IsValidation(err))

	got, err := repository.NewLeaseRepository(e.db).Get(e.ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, got.Terminated)
	assert.Equal(t, models.TenantActive, e.tenantStatus(t, tn.ID))
}

func TestLeaseFutureStartLogsWarning(t *testing.T) {
	e := setup(t)
	tn := e.tenant(t, "alice")
	e.lease(t, tn.ID, date(2025, 1, 1))

	assert.Equal(t, 1, e.logs.FilterMessage("lease starts in the future").Len())
}

func TestLeaseUpdateMovesTenant(t *testing.T) {
	e := setup(t)
	b := e.building(t)
	o1 := e.office(t, b.ID, "101")
	o2 := e.office(t, b.ID, "102")
	alice := e.tenant(t, "alice")
	bob := e.tenant(t, "bob")
	l := e.lease(t, alice.ID, date(2024, 1, 1), o1.ID)
	_, err := e.svc.Tenants.ChangeStatus(e.ctx, bob.ID, models.TenantHistorical)
	require.NoError(t, err)

	edit := *l
	edit.TenantID = bob.ID
	edit.MonthlyRent = 1200
	edit.Terminated = true
	updated, err := e.svc.Leases.Update(e.ctx, &edit, []uint{o2.ID})
	require.NoError(t, err)
	assert.False(t, updated.Terminated)
	assert.Equal(t, []uint{o2.ID}, updated.OfficeIDs())
	assert.InDelta(t, 1200.0, updated.MonthlyRent, 0.001)

	assert.Equal(t, models.TenantHistorical, e.tenantStatus(t, alice.ID))
	assert.Equal(t, models.TenantActive, e.tenantStatus(t, bob.ID))
}

func TestLeaseAttachDetach(t *testing.T) {
	e := setup(t)
	b := e.building(t)
	o1 := e.office(t, b.ID, "101")
	o2 := e.office(t, b.ID, "102")
	alice := e.tenant(t, "alice")
	bob := e.tenant(t, "bob")
	la := e.lease(t, alice.ID, date(2024, 1, 1), o1.ID)
	lb := e.lease(t, bob.ID, date(2024, 1, 1))

	_, err := e.svc.Leases.AttachOffice(e.ctx, lb.ID, o1.ID)
	assert.True(t, repository.IsValidation(err))

	got, err := e.svc.Leases.AttachOffice(e.ctx, la.ID, o2.ID)
	require.NoError(t, err)
	assert.Len(t, got.Offices, 2)

	got, err = e.svc.Leases.DetachOffice(e.ctx, la.ID, o1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{o2.ID}, got.OfficeIDs())
}

func TestLeaseDeleteRefusedWithPayments(t *testing.T) {
	e := setup(t)
	tn := e.tenant(t, "alice")
	l := e.lease(t, tn.ID, date(2024, 1, 1))

	p := &models.Payment{LeaseID: l.ID, Type: models.PaymentDeposit, Amount: 2000, PaidOn: date(2024, 1, 1)}
	require.NoError(t, e.svc.Payments.Create(e.ctx, p))
	assert.True(t, repository.IsReference(e.svc.Leases.Delete(e.ctx, l.ID)))

	require.NoError(t, e.svc.Payments.Delete(e.ctx, p.ID))
	require.NoError(t, e.svc.Leases.Delete(e.ctx, l.ID))
	assert.Equal(t, models.TenantHistorical, e.tenantStatus(t, tn.ID))
}

func TestUnpaidMonths(t *testing.T) {
	e := setup(t)
	tn := e.tenant(t, "alice")
	l := e.lease(t, tn.ID, date(2024, 1, 1))

	require.NoError(t, e.svc.Payments.Create(e.ctx, &models.Payment{
		TenantID: tn.ID, LeaseID: l.ID, Type: models.PaymentRent, Amount: 3000, PaidOn: date(2024, 1, 3),
		PeriodStart: ptr(date(2024, 1, 1)), PeriodEnd: ptr(date(2024, 3, 31)),
	}))

	unpaid, err := e.svc.Leases.UnpaidMonths(e.ctx, l.ID, date(2024, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, []models.YearMonth{{Year: 2024, Month: 4}}, unpaid)

	unpaid, err = e.svc.Leases.UnpaidMonths(e.ctx, l.ID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, unpaid, 3)
}

func ptr[T any](v T) *T { return &v }

func TestPaymentValidation(t *testing.T) {
	e := setup(t)
	alice := e.tenant(t, "alice")
	bob := e.tenant(t, "bob")
	l := e.lease(t, alice.ID, date(2024, 1, 1))

	tests := []struct {
		name    string
		payment models.Payment
		field   string
	}{
		{"zero amount", models.Payment{LeaseID: l.ID, Type: models.PaymentOther}, "amount"},
		{"unknown lease", models.Payment{LeaseID: 999, Type: models.PaymentOther, Amount: 10}, "lease_id"},
		{"foreign tenant", models.Payment{TenantID: bob.ID, LeaseID: l.ID, Type: models.PaymentOther, Amount: 10}, "lease_id"},
		{"rent without period", models.Payment{LeaseID: l.ID, Type: models.PaymentRent, Amount: 10}, "period"},
		{"inverted period", models.Payment{LeaseID: l.ID, Type: models.PaymentRent, Amount: 10,
			PeriodStart: ptr(date(2024, 5, 1)), PeriodEnd: ptr(date(2024, 3, 1))}, "period"},
		{"inverted period within a month", models.Payment{LeaseID: l.ID, Type: models.PaymentRent, Amount: 10,
			PeriodStart: ptr(date(2024, 3, 20)), PeriodEnd: ptr(date(2024, 3, 5))}, "period"},
		{"unknown type", models.Payment{LeaseID: l.ID, Type: "bribe", Amount: 10}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.payment
			err := e.svc.Payments.Create(e.ctx, &p)
			var verr *repository.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestPaymentNormalization(t *testing.T) {
	e := setup(t)
	tn := e.tenant(t, "alice")
	l := e.lease(t, tn.ID, date(2024, 1, 1))

	rent := &models.Payment{LeaseID: l.ID, Type: models.PaymentRent, Amount: 1000,
		PeriodStart: ptr(date(2024, 2, 3)), PeriodEnd: ptr(date(2024, 2, 14))}
	require.NoError(t, e.svc.Payments.Create(e.ctx, rent))
	assert.Equal(t, tn.ID, rent.TenantID)
	assert.True(t, date(2024, 2, 1).Equal(*rent.PeriodStart))
	assert.True(t, date(2024, 2, 29).Equal(*rent.PeriodEnd))
	assert.True(t, date(2024, 6, 15).Equal(rent.PaidOn))

	deposit := &models.Payment{LeaseID: l.ID, Type: models.PaymentDeposit, Amount: 2000, PaidOn: date(2024, 1, 1),
		PeriodStart: ptr(date(2024, 1, 1)), PeriodEnd: ptr(date(2024, 1, 31))}
	require.NoError(t, e.svc.Payments.Create(e.ctx, deposit))
	assert.Nil(t, deposit.PeriodStart)
	assert.Nil(t, deposit.PeriodEnd)

	deposit.Amount = 2500
	require.NoError(t, e.svc.Payments.Update(e.ctx, deposit))
	got, err := repository.NewPaymentRepository(e.db).Get(e.ctx, deposit.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2500.0, got.Amount, 0.001)
}

func TestPaymentDeleteRemovesReceipt(t *testing.T) {
	e := setup(t)
	tn := e.tenant(t, "alice")
	l := e.lease(t, tn.ID, date(2024, 1, 1))
	p := &models.Payment{LeaseID: l.ID, Type: models.PaymentOther, Amount: 50, PaidOn: date(2024, 1, 1)}
	require.NoError(t, e.svc.Payments.Create(e.ctx, p))

	pdf := filepath.Join(t.TempDir(), "RCU-2024-000001.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0644))
	receipts := repository.NewReceiptRepository(e.db)
	require.NoError(t, receipts.Create(e.ctx, &models.Receipt{
		PaymentID: p.ID, Number: "RCU-2024-000001", Content: datatypes.JSON(`{}`), FilePath: pdf, GeneratedAt: date(2024, 1, 1),
	}))

	require.NoError(t, e.svc.Payments.Delete(e.ctx, p.ID))

	_, err := receipts.ByPayment(e.ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = os.Stat(pdf)
	assert.True(t, os.IsNotExist(err))

	deletes, err := repository.NewAuditRepository(e.db).ByAction(e.ctx, models.ActionDelete)
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.Equal(t, "payments", deletes[0].Table)
}
