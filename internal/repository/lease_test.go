package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

func TestCreateWithValidation_SecondActiveLeaseForTenant(t *testing.T) {
	f := newFixture(t)
	b := f.building(t, "North Tower")
	o1 := f.office(t, b.ID, "101", 20)
	o2 := f.office(t, b.ID, "102", 25)
	tn := f.tenant(t, "alice")

	f.lease(t, tn.ID, date(2024, 1, 1), o1.ID)

	second := &models.Lease{TenantID: tn.ID, StartDate: date(2024, 6, 1), MonthlyRent: 900}
	err := f.leases.CreateWithValidation(f.ctx, second, []uint{o2.ID})
	require.Error(t, err)
	assert.True(t, repository.IsValidation(err))

	n, err := f.leases.Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateWithValidation_TerminatedLeaseSkipsExclusivity(t *testing.T) {
	f := newFixture(t)
	b := f.building(t, "North Tower")
	o := f.office(t, b.ID, "101", 20)
	tn := f.tenant(t, "alice")
	f.lease(t, tn.ID, date(2024, 1, 1), o.ID)

	end := date(2023, 12, 31)
	old := &models.Lease{TenantID: tn.ID, StartDate: date(2023, 1, 1), MonthlyRent: 800, Terminated: true, TerminationDate: &end}
	require.NoError(t, f.leases.CreateWithValidation(f.ctx, old, []uint{o.ID}))
	assert.Len(t, old.Offices, 1)
}

func TestCreateWithValidation_OfficeHeldByAnotherLease(t *testing.T) {
	f := newFixture(t)
	b := f.building(t, "North Tower")
	o := f.office(t, b.ID, "101", 20)
	alice := f.tenant(t, "alice")
	bob := f.tenant(t, "bob")
	f.lease(t, alice.ID, date(2024, 1, 1), o.ID)

	err := f.leases.CreateWithValidation(f.ctx, &models.Lease{TenantID: bob.ID, StartDate: date(2024, 2, 1)}, []uint{o.ID})
	require.Error(t, err)
	var verr *repository.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "office_ids", verr.Field)
}

func TestCreateWithValidation_UnknownOffice(t *testing.T) {
	f := newFixture(t)
	tn := f.tenant(t, "alice")

	err := f.leases.CreateWithValidation(f.ctx, &models.Lease{TenantID: tn.ID, StartDate: date(2024, 1, 1)}, []uint{42})
	assert.True(t, repository.IsValidation(err))
}

func TestAttachOffice(t *testing.T) {
	f := newFixture(t)
	b := f.building(t, "North Tower")
	o1 := f.office(t, b.ID, "101", 20)
	o2 := f.office(t, b.ID, "102", 25)
	alice := f.tenant(t, "alice")
	bob := f.tenant(t, "bob")
	la := f.lease(t, alice.ID, date(2024, 1, 1), o1.ID)
	lb := f.lease(t, bob.ID, date(2024, 1, 1), o2.ID)

	t.Run("held by another active lease", func(t *testing.T) {
		err := f.leases.AttachOffice(f.ctx, lb.ID, o1.ID)
		assert.True(t, repository.IsValidation(err))
	})

	t.Run("already linked is a no-op", func(t *testing.T) {
		require.NoError(t, f.leases.AttachOffice(f.ctx, la.ID, o1.ID))
		got, err := f.leases.GetWithOffices(f.ctx, la.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{o1.ID}, got.OfficeIDs())
	})

	t.Run("free office", func(t *testing.T) {
		o3 := f.office(t, b.ID, "103", 30)
		require.NoError(t, f.leases.AttachOffice(f.ctx, la.ID, o3.ID))
		got, err := f.leases.GetWithOffices(f.ctx, la.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{o1.ID, o3.ID}, got.OfficeIDs())
		assert.InDelta(t, 50.0, got.TotalSurface(), 0.001)
	})
}

func TestDetachOffice(t *testing.T) {
	f := newFixture(t)
	b := f.building(t, "North Tower")
	o1 := f.office(t, b.ID, "101", 20)
	o2 := f.office(t, b.ID, "102", 25)
	tn := f.tenant(t, "alice")
	l := f.lease(t, tn.ID, date(2024, 1, 1), o1.ID)

	assert.True(t, repository.IsValidation(f.leases.DetachOffice(f.ctx, l.ID, o2.ID)))
	require.NoError(t, f.leases.DetachOffice(f.ctx, l.ID, o1.ID))

	holder, err := f.leases.ActiveForOffice(f.ctx, o1.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, holder)
}

func TestTerminateAndReactivate(t *testing.T) {
	f := newFixture(t)
	b := f.building(t, "North Tower")
	o := f.office(t, b.ID, "101", 20)
	tn := f.tenant(t, "alice")
	l := f.lease(t, tn.ID, date(2024, 1, 1), o.ID)

	_, err := f.leases.Terminate(f.ctx, l.ID, date(2023, 12, 1), "too early")
	assert.True(t, repository.IsValidation(err))

	terminated, err := f.leases.Terminate(f.ctx, l.ID, date(2024, 6, 30), "moved out")
	require.NoError(t, err)
	assert.True(t, terminated.Terminated)
	require.NotNil(t, terminated.TerminationDate)
	assert.True(t, date(2024, 6, 30).Equal(*terminated.TerminationDate))
	assert.Equal(t, "moved out", terminated.TerminationReason)

	_, err = f.leases.Terminate(f.ctx, l.ID, date(2024, 7, 1), "")
	assert.True(t, repository.IsValidation(err))

	newStart := date(2024, 9, 1)
	reactivated, err := f.leases.Reactivate(f.ctx, l.ID, &newStart)
	require.NoError(t, err)
	assert.False(t, reactivated.Terminated)
	assert.Nil(t, reactivated.TerminationDate)
	assert.True(t, newStart.Equal(reactivated.StartDate))
}

func TestReactivate_RefusedWhenOfficeTaken(t *testing.T) {
	f := newFixture(t)
	b := f.building(t, "North Tower")
	o := f.office(t, b.ID, "101", 20)
	alice := f.tenant(t, "alice")
	bob := f.tenant(t, "bob")
	l := f.lease(t, alice.ID, date(2024, 1, 1), o.ID)

	_, err := f.leases.Terminate(f.ctx, l.ID, date(2024, 3, 31), "")
	require.NoError(t, err)
	f.lease(t, bob.ID, date(2024, 4, 1), o.ID)

	_, err = f.leases.Reactivate(f.ctx, l.ID, nil)
	assert.True(t, repository.IsValidation(err))
}

func TestReplaceOffices(t *testing.T) {
	f := newFixture(t)
	b := f.building(t, "North Tower")
	o1 := f.office(t, b.ID, "101", 20)
	o2 := f.office(t, b.ID, "102", 25)
	tn := f.tenant(t, "alice")
	l := f.lease(t, tn.ID, date(2024, 1, 1), o1.ID)

	require.NoError(t, f.leases.ReplaceOffices(f.ctx, l, []uint{o2.ID, o2.ID}))
	got, err := f.leases.GetWithOffices(f.ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{o2.ID}, got.OfficeIDs())

	require.NoError(t, f.leases.ReplaceOffices(f.ctx, l, nil))
	got, err = f.leases.GetWithOffices(f.ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Offices)
}

func TestDeleteWithLinks(t *testing.T) {
	f := newFixture(t)
	b := f.building(t, "North Tower")
	o := f.office(t, b.ID, "101", 20)
	tn := f.tenant(t, "alice")
	l := f.lease(t, tn.ID, date(2024, 1, 1), o.ID)

	require.NoError(t, f.leases.DeleteWithLinks(f.ctx, l.ID))

	linked, err := f.offices.IsLinkedToAnyLease(f.ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, linked)
	assert.ErrorIs(t, f.leases.Delete(f.ctx, l.ID), repository.ErrNotFound)
}

func TestLeaseQueries(t *testing.T) {
	f := newFixture(t)
	b := f.building(t, "North Tower")
	o1 := f.office(t, b.ID, "101", 20)
	o2 := f.office(t, b.ID, "102", 25)
	alice := f.tenant(t, "alice")
	bob := f.tenant(t, "bob")
	la := f.lease(t, alice.ID, date(2023, 5, 1), o1.ID)
	f.lease(t, bob.ID, date(2024, 2, 1), o2.ID)
	_, err := f.leases.Terminate(f.ctx, la.ID, date(2023, 12, 31), "")
	require.NoError(t, err)

	active, err := f.leases.Active(f.ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, bob.ID, active[0].TenantID)
	require.NotNil(t, active[0].Tenant)
	assert.Equal(t, "bob", active[0].Tenant.Name)

	terminated, err := f.leases.Terminated(f.ctx)
	require.NoError(t, err)
	assert.Len(t, terminated, 1)

	byYear, err := f.leases.ByStartYear(f.ctx, 2023)
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, la.ID, byYear[0].ID)

	found, err := f.leases.Search(f.ctx, "BOB")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
