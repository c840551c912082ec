package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
)

type LeaseRepository struct {
	Base[models.Lease]
}

func NewLeaseRepository(db *gorm.DB) *LeaseRepository {
	return &LeaseRepository{Base: NewBase[models.Lease](db, "lease")}
}

func (r *LeaseRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.DB(ctx).Preload("Tenant").Preload("Offices", func(db *gorm.DB) *gorm.DB {
		return db.Order("offices.number")
	}).Preload("Offices.Building")
}

func (r *LeaseRepository) GetWithOffices(ctx context.Context, id uint) (*models.Lease, error) {
	var l models.Lease
	if err := r.withRelations(ctx).First(&l, id).Error; err != nil {
		return nil, translate("lease", err)
	}
	return &l, nil
}

// All pages through every lease with its tenant and offices, newest first.
func (r *LeaseRepository) All(ctx context.Context, opts ListOptions) ([]models.Lease, error) {
	var out []models.Lease
	err := opts.apply(r.withRelations(ctx)).Order("start_date DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *LeaseRepository) Active(ctx context.Context) ([]models.Lease, error) {
	var out []models.Lease
	err := r.withRelations(ctx).Where("terminated = ?", false).Order("start_date DESC").Find(&out).Error
	return out, err
}

func (r *LeaseRepository) Terminated(ctx context.Context) ([]models.Lease, error) {
	var out []models.Lease
	err := r.withRelations(ctx).Where("terminated = ?", true).Order("termination_date DESC").Find(&out).Error
	return out, err
}

func (r *LeaseRepository) ByTenant(ctx context.Context, tenantID uint) ([]models.Lease, error) {
	var out []models.Lease
	err := r.withRelations(ctx).Where("tenant_id = ?", tenantID).Order("start_date DESC").Find(&out).Error
	return out, err
}

// ActiveForTenant returns the tenant's active leases, skipping excludeID.
func (r *LeaseRepository) ActiveForTenant(ctx context.Context, tenantID, excludeID uint) ([]models.Lease, error) {
	var out []models.Lease
	q := r.DB(ctx).Where("tenant_id = ? AND terminated = ?", tenantID, false)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Find(&out).Error
	return out, err
}

// ActiveForOffice returns the active lease holding the office, skipping
// excludeID. It returns nil when the office is free.
func (r *LeaseRepository) ActiveForOffice(ctx context.Context, officeID, excludeID uint) (*models.Lease, error) {
	q := r.DB(ctx).
		Joins("JOIN lease_offices ON lease_offices.lease_id = leases.id").
		Where("lease_offices.office_id = ? AND leases.terminated = ?", officeID, false)
	if excludeID != 0 {
		q = q.Where("leases.id <> ?", excludeID)
	}

	var leases []models.Lease
	if err := q.Limit(1).Find(&leases).Error; err != nil {
		return nil, err
	}
	if len(leases) == 0 {
		return nil, nil
	}
	return &leases[0], nil
}

func (r *LeaseRepository) ByStartYear(ctx context.Context, year int) ([]models.Lease, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	var out []models.Lease
	err := r.withRelations(ctx).
		Where("start_date >= ? AND start_date < ?", from, to).
		Order("start_date").
		Find(&out).Error
	return out, err
}

// Search matches the conditions, the meters and the tenant name.
func (r *LeaseRepository) Search(ctx context.Context, term string) ([]models.Lease, error) {
	like := likePattern(term)
	var out []models.Lease
	err := r.withRelations(ctx).
		Joins("JOIN tenants ON tenants.id = leases.tenant_id").
		Where("LOWER(tenants.name) LIKE LOWER(?) OR LOWER(leases.conditions) LIKE LOWER(?) OR leases.electricity_meter LIKE ? OR leases.water_meter LIKE ?",
			like, like, like, like).
		Order("leases.start_date DESC").
		Find(&out).Error
	return out, err
}

func (r *LeaseRepository) checkTenantFree(ctx context.Context, tenantID, leaseID uint) error {
	active, err := r.ActiveForTenant(ctx, tenantID, leaseID)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return NewValidationError("tenant_id", "tenant already has an active lease (#%d)", active[0].ID)
	}
	return nil
}

func (r *LeaseRepository) checkOfficeFree(ctx context.Context, officeID, leaseID uint) error {
	holder, err := r.ActiveForOffice(ctx, officeID, leaseID)
	if err != nil {
		return err
	}
	if holder != nil {
		return NewValidationError("office_ids", "office %d is already linked to active lease #%d", officeID, holder.ID)
	}
	return nil
}

func (r *LeaseRepository) loadOffices(ctx context.Context, officeIDs []uint) ([]models.Office, error) {
	seen := make(map[uint]bool, len(officeIDs))
	ids := make([]uint, 0, len(officeIDs))
	for _, id := range officeIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	var offices []models.Office
	if len(ids) == 0 {
		return offices, nil
	}
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&offices).Error; err != nil {
		return nil, err
	}
	if len(offices) != len(ids) {
		return nil, NewValidationError("office_ids", "one or more offices do not exist")
	}
	return offices, nil
}

// CreateWithValidation inserts the lease and links its offices. An active
// lease is refused when the tenant already holds one or when any office is
// claimed by another active lease.
func (r *LeaseRepository) CreateWithValidation(ctx context.Context, lease *models.Lease, officeIDs []uint) error {
	if lease.TenantID == 0 {
		return NewValidationError("tenant_id", "tenant is required")
	}
	if lease.StartDate.IsZero() {
		return NewValidationError("start_date", "start date is required")
	}

	offices, err := r.loadOffices(ctx, officeIDs)
	if err != nil {
		return err
	}

	if !lease.Terminated {
		if err := r.checkTenantFree(ctx, lease.TenantID, 0); err != nil {
			return err
		}
		for _, o := range offices {
			if err := r.checkOfficeFree(ctx, o.ID, 0); err != nil {
				return err
			}
		}
	}

	if err := r.Create(ctx, lease); err != nil {
		return err
	}
	if len(offices) > 0 {
		if err := r.DB(ctx).Model(lease).Association("Offices").Replace(offices); err != nil {
			return fmt.Errorf("failed to link offices: %w", err)
		}
	}
	lease.Offices = offices
	return nil
}

// ReplaceOffices swaps the office set of an existing lease, re-checking
// exclusivity when the lease is active.
func (r *LeaseRepository) ReplaceOffices(ctx context.Context, lease *models.Lease, officeIDs []uint) error {
	offices, err := r.loadOffices(ctx, officeIDs)
	if err != nil {
		return err
	}
	if !lease.Terminated {
		for _, o := range offices {
			if err := r.checkOfficeFree(ctx, o.ID, lease.ID); err != nil {
				return err
			}
		}
	}

	assoc := r.DB(ctx).Model(lease).Association("Offices")
	if len(offices) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(offices)
	}
	if err != nil {
		return fmt.Errorf("failed to replace offices: %w", err)
	}
	lease.Offices = offices
	return nil
}

// Terminate ends an active lease on date.
func (r *LeaseRepository) Terminate(ctx context.Context, id uint, date time.Time, reason string) (*models.Lease, error) {
	lease, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if lease.Terminated {
		return nil, NewValidationError("terminated", "lease #%d is already terminated", id)
	}
	if date.IsZero() {
		return nil, NewValidationError("termination_date", "termination date is required")
	}
	date = models.DateOf(date)
	if date.Before(models.DateOf(lease.StartDate)) {
		return nil, NewValidationError("termination_date", "termination date is before the lease start")
	}

	err = r.DB(ctx).Model(lease).Updates(map[string]interface{}{
		"terminated":         true,
		"termination_date":   date,
		"termination_reason": reason,
	}).Error
	if err != nil {
		return nil, err
	}
	return r.GetWithOffices(ctx, id)
}

// Reactivate reopens a terminated lease, optionally with a new start date.
// Both exclusivity rules are enforced again.
func (r *LeaseRepository) Reactivate(ctx context.Context, id uint, newStart *time.Time) (*models.Lease, error) {
	lease, err := r.GetWithOffices(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lease.Terminated {
		return nil, NewValidationError("terminated", "lease #%d is already active", id)
	}

	if err := r.checkTenantFree(ctx, lease.TenantID, lease.ID); err != nil {
		return nil, err
	}
	for _, o := range lease.Offices {
		if err := r.checkOfficeFree(ctx, o.ID, lease.ID); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{
		"terminated":         false,
		"termination_date":   nil,
		"termination_reason": "",
	}
	if newStart != nil {
		updates["start_date"] = models.DateOf(*newStart)
	}
	if err := r.DB(ctx).Model(lease).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetWithOffices(ctx, id)
}

// AttachOffice links an office to the lease. Linking an office held by
// another active lease is refused.
func (r *LeaseRepository) AttachOffice(ctx context.Context, leaseID, officeID uint) error {
	lease, err := r.GetWithOffices(ctx, leaseID)
	if err != nil {
		return err
	}
	for _, o := range lease.Offices {
		if o.ID == officeID {
			return nil
		}
	}

	var office models.Office
	if err := r.DB(ctx).First(&office, officeID).Error; err != nil {
		return translate("office", err)
	}
	if !lease.Terminated {
		if err := r.checkOfficeFree(ctx, officeID, leaseID); err != nil {
			return err
		}
	}

	if err := r.DB(ctx).Model(lease).Association("Offices").Append(&office); err != nil {
		return fmt.Errorf("failed to attach office: %w", err)
	}
	return nil
}

func (r *LeaseRepository) DetachOffice(ctx context.Context, leaseID, officeID uint) error {
	res := r.DB(ctx).Where("lease_id = ? AND office_id = ?", leaseID, officeID).Delete(&models.LeaseOffice{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NewValidationError("office_id", "office %d is not linked to lease #%d", officeID, leaseID)
	}
	return nil
}

func (r *LeaseRepository) HasPayments(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Payment{}).Where("lease_id = ?", id).Count(&n).Error
	return n > 0, err
}

// DeleteWithLinks removes the office links and then the lease.
func (r *LeaseRepository) DeleteWithLinks(ctx context.Context, id uint) error {
	if err := r.DB(ctx).Where("lease_id = ?", id).Delete(&models.LeaseOffice{}).Error; err != nil {
		return err
	}
	return r.Delete(ctx, id)
}
