package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
)

type TenantRepository struct {
	Base[models.Tenant]
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{Base: NewBase[models.Tenant](db, "tenant")}
}

func (r *TenantRepository) Search(ctx context.Context, term string) ([]models.Tenant, error) {
	like := likePattern(term)
	var out []models.Tenant
	err := r.DB(ctx).
		Where("LOWER(name) LIKE LOWER(?) OR phone LIKE ? OR LOWER(email) LIKE LOWER(?) OR national_id LIKE ? OR LOWER(company_name) LIKE LOWER(?)",
			like, like, like, like, like).
		Order("name").
		Find(&out).Error
	return out, err
}

func (r *TenantRepository) ByStatus(ctx context.Context, status models.TenantStatus) ([]models.Tenant, error) {
	var out []models.Tenant
	err := r.DB(ctx).Where("status = ?", status).Order("name").Find(&out).Error
	return out, err
}

func (r *TenantRepository) ByNationalID(ctx context.Context, nationalID string) (*models.Tenant, error) {
	var t models.Tenant
	if err := r.DB(ctx).Where("national_id = ?", nationalID).First(&t).Error; err != nil {
		return nil, translate("tenant", err)
	}
	return &t, nil
}

func (r *TenantRepository) ByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	var t models.Tenant
	if err := r.DB(ctx).Where("LOWER(email) = LOWER(?)", email).First(&t).Error; err != nil {
		return nil, translate("tenant", err)
	}
	return &t, nil
}

func (r *TenantRepository) SetStatus(ctx context.Context, id uint, status models.TenantStatus) error {
	if !status.Valid() {
		return NewValidationError("status", "unknown tenant status %q", status)
	}
	res := r.DB(ctx).Model(&models.Tenant{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate("tenant", gorm.ErrRecordNotFound)
	}
	return nil
}

// RecomputeStatus marks the tenant historical iff it holds no active lease,
// and returns the resulting status.
func (r *TenantRepository) RecomputeStatus(ctx context.Context, id uint) (models.TenantStatus, error) {
	var active int64
	err := r.DB(ctx).Model(&models.Lease{}).
		Where("tenant_id = ? AND terminated = ?", id, false).
		Count(&active).Error
	if err != nil {
		return "", err
	}

	status := models.TenantHistorical
	if active > 0 {
		status = models.TenantActive
	}
	if err := r.SetStatus(ctx, id, status); err != nil {
		return "", err
	}
	return status, nil
}

// HasLeasesOrPayments reports whether anything still references the tenant.
func (r *TenantRepository) HasLeasesOrPayments(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.DB(ctx).Model(&models.Lease{}).Where("tenant_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := r.DB(ctx).Model(&models.Payment{}).Where("tenant_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
