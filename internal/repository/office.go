package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
)

type OfficeRepository struct {
	Base[models.Office]
}

func NewOfficeRepository(db *gorm.DB) *OfficeRepository {
	return &OfficeRepository{Base: NewBase[models.Office](db, "office")}
}

func (r *OfficeRepository) ByNumber(ctx context.Context, buildingID uint, number string) (*models.Office, error) {
	var o models.Office
	err := r.DB(ctx).Where("building_id = ? AND number = ?", buildingID, number).First(&o).Error
	if err != nil {
		return nil, translate("office", err)
	}
	return &o, nil
}

func (r *OfficeRepository) ByBuilding(ctx context.Context, buildingID uint) ([]models.Office, error) {
	var out []models.Office
	err := r.DB(ctx).Where("building_id = ?", buildingID).Order("number").Find(&out).Error
	return out, err
}

func (r *OfficeRepository) ByIDs(ctx context.Context, ids []uint) ([]models.Office, error) {
	var out []models.Office
	if len(ids) == 0 {
		return out, nil
	}
	err := r.DB(ctx).Preload("Building").Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, err
}

func (r *OfficeRepository) Available(ctx context.Context) ([]models.Office, error) {
	var out []models.Office
	err := r.DB(ctx).Preload("Building").Where("available = ?", true).Order("building_id, number").Find(&out).Error
	return out, err
}

// Occupied returns offices linked to at least one active lease.
func (r *OfficeRepository) Occupied(ctx context.Context) ([]models.Office, error) {
	var out []models.Office
	err := r.DB(ctx).Preload("Building").
		Where("id IN (?)", r.DB(ctx).Table("lease_offices").
			Select("lease_offices.office_id").
			Joins("JOIN leases ON leases.id = lease_offices.lease_id").
			Where("leases.terminated = ?", false)).
		Order("building_id, number").
		Find(&out).Error
	return out, err
}

func (r *OfficeRepository) Search(ctx context.Context, term string) ([]models.Office, error) {
	like := likePattern(term)
	var out []models.Office
	err := r.DB(ctx).Preload("Building").
		Where("LOWER(number) LIKE LOWER(?) OR LOWER(notes) LIKE LOWER(?)", like, like).
		Order("building_id, number").
		Find(&out).Error
	return out, err
}

// BySurfaceRange filters on surface; nil bounds are open.
func (r *OfficeRepository) BySurfaceRange(ctx context.Context, min, max *float64) ([]models.Office, error) {
	q := r.DB(ctx).Preload("Building").Where("surface_m2 IS NOT NULL")
	if min != nil {
		q = q.Where("surface_m2 >= ?", *min)
	}
	if max != nil {
		q = q.Where("surface_m2 <= ?", *max)
	}
	var out []models.Office
	err := q.Order("surface_m2").Find(&out).Error
	return out, err
}

func (r *OfficeRepository) SetAvailability(ctx context.Context, id uint, available bool) error {
	res := r.DB(ctx).Model(&models.Office{}).Where("id = ?", id).Update("available", available)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate("office", gorm.ErrRecordNotFound)
	}
	return nil
}

// IsLinkedToAnyLease reports whether any lease, active or not, references the office.
func (r *OfficeRepository) IsLinkedToAnyLease(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB(ctx).Table("lease_offices").Where("office_id = ?", id).Count(&n).Error
	return n > 0, err
}
