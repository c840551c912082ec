package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
)

type BuildingRepository struct {
	Base[models.Building]
}

func NewBuildingRepository(db *gorm.DB) *BuildingRepository {
	return &BuildingRepository{Base: NewBase[models.Building](db, "building")}
}

func (r *BuildingRepository) ByName(ctx context.Context, name string) (*models.Building, error) {
	var b models.Building
	if err := r.DB(ctx).Where("name = ?", name).First(&b).Error; err != nil {
		return nil, translate("building", err)
	}
	return &b, nil
}

// Search matches name, address and notes case-insensitively.
func (r *BuildingRepository) Search(ctx context.Context, term string) ([]models.Building, error) {
	like := likePattern(term)
	var out []models.Building
	err := r.DB(ctx).
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(address) LIKE LOWER(?) OR LOWER(notes) LIKE LOWER(?)", like, like, like).
		Order("name").
		Find(&out).Error
	return out, err
}

func (r *BuildingRepository) OfficeCount(ctx context.Context, buildingID uint) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Office{}).Where("building_id = ?", buildingID).Count(&n).Error
	return n, err
}

type BuildingWithCount struct {
	models.Building
	OfficeCount int64 `json:"office_count"`
}

func (r *BuildingRepository) WithOfficeCount(ctx context.Context) ([]BuildingWithCount, error) {
	var buildings []models.Building
	if err := r.DB(ctx).Order("name").Find(&buildings).Error; err != nil {
		return nil, err
	}

	type row struct {
		BuildingID uint
		N          int64
	}
	var rows []row
	err := r.DB(ctx).Model(&models.Office{}).
		Select("building_id, COUNT(*) AS n").
		Group("building_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.BuildingID] = r.N
	}

	out := make([]BuildingWithCount, 0, len(buildings))
	for _, b := range buildings {
		out = append(out, BuildingWithCount{Building: b, OfficeCount: counts[b.ID]})
	}
	return out, nil
}
