package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beesaferoot/officelease/internal/models"
)

type DocumentRepository struct {
	Base[models.Document]
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{Base: NewBase[models.Document](db, "document")}
}

// ByEntity lists the documents of an entity. A nil folder returns every
// folder; a non-nil one matches that folder exactly.
func (r *DocumentRepository) ByEntity(ctx context.Context, entityType models.EntityType, entityID uint, folder *string) ([]models.Document, error) {
	q := r.DB(ctx).Where("entity_type = ? AND entity_id = ?", entityType, entityID)
	if folder != nil {
		q = q.Where("folder_path = ?", *folder)
	}
	var out []models.Document
	err := q.Order("folder_path").Order("original_name").Find(&out).Error
	return out, err
}

// NameTaken reports whether a stored filename is already used in a folder.
func (r *DocumentRepository) NameTaken(ctx context.Context, entityType models.EntityType, entityID uint, folder, filename string, excludeID uint) (bool, error) {
	q := r.DB(ctx).Model(&models.Document{}).
		Where("entity_type = ? AND entity_id = ? AND folder_path = ? AND filename = ?", entityType, entityID, folder, filename)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *DocumentRepository) Search(ctx context.Context, term string) ([]models.Document, error) {
	like := likePattern(term)
	var out []models.Document
	err := r.DB(ctx).
		Where("LOWER(original_name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?) OR LOWER(folder_path) LIKE LOWER(?)", like, like, like).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// TreeConfig returns the stored tree of an entity type, or ErrNotFound.
func (r *DocumentRepository) TreeConfig(ctx context.Context, entityType models.EntityType) (*models.DocumentTreeConfig, error) {
	var cfg models.DocumentTreeConfig
	err := r.DB(ctx).Where("entity_type = ?", entityType).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveTreeConfig upserts the tree of an entity type.
func (r *DocumentRepository) SaveTreeConfig(ctx context.Context, entityType models.EntityType, tree datatypes.JSON) (*models.DocumentTreeConfig, error) {
	cfg := models.DocumentTreeConfig{EntityType: entityType, Tree: tree}
	err := r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"tree", "updated_at"}),
	}).Create(&cfg).Error
	if err != nil {
		return nil, err
	}
	return r.TreeConfig(ctx, entityType)
}
