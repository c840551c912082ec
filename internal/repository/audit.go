package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
)

type AuditRepository struct {
	Base[models.AuditLog]
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{Base: NewBase[models.AuditLog](db, "audit log")}
}

// AuditFilter narrows audit queries. Zero fields are ignored; Limit defaults to 100.
type AuditFilter struct {
	Table    string
	EntityID uint
	Action   models.AuditAction
	Limit    int
}

func (r *AuditRepository) Find(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	q := r.DB(ctx)
	if f.Table != "" {
		q = q.Where("table_name = ?", f.Table)
	}
	if f.EntityID != 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	var out []models.AuditLog
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *AuditRepository) ForEntity(ctx context.Context, table string, id uint) ([]models.AuditLog, error) {
	return r.Find(ctx, AuditFilter{Table: table, EntityID: id})
}

func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	return r.Find(ctx, AuditFilter{Limit: limit})
}

func (r *AuditRepository) ByAction(ctx context.Context, action models.AuditAction) ([]models.AuditLog, error) {
	return r.Find(ctx, AuditFilter{Action: action})
}
