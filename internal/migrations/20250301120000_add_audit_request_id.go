package migrations

import (
	"time"

	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/migration"
)

type auditLogV2 struct {
	RequestID string `gorm:"type:varchar(36)"`
}

func (auditLogV2) TableName() string { return "audit_logs" }

func init() {
	migration.RegisterMigration(&migration.Migration{
		Version:   "20250301120000",
		Name:      "add_audit_request_id",
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Up: func(db *gorm.DB) error {
			return db.Migrator().AddColumn(&auditLogV2{}, "RequestID")
		},
		Down: func(db *gorm.DB) error {
			return db.Migrator().DropColumn(&auditLogV2{}, "RequestID")
		},
	})
}
