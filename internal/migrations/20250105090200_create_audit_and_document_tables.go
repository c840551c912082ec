package migrations

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/migration"
)

type auditLogV1 struct {
	ID        uint   `gorm:"primaryKey"`
	Table     string `gorm:"column:table_name;type:varchar(50);not null;index:idx_audit_entity"`
	EntityID  uint   `gorm:"not null;index:idx_audit_entity"`
	Action    string `gorm:"type:varchar(30);not null;index"`
	Before    datatypes.JSON
	After     datatypes.JSON
	User      string    `gorm:"type:varchar(100)"`
	IPAddress string    `gorm:"type:varchar(45)"`
	CreatedAt time.Time `gorm:"index"`
}

func (auditLogV1) TableName() string { return "audit_logs" }

type documentTreeConfigV1 struct {
	ID         uint           `gorm:"primaryKey"`
	EntityType string         `gorm:"type:varchar(20);not null;uniqueIndex"`
	Tree       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentTreeConfigV1) TableName() string { return "document_tree_configs" }

type documentV1 struct {
	ID           uint   `gorm:"primaryKey"`
	EntityType   string `gorm:"type:varchar(20);not null;index:idx_documents_entity"`
	EntityID     uint   `gorm:"not null;index:idx_documents_entity"`
	FolderPath   string `gorm:"type:varchar(500);not null;default:''"`
	Filename     string `gorm:"type:varchar(255);not null"`
	OriginalName string `gorm:"type:varchar(255);not null"`
	FileType     string `gorm:"type:varchar(20)"`
	FileSize     int64
	Description  string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (documentV1) TableName() string { return "documents" }

func init() {
	migration.RegisterMigration(&migration.Migration{
		Version:   "20250105090200",
		Name:      "create_audit_and_document_tables",
		CreatedAt: time.Date(2025, 1, 5, 9, 2, 0, 0, time.UTC),
		Up: func(db *gorm.DB) error {
			return createTables(db, &auditLogV1{}, &documentTreeConfigV1{}, &documentV1{})
		},
		Down: func(db *gorm.DB) error {
			return dropTables(db, &auditLogV1{}, &documentTreeConfigV1{}, &documentV1{})
		},
	})
}
