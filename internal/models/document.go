package models

import (
	"time"

	"gorm.io/datatypes"
)

type EntityType string

const (
	EntityBuilding EntityType = "building"
	EntityOffice   EntityType = "office"
	EntityTenant   EntityType = "tenant"
	EntityLease    EntityType = "lease"
	EntityPayment  EntityType = "payment"
)

var EntityTypes = []EntityType{EntityBuilding, EntityOffice, EntityTenant, EntityLease, EntityPayment}

func (t EntityType) Valid() bool {
	for _, e := range EntityTypes {
		if e == t {
			return true
		}
	}
	return false
}

// Document is a file attached to an entity, stored under a folder of the
// entity type's tree.
type Document struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	EntityType   EntityType `gorm:"type:varchar(20);not null;index:idx_documents_entity" json:"entity_type"`
	EntityID     uint       `gorm:"not null;index:idx_documents_entity" json:"entity_id"`
	FolderPath   string     `gorm:"type:varchar(500);not null;default:''" json:"folder_path"`
	Filename     string     `gorm:"type:varchar(255);not null" json:"filename"`
	OriginalName string     `gorm:"type:varchar(255);not null" json:"original_name"`
	FileType     string     `gorm:"type:varchar(20)" json:"file_type"`
	FileSize     int64      `json:"file_size"`
	Description  string     `gorm:"type:text" json:"description"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

// DocumentTreeConfig stores the folder hierarchy of one entity type.
type DocumentTreeConfig struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	EntityType EntityType     `gorm:"type:varchar(20);not null;uniqueIndex" json:"entity_type"`
	Tree       datatypes.JSON `gorm:"not null" json:"tree"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (DocumentTreeConfig) TableName() string { return "document_tree_configs" }
