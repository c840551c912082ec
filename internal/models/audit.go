package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	ActionCreate           AuditAction = "CREATE"
	ActionUpdate           AuditAction = "UPDATE"
	ActionDelete           AuditAction = "DELETE"
	ActionReceiptGenerated AuditAction = "RECEIPT_GENERATED"
)

// AuditLog is append-only.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Table     string         `gorm:"column:table_name;type:varchar(50);not null;index:idx_audit_entity" json:"table_name"`
	EntityID  uint           `gorm:"not null;index:idx_audit_entity" json:"entity_id"`
	Action    AuditAction    `gorm:"type:varchar(30);not null;index" json:"action"`
	Before    datatypes.JSON `json:"before,omitempty"`
	After     datatypes.JSON `json:"after,omitempty"`
	User      string         `gorm:"type:varchar(100)" json:"user"`
	IPAddress string         `gorm:"type:varchar(45)" json:"ip_address"`
	RequestID string         `gorm:"type:varchar(36)" json:"request_id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
