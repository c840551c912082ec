package models

import (
	"time"

	"gorm.io/datatypes"
)

// Receipt is the generated artifact for a payment. A payment has at most one.
type Receipt struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PaymentID   uint           `gorm:"not null;uniqueIndex" json:"payment_id"`
	Payment     *Payment       `json:"payment,omitempty"`
	Number      string         `gorm:"type:varchar(50);not null;uniqueIndex" json:"number"`
	Content     datatypes.JSON `json:"content"`
	FilePath    string         `gorm:"type:varchar(500)" json:"file_path"`
	GeneratedAt time.Time      `gorm:"not null" json:"generated_at"`
	Automatic   bool           `gorm:"not null" json:"automatic"`
	Notes       string         `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Receipt) TableName() string { return "receipts" }

// ReceiptTemplate holds the HTML used to preview receipts. At most one
// template is the default.
type ReceiptTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	IsDefault bool      `gorm:"not null;index" json:"is_default"`
	HTML      string    `gorm:"type:text;not null" json:"html"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReceiptTemplate) TableName() string { return "receipt_templates" }
