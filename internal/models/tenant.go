package models

import "time"

type TenantStatus string

const (
	TenantActive     TenantStatus = "active"
	TenantHistorical TenantStatus = "historical"
)

func (s TenantStatus) Valid() bool {
	return s == TenantActive || s == TenantHistorical
}

// Tenant is a person or company renting offices. Status is derived from
// whether the tenant holds an active lease.
type Tenant struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(100);not null;index" json:"name"`
	Phone       string       `gorm:"type:varchar(20)" json:"phone"`
	Email       string       `gorm:"type:varchar(100)" json:"email"`
	NationalID  string       `gorm:"type:varchar(20);index" json:"national_id"`
	CompanyName string       `gorm:"type:varchar(200)" json:"company_name"`
	Status      TenantStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Comments    string       `gorm:"type:text" json:"comments"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Tenant) TableName() string { return "tenants" }
