package migrations

import (
	"time"

	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/migration"
)

// Snapshot of the core schema as of this migration. Do not edit; add a new
// migration instead.

type coreBuilding struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(100);not null;index"`
	Address   string `gorm:"type:varchar(255)"`
	Notes     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (coreBuilding) TableName() string { return "buildings" }

type coreOffice struct {
	ID         uint         `gorm:"primaryKey"`
	BuildingID uint         `gorm:"not null;uniqueIndex:idx_offices_building_number"`
	Building   coreBuilding `gorm:"constraint:OnDelete:CASCADE"`
	Number     string       `gorm:"type:varchar(20);not null;uniqueIndex:idx_offices_building_number"`
	Floor      *int
	SurfaceM2  *float64 `gorm:"type:numeric(10,2)"`
	Available  bool     `gorm:"not null"`
	Notes      string   `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (coreOffice) TableName() string { return "offices" }

type coreTenant struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"type:varchar(100);not null;index"`
	Phone       string `gorm:"type:varchar(20)"`
	Email       string `gorm:"type:varchar(100)"`
	NationalID  string `gorm:"type:varchar(20);index"`
	CompanyName string `gorm:"type:varchar(200)"`
	Status      string `gorm:"type:varchar(20);not null;default:'active';index"`
	Comments    string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (coreTenant) TableName() string { return "tenants" }

type coreLease struct {
	ID                uint       `gorm:"primaryKey"`
	TenantID          uint       `gorm:"not null;index"`
	Tenant            coreTenant `gorm:"constraint:OnDelete:RESTRICT"`
	StartDate         time.Time  `gorm:"not null"`
	LastIncreaseDate  *time.Time
	FirstMonthRent    float64 `gorm:"type:numeric(12,3)"`
	MonthlyRent       float64 `gorm:"type:numeric(12,3);not null"`
	Deposit           float64 `gorm:"type:numeric(12,3)"`
	KeyMoney          float64 `gorm:"type:numeric(12,3)"`
	ElectricityMeter  string  `gorm:"type:varchar(50)"`
	WaterMeter        string  `gorm:"type:varchar(50)"`
	Terminated        bool    `gorm:"not null;index"`
	TerminationDate   *time.Time
	TerminationReason string `gorm:"type:text"`
	Conditions        string `gorm:"type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (coreLease) TableName() string { return "leases" }

type coreLeaseOffice struct {
	LeaseID  uint       `gorm:"primaryKey"`
	Lease    coreLease  `gorm:"constraint:OnDelete:CASCADE"`
	OfficeID uint       `gorm:"primaryKey;index"`
	Office   coreOffice `gorm:"constraint:OnDelete:RESTRICT"`
}

func (coreLeaseOffice) TableName() string { return "lease_offices" }

type corePayment struct {
	ID          uint       `gorm:"primaryKey"`
	TenantID    uint       `gorm:"not null;index"`
	Tenant      coreTenant `gorm:"constraint:OnDelete:RESTRICT"`
	LeaseID     uint       `gorm:"not null;index"`
	Lease       coreLease  `gorm:"constraint:OnDelete:RESTRICT"`
	Type        string     `gorm:"type:varchar(20);not null;index"`
	Amount      float64    `gorm:"type:numeric(12,3);not null"`
	PaidOn      time.Time  `gorm:"not null;index"`
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Comment     string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (corePayment) TableName() string { return "payments" }

func coreTables() []interface{} {
	return []interface{}{
		&coreBuilding{},
		&coreOffice{},
		&coreTenant{},
		&coreLease{},
		&coreLeaseOffice{},
		&corePayment{},
	}
}

func init() {
	migration.RegisterMigration(&migration.Migration{
		Version:   "20250105090000",
		Name:      "create_core_tables",
		CreatedAt: time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC),
		Up: func(db *gorm.DB) error {
			return createTables(db, coreTables()...)
		},
		Down: func(db *gorm.DB) error {
			return dropTables(db, coreTables()...)
		},
	})
}
