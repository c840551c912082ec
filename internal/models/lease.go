package models

import (
	"time"
)

// Lease binds a tenant to one or more offices. A lease is active until it is
// terminated.
type Lease struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	TenantID          uint       `gorm:"not null;index" json:"tenant_id"`
	Tenant            *Tenant    `json:"tenant,omitempty"`
	Offices           []Office   `gorm:"many2many:lease_offices;" json:"offices,omitempty"`
	StartDate         time.Time  `gorm:"not null" json:"start_date"`
	LastIncreaseDate  *time.Time `json:"last_increase_date"`
	FirstMonthRent    float64    `gorm:"type:numeric(12,3)" json:"first_month_rent"`
	MonthlyRent       float64    `gorm:"type:numeric(12,3);not null" json:"monthly_rent"`
	Deposit           float64    `gorm:"type:numeric(12,3)" json:"deposit"`
	KeyMoney          float64    `gorm:"type:numeric(12,3)" json:"key_money"`
	ElectricityMeter  string     `gorm:"type:varchar(50)" json:"electricity_meter"`
	WaterMeter        string     `gorm:"type:varchar(50)" json:"water_meter"`
	Terminated        bool       `gorm:"not null;index" json:"terminated"`
	TerminationDate   *time.Time `json:"termination_date"`
	TerminationReason string     `gorm:"type:text" json:"termination_reason"`
	Conditions        string     `gorm:"type:text" json:"conditions"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (Lease) TableName() string { return "leases" }

func (l Lease) IsActive() bool { return !l.Terminated }

func (l Lease) OfficeIDs() []uint {
	ids := make([]uint, 0, len(l.Offices))
	for _, o := range l.Offices {
		ids = append(ids, o.ID)
	}
	return ids
}

// TotalSurface sums the surface of the loaded offices.
func (l Lease) TotalSurface() float64 {
	var total float64
	for _, o := range l.Offices {
		if o.SurfaceM2 != nil {
			total += *o.SurfaceM2
		}
	}
	return total
}

// CoverageEnd is the last day rent is owed for: the termination date when the
// lease is terminated, otherwise asOf. The earlier of the two wins.
func (l Lease) CoverageEnd(asOf time.Time) time.Time {
	end := DateOf(asOf)
	if l.Terminated && l.TerminationDate != nil && l.TerminationDate.Before(end) {
		end = DateOf(*l.TerminationDate)
	}
	return end
}

// LeaseOffice is the explicit join row between leases and offices.
type LeaseOffice struct {
	LeaseID  uint `gorm:"primaryKey" json:"lease_id"`
	OfficeID uint `gorm:"primaryKey" json:"office_id"`
}

func (LeaseOffice) TableName() string { return "lease_offices" }
