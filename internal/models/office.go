package models

import (
	"fmt"
	"time"
)

// Office is a rentable unit inside a building. Number is unique per building.
type Office struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BuildingID uint      `gorm:"not null;uniqueIndex:idx_offices_building_number" json:"building_id"`
	Building   *Building `json:"building,omitempty"`
	Number     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_offices_building_number" json:"number"`
	Floor      *int      `json:"floor"`
	SurfaceM2  *float64  `gorm:"type:numeric(10,2)" json:"surface_m2"`
	Available  bool      `gorm:"not null" json:"available"`
	Notes      string    `gorm:"type:text" json:"notes"`
	Leases     []Lease   `gorm:"many2many:lease_offices;" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Office) TableName() string { return "offices" }

// Label renders the office as "<building> - <number>" when the building is loaded.
func (o Office) Label() string {
	if o.Building != nil && o.Building.Name != "" {
		return fmt.Sprintf("%s - %s", o.Building.Name, o.Number)
	}
	return o.Number
}
