package models

import "time"

// Building is a property holding rentable offices.
type Building struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;index" json:"name"`
	Address   string    `gorm:"type:varchar(255)" json:"address"`
	Notes     string    `gorm:"type:text" json:"notes"`
	Offices   []Office  `json:"offices,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Building) TableName() string { return "buildings" }
