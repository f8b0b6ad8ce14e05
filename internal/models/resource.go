package models

import "time"

// Resource represents a piece of equipment that needs periodic maintenance.
type Resource struct {
	BaseModel

	UserID            string     `gorm:"type:uuid;index;not null" json:"user_id"`
	Name              string     `gorm:"type:varchar(255);not null" json:"name"`
	Kind              string     `gorm:"type:varchar(64)" json:"kind"`
	NextMaintenanceAt *time.Time `gorm:"index" json:"next_maintenance_at,omitempty"`
	Notes             string     `gorm:"type:text" json:"notes"`
}
