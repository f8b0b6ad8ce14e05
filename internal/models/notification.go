package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification priorities, lowest to highest.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Notification represents an in-app notification for a user. Notifications
// reference domain entities by id only; deleting the referenced entity leaves
// the notification intact.
type Notification struct {
	BaseModel

	UserID   string `gorm:"type:uuid;index;not null" json:"user_id"`
	Type     string `gorm:"type:varchar(64);not null;index:idx_notifications_dedup" json:"type"`
	Title    string `gorm:"type:varchar(255);not null" json:"title"`
	Message  string `gorm:"type:text" json:"message"`
	Priority string `gorm:"type:varchar(16);default:'medium'" json:"priority"`

	// ReferenceKey and ReferenceID mirror the entity-reference field carried
	// in Metadata and back the cooldown lookup.
	ReferenceKey string         `gorm:"type:varchar(32)" json:"reference_key"`
	ReferenceID  string         `gorm:"type:uuid;index:idx_notifications_dedup" json:"reference_id"`
	Metadata     datatypes.JSON `json:"metadata"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}
