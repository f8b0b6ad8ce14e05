package models

// AutomationSettings holds the per-user enable flags for the notification
// rules, one boolean per rule type. A missing row means everything enabled.
type AutomationSettings struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	JobReminders         bool `gorm:"default:true" json:"job_reminders"`
	LeadFollowUps        bool `gorm:"default:true" json:"lead_follow_ups"`
	PaymentReminders     bool `gorm:"default:true" json:"payment_reminders"`
	MaintenanceReminders bool `gorm:"default:true" json:"maintenance_reminders"`

	// EmailDelivery controls the secondary email fan-out channel.
	EmailDelivery bool `gorm:"default:false" json:"email_delivery"`
}
