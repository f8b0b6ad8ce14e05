package models

import "time"

// Contract statuses.
const (
	ContractStatusDraft  = "draft"
	ContractStatusSent   = "sent"
	ContractStatusSigned = "signed"
)

// Contract represents a service agreement attached to a job.
type Contract struct {
	BaseModel

	UserID   string     `gorm:"type:uuid;index;not null" json:"user_id"`
	ClientID string     `gorm:"type:uuid;index" json:"client_id"`
	JobID    string     `gorm:"type:uuid;index" json:"job_id,omitempty"`
	Title    string     `gorm:"type:varchar(255)" json:"title"`
	Status   string     `gorm:"type:varchar(32);default:'draft';index" json:"status"`
	Body     string     `gorm:"type:text" json:"body"`
	SignedAt *time.Time `json:"signed_at,omitempty"`
}
