package models

import (
	"time"

	"gorm.io/datatypes"
)

// Quote statuses.
const (
	QuoteStatusDraft     = "draft"
	QuoteStatusSent      = "sent"
	QuoteStatusAccepted  = "accepted"
	QuoteStatusDeclined  = "declined"
	QuoteStatusConverted = "converted"
)

// Quote represents a priced proposal sent to a client.
type Quote struct {
	BaseModel

	UserID      string         `gorm:"type:uuid;index;not null" json:"user_id"`
	ClientID    string         `gorm:"type:uuid;index" json:"client_id"`
	LeadID      string         `gorm:"type:uuid;index" json:"lead_id,omitempty"`
	JobID       string         `gorm:"type:uuid;index" json:"job_id,omitempty"`
	Title       string         `gorm:"type:varchar(255)" json:"title"`
	Status      string         `gorm:"type:varchar(32);default:'draft';index" json:"status"`
	Total       float64        `json:"total"`
	LineItems   datatypes.JSON `json:"line_items"`
	ConvertedAt *time.Time     `json:"converted_at,omitempty"`
}
