package models

import (
	"time"

	"gorm.io/datatypes"
)

// Invoice statuses.
const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// Invoice represents a bill issued to a client, usually derived from a job.
type Invoice struct {
	BaseModel

	UserID    string         `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_user_number" json:"user_id"`
	ClientID  string         `gorm:"type:uuid;index" json:"client_id"`
	JobID     string         `gorm:"type:uuid;index" json:"job_id,omitempty"`
	Number    string         `gorm:"type:varchar(32);uniqueIndex:idx_invoices_user_number" json:"number"`
	Status    string         `gorm:"type:varchar(32);default:'draft';index" json:"status"`
	Total     float64        `json:"total"`
	LineItems datatypes.JSON `json:"line_items"`
	IssuedAt  *time.Time     `json:"issued_at,omitempty"`
	DueAt     *time.Time     `json:"due_at,omitempty"`
}
