package models

import "time"

// Payment statuses.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Payment represents money expected or received against an invoice.
type Payment struct {
	BaseModel

	UserID    string     `gorm:"type:uuid;index;not null" json:"user_id"`
	InvoiceID string     `gorm:"type:uuid;index" json:"invoice_id"`
	Amount    float64    `json:"amount"`
	Status    string     `gorm:"type:varchar(32);default:'pending';index" json:"status"`
	Method    string     `gorm:"type:varchar(32)" json:"method"`
	DueAt     *time.Time `gorm:"index" json:"due_at,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}
