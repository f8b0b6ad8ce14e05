package models

import "time"

// Job statuses.
const (
	JobStatusScheduled  = "scheduled"
	JobStatusConfirmed  = "confirmed"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// Job represents a scheduled piece of work for a client.
type Job struct {
	BaseModel

	UserID   string     `gorm:"type:uuid;index;not null" json:"user_id"`
	ClientID string     `gorm:"type:uuid;index" json:"client_id"`
	QuoteID  string     `gorm:"type:uuid;index" json:"quote_id,omitempty"`
	Title    string     `gorm:"type:varchar(255);not null" json:"title"`
	Status   string     `gorm:"type:varchar(32);default:'scheduled';index" json:"status"`
	StartAt  *time.Time `gorm:"index" json:"start_at"`
	EndAt    *time.Time `json:"end_at"`
	Revenue  float64    `json:"revenue"`
	Notes    string     `gorm:"type:text" json:"notes"`
}

// IsTerminal reports whether the job can no longer become active.
func (j Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusCancelled
}
