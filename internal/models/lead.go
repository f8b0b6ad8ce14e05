package models

// Lead statuses.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQuoted    = "quoted"
	LeadStatusWon       = "won"
	LeadStatusLost      = "lost"
)

// Lead represents a prospective client enquiry.
type Lead struct {
	BaseModel

	UserID     string `gorm:"type:uuid;index;not null" json:"user_id"`
	ClientID   string `gorm:"type:uuid;index" json:"client_id,omitempty"`
	ClientName string `gorm:"type:varchar(255);not null" json:"client_name"`
	Email      string `gorm:"type:varchar(255)" json:"email"`
	Phone      string `gorm:"type:varchar(64)" json:"phone"`
	Status     string `gorm:"type:varchar(32);default:'new';index" json:"status"`
	Source     string `gorm:"type:varchar(64)" json:"source"`
	Notes      string `gorm:"type:text" json:"notes"`
}

// IsTerminal reports whether the lead reached a final outcome.
func (l Lead) IsTerminal() bool {
	return l.Status == LeadStatusWon || l.Status == LeadStatusLost
}
