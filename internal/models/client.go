package models

// Client represents a customer of the business.
type Client struct {
	BaseModel

	UserID  string `gorm:"type:uuid;index;not null" json:"user_id"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Email   string `gorm:"type:varchar(255)" json:"email"`
	Phone   string `gorm:"type:varchar(64)" json:"phone"`
	Address string `gorm:"type:text" json:"address"`
}
