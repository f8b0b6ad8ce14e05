package models

// User represents a business owner account. Authentication is handled by the
// hosting proxy; JobMate only stores the profile needed for ownership and
// email delivery.
type User struct {
	BaseModel

	Username string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name     string `gorm:"type:varchar(255)" json:"name"`
}
