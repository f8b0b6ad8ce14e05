package models

// InvoiceNumbering stores the per-user invoice number counter. NextNumber is
// advanced with a conditional update so concurrent allocations never hand out
// the same number.
type InvoiceNumbering struct {
	BaseModel

	UserID     string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Prefix     string `gorm:"type:varchar(16);default:'INV-'" json:"prefix"`
	NextNumber int    `gorm:"default:1" json:"next_number"`
}
