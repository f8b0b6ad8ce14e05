package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cfranzen/jobmate/internal/models"
)

// numberingAttempts bounds the CAS retry loop under contention.
const numberingAttempts = 5

// NextInvoiceNumber allocates the next invoice number for a user. The counter
// is advanced with a conditional update keyed on the value just read, so two
// concurrent allocations can never return the same number; the loser of the
// race reloads and retries.
func NextInvoiceNumber(ctx context.Context, db *gorm.DB, userID string) (string, error) {
	if db == nil {
		return "", errors.New("numbering: db is nil")
	}
	if userID == "" {
		return "", errors.New("numbering: user id is required")
	}

	for attempt := 0; attempt < numberingAttempts; attempt++ {
		var row models.InvoiceNumbering
		err := db.WithContext(ctx).
			Where(models.InvoiceNumbering{UserID: userID}).
			Attrs(models.InvoiceNumbering{Prefix: "INV-", NextNumber: 1}).
			FirstOrCreate(&row).Error
		if err != nil {
			return "", fmt.Errorf("numbering: load counter: %w", err)
		}

		result := db.WithContext(ctx).
			Model(&models.InvoiceNumbering{}).
			Where("user_id = ? AND next_number = ?", userID, row.NextNumber).
			Update("next_number", row.NextNumber+1)
		if result.Error != nil {
			return "", fmt.Errorf("numbering: advance counter: %w", result.Error)
		}
		if result.RowsAffected == 1 {
			return FormatInvoiceNumber(row.Prefix, row.NextNumber), nil
		}
		// Lost the race; reload and try again.
	}

	return "", fmt.Errorf("numbering: counter contention for user %s", userID)
}

// FormatInvoiceNumber renders a counter value as a printable invoice number.
func FormatInvoiceNumber(prefix string, n int) string {
	if prefix == "" {
		prefix = "INV-"
	}
	return fmt.Sprintf("%s%04d", prefix, n)
}
