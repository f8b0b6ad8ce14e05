package database

import (
	"gorm.io/gorm"

	"github.com/cfranzen/jobmate/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Lead{},
		&models.Quote{},
		&models.Job{},
		&models.Contract{},
		&models.Invoice{},
		&models.Payment{},
		&models.Resource{},
		&models.Notification{},
		&models.AutomationSettings{},
		&models.InvoiceNumbering{},
	)
}

// SeedData inserts the default owner account used by single-tenant installs.
func SeedData(db *gorm.DB) error {
	owner := models.User{
		BaseModel: models.BaseModel{ID: "owner"},
		Username:  "owner",
		Email:     "owner@localhost",
		Name:      "Business Owner",
	}

	if err := db.Where(models.User{Username: owner.Username}).Attrs(owner).FirstOrCreate(&models.User{}).Error; err != nil {
		return err
	}

	settings := models.AutomationSettings{
		UserID:               owner.ID,
		JobReminders:         true,
		LeadFollowUps:        true,
		PaymentReminders:     true,
		MaintenanceReminders: true,
	}
	return db.Where(models.AutomationSettings{UserID: owner.ID}).Attrs(settings).FirstOrCreate(&models.AutomationSettings{}).Error
}
