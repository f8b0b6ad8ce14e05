package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cfranzen/jobmate/internal/models"
	apperrors "github.com/cfranzen/jobmate/pkg/errors"
)

// AutomationSettingsDTO mirrors the per-user rule enable flags.
type AutomationSettingsDTO struct {
	UserID               string `json:"user_id"`
	JobReminders         bool   `json:"job_reminders"`
	LeadFollowUps        bool   `json:"lead_follow_ups"`
	PaymentReminders     bool   `json:"payment_reminders"`
	MaintenanceReminders bool   `json:"maintenance_reminders"`
	EmailDelivery        bool   `json:"email_delivery"`
}

// DefaultAutomationSettings returns the flags applied when a user has no
// stored settings row: all rules on, email fan-out off.
func DefaultAutomationSettings(userID string) AutomationSettingsDTO {
	return AutomationSettingsDTO{
		UserID:               userID,
		JobReminders:         true,
		LeadFollowUps:        true,
		PaymentReminders:     true,
		MaintenanceReminders: true,
		EmailDelivery:        false,
	}
}

// SettingsService coordinates reads and writes of per-user automation settings.
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(db *gorm.DB) (*SettingsService, error) {
	if db == nil {
		return nil, errors.New("settings service: db is required")
	}
	return &SettingsService{db: db}, nil
}

// Get returns the effective automation settings for the user, falling back to
// defaults when no row exists.
func (s *SettingsService) Get(ctx context.Context, userID string) (AutomationSettingsDTO, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return AutomationSettingsDTO{}, apperrors.NewBadRequest("user id is required")
	}

	var row models.AutomationSettings
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultAutomationSettings(userID), nil
		}
		return AutomationSettingsDTO{}, fmt.Errorf("settings service: load settings: %w", err)
	}

	return mapSettings(row), nil
}

// Update upserts the automation settings row for the user.
func (s *SettingsService) Update(ctx context.Context, settings AutomationSettingsDTO) (AutomationSettingsDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(settings.UserID)
	if userID == "" {
		return AutomationSettingsDTO{}, apperrors.NewBadRequest("user id is required")
	}

	var row models.AutomationSettings
	err := s.db.WithContext(ctx).
		Where(models.AutomationSettings{UserID: userID}).
		FirstOrCreate(&row).Error
	if err != nil {
		if IsUniqueConstraintError(err) {
			return AutomationSettingsDTO{}, apperrors.ErrConflict.WithInternal(err)
		}
		return AutomationSettingsDTO{}, fmt.Errorf("settings service: upsert settings: %w", err)
	}

	// A map keeps false flags in the statement; struct updates would drop
	// them as zero values.
	updates := map[string]any{
		"job_reminders":         settings.JobReminders,
		"lead_follow_ups":       settings.LeadFollowUps,
		"payment_reminders":     settings.PaymentReminders,
		"maintenance_reminders": settings.MaintenanceReminders,
		"email_delivery":        settings.EmailDelivery,
	}
	if err := s.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		return AutomationSettingsDTO{}, fmt.Errorf("settings service: update settings: %w", err)
	}

	return mapSettings(row), nil
}

func mapSettings(row models.AutomationSettings) AutomationSettingsDTO {
	return AutomationSettingsDTO{
		UserID:               row.UserID,
		JobReminders:         row.JobReminders,
		LeadFollowUps:        row.LeadFollowUps,
		PaymentReminders:     row.PaymentReminders,
		MaintenanceReminders: row.MaintenanceReminders,
		EmailDelivery:        row.EmailDelivery,
	}
}
