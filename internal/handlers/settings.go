package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cfranzen/jobmate/internal/middleware"
	"github.com/cfranzen/jobmate/internal/services"
	"github.com/cfranzen/jobmate/pkg/errors"
	"github.com/cfranzen/jobmate/pkg/response"
)

// SettingsHandler exposes the per-user automation flags.
type SettingsHandler struct {
	service *services.SettingsService
}

// NewSettingsHandler constructs a settings handler.
func NewSettingsHandler(db *gorm.DB) (*SettingsHandler, error) {
	service, err := services.NewSettingsService(db)
	if err != nil {
		return nil, err
	}
	return &SettingsHandler{service: service}, nil
}

// Get returns the effective automation settings for the current user.
func (h *SettingsHandler) Get(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	settings, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, settings)
}

type updateSettingsRequest struct {
	JobReminders         *bool `json:"job_reminders" binding:"required"`
	LeadFollowUps        *bool `json:"lead_follow_ups" binding:"required"`
	PaymentReminders     *bool `json:"payment_reminders" binding:"required"`
	MaintenanceReminders *bool `json:"maintenance_reminders" binding:"required"`
	EmailDelivery        *bool `json:"email_delivery" binding:"required"`
}

// Update replaces the automation settings for the current user.
func (h *SettingsHandler) Update(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.NewBadRequest("all settings flags are required"))
		return
	}

	settings, err := h.service.Update(c.Request.Context(), services.AutomationSettingsDTO{
		UserID:               userID,
		JobReminders:         *req.JobReminders,
		LeadFollowUps:        *req.LeadFollowUps,
		PaymentReminders:     *req.PaymentReminders,
		MaintenanceReminders: *req.MaintenanceReminders,
		EmailDelivery:        *req.EmailDelivery,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, settings)
}
