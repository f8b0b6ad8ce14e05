package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cfranzen/jobmate/internal/models"
	apperrors "github.com/cfranzen/jobmate/pkg/errors"
	"github.com/cfranzen/jobmate/pkg/logger"
	"github.com/cfranzen/jobmate/pkg/metrics"
)

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Type         string         `json:"type"`
	Title        string         `json:"title"`
	Message      string         `json:"message"`
	Priority     string         `json:"priority"`
	ReferenceKey string         `json:"reference_key,omitempty"`
	ReferenceID  string         `json:"reference_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	IsRead       bool           `json:"is_read"`
	CreatedAt    time.Time      `json:"created_at"`
	ReadAt       *time.Time     `json:"read_at,omitempty"`
}

// CreateNotificationInput defines attributes required to persist a notification.
// ReferenceKey/ReferenceID name the single triggering entity; the pair is
// mirrored into the metadata payload and backs cooldown deduplication.
type CreateNotificationInput struct {
	UserID       string
	Type         string
	Title        string
	Message      string
	Priority     string
	ReferenceKey string
	ReferenceID  string
	Metadata     map[string]any
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationService manages the append-only notification log.
type NotificationService struct {
	db       *gorm.DB
	delivery Delivery
	log      *zap.Logger
}

// NewNotificationService constructs a NotificationService. The delivery
// channel is optional; when nil no fan-out happens.
func NewNotificationService(db *gorm.DB, delivery Delivery) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{
		db:       db,
		delivery: delivery,
		log:      logger.WithModule("notifications"),
	}, nil
}

// Create appends a notification to the log and fans it out to secondary
// channels. Fan-out failures are logged and swallowed.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, errors.New("notification service: type is required")
	}
	refKey := strings.TrimSpace(input.ReferenceKey)
	refID := strings.TrimSpace(input.ReferenceID)
	if refKey == "" || refID == "" {
		return nil, errors.New("notification service: entity reference is required")
	}

	metadata := make(map[string]any, len(input.Metadata)+1)
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	metadata[refKey] = refID

	payload, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("notification service: marshal metadata: %w", err)
	}

	notification := models.Notification{
		UserID:       userID,
		Type:         notificationType,
		Title:        strings.TrimSpace(input.Title),
		Message:      strings.TrimSpace(input.Message),
		Priority:     defaultIfEmpty(input.Priority, models.PriorityMedium),
		ReferenceKey: refKey,
		ReferenceID:  refID,
		Metadata:     datatypes.JSON(payload),
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	metrics.NotificationsCreated.WithLabelValues(notificationType).Inc()

	dto := mapNotification(notification)
	s.fanOut(ctx, dto)
	return &dto, nil
}

// LatestByReference returns the most recent notification of the given type
// for the referenced entity, or nil when none exists. This is the cooldown
// gate's lookup.
func (s *NotificationService) LatestByReference(ctx context.Context, userID, notificationType, referenceID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	var row models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND reference_id = ?", userID, notificationType, referenceID).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("notification service: latest by reference: %w", err)
	}

	dto := mapNotification(row)
	return &dto, nil
}

// ListForUser returns notifications for the supplied user ordered by recency.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(max(0, input.Offset)).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}

	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: unread count: %w", err)
	}
	return count, nil
}

// MarkRead sets the notification read flag for a user.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	return s.updateReadState(ctx, userID, notificationID, true)
}

// MarkUnread unsets the notification read flag.
func (s *NotificationService) MarkUnread(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	return s.updateReadState(ctx, userID, notificationID, false)
}

func (s *NotificationService) updateReadState(ctx context.Context, userID, notificationID string, read bool) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	updates := map[string]any{"is_read": read, "read_at": nil}
	notification.IsRead = read
	notification.ReadAt = nil
	if read {
		now := time.Now().UTC()
		updates["read_at"] = now
		notification.ReadAt = &now
	}

	if err := s.db.WithContext(ctx).Model(&notification).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("notification service: update read state: %w", err)
	}

	dto := mapNotification(notification)
	return &dto, nil
}

// MarkAllRead marks all notifications for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}
	return nil
}

// Delete removes a notification owned by the supplied user. The automation
// core never deletes; this exists for the owner-facing API only.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// fanOut pushes the notification to the email channel when the recipient
// opted in. Channel failures never propagate.
func (s *NotificationService) fanOut(ctx context.Context, dto NotificationDTO) {
	if s.delivery == nil {
		return
	}

	var settings models.AutomationSettings
	err := s.db.WithContext(ctx).Where("user_id = ?", dto.UserID).First(&settings).Error
	if err != nil || !settings.EmailDelivery {
		return
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", dto.UserID).First(&user).Error; err != nil {
		s.log.Warn("fan-out recipient lookup failed", zap.String("user_id", dto.UserID), zap.Error(err))
		return
	}

	if err := s.delivery.Deliver(ctx, user.Email, dto); err != nil {
		s.log.Warn("notification fan-out failed",
			zap.String("notification_id", dto.ID),
			zap.Error(err),
		)
	}
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:           row.ID,
		UserID:       row.UserID,
		Type:         row.Type,
		Title:        row.Title,
		Message:      row.Message,
		Priority:     defaultIfEmpty(row.Priority, models.PriorityMedium),
		ReferenceKey: row.ReferenceKey,
		ReferenceID:  row.ReferenceID,
		Metadata:     decodeJSON(row.Metadata),
		IsRead:       row.IsRead,
		CreatedAt:    row.CreatedAt,
		ReadAt:       row.ReadAt,
	}
}

func decodeJSON(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
