package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cfranzen/jobmate/internal/models"
	"github.com/cfranzen/jobmate/internal/services"
	"github.com/cfranzen/jobmate/pkg/logger"
	"github.com/cfranzen/jobmate/pkg/metrics"
)

// RunStats summarises one scheduler pass for one user.
type RunStats struct {
	Evaluated  int `json:"evaluated"`
	Created    int `json:"created"`
	Suppressed int `json:"suppressed"`
	Failed     int `json:"failed"`
}

func (s *RunStats) add(other RunStats) {
	s.Evaluated += other.Evaluated
	s.Created += other.Created
	s.Suppressed += other.Suppressed
	s.Failed += other.Failed
}

// Scheduler runs the rule catalog against a user's domain records and turns
// surviving candidates into notifications. Runs are safe to overlap: the
// cooldown gate is the only duplicate-suppression mechanism, so a concurrent
// run degrades to at-least-once, never to corruption.
type Scheduler struct {
	db            *gorm.DB
	settings      *services.SettingsService
	notifications *services.NotificationService
	gate          *Gate
	rules         []Rule
	now           func() time.Time
	log           *zap.Logger
}

// SchedulerOption customises the Scheduler.
type SchedulerOption func(*Scheduler)

// WithNow overrides the clock used for rule evaluation, primarily for tests.
func WithNow(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRules replaces the rule catalog, primarily for tests.
func WithRules(rules []Rule) SchedulerOption {
	return func(s *Scheduler) {
		if rules != nil {
			s.rules = rules
		}
	}
}

// NewScheduler constructs a Scheduler over the shared data-access layer.
func NewScheduler(db *gorm.DB, settings *services.SettingsService, notifications *services.NotificationService, opts ...SchedulerOption) (*Scheduler, error) {
	if db == nil {
		return nil, errors.New("scheduler: db is required")
	}
	if settings == nil {
		return nil, errors.New("scheduler: settings service is required")
	}
	if notifications == nil {
		return nil, errors.New("scheduler: notification service is required")
	}

	gate, err := NewGate(notifications)
	if err != nil {
		return nil, err
	}

	scheduler := &Scheduler{
		db:            db,
		settings:      settings,
		notifications: notifications,
		gate:          gate,
		rules:         Rules(),
		now:           time.Now,
		log:           logger.WithModule("automation"),
	}

	for _, opt := range opts {
		opt(scheduler)
	}

	return scheduler, nil
}

// RunForUser evaluates every enabled rule against the user's records.
// Disabled rules are skipped entirely. Failures on a single entity or rule
// are logged, counted, and skipped; they never abort the rest of the run.
func (s *Scheduler) RunForUser(ctx context.Context, userID string) (RunStats, error) {
	var stats RunStats

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return stats, fmt.Errorf("scheduler: load settings for %s: %w", userID, err)
	}

	now := s.now().UTC()
	var itemErrs error

	for _, rule := range s.rules {
		if !rule.Enabled(settings) {
			continue
		}

		candidates, evaluated, err := rule.scan(ctx, s.db, userID, now)
		if err != nil {
			stats.Failed++
			itemErrs = multierr.Append(itemErrs, fmt.Errorf("%s: %w", rule.Type, err))
			continue
		}
		stats.Evaluated += evaluated

		for _, candidate := range candidates {
			ok, err := s.gate.ShouldCreate(ctx, candidate.Type, userID, candidate.ReferenceID, now)
			if err != nil {
				stats.Failed++
				itemErrs = multierr.Append(itemErrs, fmt.Errorf("%s gate %s: %w", candidate.Type, candidate.ReferenceID, err))
				continue
			}
			if !ok {
				stats.Suppressed++
				metrics.NotificationsSuppressed.WithLabelValues(candidate.Type).Inc()
				continue
			}

			_, err = s.notifications.Create(ctx, services.CreateNotificationInput{
				UserID:       userID,
				Type:         candidate.Type,
				Title:        candidate.Title,
				Message:      candidate.Message,
				Priority:     candidate.Priority,
				ReferenceKey: candidate.ReferenceKey,
				ReferenceID:  candidate.ReferenceID,
				Metadata:     candidate.Metadata,
			})
			if err != nil {
				stats.Failed++
				itemErrs = multierr.Append(itemErrs, fmt.Errorf("%s create %s: %w", candidate.Type, candidate.ReferenceID, err))
				continue
			}
			stats.Created++
		}
	}

	if itemErrs != nil {
		// Best-effort background process: per-item failures are logged, not
		// surfaced to callers.
		s.log.Warn("scheduler run completed with item failures",
			zap.String("user_id", userID),
			zap.Int("failed", stats.Failed),
			zap.Error(itemErrs),
		)
	}

	return stats, nil
}

// RunAll runs the scheduler for every known user.
func (s *Scheduler) RunAll(ctx context.Context) (RunStats, error) {
	var stats RunStats

	var userIDs []string
	if err := s.db.WithContext(ctx).Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
		return stats, fmt.Errorf("scheduler: list users: %w", err)
	}

	for _, userID := range userIDs {
		userStats, err := s.RunForUser(ctx, userID)
		if err != nil {
			s.log.Warn("scheduler run failed for user", zap.String("user_id", userID), zap.Error(err))
			stats.Failed++
			continue
		}
		stats.add(userStats)
	}

	return stats, nil
}
