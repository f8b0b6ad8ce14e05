package automation

import (
	"context"
	"errors"
	"time"

	"github.com/cfranzen/jobmate/internal/services"
)

// Gate suppresses notification candidates that were already issued for the
// same (type, entity) within the type's cooldown window.
//
// The lookup and the subsequent insert are not atomic; two overlapping
// scheduler runs can both pass the gate and create a duplicate. Cooldowns of
// hours to a week keep the duplicate volume bounded, which is the accepted
// trade-off instead of locking.
type Gate struct {
	notifications *services.NotificationService
}

// NewGate constructs a Gate over the notification store.
func NewGate(notifications *services.NotificationService) (*Gate, error) {
	if notifications == nil {
		return nil, errors.New("gate: notification service is required")
	}
	return &Gate{notifications: notifications}, nil
}

// ShouldCreate reports whether a notification of the given type for the given
// entity may be created at `now`. Types without a registered cooldown always
// pass.
func (g *Gate) ShouldCreate(ctx context.Context, notificationType, userID, referenceID string, now time.Time) (bool, error) {
	cooldown, ok := CooldownFor(notificationType)
	if !ok || cooldown <= 0 {
		return true, nil
	}

	latest, err := g.notifications.LatestByReference(ctx, userID, notificationType, referenceID)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return true, nil
	}

	return latest.CreatedAt.Before(now.Add(-cooldown)), nil
}
