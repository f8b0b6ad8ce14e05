package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cfranzen/jobmate/pkg/logger"
	"github.com/cfranzen/jobmate/pkg/mail"
	"github.com/cfranzen/jobmate/pkg/metrics"
)

// Delivery fans a persisted notification out to a secondary channel. Delivery
// is best effort: a failing channel never fails the operation that created
// the notification.
type Delivery interface {
	Deliver(ctx context.Context, recipientEmail string, notification NotificationDTO) error
}

type emailDelivery struct {
	mailer mail.Mailer
	log    *zap.Logger
}

// NewEmailDelivery wraps a Mailer as a notification Delivery channel.
func NewEmailDelivery(mailer mail.Mailer) Delivery {
	return &emailDelivery{
		mailer: mailer,
		log:    logger.WithModule("delivery"),
	}
}

func (d *emailDelivery) Deliver(ctx context.Context, recipientEmail string, notification NotificationDTO) error {
	if recipientEmail == "" {
		return fmt.Errorf("delivery: recipient email is empty")
	}

	err := d.mailer.Send(ctx, mail.Message{
		To:      []string{recipientEmail},
		Subject: notification.Title,
		Body:    notification.Message,
	})
	if err != nil {
		metrics.DeliveryFailures.WithLabelValues("email").Inc()
		d.log.Warn("email delivery failed",
			zap.String("notification_id", notification.ID),
			zap.String("type", notification.Type),
			zap.Error(err),
		)
		return fmt.Errorf("delivery: send email: %w", err)
	}
	return nil
}
