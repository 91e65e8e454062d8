package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/household-api/internal/constants"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/notifier"
	"github.com/yukikurage/household-api/internal/repository"
	"go.uber.org/zap"
)

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type PushSender interface {
	Send(ctx context.Context, userID uint64, msg notifier.PushMessage) error
}

// SettingsSource resolves the delivery settings of a user in a household.
type SettingsSource interface {
	SettingsFor(ctx context.Context, householdID, userID uint64) (models.NotificationSettings, error)
}

// NotificationDispatch delivers unread notifications by email and push.
//
// A notification is marked read once email delivery succeeded or was not
// wanted. Failed emails stay unread and are retried on the next run. Push is
// best effort.
type NotificationDispatch struct {
	notifications repository.NotificationRepository
	settings      SettingsSource
	email         EmailSender
	push          PushSender
	logger        *zap.Logger
}

func NewNotificationDispatch(notifications repository.NotificationRepository, settings SettingsSource, email EmailSender, push PushSender, logger *zap.Logger) *NotificationDispatch {
	return &NotificationDispatch{
		notifications: notifications,
		settings:      settings,
		email:         email,
		push:          push,
		logger:        logger.Named("notification_dispatch"),
	}
}

func (j *NotificationDispatch) Name() string { return "notification_dispatch" }

func (j *NotificationDispatch) Run(ctx context.Context) error {
	pending, err := j.notifications.ListUnread(ctx, constants.NotificationBatchSize)
	if err != nil {
		return fmt.Errorf("list unread notifications: %w", err)
	}

	var sent, failed int
	for i := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := j.deliver(ctx, &pending[i]); err != nil {
			failed++
			j.logger.Warn("notification delivery failed", zap.Uint64("notification_id", pending[i].ID), zap.Error(err))
			continue
		}
		sent++
	}

	j.logger.Info("notifications processed", zap.Int("delivered", sent), zap.Int("failed", failed))
	return nil
}

func (j *NotificationDispatch) deliver(ctx context.Context, n *models.Notification) error {
	settings := models.DefaultNotificationSettings(n.UserID, 0)
	if n.HouseholdID != nil {
		s, err := j.settings.SettingsFor(ctx, *n.HouseholdID, n.UserID)
		if err != nil {
			return err
		}
		settings = s
	}

	subject := fmt.Sprintf("New %s Notification", n.Type)
	if wanted(settings, n.Type) {
		if settings.PushEnabled {
			err := j.push.Send(ctx, n.UserID, notifier.PushMessage{Title: subject, Body: n.Message, Tag: string(n.Type)})
			if err != nil && !errors.Is(err, notifier.ErrDisabled) {
				j.logger.Warn("push delivery failed", zap.Uint64("notification_id", n.ID), zap.Error(err))
			}
		}
		if settings.EmailEnabled && n.User != nil && n.User.Email != "" {
			err := j.email.SendEmail(ctx, n.User.Email, subject, n.Message)
			if err != nil && !errors.Is(err, notifier.ErrDisabled) {
				return fmt.Errorf("send email: %w", err)
			}
		}
	}

	if err := j.notifications.MarkRead(ctx, n.ID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// wanted reports whether the settings allow delivering a notification of
// type t outside the application.
func wanted(s models.NotificationSettings, t models.NotificationType) bool {
	switch t {
	case models.NotificationTypeChore:
		return s.ChoreReminders
	case models.NotificationTypeExpense:
		return s.ExpenseReminders
	case models.NotificationTypeNewMessage, models.NotificationTypeMention:
		return s.MessageNotifications
	default:
		return true
	}
}
