package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/household-api/internal/dto"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"github.com/yukikurage/household-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidNotification = apierrors.NewBadRequest("Notification message cannot be empty.")
	ErrInvalidSubscription = apierrors.NewBadRequest("Push subscription requires an endpoint and keys.")
)

// NotificationService manages per-user notifications, delivery settings and
// push subscriptions.
type NotificationService struct {
	store       *repository.Store
	guard       *MembershipGuard
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(store *repository.Store, guard *MembershipGuard, broadcaster realtime.Broadcaster, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:       store,
		guard:       guard,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// CreateNotificationInput represents a notification addressed to one user.
type CreateNotificationInput struct {
	UserID      uint64
	HouseholdID *uint64
	Type        models.NotificationType
	Message     string
	ChoreID     *uint64
	ExpenseID   *uint64
	EventID     *uint64
	MessageID   *uint64
}

type allReadPayload struct {
	AllRead bool `json:"all_read"`
}

// NotificationSettingsInput holds the settings flags to change.
type NotificationSettingsInput struct {
	EmailEnabled         *bool
	PushEnabled          *bool
	ChoreReminders       *bool
	ExpenseReminders     *bool
	MessageNotifications *bool
}

// PushSubscriptionInput is a browser push endpoint with its encryption keys.
type PushSubscriptionInput struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// GetNotifications lists the caller's notifications, newest first.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uint64, onlyUnread bool, pagination utils.PaginationParams) (*dto.ListResponse[dto.NotificationDTO], error) {
	notifications, total, err := s.store.Notifications.List(ctx, userID, onlyUnread, pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	resp := dto.NewListResponse(dto.ToNotificationDTOs(notifications), pagination, total)
	return &resp, nil
}

// CreateNotification stores a notification and pushes it to the recipient's channel.
func (s *NotificationService) CreateNotification(ctx context.Context, input CreateNotificationInput) (*dto.NotificationDTO, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrInvalidNotification
	}
	if _, err := s.store.Users.FindByID(ctx, input.UserID, false); err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "find user")
	}

	notification := &models.Notification{
		UserID:      input.UserID,
		HouseholdID: input.HouseholdID,
		Type:        models.NormalizeNotificationType(input.Type),
		Message:     message,
		ChoreID:     input.ChoreID,
		ExpenseID:   input.ExpenseID,
		EventID:     input.EventID,
		MessageID:   input.MessageID,
	}
	if err := s.store.Notifications.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	out := dto.ToNotificationDTO(*notification)
	toUser(s.broadcaster, input.UserID, EventNotificationUpdate, &out)
	return &out, nil
}

// MarkAsRead marks one of the caller's notifications read. Notifications of
// other users are reported as not found.
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID uint64) (*dto.NotificationDTO, error) {
	notification, err := s.store.Notifications.FindByID(ctx, userID, notificationID)
	if err != nil {
		return nil, notFoundOr(err, ErrNotificationNotFound, "find notification")
	}
	if !notification.IsRead {
		if err := s.store.Notifications.MarkRead(ctx, notificationID); err != nil {
			return nil, fmt.Errorf("failed to mark notification read: %w", err)
		}
		notification.IsRead = true
	}

	out := dto.ToNotificationDTO(*notification)
	toUser(s.broadcaster, userID, EventNotificationUpdate, &out)
	return &out, nil
}

// MarkAllAsRead marks every notification of the caller read.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint64) error {
	if err := s.store.Notifications.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	toUser(s.broadcaster, userID, EventNotificationUpdate, allReadPayload{AllRead: true})
	return nil
}

// DeleteNotification soft-deletes one of the caller's notifications.
func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID, userID uint64) error {
	if _, err := s.store.Notifications.FindByID(ctx, userID, notificationID); err != nil {
		return notFoundOr(err, ErrNotificationNotFound, "find notification")
	}
	if err := s.store.Notifications.Delete(ctx, notificationID); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	toUser(s.broadcaster, userID, EventNotificationUpdate, dto.Deleted(notificationID))
	return nil
}

// GetNotificationSettings returns the caller's settings for a household,
// creating the defaults on first read.
func (s *NotificationService) GetNotificationSettings(ctx context.Context, householdID, userID uint64) (*dto.NotificationSettingsDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	settings, err := s.settings(ctx, householdID, userID)
	if err != nil {
		return nil, err
	}
	out := dto.ToNotificationSettingsDTO(*settings)
	return &out, nil
}

// UpdateNotificationSettings changes the caller's settings for a household.
func (s *NotificationService) UpdateNotificationSettings(ctx context.Context, householdID uint64, input NotificationSettingsInput, userID uint64) (*dto.NotificationSettingsDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	settings, err := s.settings(ctx, householdID, userID)
	if err != nil {
		return nil, err
	}

	apply := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&settings.EmailEnabled, input.EmailEnabled)
	apply(&settings.PushEnabled, input.PushEnabled)
	apply(&settings.ChoreReminders, input.ChoreReminders)
	apply(&settings.ExpenseReminders, input.ExpenseReminders)
	apply(&settings.MessageNotifications, input.MessageNotifications)
	if err := s.store.Notifications.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save notification settings: %w", err)
	}

	out := dto.ToNotificationSettingsDTO(*settings)
	toUser(s.broadcaster, userID, EventSettingsUpdate, &out)
	return &out, nil
}

// SavePushSubscription registers a browser push endpoint for the caller.
func (s *NotificationService) SavePushSubscription(ctx context.Context, input PushSubscriptionInput, userID uint64) error {
	if strings.TrimSpace(input.Endpoint) == "" || input.P256dh == "" || input.Auth == "" {
		return ErrInvalidSubscription
	}
	subscription := &models.PushSubscription{
		UserID:   userID,
		Endpoint: strings.TrimSpace(input.Endpoint),
		P256dh:   input.P256dh,
		Auth:     input.Auth,
	}
	if err := s.store.Notifications.SaveSubscription(ctx, subscription); err != nil {
		return fmt.Errorf("failed to save push subscription: %w", err)
	}
	return nil
}

// DeletePushSubscription removes one of the caller's push endpoints.
func (s *NotificationService) DeletePushSubscription(ctx context.Context, endpoint string, userID uint64) error {
	if strings.TrimSpace(endpoint) == "" {
		return required("endpoint")
	}
	if err := s.store.Notifications.DeleteSubscription(ctx, userID, endpoint); err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}

// SettingsFor returns the stored settings of a user in a household, or the
// defaults when none are stored yet. Nothing is written.
func (s *NotificationService) SettingsFor(ctx context.Context, householdID, userID uint64) (models.NotificationSettings, error) {
	settings, err := s.store.Notifications.FindSettings(ctx, userID, householdID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultNotificationSettings(userID, householdID), nil
	}
	if err != nil {
		return models.NotificationSettings{}, fmt.Errorf("failed to find notification settings: %w", err)
	}
	return *settings, nil
}

func (s *NotificationService) settings(ctx context.Context, householdID, userID uint64) (*models.NotificationSettings, error) {
	settings, err := s.store.Notifications.FindSettings(ctx, userID, householdID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find notification settings: %w", err)
	}
	defaults := models.DefaultNotificationSettings(userID, householdID)
	if err := s.store.Notifications.SaveSettings(ctx, &defaults); err != nil {
		return nil, fmt.Errorf("failed to create notification settings: %w", err)
	}
	return &defaults, nil
}
