package dto

import (
	"time"

	"github.com/yukikurage/household-api/internal/models"
)

// NotificationDTO represents a notification
type NotificationDTO struct {
	ID          uint64                  `json:"id"`
	UserID      uint64                  `json:"user_id"`
	HouseholdID *uint64                 `json:"household_id,omitempty"`
	Type        models.NotificationType `json:"type"`
	Message     string                  `json:"message"`
	IsRead      bool                    `json:"is_read"`
	ChoreID     *uint64                 `json:"chore_id,omitempty"`
	ExpenseID   *uint64                 `json:"expense_id,omitempty"`
	EventID     *uint64                 `json:"event_id,omitempty"`
	MessageID   *uint64                 `json:"message_id,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// NotificationSettingsDTO represents per-household delivery preferences
type NotificationSettingsDTO struct {
	HouseholdID          uint64 `json:"household_id"`
	EmailEnabled         bool   `json:"email_enabled"`
	PushEnabled          bool   `json:"push_enabled"`
	ChoreReminders       bool   `json:"chore_reminders"`
	ExpenseReminders     bool   `json:"expense_reminders"`
	MessageNotifications bool   `json:"message_notifications"`
}

// ToNotificationDTO converts a Notification model
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:          n.ID,
		UserID:      n.UserID,
		HouseholdID: n.HouseholdID,
		Type:        models.NormalizeNotificationType(n.Type),
		Message:     n.Message,
		IsRead:      n.IsRead,
		ChoreID:     n.ChoreID,
		ExpenseID:   n.ExpenseID,
		EventID:     n.EventID,
		MessageID:   n.MessageID,
		CreatedAt:   n.CreatedAt,
	}
}

// ToNotificationDTOs converts a slice of notifications
func ToNotificationDTOs(notifications []models.Notification) []NotificationDTO {
	out := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		out[i] = ToNotificationDTO(n)
	}
	return out
}

// ToNotificationSettingsDTO converts a NotificationSettings model
func ToNotificationSettingsDTO(s models.NotificationSettings) NotificationSettingsDTO {
	return NotificationSettingsDTO{
		HouseholdID:          s.HouseholdID,
		EmailEnabled:         s.EmailEnabled,
		PushEnabled:          s.PushEnabled,
		ChoreReminders:       s.ChoreReminders,
		ExpenseReminders:     s.ExpenseReminders,
		MessageNotifications: s.MessageNotifications,
	}
}
