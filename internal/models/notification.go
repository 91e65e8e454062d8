package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	ID          uint64           `gorm:"primarykey" json:"id"`
	UserID      uint64           `gorm:"not null;index" json:"user_id"`
	HouseholdID *uint64          `gorm:"index" json:"household_id,omitempty"`
	Type        NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	IsRead      bool             `gorm:"not null;default:false;index" json:"is_read"`
	ChoreID     *uint64          `json:"chore_id,omitempty"`
	ExpenseID   *uint64          `json:"expense_id,omitempty"`
	EventID     *uint64          `json:"event_id,omitempty"`
	MessageID   *uint64          `json:"message_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// NotificationSettings holds delivery preferences for a user within a household.
type NotificationSettings struct {
	ID                   uint64    `gorm:"primarykey" json:"id"`
	UserID               uint64    `gorm:"not null;uniqueIndex:idx_notification_settings_user_household" json:"user_id"`
	HouseholdID          uint64    `gorm:"not null;uniqueIndex:idx_notification_settings_user_household" json:"household_id"`
	EmailEnabled         bool      `gorm:"not null" json:"email_enabled"`
	PushEnabled          bool      `gorm:"not null" json:"push_enabled"`
	ChoreReminders       bool      `gorm:"not null" json:"chore_reminders"`
	ExpenseReminders     bool      `gorm:"not null" json:"expense_reminders"`
	MessageNotifications bool      `gorm:"not null" json:"message_notifications"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DefaultNotificationSettings enables every channel.
func DefaultNotificationSettings(userID, householdID uint64) NotificationSettings {
	return NotificationSettings{
		UserID:               userID,
		HouseholdID:          householdID,
		EmailEnabled:         true,
		PushEnabled:          true,
		ChoreReminders:       true,
		ExpenseReminders:     true,
		MessageNotifications: true,
	}
}

// PushSubscription is a browser web-push endpoint registered by a user.
type PushSubscription struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	Endpoint  string    `gorm:"size:512;not null;uniqueIndex" json:"endpoint"`
	P256dh    string    `gorm:"not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}
