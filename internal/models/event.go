package models

import (
	"time"

	"gorm.io/gorm"
)

// Event is a calendar entry. Chore-linked events use category CHORE and point
// back at their chore through ChoreID.
type Event struct {
	ID               uint64         `gorm:"primarykey" json:"id"`
	HouseholdID      uint64         `gorm:"not null;index" json:"household_id"`
	Title            string         `gorm:"size:200;not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	StartTime        time.Time      `gorm:"not null;index" json:"start_time"`
	EndTime          time.Time      `gorm:"not null" json:"end_time"`
	IsAllDay         bool           `gorm:"not null;default:false" json:"is_all_day"`
	Location         string         `json:"location,omitempty"`
	Category         EventCategory  `gorm:"type:varchar(20);not null;default:'OTHER'" json:"category"`
	Status           EventStatus    `gorm:"type:varchar(20);not null;default:'SCHEDULED'" json:"status"`
	CreatedByID      *uint64        `json:"created_by_id"`
	ChoreID          *uint64        `gorm:"index" json:"chore_id"`
	RecurrenceRuleID *uint64        `json:"recurrence_rule_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	CreatedBy *User           `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Reminders []EventReminder `gorm:"foreignKey:EventID" json:"reminders,omitempty"`
}

type EventReminder struct {
	ID        uint64       `gorm:"primarykey" json:"id"`
	EventID   uint64       `gorm:"not null;index" json:"event_id"`
	Type      ReminderType `gorm:"type:varchar(20);not null" json:"type"`
	Time      time.Time    `gorm:"not null" json:"time"`
	CreatedAt time.Time    `json:"created_at"`
}

type CalendarEventHistory struct {
	ID          uint64              `gorm:"primarykey" json:"id"`
	EventID     uint64              `gorm:"not null;index" json:"event_id"`
	Action      CalendarEventAction `gorm:"type:varchar(20);not null" json:"action"`
	ChangedByID *uint64             `json:"changed_by_id"`
	ChangedAt   time.Time           `gorm:"not null" json:"changed_at"`
}

func (CalendarEventHistory) TableName() string {
	return "calendar_event_history"
}
