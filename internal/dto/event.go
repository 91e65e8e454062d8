package dto

import (
	"time"

	"github.com/yukikurage/household-api/internal/models"
)

// ReminderDTO represents an event reminder
type ReminderDTO struct {
	ID      uint64              `json:"id"`
	EventID uint64              `json:"event_id"`
	Type    models.ReminderType `json:"type"`
	Time    time.Time           `json:"time"`
}

// EventDTO represents a calendar event
type EventDTO struct {
	ID               uint64               `json:"id"`
	HouseholdID      uint64               `json:"household_id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	StartTime        time.Time            `json:"start_time"`
	EndTime          time.Time            `json:"end_time"`
	IsAllDay         bool                 `json:"is_all_day"`
	Location         string               `json:"location,omitempty"`
	Category         models.EventCategory `json:"category"`
	Status           models.EventStatus   `json:"status"`
	ChoreID          *uint64              `json:"chore_id"`
	RecurrenceRuleID *uint64              `json:"recurrence_rule_id"`
	CreatedBy        *UserSummaryDTO      `json:"created_by,omitempty"`
	Reminders        []ReminderDTO        `json:"reminders"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// ToReminderDTO converts an EventReminder model
func ToReminderDTO(reminder models.EventReminder) ReminderDTO {
	return ReminderDTO{
		ID:      reminder.ID,
		EventID: reminder.EventID,
		Type:    models.NormalizeReminderType(reminder.Type),
		Time:    reminder.Time,
	}
}

// ToEventDTO converts an Event model with its loaded relations
func ToEventDTO(event models.Event) EventDTO {
	out := EventDTO{
		ID:               event.ID,
		HouseholdID:      event.HouseholdID,
		Title:            event.Title,
		Description:      event.Description,
		StartTime:        event.StartTime,
		EndTime:          event.EndTime,
		IsAllDay:         event.IsAllDay,
		Location:         event.Location,
		Category:         models.NormalizeEventCategory(event.Category),
		Status:           models.NormalizeEventStatus(event.Status),
		ChoreID:          event.ChoreID,
		RecurrenceRuleID: event.RecurrenceRuleID,
		CreatedBy:        optionalUser(event.CreatedBy),
		Reminders:        make([]ReminderDTO, len(event.Reminders)),
		CreatedAt:        event.CreatedAt,
		UpdatedAt:        event.UpdatedAt,
	}
	for i, r := range event.Reminders {
		out.Reminders[i] = ToReminderDTO(r)
	}
	return out
}

// ToEventDTOs converts a slice of events
func ToEventDTOs(events []models.Event) []EventDTO {
	out := make([]EventDTO, len(events))
	for i, e := range events {
		out[i] = ToEventDTO(e)
	}
	return out
}
