package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/household-api/internal/dto"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrInvalidEventTitle    = apierrors.NewBadRequest("Event title cannot be empty.")
	ErrInvalidEventCategory = apierrors.NewBadRequest("Invalid event category.")
	ErrInvalidEventStatus   = apierrors.NewBadRequest("Invalid event status.")
	ErrInvalidReminderType  = apierrors.NewBadRequest("Invalid reminder type.")
	ErrChoreHasEvent        = apierrors.NewBadRequest("Chore already has a calendar event.")
	ErrManualChoreEvent     = apierrors.NewBadRequest("Chore events are created from their chore.")
	ErrNotEventOwner        = apierrors.NewUnauthorized("Only an admin or the creator can delete this event.")
)

// EventService manages calendar events and their reminders.
type EventService struct {
	store       *repository.Store
	guard       *MembershipGuard
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewEventService creates a new EventService.
func NewEventService(store *repository.Store, guard *MembershipGuard, broadcaster realtime.Broadcaster, logger *zap.Logger) *EventService {
	return &EventService{
		store:       store,
		guard:       guard,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// ReminderInput describes a reminder of an event.
type ReminderInput struct {
	Type models.ReminderType
	Time time.Time
}

// EventInput represents parameters to create an event.
type EventInput struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	IsAllDay    bool
	Location    string
	Category    models.EventCategory
	Reminders   []ReminderInput
	Recurrence  *RecurrenceInput
}

// UpdateEventInput represents parameters to update an event. A non-nil
// Recurrence replaces the recurrence rule.
type UpdateEventInput struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	IsAllDay    *bool
	Location    *string
	Category    *models.EventCategory
	Recurrence  *RecurrenceInput
}

// EventQuery filters GetEvents. From and To select events overlapping the range.
type EventQuery struct {
	From     *time.Time
	To       *time.Time
	Category *models.EventCategory
}

// GetEvents lists the events of a household.
func (s *EventService) GetEvents(ctx context.Context, householdID, userID uint64, query EventQuery) ([]dto.EventDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if query.Category != nil && !query.Category.Valid() {
		return nil, ErrInvalidEventCategory
	}

	events, err := s.store.Events.List(ctx, repository.EventFilter{
		HouseholdID: householdID,
		From:        query.From,
		To:          query.To,
		Category:    query.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return dto.ToEventDTOs(events), nil
}

// GetEventsByDate lists the events overlapping the calendar day of date.
func (s *EventService) GetEventsByDate(ctx context.Context, householdID uint64, date time.Time, userID uint64) ([]dto.EventDTO, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	to := from.AddDate(0, 0, 1)
	return s.GetEvents(ctx, householdID, userID, EventQuery{From: &from, To: &to})
}

// GetEventByID returns an event of the household.
func (s *EventService) GetEventByID(ctx context.Context, householdID, eventID, userID uint64) (*dto.EventDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	return s.loadEvent(ctx, householdID, eventID)
}

// CreateEvent creates an event with its reminders.
func (s *EventService) CreateEvent(ctx context.Context, householdID uint64, input EventInput, userID uint64) (*dto.EventDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if input.Category == models.EventCategoryChore {
		return nil, ErrManualChoreEvent
	}
	event, err := buildEvent(householdID, input, userID)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := createEventRule(ctx, tx, event, input.Recurrence); err != nil {
			return err
		}
		if err := tx.Events.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		return appendEventHistory(ctx, tx, event.ID, models.EventActionCreated, &userID)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadEvent(ctx, householdID, event.ID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventCalendarEventCreated, out)
	return out, nil
}

// CreateChoreEvent schedules a CHORE event for a chore and links the two.
func (s *EventService) CreateChoreEvent(ctx context.Context, householdID, choreID uint64, input EventInput, userID uint64) (*dto.EventDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	chore, err := s.store.Chores.FindByID(ctx, householdID, choreID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrChoreNotFound, "find chore")
	}
	if chore.EventID != nil {
		return nil, ErrChoreHasEvent
	}

	if strings.TrimSpace(input.Title) == "" {
		input.Title = chore.Title
	}
	if input.Description == "" {
		input.Description = chore.Description
	}
	input.Category = models.EventCategoryChore
	event, err := buildEvent(householdID, input, userID)
	if err != nil {
		return nil, err
	}
	event.ChoreID = &choreID

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := createEventRule(ctx, tx, event, input.Recurrence); err != nil {
			return err
		}
		if err := tx.Events.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		if err := tx.Chores.Update(ctx, choreID, map[string]interface{}{"event_id": event.ID}); err != nil {
			return fmt.Errorf("failed to link chore event: %w", err)
		}
		if err := appendChoreHistory(ctx, tx, choreID, models.ChoreActionUpdated, &userID); err != nil {
			return err
		}
		return appendEventHistory(ctx, tx, event.ID, models.EventActionCreated, &userID)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadEvent(ctx, householdID, event.ID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventCalendarEventCreated, out)
	return out, nil
}

// UpdateEvent changes an event. Replacing the recurrence rule is recorded as
// RECURRENCE_CHANGED instead of UPDATED.
func (s *EventService) UpdateEvent(ctx context.Context, householdID, eventID uint64, input UpdateEventInput, userID uint64) (*dto.EventDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	event, err := s.store.Events.FindByID(ctx, householdID, eventID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrEventNotFound, "find event")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrInvalidEventTitle
		}
		event.Title = title
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.StartTime != nil {
		event.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		event.EndTime = *input.EndTime
	}
	if input.IsAllDay != nil {
		event.IsAllDay = *input.IsAllDay
	}
	if input.Location != nil {
		event.Location = *input.Location
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, ErrInvalidEventCategory
		}
		event.Category = *input.Category
	}
	if !event.StartTime.Before(event.EndTime) {
		return nil, ErrInvalidTimeRange
	}
	if input.Recurrence != nil && !input.Recurrence.Frequency.Valid() {
		return nil, ErrInvalidFrequency
	}

	action := models.EventActionUpdated
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if input.Recurrence != nil {
			if err := createEventRule(ctx, tx, event, input.Recurrence); err != nil {
				return err
			}
			action = models.EventActionRecurrenceChanged
		}
		if err := tx.Events.Update(ctx, event); err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		return appendEventHistory(ctx, tx, eventID, action, &userID)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadEvent(ctx, householdID, eventID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventCalendarEventUpdate, out)
	return out, nil
}

// UpdateEventStatus moves an event to SCHEDULED, CANCELLED or COMPLETED.
func (s *EventService) UpdateEventStatus(ctx context.Context, householdID, eventID uint64, status models.EventStatus, userID uint64) (*dto.EventDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidEventStatus
	}
	event, err := s.store.Events.FindByID(ctx, householdID, eventID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrEventNotFound, "find event")
	}

	event.Status = status
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Events.Update(ctx, event); err != nil {
			return fmt.Errorf("failed to update event status: %w", err)
		}
		return appendEventHistory(ctx, tx, eventID, models.EventActionStatusChanged, &userID)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadEvent(ctx, householdID, eventID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventCalendarEventUpdate, out)
	return out, nil
}

// DeleteEvent soft-deletes an event and removes its reminders.
func (s *EventService) DeleteEvent(ctx context.Context, householdID, eventID, userID uint64) error {
	member, err := s.guard.Verify(ctx, householdID, userID, AnyRole...)
	if err != nil {
		return err
	}
	event, err := s.store.Events.FindByID(ctx, householdID, eventID, false)
	if err != nil {
		return notFoundOr(err, ErrEventNotFound, "find event")
	}
	isCreator := event.CreatedByID != nil && *event.CreatedByID == userID
	if member.Role != models.RoleAdmin && !isCreator {
		return ErrNotEventOwner
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Events.DeleteReminders(ctx, eventID); err != nil {
			return fmt.Errorf("failed to delete reminders: %w", err)
		}
		if err := tx.Events.Delete(ctx, eventID); err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		if event.ChoreID != nil {
			if err := tx.Chores.Update(ctx, *event.ChoreID, map[string]interface{}{"event_id": nil}); err != nil {
				return fmt.Errorf("failed to unlink chore event: %w", err)
			}
		}
		return appendEventHistory(ctx, tx, eventID, models.EventActionDeleted, &userID)
	})
	if err != nil {
		return err
	}

	toHousehold(s.broadcaster, householdID, EventCalendarEventDeleted, dto.Deleted(eventID))
	return nil
}

// AddReminder adds a reminder to an event.
func (s *EventService) AddReminder(ctx context.Context, householdID, eventID uint64, input ReminderInput, userID uint64) (*dto.EventDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, ErrInvalidReminderType
	}
	if _, err := s.store.Events.FindByID(ctx, householdID, eventID, false); err != nil {
		return nil, notFoundOr(err, ErrEventNotFound, "find event")
	}

	reminder := &models.EventReminder{EventID: eventID, Type: input.Type, Time: input.Time}
	if err := s.store.Events.CreateReminder(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	out, err := s.loadEvent(ctx, householdID, eventID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventCalendarEventUpdate, out)
	return out, nil
}

// RemoveReminder deletes a reminder of an event.
func (s *EventService) RemoveReminder(ctx context.Context, householdID, eventID, reminderID, userID uint64) (*dto.EventDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if _, err := s.store.Events.FindByID(ctx, householdID, eventID, false); err != nil {
		return nil, notFoundOr(err, ErrEventNotFound, "find event")
	}
	if _, err := s.store.Events.FindReminder(ctx, eventID, reminderID); err != nil {
		return nil, notFoundOr(err, ErrReminderNotFound, "find reminder")
	}
	if err := s.store.Events.DeleteReminder(ctx, reminderID); err != nil {
		return nil, fmt.Errorf("failed to delete reminder: %w", err)
	}

	out, err := s.loadEvent(ctx, householdID, eventID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventCalendarEventUpdate, out)
	return out, nil
}

func (s *EventService) loadEvent(ctx context.Context, householdID, eventID uint64) (*dto.EventDTO, error) {
	event, err := s.store.Events.FindByID(ctx, householdID, eventID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrEventNotFound, "find event")
	}
	out := dto.ToEventDTO(*event)
	return &out, nil
}

func buildEvent(householdID uint64, input EventInput, userID uint64) (*models.Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidEventTitle
	}
	if !input.StartTime.Before(input.EndTime) {
		return nil, ErrInvalidTimeRange
	}
	category := input.Category
	if category == "" {
		category = models.EventCategoryOther
	}
	if !category.Valid() {
		return nil, ErrInvalidEventCategory
	}
	if input.Recurrence != nil && !input.Recurrence.Frequency.Valid() {
		return nil, ErrInvalidFrequency
	}

	event := &models.Event{
		HouseholdID: householdID,
		Title:       title,
		Description: input.Description,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		IsAllDay:    input.IsAllDay,
		Location:    input.Location,
		Category:    category,
		Status:      models.EventStatusScheduled,
		CreatedByID: &userID,
	}
	for _, r := range input.Reminders {
		if !r.Type.Valid() {
			return nil, ErrInvalidReminderType
		}
		event.Reminders = append(event.Reminders, models.EventReminder{Type: r.Type, Time: r.Time})
	}
	return event, nil
}

func createEventRule(ctx context.Context, tx *repository.Store, event *models.Event, input *RecurrenceInput) error {
	if input == nil {
		return nil
	}
	rule := &models.RecurrenceRule{
		Frequency: input.Frequency,
		Interval:  max(input.Interval, 1),
		Until:     input.Until,
	}
	if err := tx.Chores.CreateRecurrenceRule(ctx, rule); err != nil {
		return fmt.Errorf("failed to create recurrence rule: %w", err)
	}
	event.RecurrenceRuleID = &rule.ID
	return nil
}

func appendEventHistory(ctx context.Context, store *repository.Store, eventID uint64, action models.CalendarEventAction, actorID *uint64) error {
	entry := &models.CalendarEventHistory{EventID: eventID, Action: action, ChangedByID: actorID, ChangedAt: now()}
	if err := store.Events.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to record event history: %w", err)
	}
	return nil
}
