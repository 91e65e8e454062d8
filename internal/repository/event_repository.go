package repository

import (
	"context"
	"time"

	"github.com/yukikurage/household-api/internal/database"
	"github.com/yukikurage/household-api/internal/models"
	"gorm.io/gorm"
)

// GormEventRepository is a GORM implementation of EventRepository
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("CreatedBy").Create(event).Error
}

func (r *GormEventRepository) FindByID(ctx context.Context, householdID, eventID uint64, includeDeleted bool) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Scopes(database.WithDeleted(includeDeleted)).
		Preload("CreatedBy").
		Preload("Reminders", func(db *gorm.DB) *gorm.DB { return db.Order("time ASC") }).
		Where("household_id = ?", householdID).
		First(&event, eventID).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns events overlapping [From, To) ordered by start time
func (r *GormEventRepository) List(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{})
	if filter.IncludeDeleted {
		query = query.Unscoped()
	}
	query = query.Where("household_id = ?", filter.HouseholdID)
	if filter.From != nil {
		query = query.Where("end_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("start_time < ?", *filter.To)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}

	var events []models.Event
	err := query.
		Preload("CreatedBy").
		Preload("Reminders").
		Order("start_time ASC").
		Find(&events).Error
	return events, err
}

func (r *GormEventRepository) Update(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("CreatedBy", "Reminders").Save(event).Error
}

func (r *GormEventRepository) Delete(ctx context.Context, eventID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Event{}, eventID).Error
}

func (r *GormEventRepository) HardDelete(ctx context.Context, eventID uint64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.Event{}, eventID).Error
}

func (r *GormEventRepository) CreateReminder(ctx context.Context, reminder *models.EventReminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *GormEventRepository) FindReminder(ctx context.Context, eventID, reminderID uint64) (*models.EventReminder, error) {
	var reminder models.EventReminder
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&reminder, reminderID).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *GormEventRepository) DeleteReminder(ctx context.Context, reminderID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.EventReminder{}, reminderID).Error
}

func (r *GormEventRepository) DeleteReminders(ctx context.Context, eventID uint64) error {
	return r.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&models.EventReminder{}).Error
}

func (r *GormEventRepository) AppendHistory(ctx context.Context, entry *models.CalendarEventHistory) error {
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}
