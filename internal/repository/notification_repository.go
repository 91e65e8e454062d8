package repository

import (
	"context"

	"github.com/yukikurage/household-api/internal/database"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Omit("User").Create(notification).Error
}

func (r *GormNotificationRepository) FindByID(ctx context.Context, userID, notificationID uint64) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&notification, notificationID).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *GormNotificationRepository) List(ctx context.Context, userID uint64, onlyUnread bool, pagination utils.PaginationParams) ([]models.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if onlyUnread {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := query.
		Scopes(database.Paginate(pagination)).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *GormNotificationRepository) MarkRead(ctx context.Context, notificationID uint64) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Update("is_read", true).Error
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func (r *GormNotificationRepository) Delete(ctx context.Context, notificationID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Notification{}, notificationID).Error
}

func (r *GormNotificationRepository) ListUnread(ctx context.Context, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("is_read = ?", false).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *GormNotificationRepository) FindSettings(ctx context.Context, userID, householdID uint64) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND household_id = ?", userID, householdID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *GormNotificationRepository) SaveSettings(ctx context.Context, settings *models.NotificationSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}

func (r *GormNotificationRepository) SaveSubscription(ctx context.Context, subscription *models.PushSubscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(subscription).Error
}

func (r *GormNotificationRepository) ListSubscriptions(ctx context.Context, userID uint64) ([]models.PushSubscription, error) {
	var subscriptions []models.PushSubscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&subscriptions).Error
	return subscriptions, err
}

func (r *GormNotificationRepository) DeleteSubscription(ctx context.Context, userID uint64, endpoint string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushSubscription{}).Error
}

func (r *GormNotificationRepository) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	return r.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&models.PushSubscription{}).Error
}
