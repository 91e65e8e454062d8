package repository

import (
	"context"

	"github.com/yukikurage/household-api/internal/database"
	"github.com/yukikurage/household-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint64, includeDeleted bool) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Scopes(database.WithDeleted(includeDeleted)).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *GormUserRepository) SetActiveHousehold(ctx context.Context, userID uint64, householdID *uint64) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("active_household_id", householdID).Error
}

func (r *GormUserRepository) ClearActiveHousehold(ctx context.Context, householdID uint64, userIDs ...uint64) error {
	query := r.db.WithContext(ctx).Model(&models.User{}).Where("active_household_id = ?", householdID)
	if len(userIDs) > 0 {
		query = query.Where("id IN ?", userIDs)
	}
	return query.Update("active_household_id", nil).Error
}
