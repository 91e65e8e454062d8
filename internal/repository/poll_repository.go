package repository

import (
	"context"

	"github.com/yukikurage/household-api/internal/models"
	"gorm.io/gorm"
)

// GormPollRepository is a GORM implementation of PollRepository
type GormPollRepository struct {
	db *gorm.DB
}

// NewPollRepository creates a new PollRepository
func NewPollRepository(db *gorm.DB) PollRepository {
	return &GormPollRepository{db: db}
}

func (r *GormPollRepository) Create(ctx context.Context, poll *models.Poll) error {
	return r.db.WithContext(ctx).Omit("Message", "Options.Votes").Create(poll).Error
}

func (r *GormPollRepository) FindByID(ctx context.Context, householdID, pollID uint64) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.WithContext(ctx).
		Joins("JOIN messages ON messages.id = polls.message_id AND messages.deleted_at IS NULL").
		Joins("JOIN threads ON threads.id = messages.thread_id AND threads.deleted_at IS NULL").
		Where("threads.household_id = ?", householdID).
		Preload("Message").
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Options.Votes.User").
		First(&poll, "polls.id = ?", pollID).Error
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

func (r *GormPollRepository) Update(ctx context.Context, pollID uint64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Poll{}).Where("id = ?", pollID).Updates(fields).Error
}

func (r *GormPollRepository) Delete(ctx context.Context, pollID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_id = ?", pollID).Delete(&models.PollVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id = ?", pollID).Delete(&models.PollOption{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Poll{}, pollID).Error
	})
}

func (r *GormPollRepository) ReplaceOptions(ctx context.Context, pollID uint64, options []models.PollOption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_id = ?", pollID).Delete(&models.PollVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id = ?", pollID).Delete(&models.PollOption{}).Error; err != nil {
			return err
		}
		if len(options) == 0 {
			return nil
		}
		for i := range options {
			options[i].ID = 0
			options[i].PollID = pollID
		}
		return tx.Omit("Votes").Create(&options).Error
	})
}

func (r *GormPollRepository) FindOption(ctx context.Context, pollID, optionID uint64) (*models.PollOption, error) {
	var option models.PollOption
	err := r.db.WithContext(ctx).Where("poll_id = ?", pollID).First(&option, optionID).Error
	if err != nil {
		return nil, err
	}
	return &option, nil
}

func (r *GormPollRepository) CreateVote(ctx context.Context, vote *models.PollVote) error {
	return r.db.WithContext(ctx).Omit("User").Create(vote).Error
}

func (r *GormPollRepository) FindVote(ctx context.Context, pollID, voteID uint64) (*models.PollVote, error) {
	var vote models.PollVote
	err := r.db.WithContext(ctx).Where("poll_id = ?", pollID).First(&vote, voteID).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *GormPollRepository) DeleteVote(ctx context.Context, voteID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.PollVote{}, voteID).Error
}

func (r *GormPollRepository) DeleteUserVotes(ctx context.Context, pollID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("poll_id = ? AND user_id = ?", pollID, userID).
		Delete(&models.PollVote{}).Error
}
