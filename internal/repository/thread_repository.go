package repository

import (
	"context"
	"time"

	"github.com/yukikurage/household-api/internal/database"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormThreadRepository is a GORM implementation of ThreadRepository
type GormThreadRepository struct {
	db *gorm.DB
}

// NewThreadRepository creates a new ThreadRepository
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &GormThreadRepository{db: db}
}

func (r *GormThreadRepository) Create(ctx context.Context, thread *models.Thread) error {
	return r.db.WithContext(ctx).Omit("Author", "Participants.User").Create(thread).Error
}

func (r *GormThreadRepository) FindByID(ctx context.Context, householdID, threadID uint64, includeDeleted bool) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.WithContext(ctx).
		Scopes(database.WithDeleted(includeDeleted)).
		Preload("Author").
		Preload("Participants.User").
		Where("household_id = ?", householdID).
		First(&thread, threadID).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *GormThreadRepository) List(ctx context.Context, householdID uint64, pagination utils.PaginationParams) ([]models.Thread, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Thread{}).Where("household_id = ?", householdID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var threads []models.Thread
	err := query.
		Preload("Author").
		Preload("Participants.User").
		Scopes(database.Paginate(pagination)).
		Order("updated_at DESC").
		Find(&threads).Error
	if err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

func (r *GormThreadRepository) Update(ctx context.Context, threadID uint64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", threadID).Updates(fields).Error
}

func (r *GormThreadRepository) Delete(ctx context.Context, threadID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Thread{}, threadID).Error
}

func (r *GormThreadRepository) AddParticipants(ctx context.Context, threadID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now()
	participants := make([]models.ThreadParticipant, len(userIDs))
	for i, userID := range userIDs {
		participants[i] = models.ThreadParticipant{ThreadID: threadID, UserID: userID, JoinedAt: now}
	}
	return r.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&participants).Error
}

func (r *GormThreadRepository) Touch(ctx context.Context, threadID uint64) error {
	return r.db.WithContext(ctx).Model(&models.Thread{}).
		Where("id = ?", threadID).
		Update("updated_at", time.Now()).Error
}

// GormMessageRepository is a GORM implementation of MessageRepository
type GormMessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &GormMessageRepository{db: db}
}

func preloadMessage(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Thread").
		Preload("Attachments").
		Preload("Reactions.User").
		Preload("Mentions.User").
		Preload("Reads").
		Preload("Poll.Options", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Poll.Options.Votes.User")
}

func (r *GormMessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).
		Omit("Thread", "Author", "Reactions", "Mentions", "Reads", "Poll").
		Create(message).Error
}

func (r *GormMessageRepository) FindByID(ctx context.Context, threadID, messageID uint64, includeDeleted bool) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Scopes(database.WithDeleted(includeDeleted), preloadMessage).
		Where("thread_id = ?", threadID).
		First(&message, messageID).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *GormMessageRepository) List(ctx context.Context, threadID uint64, pagination utils.PaginationParams) ([]models.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Message{}).Where("thread_id = ?", threadID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []models.Message
	err := query.
		Scopes(preloadMessage, database.Paginate(pagination)).
		Order("created_at DESC, id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *GormMessageRepository) Update(ctx context.Context, messageID uint64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", messageID).Updates(fields).Error
}

func (r *GormMessageRepository) Delete(ctx context.Context, messageID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Message{}, messageID).Error
}

func (r *GormMessageRepository) CreateReaction(ctx context.Context, reaction *models.Reaction) error {
	return r.db.WithContext(ctx).Omit("User").Create(reaction).Error
}

func (r *GormMessageRepository) FindReaction(ctx context.Context, messageID, reactionID uint64) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&reaction, reactionID).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *GormMessageRepository) HasReaction(ctx context.Context, messageID, userID uint64, reactionType models.ReactionType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("message_id = ? AND user_id = ? AND type = ?", messageID, userID, reactionType).
		Count(&count).Error
	return count > 0, err
}

func (r *GormMessageRepository) ListReactions(ctx context.Context, messageID uint64) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&reactions).Error
	return reactions, err
}

func (r *GormMessageRepository) DeleteReaction(ctx context.Context, reactionID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Reaction{}, reactionID).Error
}

func (r *GormMessageRepository) CreateMention(ctx context.Context, mention *models.Mention) error {
	if mention.MentionedAt.IsZero() {
		mention.MentionedAt = time.Now()
	}
	return r.db.WithContext(ctx).Omit("User").Create(mention).Error
}

func (r *GormMessageRepository) FindMention(ctx context.Context, mentionID uint64) (*models.Mention, error) {
	var mention models.Mention
	if err := r.db.WithContext(ctx).First(&mention, mentionID).Error; err != nil {
		return nil, err
	}
	return &mention, nil
}

func (r *GormMessageRepository) DeleteMention(ctx context.Context, mentionID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Mention{}, mentionID).Error
}

func mentionsInHousehold(db *gorm.DB, householdID, userID uint64) *gorm.DB {
	return db.
		Joins("JOIN messages ON messages.id = mentions.message_id AND messages.deleted_at IS NULL").
		Joins("JOIN threads ON threads.id = messages.thread_id AND threads.deleted_at IS NULL").
		Where("threads.household_id = ? AND mentions.user_id = ?", householdID, userID)
}

func (r *GormMessageRepository) ListMentionsForUser(ctx context.Context, householdID, userID uint64) ([]models.Mention, error) {
	var mentions []models.Mention
	err := mentionsInHousehold(r.db.WithContext(ctx).Model(&models.Mention{}), householdID, userID).
		Order("mentions.mentioned_at DESC").
		Find(&mentions).Error
	return mentions, err
}

func (r *GormMessageRepository) CountUnreadMentions(ctx context.Context, householdID, userID uint64) (int64, error) {
	var count int64
	err := mentionsInHousehold(r.db.WithContext(ctx).Model(&models.Mention{}), householdID, userID).
		Where("mentions.read_at IS NULL").
		Count(&count).Error
	return count, err
}

func (r *GormMessageRepository) MarkRead(ctx context.Context, messageID, userID uint64, at time.Time) error {
	read := models.MessageRead{MessageID: messageID, UserID: userID, ReadAt: at}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"read_at"}),
	}).Create(&read).Error
	if err != nil {
		return err
	}

	// Reading a message also clears any mention of the reader in it.
	return r.db.WithContext(ctx).Model(&models.Mention{}).
		Where("message_id = ? AND user_id = ? AND read_at IS NULL", messageID, userID).
		Update("read_at", at).Error
}

func (r *GormMessageRepository) ListReads(ctx context.Context, messageID uint64) ([]models.MessageRead, error) {
	var reads []models.MessageRead
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).Order("read_at ASC").Find(&reads).Error
	return reads, err
}

func (r *GormMessageRepository) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *GormMessageRepository) FindAttachment(ctx context.Context, messageID, attachmentID uint64) (*models.Attachment, error) {
	var attachment models.Attachment
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&attachment, attachmentID).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *GormMessageRepository) DeleteAttachment(ctx context.Context, attachmentID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Attachment{}, attachmentID).Error
}
