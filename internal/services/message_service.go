package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/yukikurage/household-api/internal/dto"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"github.com/yukikurage/household-api/internal/utils"
	"go.uber.org/zap"
)

var (
	ErrEmptyMessage         = apierrors.NewBadRequest("Message content cannot be empty.")
	ErrNotMessageAuthor     = apierrors.NewUnauthorized("Only the author can change this message.")
	ErrNotMessageModerator  = apierrors.NewUnauthorized("Only the author or an admin can remove this.")
	ErrNotReactionOwner     = apierrors.NewUnauthorized("You can only remove your own reactions.")
	ErrInvalidReactionType  = apierrors.NewBadRequest("Invalid reaction type.")
	ErrMentionNotMember     = apierrors.NewBadRequest("Mentioned users must be members of this household.")
	ErrInvalidAttachmentURL = apierrors.NewBadRequest("Attachment URL is required.")
)

// MessageService manages messages and their reactions, mentions, read
// receipts and attachments.
type MessageService struct {
	store       *repository.Store
	guard       *MembershipGuard
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewMessageService creates a new MessageService.
func NewMessageService(store *repository.Store, guard *MembershipGuard, broadcaster realtime.Broadcaster, logger *zap.Logger) *MessageService {
	return &MessageService{
		store:       store,
		guard:       guard,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// AttachmentInput describes a stored file attached to a message.
type AttachmentInput struct {
	URL      string
	FileType string
}

// CreateMessageInput represents parameters to post a message.
type CreateMessageInput struct {
	Content          string
	MentionedUserIDs []uint64
	Attachments      []AttachmentInput
}

// GetMessages lists the messages of a thread, newest first.
func (s *MessageService) GetMessages(ctx context.Context, householdID, threadID, userID uint64, pagination utils.PaginationParams) (*dto.ListResponse[dto.MessageDTO], error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if _, err := s.store.Threads.FindByID(ctx, householdID, threadID, false); err != nil {
		return nil, notFoundOr(err, ErrThreadNotFound, "find thread")
	}

	messages, total, err := s.store.Messages.List(ctx, threadID, pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	items, err := dto.ToMessageDTOs(messages)
	if err != nil {
		return nil, err
	}
	resp := dto.NewListResponse(items, pagination, total)
	return &resp, nil
}

// CreateMessage posts a message to a thread. Mentioned users and the other
// participants are notified.
func (s *MessageService) CreateMessage(ctx context.Context, householdID, threadID uint64, input CreateMessageInput, userID uint64) (*dto.MessageDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	thread, err := s.store.Threads.FindByID(ctx, householdID, threadID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrThreadNotFound, "find thread")
	}
	mentioned := uniqueIDs(input.MentionedUserIDs)
	if err := requireActiveMembers(ctx, s.store, householdID, mentioned, ErrMentionNotMember); err != nil {
		return nil, err
	}

	message := &models.Message{ThreadID: threadID, AuthorID: userID, Content: content}
	for _, a := range input.Attachments {
		url := strings.TrimSpace(a.URL)
		if url == "" {
			return nil, ErrInvalidAttachmentURL
		}
		message.Attachments = append(message.Attachments, models.Attachment{URL: url, FileType: a.FileType})
	}

	var notifications []models.Notification
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Messages.Create(ctx, message); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		for _, id := range mentioned {
			if err := tx.Messages.CreateMention(ctx, &models.Mention{MessageID: message.ID, UserID: id, MentionedAt: now()}); err != nil {
				return fmt.Errorf("failed to create mention: %w", err)
			}
		}
		if err := tx.Threads.AddParticipants(ctx, threadID, []uint64{userID}); err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}
		if err := tx.Threads.Touch(ctx, threadID); err != nil {
			return fmt.Errorf("failed to touch thread: %w", err)
		}

		for _, id := range mentioned {
			if id == userID {
				continue
			}
			notifications = append(notifications, messageNotification(householdID, id, message.ID, models.NotificationTypeMention,
				fmt.Sprintf("You were mentioned in %q", thread.Title)))
		}
		for _, p := range thread.Participants {
			if p.UserID == userID || slices.Contains(mentioned, p.UserID) {
				continue
			}
			notifications = append(notifications, messageNotification(householdID, p.UserID, message.ID, models.NotificationTypeNewMessage,
				fmt.Sprintf("New message in %q", thread.Title)))
		}
		for i := range notifications {
			if err := tx.Notifications.Create(ctx, &notifications[i]); err != nil {
				return fmt.Errorf("failed to create notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadMessage(ctx, threadID, message.ID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventMessageUpdate, out)
	for _, n := range notifications {
		toUser(s.broadcaster, n.UserID, EventNotificationUpdate, dto.ToNotificationDTO(n))
	}
	if len(mentioned) > 0 {
		toHousehold(s.broadcaster, householdID, EventMentionUpdate, out.Mentions)
	}
	s.logger.Debug("message created", zap.Uint64("message_id", message.ID), zap.Uint64("thread_id", threadID))
	return out, nil
}

// UpdateMessage rewrites the content of a message. Only its author may do so.
func (s *MessageService) UpdateMessage(ctx context.Context, householdID, threadID, messageID uint64, content string, userID uint64) (*dto.MessageDTO, error) {
	message, _, err := s.findMessage(ctx, householdID, threadID, messageID, userID)
	if err != nil {
		return nil, err
	}
	if message.AuthorID != userID {
		return nil, ErrNotMessageAuthor
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if err := s.store.Messages.Update(ctx, messageID, map[string]interface{}{"content": content}); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	out, err := s.loadMessage(ctx, threadID, messageID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventMessageUpdate, out)
	s.logger.Debug("message edited", zap.Uint64("message_id", messageID), zap.Uint64("user_id", userID))
	return out, nil
}

// DeleteMessage soft-deletes a message.
func (s *MessageService) DeleteMessage(ctx context.Context, householdID, threadID, messageID, userID uint64) error {
	message, member, err := s.findMessage(ctx, householdID, threadID, messageID, userID)
	if err != nil {
		return err
	}
	if message.AuthorID != userID && member.Role != models.RoleAdmin {
		return ErrNotMessageModerator
	}
	if err := s.store.Messages.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	toHousehold(s.broadcaster, householdID, EventMessageUpdate, dto.Deleted(messageID))
	s.logger.Debug("message deleted", zap.Uint64("message_id", messageID), zap.Uint64("user_id", userID))
	return nil
}

// MarkMessageAsRead records that the caller has read a message.
func (s *MessageService) MarkMessageAsRead(ctx context.Context, householdID, threadID, messageID, userID uint64) ([]dto.ReadReceiptDTO, error) {
	if _, _, err := s.findMessage(ctx, householdID, threadID, messageID, userID); err != nil {
		return nil, err
	}
	if err := s.store.Messages.MarkRead(ctx, messageID, userID, now()); err != nil {
		return nil, fmt.Errorf("failed to mark message read: %w", err)
	}

	out, err := s.loadMessage(ctx, threadID, messageID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventMessageUpdate, out)
	return out.Reads, nil
}

// GetMessageReadStatus lists who has read a message.
func (s *MessageService) GetMessageReadStatus(ctx context.Context, householdID, threadID, messageID, userID uint64) ([]dto.ReadReceiptDTO, error) {
	if _, _, err := s.findMessage(ctx, householdID, threadID, messageID, userID); err != nil {
		return nil, err
	}
	reads, err := s.store.Messages.ListReads(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reads: %w", err)
	}
	return dto.ToReadReceiptDTOs(reads), nil
}

// AddReaction reacts to a message. The same user cannot add the same reaction twice.
func (s *MessageService) AddReaction(ctx context.Context, householdID, threadID, messageID uint64, reactionType models.ReactionType, userID uint64) (*dto.ReactionDTO, error) {
	if !reactionType.Valid() {
		return nil, ErrInvalidReactionType
	}
	if _, _, err := s.findMessage(ctx, householdID, threadID, messageID, userID); err != nil {
		return nil, err
	}
	exists, err := s.store.Messages.HasReaction(ctx, messageID, userID, reactionType)
	if err != nil {
		return nil, fmt.Errorf("failed to check reaction: %w", err)
	}
	if exists {
		return nil, ErrDuplicateReaction
	}

	reaction := &models.Reaction{MessageID: messageID, UserID: userID, Type: reactionType}
	if err := s.store.Messages.CreateReaction(ctx, reaction); err != nil {
		return nil, fmt.Errorf("failed to create reaction: %w", err)
	}
	if user, err := s.store.Users.FindByID(ctx, userID, false); err == nil {
		reaction.User = user
	}

	out := dto.ToReactionDTO(*reaction)
	toHousehold(s.broadcaster, householdID, EventReactionUpdate, &out)
	return &out, nil
}

// RemoveReaction deletes one of the caller's reactions.
func (s *MessageService) RemoveReaction(ctx context.Context, householdID, threadID, messageID, reactionID, userID uint64) error {
	if _, _, err := s.findMessage(ctx, householdID, threadID, messageID, userID); err != nil {
		return err
	}
	reaction, err := s.store.Messages.FindReaction(ctx, messageID, reactionID)
	if err != nil {
		return notFoundOr(err, ErrReactionNotFound, "find reaction")
	}
	if reaction.UserID != userID {
		return ErrNotReactionOwner
	}
	if err := s.store.Messages.DeleteReaction(ctx, reactionID); err != nil {
		return fmt.Errorf("failed to delete reaction: %w", err)
	}

	toHousehold(s.broadcaster, householdID, EventReactionUpdate, dto.Deleted(reactionID))
	return nil
}

// GetReactions lists the reactions to a message.
func (s *MessageService) GetReactions(ctx context.Context, householdID, threadID, messageID, userID uint64) ([]dto.ReactionDTO, error) {
	if _, _, err := s.findMessage(ctx, householdID, threadID, messageID, userID); err != nil {
		return nil, err
	}
	reactions, err := s.store.Messages.ListReactions(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return dto.ToReactionDTOs(reactions), nil
}

// CreateMention mentions a member in an existing message and notifies them.
func (s *MessageService) CreateMention(ctx context.Context, householdID, threadID, messageID, mentionedUserID, userID uint64) (*dto.MentionDTO, error) {
	message, _, err := s.findMessage(ctx, householdID, threadID, messageID, userID)
	if err != nil {
		return nil, err
	}
	if err := requireActiveMembers(ctx, s.store, householdID, []uint64{mentionedUserID}, ErrMentionNotMember); err != nil {
		return nil, err
	}

	mention := &models.Mention{MessageID: messageID, UserID: mentionedUserID, MentionedAt: now()}
	notification := messageNotification(householdID, mentionedUserID, messageID, models.NotificationTypeMention,
		fmt.Sprintf("You were mentioned in %q", message.Thread.Title))
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Messages.CreateMention(ctx, mention); err != nil {
			return fmt.Errorf("failed to create mention: %w", err)
		}
		if err := tx.Notifications.Create(ctx, &notification); err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if user, err := s.store.Users.FindByID(ctx, mentionedUserID, false); err == nil {
		mention.User = user
	}

	out := dto.ToMentionDTO(*mention)
	toHousehold(s.broadcaster, householdID, EventMentionUpdate, &out)
	toUser(s.broadcaster, mentionedUserID, EventNotificationUpdate, dto.ToNotificationDTO(notification))
	return &out, nil
}

// GetUserMentions lists the caller's mentions in the household, newest first.
func (s *MessageService) GetUserMentions(ctx context.Context, householdID, userID uint64) ([]dto.MentionDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	mentions, err := s.store.Messages.ListMentionsForUser(ctx, householdID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentions: %w", err)
	}
	return dto.ToMentionDTOs(mentions), nil
}

// GetUnreadMentionsCount counts the caller's unread mentions in the household.
func (s *MessageService) GetUnreadMentionsCount(ctx context.Context, householdID, userID uint64) (int64, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return 0, err
	}
	count, err := s.store.Messages.CountUnreadMentions(ctx, householdID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count mentions: %w", err)
	}
	return count, nil
}

// DeleteMention removes a mention. Only the mentioned user or an admin may do so.
func (s *MessageService) DeleteMention(ctx context.Context, householdID, threadID, messageID, mentionID, userID uint64) error {
	_, member, err := s.findMessage(ctx, householdID, threadID, messageID, userID)
	if err != nil {
		return err
	}
	mention, err := s.store.Messages.FindMention(ctx, mentionID)
	if err != nil {
		return notFoundOr(err, ErrMentionNotFound, "find mention")
	}
	if mention.MessageID != messageID {
		return ErrMentionNotFound
	}
	if mention.UserID != userID && member.Role != models.RoleAdmin {
		return ErrAccessDenied
	}
	if err := s.store.Messages.DeleteMention(ctx, mentionID); err != nil {
		return fmt.Errorf("failed to delete mention: %w", err)
	}

	toHousehold(s.broadcaster, householdID, EventMentionUpdate, dto.Deleted(mentionID))
	return nil
}

// AddAttachment attaches a stored file to a message. Only its author may do so.
func (s *MessageService) AddAttachment(ctx context.Context, householdID, threadID, messageID uint64, input AttachmentInput, userID uint64) (*dto.AttachmentDTO, error) {
	message, _, err := s.findMessage(ctx, householdID, threadID, messageID, userID)
	if err != nil {
		return nil, err
	}
	if message.AuthorID != userID {
		return nil, ErrNotMessageAuthor
	}
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, ErrInvalidAttachmentURL
	}

	attachment := &models.Attachment{MessageID: messageID, URL: url, FileType: input.FileType}
	if err := s.store.Messages.CreateAttachment(ctx, attachment); err != nil {
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}

	out := dto.ToAttachmentDTO(*attachment)
	toHousehold(s.broadcaster, householdID, EventAttachmentUpdate, &out)
	return &out, nil
}

// DeleteAttachment removes an attachment. Only the message author or an admin may do so.
func (s *MessageService) DeleteAttachment(ctx context.Context, householdID, threadID, messageID, attachmentID, userID uint64) error {
	message, member, err := s.findMessage(ctx, householdID, threadID, messageID, userID)
	if err != nil {
		return err
	}
	if message.AuthorID != userID && member.Role != models.RoleAdmin {
		return ErrNotMessageModerator
	}
	if _, err := s.store.Messages.FindAttachment(ctx, messageID, attachmentID); err != nil {
		return notFoundOr(err, ErrAttachmentNotFound, "find attachment")
	}
	if err := s.store.Messages.DeleteAttachment(ctx, attachmentID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	toHousehold(s.broadcaster, householdID, EventAttachmentUpdate, dto.Deleted(attachmentID))
	return nil
}

// findMessage verifies the caller and loads a message of a thread of the household.
func (s *MessageService) findMessage(ctx context.Context, householdID, threadID, messageID, userID uint64) (*models.Message, *models.HouseholdMember, error) {
	member, err := s.guard.Verify(ctx, householdID, userID, AnyRole...)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.store.Threads.FindByID(ctx, householdID, threadID, false); err != nil {
		return nil, nil, notFoundOr(err, ErrThreadNotFound, "find thread")
	}
	message, err := s.store.Messages.FindByID(ctx, threadID, messageID, false)
	if err != nil {
		return nil, nil, notFoundOr(err, ErrMessageNotFound, "find message")
	}
	return message, member, nil
}

func (s *MessageService) loadMessage(ctx context.Context, threadID, messageID uint64) (*dto.MessageDTO, error) {
	message, err := s.store.Messages.FindByID(ctx, threadID, messageID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrMessageNotFound, "find message")
	}
	out, err := dto.ToMessageDTO(*message)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func messageNotification(householdID, userID, messageID uint64, kind models.NotificationType, text string) models.Notification {
	return models.Notification{
		UserID:      userID,
		HouseholdID: &householdID,
		Type:        kind,
		Message:     text,
		MessageID:   &messageID,
	}
}
