package services

import (
	"context"
	"fmt"
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
	ErrInvalidThreadTitle   = apierrors.NewBadRequest("Thread title cannot be empty.")
	ErrParticipantNotMember = apierrors.NewBadRequest("Participants must be members of this household.")
	ErrNotThreadAuthor      = apierrors.NewUnauthorized("Only the author or an admin can change this thread.")
)

// ThreadService manages discussion threads.
type ThreadService struct {
	store       *repository.Store
	guard       *MembershipGuard
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewThreadService creates a new ThreadService.
func NewThreadService(store *repository.Store, guard *MembershipGuard, broadcaster realtime.Broadcaster, logger *zap.Logger) *ThreadService {
	return &ThreadService{
		store:       store,
		guard:       guard,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// CreateThreadInput represents parameters to start a thread. The author is
// always a participant.
type CreateThreadInput struct {
	Title          string
	InitialMessage string
	ParticipantIDs []uint64
}

// GetThreads lists the threads of a household, most recently active first.
func (s *ThreadService) GetThreads(ctx context.Context, householdID, userID uint64, pagination utils.PaginationParams) (*dto.ListResponse[dto.ThreadDTO], error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	threads, total, err := s.store.Threads.List(ctx, householdID, pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	resp := dto.NewListResponse(dto.ToThreadDTOs(threads), pagination, total)
	return &resp, nil
}

// GetThreadByID returns a thread of the household.
func (s *ThreadService) GetThreadByID(ctx context.Context, householdID, threadID, userID uint64) (*dto.ThreadDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	return s.loadThread(ctx, householdID, threadID)
}

// CreateThread starts a thread, optionally with a first message.
func (s *ThreadService) CreateThread(ctx context.Context, householdID uint64, input CreateThreadInput, userID uint64) (*dto.ThreadDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidThreadTitle
	}
	participants := uniqueIDs(append([]uint64{userID}, input.ParticipantIDs...))
	if err := requireActiveMembers(ctx, s.store, householdID, participants, ErrParticipantNotMember); err != nil {
		return nil, err
	}

	joinedAt := now()
	thread := &models.Thread{HouseholdID: householdID, AuthorID: userID, Title: title}
	for _, id := range participants {
		thread.Participants = append(thread.Participants, models.ThreadParticipant{UserID: id, JoinedAt: joinedAt})
	}

	var message *models.Message
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Threads.Create(ctx, thread); err != nil {
			return fmt.Errorf("failed to create thread: %w", err)
		}
		content := strings.TrimSpace(input.InitialMessage)
		if content == "" {
			return nil
		}
		message = &models.Message{ThreadID: thread.ID, AuthorID: userID, Content: content}
		if err := tx.Messages.Create(ctx, message); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadThread(ctx, householdID, thread.ID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventThreadUpdate, out)
	if message != nil {
		s.publishMessage(ctx, householdID, thread.ID, message.ID)
	}
	return out, nil
}

// UpdateThread renames a thread.
func (s *ThreadService) UpdateThread(ctx context.Context, householdID, threadID uint64, title string, userID uint64) (*dto.ThreadDTO, error) {
	member, err := s.guard.Verify(ctx, householdID, userID, AnyRole...)
	if err != nil {
		return nil, err
	}
	thread, err := s.store.Threads.FindByID(ctx, householdID, threadID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrThreadNotFound, "find thread")
	}
	if thread.AuthorID != userID && member.Role != models.RoleAdmin {
		return nil, ErrNotThreadAuthor
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidThreadTitle
	}
	if err := s.store.Threads.Update(ctx, threadID, map[string]interface{}{"title": title}); err != nil {
		return nil, fmt.Errorf("failed to update thread: %w", err)
	}

	out, err := s.loadThread(ctx, householdID, threadID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventThreadUpdate, out)
	return out, nil
}

// DeleteThread soft-deletes a thread.
func (s *ThreadService) DeleteThread(ctx context.Context, householdID, threadID, userID uint64) error {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return err
	}
	if _, err := s.store.Threads.FindByID(ctx, householdID, threadID, false); err != nil {
		return notFoundOr(err, ErrThreadNotFound, "find thread")
	}
	if err := s.store.Threads.Delete(ctx, threadID); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	toHousehold(s.broadcaster, householdID, EventThreadUpdate, dto.Deleted(threadID))
	return nil
}

// InviteUsersToThread adds members to a thread's participants.
func (s *ThreadService) InviteUsersToThread(ctx context.Context, householdID, threadID uint64, userIDs []uint64, userID uint64) (*dto.ThreadDTO, error) {
	member, err := s.guard.Verify(ctx, householdID, userID, AnyRole...)
	if err != nil {
		return nil, err
	}
	thread, err := s.store.Threads.FindByID(ctx, householdID, threadID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrThreadNotFound, "find thread")
	}
	if thread.AuthorID != userID && member.Role != models.RoleAdmin {
		return nil, ErrNotThreadAuthor
	}
	invited := uniqueIDs(userIDs)
	if err := requireActiveMembers(ctx, s.store, householdID, invited, ErrParticipantNotMember); err != nil {
		return nil, err
	}
	if err := s.store.Threads.AddParticipants(ctx, threadID, invited); err != nil {
		return nil, fmt.Errorf("failed to add participants: %w", err)
	}

	out, err := s.loadThread(ctx, householdID, threadID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventThreadUpdate, out)
	return out, nil
}

func (s *ThreadService) loadThread(ctx context.Context, householdID, threadID uint64) (*dto.ThreadDTO, error) {
	thread, err := s.store.Threads.FindByID(ctx, householdID, threadID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrThreadNotFound, "find thread")
	}
	out := dto.ToThreadDTO(*thread)
	return &out, nil
}

func (s *ThreadService) publishMessage(ctx context.Context, householdID, threadID, messageID uint64) {
	message, err := s.store.Messages.FindByID(ctx, threadID, messageID, false)
	if err != nil {
		s.logger.Warn("failed to load message for broadcast", zap.Uint64("message_id", messageID), zap.Error(err))
		return
	}
	out, err := dto.ToMessageDTO(*message)
	if err != nil {
		s.logger.Error("failed to transform message", zap.Uint64("message_id", messageID), zap.Error(err))
		return
	}
	toHousehold(s.broadcaster, householdID, EventMessageUpdate, out)
}
