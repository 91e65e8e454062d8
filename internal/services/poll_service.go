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
	ErrInvalidPollQuestion = apierrors.NewBadRequest("Poll question cannot be empty.")
	ErrInvalidPollOptions  = apierrors.NewBadRequest("A poll needs at least two options with text.")
	ErrInvalidPollType     = apierrors.NewBadRequest("Invalid poll type.")
	ErrInvalidPollStatus   = apierrors.NewBadRequest("Invalid poll status.")
	ErrInvalidMaxChoices   = apierrors.NewBadRequest("Max choices must be at least 1.")
	ErrNotPollCreator      = apierrors.NewUnauthorized("Only the poll creator can change this poll.")
	ErrNotVoteOwner        = apierrors.NewUnauthorized("You can only remove your own votes.")
)

// PollService manages polls attached to messages.
type PollService struct {
	store       *repository.Store
	guard       *MembershipGuard
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewPollService creates a new PollService.
func NewPollService(store *repository.Store, guard *MembershipGuard, broadcaster realtime.Broadcaster, logger *zap.Logger) *PollService {
	return &PollService{
		store:       store,
		guard:       guard,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// PollOptionInput describes one choice. Date polls carry a time range.
type PollOptionInput struct {
	Text      string
	StartTime *time.Time
	EndTime   *time.Time
}

// CreatePollInput represents parameters to attach a poll to a message.
type CreatePollInput struct {
	Question   string
	PollType   models.PollType
	MaxChoices *int
	EndDate    *time.Time
	Options    []PollOptionInput
}

// UpdatePollInput holds the poll fields to change. Replacing the options
// discards every vote.
type UpdatePollInput struct {
	Question   *string
	Status     *models.PollStatus
	MaxChoices *int
	EndDate    *time.Time
	Options    *[]PollOptionInput
}

// VoteInput represents a vote for one option. Rank is used by ranked polls.
type VoteInput struct {
	OptionID uint64
	Rank     *int
}

// CreatePoll attaches a poll to a message. Only the message author may do so.
func (s *PollService) CreatePoll(ctx context.Context, householdID, threadID, messageID uint64, input CreatePollInput, userID uint64) (*dto.PollDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if _, err := s.store.Threads.FindByID(ctx, householdID, threadID, false); err != nil {
		return nil, notFoundOr(err, ErrThreadNotFound, "find thread")
	}
	message, err := s.store.Messages.FindByID(ctx, threadID, messageID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrMessageNotFound, "find message")
	}
	if message.AuthorID != userID {
		return nil, ErrNotMessageAuthor
	}
	if message.Poll != nil {
		return nil, ErrPollExists
	}

	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidPollQuestion
	}
	pollType := input.PollType
	if pollType == "" {
		pollType = models.PollTypeSingleChoice
	}
	if !pollType.Valid() {
		return nil, ErrInvalidPollType
	}
	if input.MaxChoices != nil && *input.MaxChoices < 1 {
		return nil, ErrInvalidMaxChoices
	}
	options, err := buildPollOptions(input.Options)
	if err != nil {
		return nil, err
	}

	poll := &models.Poll{
		MessageID:  messageID,
		Question:   question,
		PollType:   pollType,
		MaxChoices: input.MaxChoices,
		EndDate:    input.EndDate,
		Status:     models.PollStatusOpen,
		Options:    options,
	}
	if err := s.store.Polls.Create(ctx, poll); err != nil {
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}

	out, err := s.loadPoll(ctx, householdID, poll.ID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventPollUpdate, out)
	s.logger.Debug("poll created", zap.Uint64("poll_id", poll.ID), zap.Uint64("message_id", messageID))
	return out, nil
}

// GetPoll returns a poll with its options and votes.
func (s *PollService) GetPoll(ctx context.Context, householdID, pollID, userID uint64) (*dto.PollDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	return s.loadPoll(ctx, householdID, pollID)
}

// UpdatePoll changes a poll. Only its creator may do so.
func (s *PollService) UpdatePoll(ctx context.Context, householdID, pollID uint64, input UpdatePollInput, userID uint64) (*dto.PollDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	poll, err := s.store.Polls.FindByID(ctx, householdID, pollID)
	if err != nil {
		return nil, notFoundOr(err, ErrPollNotFound, "find poll")
	}
	if poll.Message == nil || poll.Message.AuthorID != userID {
		return nil, ErrNotPollCreator
	}

	fields := map[string]interface{}{}
	if input.Question != nil {
		question := strings.TrimSpace(*input.Question)
		if question == "" {
			return nil, ErrInvalidPollQuestion
		}
		fields["question"] = question
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidPollStatus
		}
		fields["status"] = *input.Status
	}
	if input.MaxChoices != nil {
		if *input.MaxChoices < 1 {
			return nil, ErrInvalidMaxChoices
		}
		fields["max_choices"] = *input.MaxChoices
	}
	if input.EndDate != nil {
		fields["end_date"] = *input.EndDate
	}
	var options []models.PollOption
	if input.Options != nil {
		if options, err = buildPollOptions(*input.Options); err != nil {
			return nil, err
		}
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if len(fields) > 0 {
			if err := tx.Polls.Update(ctx, pollID, fields); err != nil {
				return fmt.Errorf("failed to update poll: %w", err)
			}
		}
		if input.Options != nil {
			if err := tx.Polls.ReplaceOptions(ctx, pollID, options); err != nil {
				return fmt.Errorf("failed to replace poll options: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadPoll(ctx, householdID, pollID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventPollUpdate, out)
	return out, nil
}

// DeletePoll removes a poll with its options and votes.
func (s *PollService) DeletePoll(ctx context.Context, householdID, pollID, userID uint64) error {
	member, err := s.guard.Verify(ctx, householdID, userID, AnyRole...)
	if err != nil {
		return err
	}
	poll, err := s.store.Polls.FindByID(ctx, householdID, pollID)
	if err != nil {
		return notFoundOr(err, ErrPollNotFound, "find poll")
	}
	isCreator := poll.Message != nil && poll.Message.AuthorID == userID
	if !isCreator && member.Role != models.RoleAdmin {
		return ErrNotPollCreator
	}
	if err := s.store.Polls.Delete(ctx, pollID); err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}

	toHousehold(s.broadcaster, householdID, EventPollUpdate, dto.Deleted(pollID))
	return nil
}

// VotePoll records a vote. Polls that are not multiple choice keep only the
// caller's latest vote.
func (s *PollService) VotePoll(ctx context.Context, householdID, pollID uint64, input VoteInput, userID uint64) (*dto.PollDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	poll, err := s.store.Polls.FindByID(ctx, householdID, pollID)
	if err != nil {
		return nil, notFoundOr(err, ErrPollNotFound, "find poll")
	}
	if poll.Status != models.PollStatusOpen || (poll.EndDate != nil && !poll.EndDate.After(now())) {
		return nil, ErrPollNotActive
	}
	if _, err := s.store.Polls.FindOption(ctx, pollID, input.OptionID); err != nil {
		return nil, notFoundOr(err, ErrPollOptionNotFound, "find poll option")
	}

	vote := &models.PollVote{PollID: pollID, OptionID: input.OptionID, UserID: userID, Rank: input.Rank}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if poll.PollType != models.PollTypeMultipleChoice {
			if err := tx.Polls.DeleteUserVotes(ctx, pollID, userID); err != nil {
				return fmt.Errorf("failed to clear votes: %w", err)
			}
		}
		if err := tx.Polls.CreateVote(ctx, vote); err != nil {
			return fmt.Errorf("failed to create vote: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadPoll(ctx, householdID, pollID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventPollVoteUpdate, out)
	return out, nil
}

// RemovePollVote withdraws one of the caller's votes.
func (s *PollService) RemovePollVote(ctx context.Context, householdID, pollID, voteID, userID uint64) (*dto.PollDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if _, err := s.store.Polls.FindByID(ctx, householdID, pollID); err != nil {
		return nil, notFoundOr(err, ErrPollNotFound, "find poll")
	}
	vote, err := s.store.Polls.FindVote(ctx, pollID, voteID)
	if err != nil {
		return nil, notFoundOr(err, ErrVoteNotFound, "find vote")
	}
	if vote.UserID != userID {
		return nil, ErrNotVoteOwner
	}
	if err := s.store.Polls.DeleteVote(ctx, voteID); err != nil {
		return nil, fmt.Errorf("failed to delete vote: %w", err)
	}

	out, err := s.loadPoll(ctx, householdID, pollID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventPollVoteUpdate, out)
	return out, nil
}

func (s *PollService) loadPoll(ctx context.Context, householdID, pollID uint64) (*dto.PollDTO, error) {
	poll, err := s.store.Polls.FindByID(ctx, householdID, pollID)
	if err != nil {
		return nil, notFoundOr(err, ErrPollNotFound, "find poll")
	}
	out := dto.ToPollDTO(*poll)
	return &out, nil
}

func buildPollOptions(inputs []PollOptionInput) ([]models.PollOption, error) {
	options := make([]models.PollOption, 0, len(inputs))
	for i, in := range inputs {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return nil, ErrInvalidPollOptions
		}
		if in.StartTime != nil && in.EndTime != nil && !in.StartTime.Before(*in.EndTime) {
			return nil, ErrInvalidTimeRange
		}
		options = append(options, models.PollOption{Text: text, Order: i, StartTime: in.StartTime, EndTime: in.EndTime})
	}
	if len(options) < 2 {
		return nil, ErrInvalidPollOptions
	}
	return options, nil
}
