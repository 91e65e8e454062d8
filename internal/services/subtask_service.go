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
	"go.uber.org/zap"
)

var (
	ErrInvalidSubtaskTitle  = apierrors.NewBadRequest("Subtask title cannot be empty.")
	ErrInvalidSubtaskStatus = apierrors.NewBadRequest("Invalid subtask status.")
)

// SubtaskService manages the subtasks of a chore.
type SubtaskService struct {
	store       *repository.Store
	guard       *MembershipGuard
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewSubtaskService creates a new SubtaskService.
func NewSubtaskService(store *repository.Store, guard *MembershipGuard, broadcaster realtime.Broadcaster, logger *zap.Logger) *SubtaskService {
	return &SubtaskService{
		store:       store,
		guard:       guard,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// UpdateSubtaskInput represents parameters to update a subtask.
type UpdateSubtaskInput struct {
	Title       *string
	Description *string
	Status      *models.SubtaskStatus
}

// GetSubtasks lists the subtasks of a chore.
func (s *SubtaskService) GetSubtasks(ctx context.Context, householdID, choreID, userID uint64) ([]dto.SubtaskDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if _, err := s.store.Chores.FindByID(ctx, householdID, choreID, false); err != nil {
		return nil, notFoundOr(err, ErrChoreNotFound, "find chore")
	}

	subtasks, err := s.store.Subtasks.ListByChore(ctx, choreID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	return dto.ToSubtaskDTOs(subtasks), nil
}

// AddSubtask adds a pending subtask to a chore.
func (s *SubtaskService) AddSubtask(ctx context.Context, householdID, choreID uint64, input SubtaskInput, userID uint64) (*dto.SubtaskDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidSubtaskTitle
	}
	if _, err := s.store.Chores.FindByID(ctx, householdID, choreID, false); err != nil {
		return nil, notFoundOr(err, ErrChoreNotFound, "find chore")
	}

	subtask := &models.Subtask{
		ChoreID:     choreID,
		Title:       title,
		Description: input.Description,
		Status:      models.SubtaskStatusPending,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Subtasks.Create(ctx, subtask); err != nil {
			return fmt.Errorf("failed to create subtask: %w", err)
		}
		return appendChoreHistory(ctx, tx, choreID, models.ChoreActionUpdated, &userID)
	})
	if err != nil {
		return nil, err
	}

	out := dto.ToSubtaskDTO(*subtask)
	toHousehold(s.broadcaster, householdID, EventSubtaskCreated, &out)
	return &out, nil
}

// UpdateSubtask changes a subtask. Completing the last pending subtask
// completes the chore in the same transaction.
//
// Two members completing the last two subtasks at the same moment can each
// read the other's subtask as pending; neither then completes the chore.
func (s *SubtaskService) UpdateSubtask(ctx context.Context, householdID, choreID, subtaskID uint64, input UpdateSubtaskInput, userID uint64) (*dto.SubtaskDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidSubtaskStatus
	}
	if _, err := s.store.Chores.FindByID(ctx, householdID, choreID, false); err != nil {
		return nil, notFoundOr(err, ErrChoreNotFound, "find chore")
	}

	var (
		subtask       *models.Subtask
		choreComplete bool
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		subtask, err = tx.Subtasks.FindByID(ctx, choreID, subtaskID)
		if err != nil {
			return notFoundOr(err, ErrSubtaskNotFound, "find subtask")
		}
		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return ErrInvalidSubtaskTitle
			}
			subtask.Title = title
		}
		if input.Description != nil {
			subtask.Description = *input.Description
		}
		if input.Status != nil {
			subtask.Status = *input.Status
		}
		if err := tx.Subtasks.Update(ctx, subtask); err != nil {
			return fmt.Errorf("failed to update subtask: %w", err)
		}

		if subtask.Status == models.SubtaskStatusCompleted {
			choreComplete, err = completeChoreIfDone(ctx, tx, householdID, choreID, userID)
			if err != nil {
				return err
			}
		}
		return appendChoreHistory(ctx, tx, choreID, models.ChoreActionUpdated, &userID)
	})
	if err != nil {
		return nil, err
	}

	out := dto.ToSubtaskDTO(*subtask)
	toHousehold(s.broadcaster, householdID, EventSubtaskUpdated, &out)
	if choreComplete {
		chore, err := s.store.Chores.FindByID(ctx, householdID, choreID, false)
		if err != nil {
			s.logger.Warn("failed to load completed chore", zap.Uint64("chore_id", choreID), zap.Error(err))
		} else {
			toHousehold(s.broadcaster, householdID, EventChoreUpdate, dto.ToChoreDTO(*chore))
		}
	}
	return &out, nil
}

// DeleteSubtask removes a subtask.
func (s *SubtaskService) DeleteSubtask(ctx context.Context, householdID, choreID, subtaskID, userID uint64) error {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return err
	}
	if _, err := s.store.Chores.FindByID(ctx, householdID, choreID, false); err != nil {
		return notFoundOr(err, ErrChoreNotFound, "find chore")
	}
	if _, err := s.store.Subtasks.FindByID(ctx, choreID, subtaskID); err != nil {
		return notFoundOr(err, ErrSubtaskNotFound, "find subtask")
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Subtasks.Delete(ctx, subtaskID); err != nil {
			return fmt.Errorf("failed to delete subtask: %w", err)
		}
		return appendChoreHistory(ctx, tx, choreID, models.ChoreActionUpdated, &userID)
	})
	if err != nil {
		return err
	}

	toHousehold(s.broadcaster, householdID, EventSubtaskDeleted, dto.Deleted(subtaskID))
	return nil
}

// completeChoreIfDone marks the chore COMPLETED when every subtask is
// completed and reports whether it did.
func completeChoreIfDone(ctx context.Context, tx *repository.Store, householdID, choreID, userID uint64) (bool, error) {
	siblings, err := tx.Subtasks.ListByChore(ctx, choreID)
	if err != nil {
		return false, fmt.Errorf("failed to list subtasks: %w", err)
	}
	for _, st := range siblings {
		if st.Status != models.SubtaskStatusCompleted {
			return false, nil
		}
	}

	chore, err := tx.Chores.FindByID(ctx, householdID, choreID, false)
	if err != nil {
		return false, notFoundOr(err, ErrChoreNotFound, "find chore")
	}
	if chore.Status == models.ChoreStatusCompleted {
		return false, nil
	}
	if err := tx.Chores.Update(ctx, choreID, map[string]interface{}{"status": models.ChoreStatusCompleted}); err != nil {
		return false, fmt.Errorf("failed to complete chore: %w", err)
	}
	if err := appendChoreHistory(ctx, tx, choreID, models.ChoreActionCompleted, &userID); err != nil {
		return false, err
	}
	return true, nil
}
