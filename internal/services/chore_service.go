package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/yukikurage/household-api/internal/dto"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"github.com/yukikurage/household-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidChoreTitle  = apierrors.NewBadRequest("Chore title cannot be empty.")
	ErrInvalidChoreStatus = apierrors.NewBadRequest("Invalid chore status.")
	ErrInvalidFrequency   = apierrors.NewBadRequest("Invalid recurrence frequency.")
	ErrSwapTargetInvalid  = apierrors.NewBadRequest("Swap target must be another member of this household.")
)

// ChoreService implements the chore lifecycle: CRUD, history and the swap protocol.
type ChoreService struct {
	store       *repository.Store
	guard       *MembershipGuard
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewChoreService creates a new ChoreService.
func NewChoreService(store *repository.Store, guard *MembershipGuard, broadcaster realtime.Broadcaster, logger *zap.Logger) *ChoreService {
	return &ChoreService{
		store:       store,
		guard:       guard,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// SubtaskInput describes a subtask created along with a chore.
type SubtaskInput struct {
	Title       string
	Description string
}

// RecurrenceInput describes how a chore repeats.
type RecurrenceInput struct {
	Frequency models.RecurrenceFrequency
	Interval  int
	Until     *time.Time
}

// CreateChoreInput represents parameters to create a chore.
type CreateChoreInput struct {
	Title           string
	Description     string
	DueDate         *time.Time
	Priority        int
	AssignedUserIDs []uint64
	Subtasks        []SubtaskInput
	Recurrence      *RecurrenceInput
}

// UpdateChoreInput represents parameters to update a chore. Nil fields are
// left unchanged; a non-nil AssignedUserIDs or Subtasks replaces the whole set.
type UpdateChoreInput struct {
	Title           *string
	Description     *string
	DueDate         *time.Time
	Status          *models.ChoreStatus
	Priority        *int
	AssignedUserIDs *[]uint64
	Subtasks        *[]SubtaskInput
}

// ChoreQuery filters GetChores.
type ChoreQuery struct {
	Status         *models.ChoreStatus
	AssignedUserID *uint64
	Pagination     utils.PaginationParams
}

// GetChores lists the chores of a household.
func (s *ChoreService) GetChores(ctx context.Context, householdID, userID uint64, query ChoreQuery) (*dto.ListResponse[dto.ChoreDTO], error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if query.Status != nil && !query.Status.Valid() {
		return nil, ErrInvalidChoreStatus
	}

	chores, total, err := s.store.Chores.List(ctx, repository.ChoreFilter{
		HouseholdID:    householdID,
		Status:         query.Status,
		AssignedUserID: query.AssignedUserID,
		Pagination:     query.Pagination,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list chores: %w", err)
	}

	resp := dto.NewListResponse(dto.ToChoreDTOs(chores), query.Pagination, total)
	return &resp, nil
}

// GetChoreByID returns a chore of the household.
func (s *ChoreService) GetChoreByID(ctx context.Context, householdID, choreID, userID uint64) (*dto.ChoreDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	return s.loadChore(ctx, householdID, choreID)
}

// CreateChore creates a chore with its subtasks, assignments and optional recurrence rule.
func (s *ChoreService) CreateChore(ctx context.Context, householdID uint64, input CreateChoreInput, userID uint64) (*dto.ChoreDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidChoreTitle
	}
	if input.Recurrence != nil && !input.Recurrence.Frequency.Valid() {
		return nil, ErrInvalidFrequency
	}
	assignees := uniqueIDs(input.AssignedUserIDs)
	if err := requireActiveMembers(ctx, s.store, householdID, assignees, ErrAssigneeNotMember); err != nil {
		return nil, err
	}

	assignedAt := now()
	chore := &models.Chore{
		HouseholdID: householdID,
		Title:       title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      models.ChoreStatusPending,
		Priority:    input.Priority,
	}
	for _, st := range input.Subtasks {
		chore.Subtasks = append(chore.Subtasks, models.Subtask{
			Title:       strings.TrimSpace(st.Title),
			Description: st.Description,
			Status:      models.SubtaskStatusPending,
		})
	}
	for _, id := range assignees {
		chore.Assignments = append(chore.Assignments, models.ChoreAssignment{UserID: id, AssignedAt: assignedAt})
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if input.Recurrence != nil {
			rule := &models.RecurrenceRule{
				Frequency: input.Recurrence.Frequency,
				Interval:  max(input.Recurrence.Interval, 1),
				Until:     input.Recurrence.Until,
			}
			if err := tx.Chores.CreateRecurrenceRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create recurrence rule: %w", err)
			}
			chore.RecurrenceRuleID = &rule.ID
		}
		if err := tx.Chores.Create(ctx, chore); err != nil {
			return fmt.Errorf("failed to create chore: %w", err)
		}
		return appendChoreHistory(ctx, tx, chore.ID, models.ChoreActionCreated, &userID)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadChore(ctx, householdID, chore.ID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventChoreCreated, out)
	return out, nil
}

// UpdateChore changes a chore and, when given, replaces its assignments or subtasks.
func (s *ChoreService) UpdateChore(ctx context.Context, householdID, choreID uint64, input UpdateChoreInput, userID uint64) (*dto.ChoreDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}

	chore, err := s.store.Chores.FindByID(ctx, householdID, choreID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrChoreNotFound, "find chore")
	}

	fields := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrInvalidChoreTitle
		}
		fields["title"] = title
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.DueDate != nil {
		fields["due_date"] = *input.DueDate
	}
	if input.Priority != nil {
		fields["priority"] = *input.Priority
	}
	completing := false
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidChoreStatus
		}
		fields["status"] = *input.Status
		completing = *input.Status == models.ChoreStatusCompleted && chore.Status != models.ChoreStatusCompleted
	}

	var assignees []uint64
	if input.AssignedUserIDs != nil {
		assignees = uniqueIDs(*input.AssignedUserIDs)
		if err := requireActiveMembers(ctx, s.store, householdID, assignees, ErrAssigneeNotMember); err != nil {
			return nil, err
		}
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if len(fields) > 0 {
			if err := tx.Chores.Update(ctx, choreID, fields); err != nil {
				return fmt.Errorf("failed to update chore: %w", err)
			}
		}
		if input.AssignedUserIDs != nil {
			if err := tx.Chores.ReplaceAssignments(ctx, choreID, assignees); err != nil {
				return fmt.Errorf("failed to replace assignments: %w", err)
			}
		}
		if input.Subtasks != nil {
			subtasks := make([]models.Subtask, 0, len(*input.Subtasks))
			for _, st := range *input.Subtasks {
				subtasks = append(subtasks, models.Subtask{
					Title:       strings.TrimSpace(st.Title),
					Description: st.Description,
					Status:      models.SubtaskStatusPending,
				})
			}
			if err := tx.Subtasks.ReplaceAll(ctx, choreID, subtasks); err != nil {
				return fmt.Errorf("failed to replace subtasks: %w", err)
			}
		}
		if completing {
			if err := appendChoreHistory(ctx, tx, choreID, models.ChoreActionCompleted, &userID); err != nil {
				return err
			}
		}
		return appendChoreHistory(ctx, tx, choreID, models.ChoreActionUpdated, &userID)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadChore(ctx, householdID, choreID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventChoreUpdate, out)
	return out, nil
}

// DeleteChore soft-deletes a chore. Pending swap requests are rejected, the
// linked calendar event is soft-deleted and assignments and subtasks are
// removed, all in one transaction; the DELETED history entry is written last.
func (s *ChoreService) DeleteChore(ctx context.Context, householdID, choreID, userID uint64) error {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return err
	}

	chore, err := s.store.Chores.FindByID(ctx, householdID, choreID, false)
	if err != nil {
		return notFoundOr(err, ErrChoreNotFound, "find chore")
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.SwapRequests.RejectPending(ctx, choreID); err != nil {
			return fmt.Errorf("failed to reject swap requests: %w", err)
		}
		if chore.EventID != nil {
			if err := tx.Events.Delete(ctx, *chore.EventID); err != nil {
				return fmt.Errorf("failed to delete chore event: %w", err)
			}
		}
		if err := tx.Chores.DeleteAssignments(ctx, choreID); err != nil {
			return fmt.Errorf("failed to delete assignments: %w", err)
		}
		if err := tx.Subtasks.DeleteByChore(ctx, choreID); err != nil {
			return fmt.Errorf("failed to delete subtasks: %w", err)
		}
		if err := tx.Chores.Delete(ctx, choreID); err != nil {
			return fmt.Errorf("failed to delete chore: %w", err)
		}
		return appendChoreHistory(ctx, tx, choreID, models.ChoreActionDeleted, &userID)
	})
	if err != nil {
		return err
	}

	toHousehold(s.broadcaster, householdID, EventChoreUpdate, dto.Deleted(choreID))
	return nil
}

// GetChoreHistory lists the history of a chore, including a deleted one.
func (s *ChoreService) GetChoreHistory(ctx context.Context, householdID, choreID, userID uint64) ([]dto.ChoreHistoryDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if _, err := s.store.Chores.FindByID(ctx, householdID, choreID, true); err != nil {
		return nil, notFoundOr(err, ErrChoreNotFound, "find chore")
	}

	entries, err := s.store.Chores.ListHistory(ctx, choreID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chore history: %w", err)
	}
	out := make([]dto.ChoreHistoryDTO, len(entries))
	for i, e := range entries {
		out[i] = dto.ToChoreHistoryDTO(e)
	}
	return out, nil
}

// GetSwapRequests lists the swap requests of a chore.
func (s *ChoreService) GetSwapRequests(ctx context.Context, householdID, choreID, userID uint64) ([]dto.SwapRequestDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if _, err := s.store.Chores.FindByID(ctx, householdID, choreID, false); err != nil {
		return nil, notFoundOr(err, ErrChoreNotFound, "find chore")
	}

	requests, err := s.store.SwapRequests.ListByChore(ctx, choreID)
	if err != nil {
		return nil, fmt.Errorf("failed to list swap requests: %w", err)
	}
	out := make([]dto.SwapRequestDTO, 0, len(requests))
	for _, r := range requests {
		item, err := dto.ToSwapRequestDTO(r)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// CreateChoreSwapRequest asks targetUserID to take over the requester's assignment.
func (s *ChoreService) CreateChoreSwapRequest(ctx context.Context, householdID, choreID, targetUserID, requesterID uint64) (*dto.SwapRequestDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, requesterID, AnyRole...); err != nil {
		return nil, err
	}
	if _, err := s.store.Chores.FindByID(ctx, householdID, choreID, false); err != nil {
		return nil, notFoundOr(err, ErrChoreNotFound, "find chore")
	}
	if _, err := s.store.Chores.FindAssignment(ctx, choreID, requesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAssigned
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	if targetUserID == requesterID {
		return nil, ErrSwapTargetInvalid
	}
	if err := requireActiveMembers(ctx, s.store, householdID, []uint64{targetUserID}, ErrSwapTargetInvalid); err != nil {
		return nil, err
	}

	request := &models.ChoreSwapRequest{
		ChoreID:          choreID,
		RequestingUserID: requesterID,
		TargetUserID:     targetUserID,
		Status:           models.SwapStatusPending,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.SwapRequests.Create(ctx, request); err != nil {
			return fmt.Errorf("failed to create swap request: %w", err)
		}
		return appendChoreHistory(ctx, tx, choreID, models.ChoreActionUpdated, &requesterID)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadSwapRequest(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventChoreSwapRequest, out)
	toUser(s.broadcaster, targetUserID, EventChoreSwapRequest, out)
	return out, nil
}

// ApproveOrRejectChoreSwap answers a swap request. Only the target user may
// answer, and only while the request is PENDING; the status change is a
// conditional update so concurrent answers resolve to exactly one winner.
func (s *ChoreService) ApproveOrRejectChoreSwap(ctx context.Context, householdID, choreID, swapRequestID uint64, approve bool, approverID uint64) (*dto.SwapRequestDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, approverID, AnyRole...); err != nil {
		return nil, err
	}
	if _, err := s.store.Chores.FindByID(ctx, householdID, choreID, false); err != nil {
		return nil, notFoundOr(err, ErrChoreNotFound, "find chore")
	}

	request, err := s.store.SwapRequests.FindByID(ctx, swapRequestID)
	if err != nil {
		return nil, notFoundOr(err, ErrSwapRequestNotFound, "find swap request")
	}
	if request.ChoreID != choreID {
		return nil, ErrSwapRequestNotFound
	}
	if request.TargetUserID != approverID {
		return nil, ErrNotSwapTarget
	}
	if request.Status != models.SwapStatusPending {
		return nil, ErrSwapNotPending
	}

	next := models.SwapStatusRejected
	if approve {
		next = models.SwapStatusApproved
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		moved, err := tx.SwapRequests.Transition(ctx, request.ID, models.SwapStatusPending, next)
		if err != nil {
			return fmt.Errorf("failed to update swap request: %w", err)
		}
		if !moved {
			return ErrSwapNotPending
		}
		if !approve {
			return nil
		}

		if err := tx.Chores.DeleteAssignment(ctx, choreID, request.RequestingUserID); err != nil {
			return fmt.Errorf("failed to remove assignment: %w", err)
		}
		if _, err := tx.Chores.FindAssignment(ctx, choreID, request.TargetUserID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to find assignment: %w", err)
			}
			assignment := &models.ChoreAssignment{ChoreID: choreID, UserID: request.TargetUserID, AssignedAt: now()}
			if err := tx.Chores.CreateAssignment(ctx, assignment); err != nil {
				return fmt.Errorf("failed to create assignment: %w", err)
			}
		}
		return appendChoreHistory(ctx, tx, choreID, models.ChoreActionSwapped, &approverID)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadSwapRequest(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	event := EventChoreSwapRejected
	if approve {
		event = EventChoreSwapApproved
	}
	toHousehold(s.broadcaster, householdID, event, out)
	toUser(s.broadcaster, request.RequestingUserID, event, out)
	return out, nil
}

func (s *ChoreService) loadChore(ctx context.Context, householdID, choreID uint64) (*dto.ChoreDTO, error) {
	chore, err := s.store.Chores.FindByID(ctx, householdID, choreID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrChoreNotFound, "find chore")
	}
	out := dto.ToChoreDTO(*chore)
	return &out, nil
}

func (s *ChoreService) loadSwapRequest(ctx context.Context, id uint64) (*dto.SwapRequestDTO, error) {
	request, err := s.store.SwapRequests.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrSwapRequestNotFound, "find swap request")
	}
	out, err := dto.ToSwapRequestDTO(*request)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// requireActiveMembers fails with notMember unless every id is an active member.
func requireActiveMembers(ctx context.Context, store *repository.Store, householdID uint64, ids []uint64, notMember error) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := store.Members.CountActive(ctx, householdID, ids)
	if err != nil {
		return fmt.Errorf("failed to check members: %w", err)
	}
	if count != int64(len(ids)) {
		return notMember
	}
	return nil
}

func appendChoreHistory(ctx context.Context, store *repository.Store, choreID uint64, action models.ChoreAction, actorID *uint64) error {
	entry := &models.ChoreHistory{ChoreID: choreID, Action: action, ChangedByID: actorID, ChangedAt: now()}
	if err := store.Chores.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to record chore history: %w", err)
	}
	return nil
}

func uniqueIDs(ids []uint64) []uint64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
