package dto

import (
	"time"

	"github.com/yukikurage/household-api/internal/models"
)

// SubtaskDTO represents a subtask
type SubtaskDTO struct {
	ID          uint64               `json:"id"`
	ChoreID     uint64               `json:"chore_id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      models.SubtaskStatus `json:"status"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// AssignmentDTO represents a chore assignment
type AssignmentDTO struct {
	UserID      uint64          `json:"user_id"`
	AssignedAt  time.Time       `json:"assigned_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	User        *UserSummaryDTO `json:"user,omitempty"`
}

// RecurrenceRuleDTO represents a recurrence rule
type RecurrenceRuleDTO struct {
	ID        uint64                     `json:"id"`
	Frequency models.RecurrenceFrequency `json:"frequency"`
	Interval  int                        `json:"interval"`
	Until     *time.Time                 `json:"until"`
}

// ChoreDTO represents a chore in API responses
type ChoreDTO struct {
	ID             uint64             `json:"id"`
	HouseholdID    uint64             `json:"household_id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	DueDate        *time.Time         `json:"due_date"`
	Status         models.ChoreStatus `json:"status"`
	Priority       int                `json:"priority"`
	EventID        *uint64            `json:"event_id"`
	RecurrenceRule *RecurrenceRuleDTO `json:"recurrence_rule,omitempty"`
	Subtasks       []SubtaskDTO       `json:"subtasks"`
	Assignments    []AssignmentDTO    `json:"assignments"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// SwapRequestDTO represents a chore swap request
type SwapRequestDTO struct {
	ID             uint64                   `json:"id"`
	ChoreID        uint64                   `json:"chore_id"`
	Status         models.SwapRequestStatus `json:"status"`
	RequestingUser UserSummaryDTO           `json:"requesting_user"`
	TargetUser     UserSummaryDTO           `json:"target_user"`
	CreatedAt      time.Time                `json:"created_at"`
}

// ChoreHistoryDTO represents one audit entry
type ChoreHistoryDTO struct {
	ID        uint64             `json:"id"`
	ChoreID   uint64             `json:"chore_id"`
	Action    models.ChoreAction `json:"action"`
	ChangedBy *UserSummaryDTO    `json:"changed_by"`
	ChangedAt time.Time          `json:"changed_at"`
}

// ChoreSuggestionDTO is a chore drafted from free text
type ChoreSuggestionDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

// ToSubtaskDTO converts a Subtask model
func ToSubtaskDTO(subtask models.Subtask) SubtaskDTO {
	return SubtaskDTO{
		ID:          subtask.ID,
		ChoreID:     subtask.ChoreID,
		Title:       subtask.Title,
		Description: subtask.Description,
		Status:      models.NormalizeSubtaskStatus(subtask.Status),
		UpdatedAt:   subtask.UpdatedAt,
	}
}

// ToSubtaskDTOs converts a slice of subtasks
func ToSubtaskDTOs(subtasks []models.Subtask) []SubtaskDTO {
	out := make([]SubtaskDTO, len(subtasks))
	for i, s := range subtasks {
		out[i] = ToSubtaskDTO(s)
	}
	return out
}

// ToChoreDTO converts a Chore model with its loaded relations
func ToChoreDTO(chore models.Chore) ChoreDTO {
	out := ChoreDTO{
		ID:          chore.ID,
		HouseholdID: chore.HouseholdID,
		Title:       chore.Title,
		Description: chore.Description,
		DueDate:     chore.DueDate,
		Status:      models.NormalizeChoreStatus(chore.Status),
		Priority:    chore.Priority,
		EventID:     chore.EventID,
		Subtasks:    ToSubtaskDTOs(chore.Subtasks),
		Assignments: make([]AssignmentDTO, len(chore.Assignments)),
		CreatedAt:   chore.CreatedAt,
		UpdatedAt:   chore.UpdatedAt,
	}
	for i, a := range chore.Assignments {
		out.Assignments[i] = AssignmentDTO{
			UserID:      a.UserID,
			AssignedAt:  a.AssignedAt,
			CompletedAt: a.CompletedAt,
			User:        optionalUser(a.User),
		}
	}
	if rule := chore.RecurrenceRule; rule != nil {
		out.RecurrenceRule = &RecurrenceRuleDTO{
			ID:        rule.ID,
			Frequency: rule.Frequency,
			Interval:  rule.Interval,
			Until:     rule.Until,
		}
	}
	return out
}

// ToChoreDTOs converts a slice of chores
func ToChoreDTOs(chores []models.Chore) []ChoreDTO {
	out := make([]ChoreDTO, len(chores))
	for i, c := range chores {
		out[i] = ToChoreDTO(c)
	}
	return out
}

// ToSwapRequestDTO converts a swap request; both users are required.
func ToSwapRequestDTO(request models.ChoreSwapRequest) (SwapRequestDTO, error) {
	if request.RequestingUser == nil {
		return SwapRequestDTO{}, missing("ChoreSwapRequest", "RequestingUser")
	}
	if request.TargetUser == nil {
		return SwapRequestDTO{}, missing("ChoreSwapRequest", "TargetUser")
	}
	return SwapRequestDTO{
		ID:             request.ID,
		ChoreID:        request.ChoreID,
		Status:         models.NormalizeSwapRequestStatus(request.Status),
		RequestingUser: ToUserSummaryDTO(*request.RequestingUser),
		TargetUser:     ToUserSummaryDTO(*request.TargetUser),
		CreatedAt:      request.CreatedAt,
	}, nil
}

// ToChoreHistoryDTO converts a history entry. A nil ChangedBy is a system change.
func ToChoreHistoryDTO(entry models.ChoreHistory) ChoreHistoryDTO {
	return ChoreHistoryDTO{
		ID:        entry.ID,
		ChoreID:   entry.ChoreID,
		Action:    entry.Action,
		ChangedBy: optionalUser(entry.ChangedBy),
		ChangedAt: entry.ChangedAt,
	}
}
