package models

import (
	"time"

	"gorm.io/gorm"
)

type Chore struct {
	ID               uint64         `gorm:"primarykey" json:"id"`
	HouseholdID      uint64         `gorm:"not null;index" json:"household_id"`
	Title            string         `gorm:"size:200;not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	DueDate          *time.Time     `gorm:"index" json:"due_date"`
	Status           ChoreStatus    `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Priority         int            `gorm:"not null;default:0" json:"priority"`
	EventID          *uint64        `json:"event_id"`
	RecurrenceRuleID *uint64        `gorm:"index" json:"recurrence_rule_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Household      *Household        `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
	RecurrenceRule *RecurrenceRule   `gorm:"foreignKey:RecurrenceRuleID" json:"recurrence_rule,omitempty"`
	Subtasks       []Subtask         `gorm:"foreignKey:ChoreID" json:"subtasks,omitempty"`
	Assignments    []ChoreAssignment `gorm:"foreignKey:ChoreID" json:"assignments,omitempty"`
}

type Subtask struct {
	ID          uint64        `gorm:"primarykey" json:"id"`
	ChoreID     uint64        `gorm:"not null;index" json:"chore_id"`
	Title       string        `gorm:"size:200;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Status      SubtaskStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type ChoreAssignment struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	ChoreID     uint64     `gorm:"not null;uniqueIndex:idx_chore_assignments_chore_user" json:"chore_id"`
	UserID      uint64     `gorm:"not null;uniqueIndex:idx_chore_assignments_chore_user;index" json:"user_id"`
	AssignedAt  time.Time  `json:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type ChoreSwapRequest struct {
	ID               uint64            `gorm:"primarykey" json:"id"`
	ChoreID          uint64            `gorm:"not null;index" json:"chore_id"`
	RequestingUserID uint64            `gorm:"not null" json:"requesting_user_id"`
	TargetUserID     uint64            `gorm:"not null;index" json:"target_user_id"`
	Status           SwapRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`

	// Relations
	RequestingUser *User `gorm:"foreignKey:RequestingUserID" json:"requesting_user,omitempty"`
	TargetUser     *User `gorm:"foreignKey:TargetUserID" json:"target_user,omitempty"`
}

// ChoreHistory is append-only. It carries no foreign key to chores so that
// entries outlive the chore they describe. A nil ChangedByID marks a change
// made by a background job.
type ChoreHistory struct {
	ID          uint64      `gorm:"primarykey" json:"id"`
	ChoreID     uint64      `gorm:"not null;index" json:"chore_id"`
	Action      ChoreAction `gorm:"type:varchar(20);not null" json:"action"`
	ChangedByID *uint64     `json:"changed_by_id"`
	ChangedAt   time.Time   `gorm:"not null" json:"changed_at"`

	// Relations
	ChangedBy *User `gorm:"foreignKey:ChangedByID" json:"changed_by,omitempty"`
}

func (ChoreHistory) TableName() string {
	return "chore_history"
}

type RecurrenceRule struct {
	ID        uint64              `gorm:"primarykey" json:"id"`
	Frequency RecurrenceFrequency `gorm:"type:varchar(20);not null" json:"frequency"`
	Interval  int                 `gorm:"not null;default:1" json:"interval"`
	Until     *time.Time          `json:"until"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Next returns the occurrence one period after from.
func (r *RecurrenceRule) Next(from time.Time) time.Time {
	n := r.Interval
	if n < 1 {
		n = 1
	}
	switch r.Frequency {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7*n)
	case FrequencyBiweekly:
		return from.AddDate(0, 0, 14*n)
	case FrequencyMonthly:
		return from.AddDate(0, n, 0)
	case FrequencyQuadrennial:
		return from.AddDate(4*n, 0, 0)
	case FrequencyYearly:
		return from.AddDate(n, 0, 0)
	default:
		return from.AddDate(0, 0, n)
	}
}
