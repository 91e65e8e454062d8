package repository

import (
	"context"
	"time"

	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/utils"
)

// Soft-deletable entities (users, households, chores, expenses, receipts,
// events, threads, messages, notifications) are filtered out of every read
// unless the caller passes includeDeleted. Delete on these repositories sets
// deleted_at; HardDelete removes the row.

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64, includeDeleted bool) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Update saves every field of the user
	Update(ctx context.Context, user *models.User) error

	// SetActiveHousehold points the user at a household, or clears the pointer when householdID is nil
	SetActiveHousehold(ctx context.Context, userID uint64, householdID *uint64) error

	// ClearActiveHousehold clears the pointer for users whose active household is householdID.
	// When userIDs is non-empty only those users are considered.
	ClearActiveHousehold(ctx context.Context, householdID uint64, userIDs ...uint64) error
}

// HouseholdRepository defines the interface for household data access
type HouseholdRepository interface {
	Create(ctx context.Context, household *models.Household) error
	FindByID(ctx context.Context, id uint64, includeDeleted bool) (*models.Household, error)

	// FindWithMembers loads the household and every membership row with its user
	FindWithMembers(ctx context.Context, id uint64) (*models.Household, error)

	// ListForUser lists households in which the user holds an active membership
	ListForUser(ctx context.Context, userID uint64) ([]models.Household, error)

	Update(ctx context.Context, household *models.Household) error
	Delete(ctx context.Context, id uint64) error
	HardDelete(ctx context.Context, id uint64) error
}

// MemberRepository defines the interface for household membership data access
type MemberRepository interface {
	Create(ctx context.Context, member *models.HouseholdMember) error

	// Find looks up the unique (householdID, userID) membership of a household that is not deleted
	Find(ctx context.Context, householdID, userID uint64) (*models.HouseholdMember, error)

	// FindByID looks up a membership by its own ID within a household
	FindByID(ctx context.Context, householdID, memberID uint64) (*models.HouseholdMember, error)

	Save(ctx context.Context, member *models.HouseholdMember) error

	// Delete removes the membership row
	Delete(ctx context.Context, id uint64) error

	// ListByHousehold lists every membership row, whatever its invitation state
	ListByHousehold(ctx context.Context, householdID uint64) ([]models.HouseholdMember, error)

	// ListActiveByHousehold lists accepted, not rejected, not left memberships
	ListActiveByHousehold(ctx context.Context, householdID uint64) ([]models.HouseholdMember, error)

	// ListActiveByUser lists the user's active memberships with their households
	ListActiveByUser(ctx context.Context, userID uint64) ([]models.HouseholdMember, error)

	// ListPendingByUser lists invitations awaiting the user's answer
	ListPendingByUser(ctx context.Context, userID uint64) ([]models.HouseholdMember, error)

	// CountActive counts how many of userIDs are active members of the household
	CountActive(ctx context.Context, householdID uint64, userIDs []uint64) (int64, error)
}

// ChoreFilter holds filtering options for listing chores
type ChoreFilter struct {
	HouseholdID    uint64
	Status         *models.ChoreStatus
	AssignedUserID *uint64
	IncludeDeleted bool
	Pagination     utils.PaginationParams
}

// ChoreRepository defines the interface for chore data access
type ChoreRepository interface {
	// Create creates a chore together with its subtasks and assignments
	Create(ctx context.Context, chore *models.Chore) error

	// FindByID finds a chore in a household with subtasks, assignments and recurrence rule
	FindByID(ctx context.Context, householdID, choreID uint64, includeDeleted bool) (*models.Chore, error)

	List(ctx context.Context, filter ChoreFilter) ([]models.Chore, int64, error)

	// Update applies the given column values
	Update(ctx context.Context, choreID uint64, fields map[string]interface{}) error

	Delete(ctx context.Context, choreID uint64) error
	HardDelete(ctx context.Context, choreID uint64) error

	// ReplaceAssignments deletes every assignment and assigns userIDs
	ReplaceAssignments(ctx context.Context, choreID uint64, userIDs []uint64) error
	DeleteAssignments(ctx context.Context, choreID uint64) error
	FindAssignment(ctx context.Context, choreID, userID uint64) (*models.ChoreAssignment, error)
	CreateAssignment(ctx context.Context, assignment *models.ChoreAssignment) error
	DeleteAssignment(ctx context.Context, choreID, userID uint64) error

	AppendHistory(ctx context.Context, entry *models.ChoreHistory) error
	ListHistory(ctx context.Context, choreID uint64) ([]models.ChoreHistory, error)

	CreateRecurrenceRule(ctx context.Context, rule *models.RecurrenceRule) error

	// ListRecurringDue lists chores carrying a recurrence rule whose due date is unset or not after now
	ListRecurringDue(ctx context.Context, now time.Time) ([]models.Chore, error)

	// ListDueBetween lists unfinished chores due in (from, to] with their assignments
	ListDueBetween(ctx context.Context, from, to time.Time) ([]models.Chore, error)
}

// SubtaskRepository defines the interface for subtask data access
type SubtaskRepository interface {
	Create(ctx context.Context, subtask *models.Subtask) error
	FindByID(ctx context.Context, choreID, subtaskID uint64) (*models.Subtask, error)
	ListByChore(ctx context.Context, choreID uint64) ([]models.Subtask, error)
	Update(ctx context.Context, subtask *models.Subtask) error
	Delete(ctx context.Context, subtaskID uint64) error

	// ReplaceAll deletes every subtask of the chore and inserts subtasks
	ReplaceAll(ctx context.Context, choreID uint64, subtasks []models.Subtask) error
	DeleteByChore(ctx context.Context, choreID uint64) error
}

// SwapRequestRepository defines the interface for chore swap request data access
type SwapRequestRepository interface {
	Create(ctx context.Context, request *models.ChoreSwapRequest) error
	FindByID(ctx context.Context, id uint64) (*models.ChoreSwapRequest, error)
	ListByChore(ctx context.Context, choreID uint64) ([]models.ChoreSwapRequest, error)

	// Transition moves a request from one status to another and reports whether it did.
	// It is a no-op when the request is no longer in status from.
	Transition(ctx context.Context, id uint64, from, to models.SwapRequestStatus) (bool, error)

	// RejectPending marks every pending request of the chore REJECTED
	RejectPending(ctx context.Context, choreID uint64) error
}

// ExpenseFilter holds filtering options for listing expenses
type ExpenseFilter struct {
	HouseholdID    uint64
	Category       *models.ExpenseCategory
	IncludeDeleted bool
	Pagination     utils.PaginationParams
}

// ExpenseRepository defines the interface for expense data access
type ExpenseRepository interface {
	// Create creates an expense together with its splits
	Create(ctx context.Context, expense *models.Expense) error
	FindByID(ctx context.Context, householdID, expenseID uint64, includeDeleted bool) (*models.Expense, error)
	List(ctx context.Context, filter ExpenseFilter) ([]models.Expense, int64, error)
	Update(ctx context.Context, expenseID uint64, fields map[string]interface{}) error
	Delete(ctx context.Context, expenseID uint64) error
	HardDelete(ctx context.Context, expenseID uint64) error

	ReplaceSplits(ctx context.Context, expenseID uint64, splits []models.ExpenseSplit) error
	DeleteSplits(ctx context.Context, expenseID uint64) error

	CreateReceipt(ctx context.Context, receipt *models.Receipt) error
	FindReceipt(ctx context.Context, expenseID, receiptID uint64) (*models.Receipt, error)
	ListReceipts(ctx context.Context, expenseID uint64) ([]models.Receipt, error)
	DeleteReceipt(ctx context.Context, receiptID uint64) error
	DeleteReceipts(ctx context.Context, expenseID uint64) error

	AppendHistory(ctx context.Context, entry *models.ExpenseHistory) error

	// ListDueBetween lists expenses due in (from, to] with their splits
	ListDueBetween(ctx context.Context, from, to time.Time) ([]models.Expense, error)
}

// TransactionRepository defines the interface for settlement transaction data access
type TransactionRepository interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	FindByID(ctx context.Context, householdID, transactionID uint64) (*models.Transaction, error)
	List(ctx context.Context, householdID uint64, pagination utils.PaginationParams) ([]models.Transaction, int64, error)
	UpdateStatus(ctx context.Context, transactionID uint64, status models.TransactionStatus) error
	Delete(ctx context.Context, transactionID uint64) error
	DeleteByExpense(ctx context.Context, expenseID uint64) error
}

// EventFilter holds filtering options for listing calendar events
type EventFilter struct {
	HouseholdID    uint64
	From           *time.Time
	To             *time.Time
	Category       *models.EventCategory
	IncludeDeleted bool
}

// EventRepository defines the interface for calendar event data access
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, householdID, eventID uint64, includeDeleted bool) (*models.Event, error)
	List(ctx context.Context, filter EventFilter) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, eventID uint64) error
	HardDelete(ctx context.Context, eventID uint64) error

	CreateReminder(ctx context.Context, reminder *models.EventReminder) error
	FindReminder(ctx context.Context, eventID, reminderID uint64) (*models.EventReminder, error)
	DeleteReminder(ctx context.Context, reminderID uint64) error
	DeleteReminders(ctx context.Context, eventID uint64) error

	AppendHistory(ctx context.Context, entry *models.CalendarEventHistory) error
}

// ThreadRepository defines the interface for thread data access
type ThreadRepository interface {
	// Create creates a thread together with its participants
	Create(ctx context.Context, thread *models.Thread) error
	FindByID(ctx context.Context, householdID, threadID uint64, includeDeleted bool) (*models.Thread, error)
	List(ctx context.Context, householdID uint64, pagination utils.PaginationParams) ([]models.Thread, int64, error)
	Update(ctx context.Context, threadID uint64, fields map[string]interface{}) error
	Delete(ctx context.Context, threadID uint64) error

	// AddParticipants adds users to a thread, ignoring those already present
	AddParticipants(ctx context.Context, threadID uint64, userIDs []uint64) error

	// Touch bumps updated_at
	Touch(ctx context.Context, threadID uint64) error
}

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error

	// FindByID loads a message of a thread with author, thread, attachments, reactions, mentions and poll
	FindByID(ctx context.Context, threadID, messageID uint64, includeDeleted bool) (*models.Message, error)

	// List lists the messages of a thread, newest first
	List(ctx context.Context, threadID uint64, pagination utils.PaginationParams) ([]models.Message, int64, error)
	Update(ctx context.Context, messageID uint64, fields map[string]interface{}) error
	Delete(ctx context.Context, messageID uint64) error

	CreateReaction(ctx context.Context, reaction *models.Reaction) error
	FindReaction(ctx context.Context, messageID, reactionID uint64) (*models.Reaction, error)
	HasReaction(ctx context.Context, messageID, userID uint64, reactionType models.ReactionType) (bool, error)
	ListReactions(ctx context.Context, messageID uint64) ([]models.Reaction, error)
	DeleteReaction(ctx context.Context, reactionID uint64) error

	CreateMention(ctx context.Context, mention *models.Mention) error
	FindMention(ctx context.Context, mentionID uint64) (*models.Mention, error)
	DeleteMention(ctx context.Context, mentionID uint64) error

	// ListMentionsForUser lists mentions of the user in messages of the household
	ListMentionsForUser(ctx context.Context, householdID, userID uint64) ([]models.Mention, error)
	CountUnreadMentions(ctx context.Context, householdID, userID uint64) (int64, error)

	// MarkRead records that the user read the message; repeated calls refresh read_at
	MarkRead(ctx context.Context, messageID, userID uint64, at time.Time) error
	ListReads(ctx context.Context, messageID uint64) ([]models.MessageRead, error)

	CreateAttachment(ctx context.Context, attachment *models.Attachment) error
	FindAttachment(ctx context.Context, messageID, attachmentID uint64) (*models.Attachment, error)
	DeleteAttachment(ctx context.Context, attachmentID uint64) error
}

// PollRepository defines the interface for poll data access
type PollRepository interface {
	// Create creates a poll together with its options
	Create(ctx context.Context, poll *models.Poll) error

	// FindByID loads a poll of the household with its message, options and votes
	FindByID(ctx context.Context, householdID, pollID uint64) (*models.Poll, error)
	Update(ctx context.Context, pollID uint64, fields map[string]interface{}) error

	// Delete removes the poll with its options and votes
	Delete(ctx context.Context, pollID uint64) error

	// ReplaceOptions swaps every option of the poll, discarding all votes
	ReplaceOptions(ctx context.Context, pollID uint64, options []models.PollOption) error

	FindOption(ctx context.Context, pollID, optionID uint64) (*models.PollOption, error)
	CreateVote(ctx context.Context, vote *models.PollVote) error
	FindVote(ctx context.Context, pollID, voteID uint64) (*models.PollVote, error)
	DeleteVote(ctx context.Context, voteID uint64) error
	DeleteUserVotes(ctx context.Context, pollID, userID uint64) error
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error

	// FindByID finds a notification owned by the user
	FindByID(ctx context.Context, userID, notificationID uint64) (*models.Notification, error)
	List(ctx context.Context, userID uint64, onlyUnread bool, pagination utils.PaginationParams) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, notificationID uint64) error
	MarkAllRead(ctx context.Context, userID uint64) error
	Delete(ctx context.Context, notificationID uint64) error

	// ListUnread lists the oldest unread notifications across all users with their user
	ListUnread(ctx context.Context, limit int) ([]models.Notification, error)

	FindSettings(ctx context.Context, userID, householdID uint64) (*models.NotificationSettings, error)
	SaveSettings(ctx context.Context, settings *models.NotificationSettings) error

	// SaveSubscription inserts a push subscription or refreshes the keys of an existing endpoint
	SaveSubscription(ctx context.Context, subscription *models.PushSubscription) error
	ListSubscriptions(ctx context.Context, userID uint64) ([]models.PushSubscription, error)
	DeleteSubscription(ctx context.Context, userID uint64, endpoint string) error
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}
