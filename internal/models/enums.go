package models

import "slices"

// Enum values read back from storage are normalized before they reach the
// wire: an unknown value is replaced by the type's default. The mapping is
// lossy; the raw column value is not preserved in the response.

type HouseholdRole string

const (
	RoleAdmin  HouseholdRole = "ADMIN"
	RoleMember HouseholdRole = "MEMBER"
)

var householdRoles = []HouseholdRole{RoleAdmin, RoleMember}

func (r HouseholdRole) Valid() bool { return slices.Contains(householdRoles, r) }

// NormalizeHouseholdRole falls back to MEMBER, the least privileged role.
func NormalizeHouseholdRole(r HouseholdRole) HouseholdRole { return normalize(r, RoleMember, householdRoles) }

type ChoreStatus string

const (
	ChoreStatusPending    ChoreStatus = "PENDING"
	ChoreStatusInProgress ChoreStatus = "IN_PROGRESS"
	ChoreStatusCompleted  ChoreStatus = "COMPLETED"
)

var choreStatuses = []ChoreStatus{ChoreStatusPending, ChoreStatusInProgress, ChoreStatusCompleted}

func (s ChoreStatus) Valid() bool { return slices.Contains(choreStatuses, s) }

func NormalizeChoreStatus(s ChoreStatus) ChoreStatus {
	return normalize(s, ChoreStatusPending, choreStatuses)
}

type SubtaskStatus string

const (
	SubtaskStatusPending   SubtaskStatus = "PENDING"
	SubtaskStatusCompleted SubtaskStatus = "COMPLETED"
)

var subtaskStatuses = []SubtaskStatus{SubtaskStatusPending, SubtaskStatusCompleted}

func (s SubtaskStatus) Valid() bool { return slices.Contains(subtaskStatuses, s) }

func NormalizeSubtaskStatus(s SubtaskStatus) SubtaskStatus {
	return normalize(s, SubtaskStatusPending, subtaskStatuses)
}

type SwapRequestStatus string

const (
	SwapStatusPending  SwapRequestStatus = "PENDING"
	SwapStatusApproved SwapRequestStatus = "APPROVED"
	SwapStatusRejected SwapRequestStatus = "REJECTED"
)

var swapStatuses = []SwapRequestStatus{SwapStatusPending, SwapStatusApproved, SwapStatusRejected}

func NormalizeSwapRequestStatus(s SwapRequestStatus) SwapRequestStatus {
	return normalize(s, SwapStatusPending, swapStatuses)
}

type ChoreAction string

const (
	ChoreActionCreated   ChoreAction = "CREATED"
	ChoreActionUpdated   ChoreAction = "UPDATED"
	ChoreActionDeleted   ChoreAction = "DELETED"
	ChoreActionCompleted ChoreAction = "COMPLETED"
	ChoreActionSwapped   ChoreAction = "SWAPPED"
)

type RecurrenceFrequency string

const (
	FrequencyDaily       RecurrenceFrequency = "DAILY"
	FrequencyWeekly      RecurrenceFrequency = "WEEKLY"
	FrequencyBiweekly    RecurrenceFrequency = "BIWEEKLY"
	FrequencyMonthly     RecurrenceFrequency = "MONTHLY"
	FrequencyQuadrennial RecurrenceFrequency = "QUADRENNIAL"
	FrequencyYearly      RecurrenceFrequency = "YEARLY"
)

var frequencies = []RecurrenceFrequency{
	FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuadrennial, FrequencyYearly,
}

func (f RecurrenceFrequency) Valid() bool { return slices.Contains(frequencies, f) }

type ExpenseCategory string

const (
	ExpenseCategoryGroceries ExpenseCategory = "GROCERIES"
	ExpenseCategoryUtilities ExpenseCategory = "UTILITIES"
	ExpenseCategoryRent      ExpenseCategory = "RENT"
	ExpenseCategoryOther     ExpenseCategory = "OTHER"
)

var expenseCategories = []ExpenseCategory{
	ExpenseCategoryGroceries, ExpenseCategoryUtilities, ExpenseCategoryRent, ExpenseCategoryOther,
}

func (c ExpenseCategory) Valid() bool { return slices.Contains(expenseCategories, c) }

func NormalizeExpenseCategory(c ExpenseCategory) ExpenseCategory {
	return normalize(c, ExpenseCategoryOther, expenseCategories)
}

type ExpenseAction string

const (
	ExpenseActionCreated         ExpenseAction = "CREATED"
	ExpenseActionUpdated         ExpenseAction = "UPDATED"
	ExpenseActionDeleted         ExpenseAction = "DELETED"
	ExpenseActionSplit           ExpenseAction = "SPLIT"
	ExpenseActionReceiptUploaded ExpenseAction = "RECEIPT_UPLOADED"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

var transactionStatuses = []TransactionStatus{TransactionStatusPending, TransactionStatusCompleted}

func (s TransactionStatus) Valid() bool { return slices.Contains(transactionStatuses, s) }

func NormalizeTransactionStatus(s TransactionStatus) TransactionStatus {
	return normalize(s, TransactionStatusPending, transactionStatuses)
}

type EventCategory string

const (
	EventCategoryChore   EventCategory = "CHORE"
	EventCategoryMeeting EventCategory = "MEETING"
	EventCategorySocial  EventCategory = "SOCIAL"
	EventCategoryOther   EventCategory = "OTHER"
)

var eventCategories = []EventCategory{EventCategoryChore, EventCategoryMeeting, EventCategorySocial, EventCategoryOther}

func (c EventCategory) Valid() bool { return slices.Contains(eventCategories, c) }

func NormalizeEventCategory(c EventCategory) EventCategory {
	return normalize(c, EventCategoryOther, eventCategories)
}

type EventStatus string

const (
	EventStatusScheduled EventStatus = "SCHEDULED"
	EventStatusCancelled EventStatus = "CANCELLED"
	EventStatusCompleted EventStatus = "COMPLETED"
)

var eventStatuses = []EventStatus{EventStatusScheduled, EventStatusCancelled, EventStatusCompleted}

func (s EventStatus) Valid() bool { return slices.Contains(eventStatuses, s) }

func NormalizeEventStatus(s EventStatus) EventStatus {
	return normalize(s, EventStatusScheduled, eventStatuses)
}

type ReminderType string

const (
	ReminderTypePush  ReminderType = "PUSH_NOTIFICATION"
	ReminderTypeEmail ReminderType = "EMAIL"
	ReminderTypeSMS   ReminderType = "SMS"
)

var reminderTypes = []ReminderType{ReminderTypePush, ReminderTypeEmail, ReminderTypeSMS}

func (t ReminderType) Valid() bool { return slices.Contains(reminderTypes, t) }

func NormalizeReminderType(t ReminderType) ReminderType {
	return normalize(t, ReminderTypePush, reminderTypes)
}

type CalendarEventAction string

const (
	EventActionCreated           CalendarEventAction = "CREATED"
	EventActionUpdated           CalendarEventAction = "UPDATED"
	EventActionDeleted           CalendarEventAction = "DELETED"
	EventActionStatusChanged     CalendarEventAction = "STATUS_CHANGED"
	EventActionRecurrenceChanged CalendarEventAction = "RECURRENCE_CHANGED"
)

type PollType string

const (
	PollTypeSingleChoice   PollType = "SINGLE_CHOICE"
	PollTypeMultipleChoice PollType = "MULTIPLE_CHOICE"
	PollTypeRankedChoice   PollType = "RANKED_CHOICE"
	PollTypeEventDate      PollType = "EVENT_DATE"
)

var pollTypes = []PollType{PollTypeSingleChoice, PollTypeMultipleChoice, PollTypeRankedChoice, PollTypeEventDate}

func (t PollType) Valid() bool { return slices.Contains(pollTypes, t) }

func NormalizePollType(t PollType) PollType { return normalize(t, PollTypeSingleChoice, pollTypes) }

type PollStatus string

const (
	PollStatusOpen   PollStatus = "OPEN"
	PollStatusClosed PollStatus = "CLOSED"
)

var pollStatuses = []PollStatus{PollStatusOpen, PollStatusClosed}

func (s PollStatus) Valid() bool { return slices.Contains(pollStatuses, s) }

func NormalizePollStatus(s PollStatus) PollStatus { return normalize(s, PollStatusOpen, pollStatuses) }

type ReactionType string

const (
	ReactionLike  ReactionType = "LIKE"
	ReactionLove  ReactionType = "LOVE"
	ReactionHaha  ReactionType = "HAHA"
	ReactionWow   ReactionType = "WOW"
	ReactionSad   ReactionType = "SAD"
	ReactionAngry ReactionType = "ANGRY"
)

var reactionTypes = []ReactionType{ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry}

func (t ReactionType) Valid() bool { return slices.Contains(reactionTypes, t) }

func NormalizeReactionType(t ReactionType) ReactionType { return normalize(t, ReactionLike, reactionTypes) }

type NotificationType string

const (
	NotificationTypeChore      NotificationType = "CHORE"
	NotificationTypeExpense    NotificationType = "EXPENSE"
	NotificationTypeEvent      NotificationType = "EVENT"
	NotificationTypeNewMessage NotificationType = "NEW_MESSAGE"
	NotificationTypeMention    NotificationType = "MENTION"
	NotificationTypeOther      NotificationType = "OTHER"
)

var notificationTypes = []NotificationType{
	NotificationTypeChore, NotificationTypeExpense, NotificationTypeEvent,
	NotificationTypeNewMessage, NotificationTypeMention, NotificationTypeOther,
}

func (t NotificationType) Valid() bool { return slices.Contains(notificationTypes, t) }

func NormalizeNotificationType(t NotificationType) NotificationType {
	return normalize(t, NotificationTypeOther, notificationTypes)
}

func normalize[T ~string](v T, fallback T, known []T) T {
	if slices.Contains(known, v) {
		return v
	}
	return fallback
}
