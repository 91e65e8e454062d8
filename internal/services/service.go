// Package services holds the business rules of the household API. Every
// household-scoped operation starts with MembershipGuard.Verify, performs its
// writes inside one repository.Store transaction and publishes the resulting
// DTO on the realtime channels only after the transaction has committed.
package services

import (
	"context"
	"time"

	"github.com/yukikurage/household-api/internal/realtime"
)

// Realtime event names.
const (
	EventHouseholdUpdate     = "household_update"
	EventHouseholdDeleted    = "household_deleted"
	EventHouseholdInvitation = "household_invitation"
	EventInvitationUpdate    = "invitation_update"
	EventMemberUpdate        = "member_update"
	EventMemberRemoved       = "member_removed"
	EventUserUpdated         = "user_updated"

	EventChoreCreated      = "chore_created"
	EventChoreUpdate       = "chore_update"
	EventChoreSwapRequest  = "chore_swap_request"
	EventChoreSwapApproved = "chore_swap_approved"
	EventChoreSwapRejected = "chore_swap_rejected"
	EventSubtaskCreated    = "subtask_created"
	EventSubtaskUpdated    = "subtask_updated"
	EventSubtaskDeleted    = "subtask_deleted"

	EventExpenseCreated       = "expense_created"
	EventExpenseUpdated       = "expense_updated"
	EventExpenseUpdate        = "expense_update"
	EventExpenseSplitsUpdated = "expense_splits_updated"
	EventReceiptUploaded      = "receipt_uploaded"
	EventReceiptDeleted       = "receipt_deleted"
	EventTransactionCreated   = "transaction_created"
	EventTransactionUpdated   = "transaction_updated"
	EventTransactionDeleted   = "transaction_deleted"

	EventCalendarEventCreated = "calendar_event_created"
	EventCalendarEventUpdate  = "calendar_event_update"
	EventCalendarEventDeleted = "calendar_event_deleted"

	EventThreadUpdate     = "thread_update"
	EventMessageUpdate    = "message_update"
	EventReactionUpdate   = "reaction_update"
	EventMentionUpdate    = "mention_update"
	EventAttachmentUpdate = "attachment_update"
	EventPollUpdate       = "poll_update"
	EventPollVoteUpdate   = "poll_vote_update"

	EventNotificationUpdate = "notification_update"
	EventSettingsUpdate     = "settings_update"
)

// EmailSender delivers a plain email. The notifier package provides the
// Postmark implementation.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

func toHousehold(b realtime.Broadcaster, householdID uint64, event string, payload any) {
	b.Publish(realtime.HouseholdChannel(householdID), event, payload)
}

func toUser(b realtime.Broadcaster, userID uint64, event string, payload any) {
	b.Publish(realtime.UserChannel(userID), event, payload)
}

// revokeAccess tells every hub to drop the user's subscription to the
// household channel.
func revokeAccess(b realtime.Broadcaster, userID, householdID uint64) {
	toUser(b, userID, realtime.EventMembershipRevoked, realtime.MembershipRevoked{HouseholdID: householdID})
}

func ptr[T any](v T) *T {
	return &v
}

func now() time.Time {
	return time.Now().UTC()
}
