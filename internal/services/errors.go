package services

import (
	"errors"
	"fmt"

	apierrors "github.com/yukikurage/household-api/internal/errors"
	"gorm.io/gorm"
)

var (
	ErrAccessDenied = apierrors.NewUnauthorized("Access denied.")

	ErrUserNotFound         = apierrors.NewNotFound("User not found.")
	ErrHouseholdNotFound    = apierrors.NewNotFound("Household not found.")
	ErrMemberNotFound       = apierrors.NewNotFound("Member not found.")
	ErrChoreNotFound        = apierrors.NewNotFound("Chore not found.")
	ErrSubtaskNotFound      = apierrors.NewNotFound("Subtask not found.")
	ErrSwapRequestNotFound  = apierrors.NewNotFound("Swap request not found.")
	ErrExpenseNotFound      = apierrors.NewNotFound("Expense not found.")
	ErrReceiptNotFound      = apierrors.NewNotFound("Receipt not found.")
	ErrTransactionNotFound  = apierrors.NewNotFound("Transaction not found.")
	ErrEventNotFound        = apierrors.NewNotFound("Event not found.")
	ErrReminderNotFound     = apierrors.NewNotFound("Reminder not found.")
	ErrThreadNotFound       = apierrors.NewNotFound("Thread not found.")
	ErrMessageNotFound      = apierrors.NewNotFound("Message not found.")
	ErrReactionNotFound     = apierrors.NewNotFound("Reaction not found.")
	ErrMentionNotFound      = apierrors.NewNotFound("Mention not found.")
	ErrAttachmentNotFound   = apierrors.NewNotFound("Attachment not found.")
	ErrPollNotFound         = apierrors.NewNotFound("Poll not found.")
	ErrPollOptionNotFound   = apierrors.NewNotFound("Poll option not found.")
	ErrVoteNotFound         = apierrors.NewNotFound("Vote not found.")
	ErrNotificationNotFound = apierrors.NewNotFound("Notification not found.")

	ErrAlreadyMember          = apierrors.NewBadRequest("User is already a member of this household.")
	ErrInvalidInvitation      = apierrors.NewBadRequest("Invalid invitation status.")
	ErrInvalidRole            = apierrors.NewBadRequest("Invalid role.")
	ErrNotAssigned            = apierrors.NewUnauthorized("You are not assigned to this chore.")
	ErrNotSwapTarget          = apierrors.NewUnauthorized("Only the requested user can respond to this swap request.")
	ErrSwapNotPending         = apierrors.NewBadRequest("Swap request is no longer pending.")
	ErrAssigneeNotMember      = apierrors.NewBadRequest("Assigned users must be members of this household.")
	ErrInvalidTimeRange       = apierrors.NewBadRequest("Start time must be before end time.")
	ErrInvalidAmount          = apierrors.NewBadRequest("Amount must be greater than zero.")
	ErrDuplicateReaction      = apierrors.NewBadRequest("You have already reacted with this type.")
	ErrPollNotActive          = apierrors.NewBadRequest("Poll is not active.")
	ErrPollExists             = apierrors.NewBadRequest("Message already has a poll.")
	ErrEmailTaken             = apierrors.NewBadRequest("Email is already registered.")
	ErrPasswordTooShort       = apierrors.NewBadRequest("Password must be at least 8 characters.")
	ErrInvalidCredentials     = apierrors.NewUnauthorized("Invalid email or password.")
	ErrInvalidRefreshToken    = apierrors.NewUnauthorized("Invalid refresh token.")
	ErrSuggestionsUnavailable = errors.New("chore suggestions are not configured")
)

func required(field string) error {
	return apierrors.NewBadRequest(field + " is required.")
}

// notFoundOr maps a missing row to notFound and wraps anything else.
func notFoundOr(err, notFound error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
