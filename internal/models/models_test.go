package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEnums(t *testing.T) {
	assert.Equal(t, ChoreStatusInProgress, NormalizeChoreStatus(ChoreStatusInProgress))
	assert.Equal(t, ChoreStatusPending, NormalizeChoreStatus("ARCHIVED"))
	assert.Equal(t, ChoreStatusPending, NormalizeChoreStatus(""))

	assert.Equal(t, RoleAdmin, NormalizeHouseholdRole(RoleAdmin))
	assert.Equal(t, RoleMember, NormalizeHouseholdRole("OWNER"))

	assert.Equal(t, SubtaskStatusPending, NormalizeSubtaskStatus("done"))
	assert.Equal(t, SwapStatusPending, NormalizeSwapRequestStatus("CANCELLED"))
	assert.Equal(t, TransactionStatusPending, NormalizeTransactionStatus("FAILED"))
	assert.Equal(t, EventStatusScheduled, NormalizeEventStatus("POSTPONED"))
	assert.Equal(t, EventCategoryOther, NormalizeEventCategory("BIRTHDAY"))
	assert.Equal(t, ReminderTypePush, NormalizeReminderType("PIGEON"))
	assert.Equal(t, PollTypeSingleChoice, NormalizePollType("YES_NO"))
	assert.Equal(t, PollStatusOpen, NormalizePollStatus("ARCHIVED"))
	assert.Equal(t, ReactionLike, NormalizeReactionType("CLAP"))
	assert.Equal(t, NotificationTypeOther, NormalizeNotificationType("PROMO"))
	assert.Equal(t, ExpenseCategoryRent, NormalizeExpenseCategory(ExpenseCategoryRent))
}

func TestHouseholdMemberStates(t *testing.T) {
	now := time.Now()

	invited := HouseholdMember{IsInvited: true}
	assert.True(t, invited.IsPendingInvitation())
	assert.False(t, invited.IsActive())

	accepted := HouseholdMember{IsAccepted: true}
	assert.True(t, accepted.IsActive())
	assert.False(t, accepted.IsPendingInvitation())

	left := HouseholdMember{IsAccepted: true, LeftAt: &now}
	assert.False(t, left.IsActive())

	rejected := HouseholdMember{IsInvited: false, IsRejected: true, LeftAt: &now}
	assert.False(t, rejected.IsActive())
	assert.False(t, rejected.IsPendingInvitation())
}

func TestRecurrenceRuleNext(t *testing.T) {
	from := time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		rule RecurrenceRule
		want time.Time
	}{
		{RecurrenceRule{Frequency: FrequencyDaily}, from.AddDate(0, 0, 1)},
		{RecurrenceRule{Frequency: FrequencyDaily, Interval: 3}, from.AddDate(0, 0, 3)},
		{RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1}, from.AddDate(0, 0, 7)},
		{RecurrenceRule{Frequency: FrequencyBiweekly, Interval: 1}, from.AddDate(0, 0, 14)},
		{RecurrenceRule{Frequency: FrequencyMonthly, Interval: 2}, from.AddDate(0, 2, 0)},
		{RecurrenceRule{Frequency: FrequencyQuadrennial, Interval: 1}, from.AddDate(4, 0, 0)},
		{RecurrenceRule{Frequency: FrequencyYearly, Interval: 1}, from.AddDate(1, 0, 0)},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.rule.Next(from), string(tc.rule.Frequency))
	}
}
