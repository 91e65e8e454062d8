package models

// All lists every persisted model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Household{},
		&HouseholdMember{},
		&RecurrenceRule{},
		&Chore{},
		&Subtask{},
		&ChoreAssignment{},
		&ChoreSwapRequest{},
		&ChoreHistory{},
		&Expense{},
		&ExpenseSplit{},
		&Transaction{},
		&Receipt{},
		&ExpenseHistory{},
		&Event{},
		&EventReminder{},
		&CalendarEventHistory{},
		&Thread{},
		&ThreadParticipant{},
		&Message{},
		&Attachment{},
		&Reaction{},
		&Mention{},
		&MessageRead{},
		&Poll{},
		&PollOption{},
		&PollVote{},
		&Notification{},
		&NotificationSettings{},
		&PushSubscription{},
	}
}
