package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups every repository bound to the same database handle, so a
// service can run several repository calls inside one transaction.
type Store struct {
	db *gorm.DB

	Users         UserRepository
	Households    HouseholdRepository
	Members       MemberRepository
	Chores        ChoreRepository
	Subtasks      SubtaskRepository
	SwapRequests  SwapRequestRepository
	Expenses      ExpenseRepository
	Transactions  TransactionRepository
	Events        EventRepository
	Threads       ThreadRepository
	Messages      MessageRepository
	Polls         PollRepository
	Notifications NotificationRepository
}

// NewStore creates a Store backed by db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Households:    NewHouseholdRepository(db),
		Members:       NewMemberRepository(db),
		Chores:        NewChoreRepository(db),
		Subtasks:      NewSubtaskRepository(db),
		SwapRequests:  NewSwapRequestRepository(db),
		Expenses:      NewExpenseRepository(db),
		Transactions:  NewTransactionRepository(db),
		Events:        NewEventRepository(db),
		Threads:       NewThreadRepository(db),
		Messages:      NewMessageRepository(db),
		Polls:         NewPollRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// Transaction runs fn with a Store bound to a database transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// liveHousehold restricts table's rows to households that are not soft-deleted.
func liveHousehold(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN households ON households.id = " + table + ".household_id AND households.deleted_at IS NULL")
	}
}
