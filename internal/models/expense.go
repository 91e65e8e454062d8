package models

import (
	"time"

	"gorm.io/gorm"
)

type Expense struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	HouseholdID uint64          `gorm:"not null;index" json:"household_id"`
	Title       string          `gorm:"size:200;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      float64         `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaidByID    uint64          `gorm:"not null" json:"paid_by_id"`
	DueDate     *time.Time      `gorm:"index" json:"due_date"`
	Category    ExpenseCategory `gorm:"type:varchar(20);not null;default:'OTHER'" json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	PaidBy   *User          `gorm:"foreignKey:PaidByID" json:"paid_by,omitempty"`
	Splits   []ExpenseSplit `gorm:"foreignKey:ExpenseID" json:"splits,omitempty"`
	Receipts []Receipt      `gorm:"foreignKey:ExpenseID" json:"receipts,omitempty"`
}

type ExpenseSplit struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ExpenseID uint64    `gorm:"not null;uniqueIndex:idx_expense_splits_expense_user" json:"expense_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_expense_splits_expense_user;index" json:"user_id"`
	Amount    float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Transaction records a settlement between two members.
type Transaction struct {
	ID          uint64            `gorm:"primarykey" json:"id"`
	HouseholdID uint64            `gorm:"not null;index" json:"household_id"`
	ExpenseID   *uint64           `gorm:"index" json:"expense_id"`
	FromUserID  uint64            `gorm:"not null" json:"from_user_id"`
	ToUserID    uint64            `gorm:"not null" json:"to_user_id"`
	Amount      float64           `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status      TransactionStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Relations
	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   *User `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
}

type Receipt struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	ExpenseID uint64         `gorm:"not null;index" json:"expense_id"`
	URL       string         `gorm:"not null" json:"url"`
	FileType  string         `gorm:"size:100" json:"file_type"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type ExpenseHistory struct {
	ID          uint64        `gorm:"primarykey" json:"id"`
	ExpenseID   uint64        `gorm:"not null;index" json:"expense_id"`
	Action      ExpenseAction `gorm:"type:varchar(20);not null" json:"action"`
	ChangedByID *uint64       `json:"changed_by_id"`
	ChangedAt   time.Time     `gorm:"not null" json:"changed_at"`
}

func (ExpenseHistory) TableName() string {
	return "expense_history"
}
