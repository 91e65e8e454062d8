package dto

import (
	"time"

	"github.com/yukikurage/household-api/internal/models"
)

// ExpenseSplitDTO represents a member's share of an expense
type ExpenseSplitDTO struct {
	UserID uint64          `json:"user_id"`
	Amount float64         `json:"amount"`
	User   *UserSummaryDTO `json:"user,omitempty"`
}

// ReceiptDTO represents an uploaded receipt
type ReceiptDTO struct {
	ID        uint64    `json:"id"`
	ExpenseID uint64    `json:"expense_id"`
	URL       string    `json:"url"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

// ExpenseDTO represents an expense in API responses
type ExpenseDTO struct {
	ID          uint64                 `json:"id"`
	HouseholdID uint64                 `json:"household_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Amount      float64                `json:"amount"`
	PaidByID    uint64                 `json:"paid_by_id"`
	PaidBy      *UserSummaryDTO        `json:"paid_by,omitempty"`
	DueDate     *time.Time             `json:"due_date"`
	Category    models.ExpenseCategory `json:"category"`
	Splits      []ExpenseSplitDTO      `json:"splits"`
	Receipts    []ReceiptDTO           `json:"receipts"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// TransactionDTO represents a settlement between two members
type TransactionDTO struct {
	ID          uint64                   `json:"id"`
	HouseholdID uint64                   `json:"household_id"`
	ExpenseID   *uint64                  `json:"expense_id"`
	Amount      float64                  `json:"amount"`
	Status      models.TransactionStatus `json:"status"`
	FromUser    UserSummaryDTO           `json:"from_user"`
	ToUser      UserSummaryDTO           `json:"to_user"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// ToReceiptDTO converts a Receipt model
func ToReceiptDTO(receipt models.Receipt) ReceiptDTO {
	return ReceiptDTO{
		ID:        receipt.ID,
		ExpenseID: receipt.ExpenseID,
		URL:       receipt.URL,
		FileType:  receipt.FileType,
		CreatedAt: receipt.CreatedAt,
	}
}

// ToReceiptDTOs converts a slice of receipts
func ToReceiptDTOs(receipts []models.Receipt) []ReceiptDTO {
	out := make([]ReceiptDTO, len(receipts))
	for i, r := range receipts {
		out[i] = ToReceiptDTO(r)
	}
	return out
}

// ToExpenseDTO converts an Expense model with its loaded relations
func ToExpenseDTO(expense models.Expense) ExpenseDTO {
	out := ExpenseDTO{
		ID:          expense.ID,
		HouseholdID: expense.HouseholdID,
		Title:       expense.Title,
		Description: expense.Description,
		Amount:      expense.Amount,
		PaidByID:    expense.PaidByID,
		PaidBy:      optionalUser(expense.PaidBy),
		DueDate:     expense.DueDate,
		Category:    models.NormalizeExpenseCategory(expense.Category),
		Splits:      make([]ExpenseSplitDTO, len(expense.Splits)),
		Receipts:    ToReceiptDTOs(expense.Receipts),
		CreatedAt:   expense.CreatedAt,
		UpdatedAt:   expense.UpdatedAt,
	}
	for i, s := range expense.Splits {
		out.Splits[i] = ExpenseSplitDTO{UserID: s.UserID, Amount: s.Amount, User: optionalUser(s.User)}
	}
	return out
}

// ToExpenseDTOs converts a slice of expenses
func ToExpenseDTOs(expenses []models.Expense) []ExpenseDTO {
	out := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		out[i] = ToExpenseDTO(e)
	}
	return out
}

// ToTransactionDTO converts a Transaction; both parties are required.
func ToTransactionDTO(tx models.Transaction) (TransactionDTO, error) {
	if tx.FromUser == nil {
		return TransactionDTO{}, missing("Transaction", "FromUser")
	}
	if tx.ToUser == nil {
		return TransactionDTO{}, missing("Transaction", "ToUser")
	}
	return TransactionDTO{
		ID:          tx.ID,
		HouseholdID: tx.HouseholdID,
		ExpenseID:   tx.ExpenseID,
		Amount:      tx.Amount,
		Status:      models.NormalizeTransactionStatus(tx.Status),
		FromUser:    ToUserSummaryDTO(*tx.FromUser),
		ToUser:      ToUserSummaryDTO(*tx.ToUser),
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}, nil
}

// ToTransactionDTOs converts a slice of transactions
func ToTransactionDTOs(txs []models.Transaction) ([]TransactionDTO, error) {
	out := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dto, err := ToTransactionDTO(tx)
		if err != nil {
			return nil, err
		}
		out[i] = dto
	}
	return out, nil
}
