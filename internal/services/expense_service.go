package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/household-api/internal/dto"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"github.com/yukikurage/household-api/internal/utils"
	"go.uber.org/zap"
)

var (
	ErrInvalidExpenseTitle    = apierrors.NewBadRequest("Expense title cannot be empty.")
	ErrInvalidExpenseCategory = apierrors.NewBadRequest("Invalid expense category.")
	ErrInvalidSplit           = apierrors.NewBadRequest("Split amounts cannot be negative.")
	ErrSplitNotMember         = apierrors.NewBadRequest("Splits must reference members of this household.")
	ErrPayerNotMember         = apierrors.NewBadRequest("The payer must be a member of this household.")
	ErrInvalidReceiptURL      = apierrors.NewBadRequest("Receipt URL is required.")
)

// ExpenseService manages expenses, their splits and receipts.
type ExpenseService struct {
	store       *repository.Store
	guard       *MembershipGuard
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store *repository.Store, guard *MembershipGuard, broadcaster realtime.Broadcaster, logger *zap.Logger) *ExpenseService {
	return &ExpenseService{
		store:       store,
		guard:       guard,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// SplitInput assigns part of an expense to a member.
type SplitInput struct {
	UserID uint64
	Amount float64
}

// CreateExpenseInput represents parameters to create an expense. PaidByID
// defaults to the caller.
type CreateExpenseInput struct {
	Title       string
	Description string
	Amount      float64
	PaidByID    *uint64
	DueDate     *time.Time
	Category    models.ExpenseCategory
	Splits      []SplitInput
}

// UpdateExpenseInput represents parameters to update an expense.
type UpdateExpenseInput struct {
	Title       *string
	Description *string
	Amount      *float64
	PaidByID    *uint64
	DueDate     *time.Time
	Category    *models.ExpenseCategory
}

// ExpenseQuery filters GetExpenses.
type ExpenseQuery struct {
	Category   *models.ExpenseCategory
	Pagination utils.PaginationParams
}

// ReceiptInput describes an uploaded receipt file.
type ReceiptInput struct {
	URL      string
	FileType string
}

// GetExpenses lists the expenses of a household.
func (s *ExpenseService) GetExpenses(ctx context.Context, householdID, userID uint64, query ExpenseQuery) (*dto.ListResponse[dto.ExpenseDTO], error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if query.Category != nil && !query.Category.Valid() {
		return nil, ErrInvalidExpenseCategory
	}

	expenses, total, err := s.store.Expenses.List(ctx, repository.ExpenseFilter{
		HouseholdID: householdID,
		Category:    query.Category,
		Pagination:  query.Pagination,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	resp := dto.NewListResponse(dto.ToExpenseDTOs(expenses), query.Pagination, total)
	return &resp, nil
}

// GetExpenseByID returns an expense of the household.
func (s *ExpenseService) GetExpenseByID(ctx context.Context, householdID, expenseID, userID uint64) (*dto.ExpenseDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	return s.loadExpense(ctx, householdID, expenseID)
}

// CreateExpense records an expense with its splits.
func (s *ExpenseService) CreateExpense(ctx context.Context, householdID uint64, input CreateExpenseInput, userID uint64) (*dto.ExpenseDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidExpenseTitle
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	category := input.Category
	if category == "" {
		category = models.ExpenseCategoryOther
	}
	if !category.Valid() {
		return nil, ErrInvalidExpenseCategory
	}
	paidBy := userID
	if input.PaidByID != nil {
		paidBy = *input.PaidByID
		if err := requireActiveMembers(ctx, s.store, householdID, []uint64{paidBy}, ErrPayerNotMember); err != nil {
			return nil, err
		}
	}
	splits, err := s.buildSplits(ctx, householdID, input.Splits)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		HouseholdID: householdID,
		Title:       title,
		Description: input.Description,
		Amount:      input.Amount,
		PaidByID:    paidBy,
		DueDate:     input.DueDate,
		Category:    category,
		Splits:      splits,
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Expenses.Create(ctx, expense); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}
		return appendExpenseHistory(ctx, tx, expense.ID, models.ExpenseActionCreated, userID)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadExpense(ctx, householdID, expense.ID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventExpenseCreated, out)
	return out, nil
}

// UpdateExpense changes the scalar fields of an expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, householdID, expenseID uint64, input UpdateExpenseInput, userID uint64) (*dto.ExpenseDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return nil, err
	}
	if _, err := s.store.Expenses.FindByID(ctx, householdID, expenseID, false); err != nil {
		return nil, notFoundOr(err, ErrExpenseNotFound, "find expense")
	}

	fields := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrInvalidExpenseTitle
		}
		fields["title"] = title
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Amount != nil {
		if *input.Amount <= 0 {
			return nil, ErrInvalidAmount
		}
		fields["amount"] = *input.Amount
	}
	if input.PaidByID != nil {
		if err := requireActiveMembers(ctx, s.store, householdID, []uint64{*input.PaidByID}, ErrPayerNotMember); err != nil {
			return nil, err
		}
		fields["paid_by_id"] = *input.PaidByID
	}
	if input.DueDate != nil {
		fields["due_date"] = *input.DueDate
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, ErrInvalidExpenseCategory
		}
		fields["category"] = *input.Category
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if len(fields) > 0 {
			if err := tx.Expenses.Update(ctx, expenseID, fields); err != nil {
				return fmt.Errorf("failed to update expense: %w", err)
			}
		}
		return appendExpenseHistory(ctx, tx, expenseID, models.ExpenseActionUpdated, userID)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadExpense(ctx, householdID, expenseID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventExpenseUpdated, out)
	return out, nil
}

// DeleteExpense soft-deletes an expense together with its receipts and
// removes its splits and settlement transactions.
func (s *ExpenseService) DeleteExpense(ctx context.Context, householdID, expenseID, userID uint64) error {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return err
	}
	if _, err := s.store.Expenses.FindByID(ctx, householdID, expenseID, false); err != nil {
		return notFoundOr(err, ErrExpenseNotFound, "find expense")
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Expenses.DeleteSplits(ctx, expenseID); err != nil {
			return fmt.Errorf("failed to delete splits: %w", err)
		}
		if err := tx.Transactions.DeleteByExpense(ctx, expenseID); err != nil {
			return fmt.Errorf("failed to delete transactions: %w", err)
		}
		if err := tx.Expenses.DeleteReceipts(ctx, expenseID); err != nil {
			return fmt.Errorf("failed to delete receipts: %w", err)
		}
		if err := tx.Expenses.Delete(ctx, expenseID); err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		return appendExpenseHistory(ctx, tx, expenseID, models.ExpenseActionDeleted, userID)
	})
	if err != nil {
		return err
	}

	toHousehold(s.broadcaster, householdID, EventExpenseUpdate, dto.Deleted(expenseID))
	return nil
}

// UpdateExpenseSplits replaces the splits of an expense.
func (s *ExpenseService) UpdateExpenseSplits(ctx context.Context, householdID, expenseID uint64, input []SplitInput, userID uint64) (*dto.ExpenseDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return nil, err
	}
	if _, err := s.store.Expenses.FindByID(ctx, householdID, expenseID, false); err != nil {
		return nil, notFoundOr(err, ErrExpenseNotFound, "find expense")
	}
	splits, err := s.buildSplits(ctx, householdID, input)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Expenses.ReplaceSplits(ctx, expenseID, splits); err != nil {
			return fmt.Errorf("failed to replace splits: %w", err)
		}
		return appendExpenseHistory(ctx, tx, expenseID, models.ExpenseActionSplit, userID)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadExpense(ctx, householdID, expenseID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventExpenseSplitsUpdated, out)
	return out, nil
}

// UploadReceipt attaches a stored receipt file to an expense.
func (s *ExpenseService) UploadReceipt(ctx context.Context, householdID, expenseID uint64, input ReceiptInput, userID uint64) (*dto.ReceiptDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, ErrInvalidReceiptURL
	}
	if _, err := s.store.Expenses.FindByID(ctx, householdID, expenseID, false); err != nil {
		return nil, notFoundOr(err, ErrExpenseNotFound, "find expense")
	}

	receipt := &models.Receipt{ExpenseID: expenseID, URL: url, FileType: input.FileType}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Expenses.CreateReceipt(ctx, receipt); err != nil {
			return fmt.Errorf("failed to create receipt: %w", err)
		}
		return appendExpenseHistory(ctx, tx, expenseID, models.ExpenseActionReceiptUploaded, userID)
	})
	if err != nil {
		return nil, err
	}

	out := dto.ToReceiptDTO(*receipt)
	toHousehold(s.broadcaster, householdID, EventReceiptUploaded, &out)
	return &out, nil
}

// GetReceipts lists the receipts of an expense.
func (s *ExpenseService) GetReceipts(ctx context.Context, householdID, expenseID, userID uint64) ([]dto.ReceiptDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if _, err := s.store.Expenses.FindByID(ctx, householdID, expenseID, false); err != nil {
		return nil, notFoundOr(err, ErrExpenseNotFound, "find expense")
	}
	receipts, err := s.store.Expenses.ListReceipts(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	return dto.ToReceiptDTOs(receipts), nil
}

// DeleteReceipt soft-deletes a receipt.
func (s *ExpenseService) DeleteReceipt(ctx context.Context, householdID, expenseID, receiptID, userID uint64) error {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return err
	}
	if _, err := s.store.Expenses.FindByID(ctx, householdID, expenseID, false); err != nil {
		return notFoundOr(err, ErrExpenseNotFound, "find expense")
	}
	if _, err := s.store.Expenses.FindReceipt(ctx, expenseID, receiptID); err != nil {
		return notFoundOr(err, ErrReceiptNotFound, "find receipt")
	}
	if err := s.store.Expenses.DeleteReceipt(ctx, receiptID); err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}

	toHousehold(s.broadcaster, householdID, EventReceiptDeleted, dto.Deleted(receiptID))
	return nil
}

func (s *ExpenseService) buildSplits(ctx context.Context, householdID uint64, input []SplitInput) ([]models.ExpenseSplit, error) {
	splits := make([]models.ExpenseSplit, 0, len(input))
	ids := make([]uint64, 0, len(input))
	for _, in := range input {
		if in.Amount < 0 {
			return nil, ErrInvalidSplit
		}
		splits = append(splits, models.ExpenseSplit{UserID: in.UserID, Amount: in.Amount})
		ids = append(ids, in.UserID)
	}
	unique := uniqueIDs(ids)
	if len(unique) != len(ids) {
		return nil, apierrors.NewBadRequest("Each member can appear in only one split.")
	}
	if err := requireActiveMembers(ctx, s.store, householdID, unique, ErrSplitNotMember); err != nil {
		return nil, err
	}
	return splits, nil
}

func (s *ExpenseService) loadExpense(ctx context.Context, householdID, expenseID uint64) (*dto.ExpenseDTO, error) {
	expense, err := s.store.Expenses.FindByID(ctx, householdID, expenseID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrExpenseNotFound, "find expense")
	}
	out := dto.ToExpenseDTO(*expense)
	return &out, nil
}

func appendExpenseHistory(ctx context.Context, store *repository.Store, expenseID uint64, action models.ExpenseAction, actorID uint64) error {
	entry := &models.ExpenseHistory{ExpenseID: expenseID, Action: action, ChangedByID: &actorID, ChangedAt: now()}
	if err := store.Expenses.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to record expense history: %w", err)
	}
	return nil
}
