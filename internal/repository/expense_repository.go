package repository

import (
	"context"
	"time"

	"github.com/yukikurage/household-api/internal/database"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/utils"
	"gorm.io/gorm"
)

// GormExpenseRepository is a GORM implementation of ExpenseRepository
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &GormExpenseRepository{db: db}
}

func preloadExpense(db *gorm.DB) *gorm.DB {
	return db.Preload("PaidBy").Preload("Splits.User").Preload("Receipts")
}

// Create creates an expense together with its splits
func (r *GormExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Omit("PaidBy", "Receipts").Create(expense).Error
}

func (r *GormExpenseRepository) FindByID(ctx context.Context, householdID, expenseID uint64, includeDeleted bool) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.WithContext(ctx).
		Scopes(database.WithDeleted(includeDeleted), preloadExpense).
		Where("household_id = ?", householdID).
		First(&expense, expenseID).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *GormExpenseRepository) List(ctx context.Context, filter ExpenseFilter) ([]models.Expense, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Expense{})
	if filter.IncludeDeleted {
		query = query.Unscoped()
	}
	query = query.Where("household_id = ?", filter.HouseholdID)
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var expenses []models.Expense
	err := query.
		Scopes(preloadExpense, database.Paginate(filter.Pagination)).
		Order("created_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, 0, err
	}

	return expenses, total, nil
}

func (r *GormExpenseRepository) Update(ctx context.Context, expenseID uint64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Expense{}).Where("id = ?", expenseID).Updates(fields).Error
}

func (r *GormExpenseRepository) Delete(ctx context.Context, expenseID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Expense{}, expenseID).Error
}

func (r *GormExpenseRepository) HardDelete(ctx context.Context, expenseID uint64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.Expense{}, expenseID).Error
}

func (r *GormExpenseRepository) ReplaceSplits(ctx context.Context, expenseID uint64, splits []models.ExpenseSplit) error {
	if err := r.DeleteSplits(ctx, expenseID); err != nil {
		return err
	}
	if len(splits) == 0 {
		return nil
	}
	for i := range splits {
		splits[i].ID = 0
		splits[i].ExpenseID = expenseID
	}
	return r.db.WithContext(ctx).Omit("User").Create(&splits).Error
}

func (r *GormExpenseRepository) DeleteSplits(ctx context.Context, expenseID uint64) error {
	return r.db.WithContext(ctx).Where("expense_id = ?", expenseID).Delete(&models.ExpenseSplit{}).Error
}

func (r *GormExpenseRepository) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *GormExpenseRepository) FindReceipt(ctx context.Context, expenseID, receiptID uint64) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).Where("expense_id = ?", expenseID).First(&receipt, receiptID).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *GormExpenseRepository) ListReceipts(ctx context.Context, expenseID uint64) ([]models.Receipt, error) {
	var receipts []models.Receipt
	err := r.db.WithContext(ctx).Where("expense_id = ?", expenseID).Order("created_at ASC").Find(&receipts).Error
	return receipts, err
}

func (r *GormExpenseRepository) DeleteReceipt(ctx context.Context, receiptID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Receipt{}, receiptID).Error
}

func (r *GormExpenseRepository) DeleteReceipts(ctx context.Context, expenseID uint64) error {
	return r.db.WithContext(ctx).Where("expense_id = ?", expenseID).Delete(&models.Receipt{}).Error
}

func (r *GormExpenseRepository) AppendHistory(ctx context.Context, entry *models.ExpenseHistory) error {
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormExpenseRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]models.Expense, error) {
	var expenses []models.Expense
	err := r.db.WithContext(ctx).
		Scopes(liveHousehold("expenses")).
		Preload("Splits").
		Where("expenses.due_date > ? AND expenses.due_date <= ?", from, to).
		Find(&expenses).Error
	return expenses, err
}

// GormTransactionRepository is a GORM implementation of TransactionRepository
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Omit("FromUser", "ToUser").Create(transaction).Error
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, householdID, transactionID uint64) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		Where("household_id = ?", householdID).
		First(&transaction, transactionID).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *GormTransactionRepository) List(ctx context.Context, householdID uint64, pagination utils.PaginationParams) ([]models.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("household_id = ?", householdID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []models.Transaction
	err := query.
		Preload("FromUser").
		Preload("ToUser").
		Scopes(database.Paginate(pagination)).
		Order("created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func (r *GormTransactionRepository) UpdateStatus(ctx context.Context, transactionID uint64, status models.TransactionStatus) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", transactionID).
		Update("status", status).Error
}

func (r *GormTransactionRepository) Delete(ctx context.Context, transactionID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Transaction{}, transactionID).Error
}

func (r *GormTransactionRepository) DeleteByExpense(ctx context.Context, expenseID uint64) error {
	return r.db.WithContext(ctx).Where("expense_id = ?", expenseID).Delete(&models.Transaction{}).Error
}
