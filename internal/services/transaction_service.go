package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/household-api/internal/dto"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"github.com/yukikurage/household-api/internal/utils"
	"go.uber.org/zap"
)

var (
	ErrTransactionParties      = apierrors.NewBadRequest("Both parties must be different members of this household.")
	ErrInvalidTransactionState = apierrors.NewBadRequest("Invalid transaction status.")
	ErrNotTransactionParty     = apierrors.NewUnauthorized("Only an admin or a party to the transaction can change its status.")
)

// TransactionService manages settlements between members.
type TransactionService struct {
	store       *repository.Store
	guard       *MembershipGuard
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(store *repository.Store, guard *MembershipGuard, broadcaster realtime.Broadcaster, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		store:       store,
		guard:       guard,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// CreateTransactionInput represents parameters to record a settlement.
type CreateTransactionInput struct {
	ExpenseID  *uint64
	FromUserID uint64
	ToUserID   uint64
	Amount     float64
}

// GetTransactions lists the settlements of a household.
func (s *TransactionService) GetTransactions(ctx context.Context, householdID, userID uint64, pagination utils.PaginationParams) (*dto.ListResponse[dto.TransactionDTO], error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}

	txs, total, err := s.store.Transactions.List(ctx, householdID, pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	items, err := dto.ToTransactionDTOs(txs)
	if err != nil {
		return nil, err
	}
	resp := dto.NewListResponse(items, pagination, total)
	return &resp, nil
}

// CreateTransaction records a pending settlement between two members.
func (s *TransactionService) CreateTransaction(ctx context.Context, householdID uint64, input CreateTransactionInput, userID uint64) (*dto.TransactionDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.FromUserID == input.ToUserID {
		return nil, ErrTransactionParties
	}
	if err := requireActiveMembers(ctx, s.store, householdID, []uint64{input.FromUserID, input.ToUserID}, ErrTransactionParties); err != nil {
		return nil, err
	}
	if input.ExpenseID != nil {
		if _, err := s.store.Expenses.FindByID(ctx, householdID, *input.ExpenseID, false); err != nil {
			return nil, notFoundOr(err, ErrExpenseNotFound, "find expense")
		}
	}

	tx := &models.Transaction{
		HouseholdID: householdID,
		ExpenseID:   input.ExpenseID,
		FromUserID:  input.FromUserID,
		ToUserID:    input.ToUserID,
		Amount:      input.Amount,
		Status:      models.TransactionStatusPending,
	}
	if err := s.store.Transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	out, err := s.loadTransaction(ctx, householdID, tx.ID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventTransactionCreated, out)
	return out, nil
}

// UpdateTransactionStatus marks a settlement pending or completed.
func (s *TransactionService) UpdateTransactionStatus(ctx context.Context, householdID, transactionID uint64, status models.TransactionStatus, userID uint64) (*dto.TransactionDTO, error) {
	member, err := s.guard.Verify(ctx, householdID, userID, AnyRole...)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidTransactionState
	}

	tx, err := s.store.Transactions.FindByID(ctx, householdID, transactionID)
	if err != nil {
		return nil, notFoundOr(err, ErrTransactionNotFound, "find transaction")
	}
	if member.Role != models.RoleAdmin && tx.FromUserID != userID && tx.ToUserID != userID {
		return nil, ErrNotTransactionParty
	}
	if err := s.store.Transactions.UpdateStatus(ctx, transactionID, status); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	out, err := s.loadTransaction(ctx, householdID, transactionID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventTransactionUpdated, out)
	return out, nil
}

// DeleteTransaction removes a settlement.
func (s *TransactionService) DeleteTransaction(ctx context.Context, householdID, transactionID, userID uint64) error {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return err
	}
	if _, err := s.store.Transactions.FindByID(ctx, householdID, transactionID); err != nil {
		return notFoundOr(err, ErrTransactionNotFound, "find transaction")
	}
	if err := s.store.Transactions.Delete(ctx, transactionID); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	toHousehold(s.broadcaster, householdID, EventTransactionDeleted, dto.Deleted(transactionID))
	return nil
}

func (s *TransactionService) loadTransaction(ctx context.Context, householdID, transactionID uint64) (*dto.TransactionDTO, error) {
	tx, err := s.store.Transactions.FindByID(ctx, householdID, transactionID)
	if err != nil {
		return nil, notFoundOr(err, ErrTransactionNotFound, "find transaction")
	}
	out, err := dto.ToTransactionDTO(*tx)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
