package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/services"
	"github.com/yukikurage/household-api/internal/utils"
)

type ExpenseHandler struct {
	expenses     *services.ExpenseService
	transactions *services.TransactionService
}

func NewExpenseHandler(expenses *services.ExpenseService, transactions *services.TransactionService) *ExpenseHandler {
	return &ExpenseHandler{
		expenses:     expenses,
		transactions: transactions,
	}
}

type splitRequest struct {
	UserID uint64  `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"gte=0"`
}

func splitInputs(reqs []splitRequest) []services.SplitInput {
	out := make([]services.SplitInput, len(reqs))
	for i, r := range reqs {
		out[i] = services.SplitInput{UserID: r.UserID, Amount: r.Amount}
	}
	return out
}

func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	query := services.ExpenseQuery{Pagination: utils.GetPaginationParams(c)}
	if category := c.Query("category"); category != "" {
		cat := models.ExpenseCategory(category)
		if !cat.Valid() {
			apierrors.BadRequest(c, "Invalid category")
			return
		}
		query.Category = &cat
	}
	expenses, err := h.expenses.GetExpenses(c.Request.Context(), householdID, userID, query)
	respond(c, http.StatusOK, expenses, err)
}

func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "expenseId")
	if !ok {
		return
	}
	expense, err := h.expenses.GetExpenseByID(c.Request.Context(), ids[0], ids[1], userID)
	respond(c, http.StatusOK, expense, err)
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	var req struct {
		Title       string                 `json:"title" binding:"required,max=200"`
		Description string                 `json:"description"`
		Amount      float64                `json:"amount" binding:"gt=0"`
		PaidByID    *uint64                `json:"paid_by_id"`
		DueDate     *time.Time             `json:"due_date"`
		Category    models.ExpenseCategory `json:"category"`
		Splits      []splitRequest         `json:"splits" binding:"dive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	expense, err := h.expenses.CreateExpense(c.Request.Context(), householdID, services.CreateExpenseInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		PaidByID:    req.PaidByID,
		DueDate:     req.DueDate,
		Category:    req.Category,
		Splits:      splitInputs(req.Splits),
	}, userID)
	respond(c, http.StatusCreated, expense, err)
}

func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "expenseId")
	if !ok {
		return
	}
	var req struct {
		Title       *string                 `json:"title" binding:"omitempty,max=200"`
		Description *string                 `json:"description"`
		Amount      *float64                `json:"amount" binding:"omitempty,gt=0"`
		PaidByID    *uint64                 `json:"paid_by_id"`
		DueDate     *time.Time              `json:"due_date"`
		Category    *models.ExpenseCategory `json:"category"`
	}
	if !bindJSON(c, &req) {
		return
	}
	expense, err := h.expenses.UpdateExpense(c.Request.Context(), ids[0], ids[1], services.UpdateExpenseInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		PaidByID:    req.PaidByID,
		DueDate:     req.DueDate,
		Category:    req.Category,
	}, userID)
	respond(c, http.StatusOK, expense, err)
}

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "expenseId")
	if !ok {
		return
	}
	noContent(c, h.expenses.DeleteExpense(c.Request.Context(), ids[0], ids[1], userID))
}

// UpdateSplits replaces how an expense is shared.
func (h *ExpenseHandler) UpdateSplits(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "expenseId")
	if !ok {
		return
	}
	var req struct {
		Splits []splitRequest `json:"splits" binding:"required,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	expense, err := h.expenses.UpdateExpenseSplits(c.Request.Context(), ids[0], ids[1], splitInputs(req.Splits), userID)
	respond(c, http.StatusOK, expense, err)
}

func (h *ExpenseHandler) ListReceipts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "expenseId")
	if !ok {
		return
	}
	receipts, err := h.expenses.GetReceipts(c.Request.Context(), ids[0], ids[1], userID)
	respond(c, http.StatusOK, receipts, err)
}

// UploadReceipt attaches an already stored receipt file to the expense.
func (h *ExpenseHandler) UploadReceipt(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "expenseId")
	if !ok {
		return
	}
	var req struct {
		URL      string `json:"url" binding:"required,url"`
		FileType string `json:"file_type"`
	}
	if !bindJSON(c, &req) {
		return
	}
	receipt, err := h.expenses.UploadReceipt(c.Request.Context(), ids[0], ids[1], services.ReceiptInput{URL: req.URL, FileType: req.FileType}, userID)
	respond(c, http.StatusCreated, receipt, err)
}

func (h *ExpenseHandler) DeleteReceipt(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "expenseId", "receiptId")
	if !ok {
		return
	}
	noContent(c, h.expenses.DeleteReceipt(c.Request.Context(), ids[0], ids[1], ids[2], userID))
}

func (h *ExpenseHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	transactions, err := h.transactions.GetTransactions(c.Request.Context(), householdID, userID, utils.GetPaginationParams(c))
	respond(c, http.StatusOK, transactions, err)
}

// CreateTransaction records a settlement between two members.
func (h *ExpenseHandler) CreateTransaction(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	var req struct {
		ExpenseID  *uint64 `json:"expense_id"`
		FromUserID uint64  `json:"from_user_id" binding:"required"`
		ToUserID   uint64  `json:"to_user_id" binding:"required"`
		Amount     float64 `json:"amount" binding:"gt=0"`
	}
	if !bindJSON(c, &req) {
		return
	}
	transaction, err := h.transactions.CreateTransaction(c.Request.Context(), householdID, services.CreateTransactionInput{
		ExpenseID:  req.ExpenseID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Amount:     req.Amount,
	}, userID)
	respond(c, http.StatusCreated, transaction, err)
}

func (h *ExpenseHandler) UpdateTransactionStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "transactionId")
	if !ok {
		return
	}
	var req struct {
		Status models.TransactionStatus `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	transaction, err := h.transactions.UpdateTransactionStatus(c.Request.Context(), ids[0], ids[1], req.Status, userID)
	respond(c, http.StatusOK, transaction, err)
}

func (h *ExpenseHandler) DeleteTransaction(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "transactionId")
	if !ok {
		return
	}
	noContent(c, h.transactions.DeleteTransaction(c.Request.Context(), ids[0], ids[1], userID))
}
