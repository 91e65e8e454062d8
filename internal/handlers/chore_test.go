package handlers

import (
	"net/http"
	"time"

	"github.com/yukikurage/household-api/internal/dto"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/services"
)

func (suite *HandlerTestSuite) createChore(title string, assignees ...uint64) dto.ChoreDTO {
	w := suite.do(http.MethodPost, suite.householdPath("/chores"), map[string]any{
		"title":             title,
		"assigned_user_ids": assignees,
		"subtasks": []map[string]string{
			{"title": "First step"},
			{"title": "Second step"},
		},
	}, suite.admin)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var chore dto.ChoreDTO
	suite.decode(w, &chore)
	return chore
}

func (suite *HandlerTestSuite) TestCreateChore() {
	chore := suite.createChore("Vacuum", suite.member.ID)

	suite.Equal("Vacuum", chore.Title)
	suite.Equal(models.ChoreStatusPending, chore.Status)
	suite.Len(chore.Subtasks, 2)
	suite.Require().Len(chore.Assignments, 1)
	suite.True(suite.bus.Has(realtime.HouseholdChannel(suite.household.ID), services.EventChoreCreated))
}

func (suite *HandlerTestSuite) TestCreateChore_ValidatesBody() {
	w := suite.do(http.MethodPost, suite.householdPath("/chores"), map[string]any{"description": "no title"}, suite.admin)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, suite.householdPath("/chores"), map[string]any{
		"title":             "Dishes",
		"assigned_user_ids": []uint64{suite.outsider.ID},
	}, suite.admin)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListChores_FiltersByAssignee() {
	suite.createChore("Mine", suite.member.ID)
	suite.createChore("Theirs", suite.admin.ID)

	w := suite.do(http.MethodGet, suite.householdPath("/chores?assigned_user_id=%d", suite.member.ID), nil, suite.member)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var page dto.ListResponse[dto.ChoreDTO]
	suite.decode(w, &page)
	suite.Require().Len(page.Items, 1)
	suite.Equal("Mine", page.Items[0].Title)
	suite.EqualValues(1, page.Pagination.Total)
}

func (suite *HandlerTestSuite) TestListChores_RejectsBadAssignee() {
	w := suite.do(http.MethodGet, suite.householdPath("/chores?assigned_user_id=me"), nil, suite.member)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListChores_RejectsUnknownStatus() {
	suite.createChore("Dust", suite.member.ID)

	w := suite.do(http.MethodGet, suite.householdPath("/chores?status=FOO"), nil, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, suite.householdPath("/chores?status=PENDING"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var page dto.ListResponse[dto.ChoreDTO]
	suite.decode(w, &page)
	suite.Len(page.Items, 1)
}

func (suite *HandlerTestSuite) TestCompletingAllSubtasksCompletesChore() {
	chore := suite.createChore("Laundry", suite.member.ID)

	for _, st := range chore.Subtasks {
		w := suite.do(http.MethodPatch, suite.householdPath("/chores/%d/subtasks/%d", chore.ID, st.ID),
			map[string]string{"status": string(models.SubtaskStatusCompleted)}, suite.member)
		suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	}

	w := suite.do(http.MethodGet, suite.householdPath("/chores/%d", chore.ID), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	var got dto.ChoreDTO
	suite.decode(w, &got)
	suite.Equal(models.ChoreStatusCompleted, got.Status)

	w = suite.do(http.MethodGet, suite.householdPath("/chores/%d/history", chore.ID), nil, suite.member)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), string(models.ChoreActionCompleted))
}

func (suite *HandlerTestSuite) TestDeleteChore() {
	chore := suite.createChore("Trash")

	w := suite.do(http.MethodDelete, suite.householdPath("/chores/%d", chore.ID), nil, suite.admin)
	suite.Equal(http.StatusNoContent, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, suite.householdPath("/chores/%d", chore.ID), nil, suite.admin)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestSwapRequestFlow() {
	chore := suite.createChore("Mow lawn", suite.admin.ID)

	w := suite.do(http.MethodPost, suite.householdPath("/chores/%d/swap-requests", chore.ID),
		map[string]uint64{"target_user_id": suite.member.ID}, suite.admin)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var request dto.SwapRequestDTO
	suite.decode(w, &request)
	suite.Equal(models.SwapStatusPending, request.Status)

	path := suite.householdPath("/chores/%d/swap-requests/%d", chore.ID, request.ID)
	w = suite.do(http.MethodPatch, path, map[string]bool{"approve": true}, suite.admin)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodPatch, path, map[string]bool{"approve": true}, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &request)
	suite.Equal(models.SwapStatusApproved, request.Status)

	w = suite.do(http.MethodGet, suite.householdPath("/chores/%d", chore.ID), nil, suite.member)
	var got dto.ChoreDTO
	suite.decode(w, &got)
	suite.Require().Len(got.Assignments, 1)
	suite.Equal(suite.member.ID, got.Assignments[0].UserID)
}

func (suite *HandlerTestSuite) TestSuggestChores_Unconfigured() {
	w := suite.do(http.MethodPost, suite.householdPath("/chores/suggest"), map[string]string{"text": "clean the kitchen"}, suite.member)

	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func (suite *HandlerTestSuite) TestCreateChoreEvent() {
	chore := suite.createChore("Windows")
	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	w := suite.do(http.MethodPost, suite.householdPath("/chores/%d/event", chore.ID), map[string]any{
		"title":      "Windows day",
		"start_time": start,
		"end_time":   start.Add(2 * time.Hour),
	}, suite.admin)

	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var event dto.EventDTO
	suite.decode(w, &event)
	suite.Equal(models.EventCategoryChore, event.Category)
}

func (suite *HandlerTestSuite) TestEvents_CreateListAndStatus() {
	start := time.Date(2030, 5, 4, 18, 0, 0, 0, time.UTC)
	w := suite.do(http.MethodPost, suite.householdPath("/events"), map[string]any{
		"title":      "House meeting",
		"start_time": start,
		"end_time":   start.Add(time.Hour),
		"category":   models.EventCategoryMeeting,
		"reminders": []map[string]any{
			{"type": models.ReminderTypePush, "time": start.Add(-time.Hour)},
		},
	}, suite.member)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var event dto.EventDTO
	suite.decode(w, &event)
	suite.Len(event.Reminders, 1)

	w = suite.do(http.MethodGet, suite.householdPath("/events?date=2030-05-04"), nil, suite.admin)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var events []dto.EventDTO
	suite.decode(w, &events)
	suite.Len(events, 1)

	w = suite.do(http.MethodGet, suite.householdPath("/events?category=PARTY"), nil, suite.admin)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPatch, suite.householdPath("/events/%d/status", event.ID),
		map[string]string{"status": string(models.EventStatusCancelled)}, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &event)
	suite.Equal(models.EventStatusCancelled, event.Status)
}

func (suite *HandlerTestSuite) TestEvents_ManualChoreCategoryRejected() {
	start := time.Now().Add(time.Hour).UTC()
	w := suite.do(http.MethodPost, suite.householdPath("/events"), map[string]any{
		"title":      "Sneaky",
		"start_time": start,
		"end_time":   start.Add(time.Hour),
		"category":   models.EventCategoryChore,
	}, suite.member)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestExpenses_CreateSplitAndSettle() {
	w := suite.do(http.MethodPost, suite.householdPath("/expenses"), map[string]any{
		"title":    "Groceries",
		"amount":   80.5,
		"category": models.ExpenseCategoryGroceries,
		"splits": []map[string]any{
			{"user_id": suite.admin.ID, "amount": 40.25},
			{"user_id": suite.member.ID, "amount": 40.25},
		},
	}, suite.admin)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var expense dto.ExpenseDTO
	suite.decode(w, &expense)
	suite.Equal(suite.admin.ID, expense.PaidByID)
	suite.Len(expense.Splits, 2)

	w = suite.do(http.MethodPost, suite.householdPath("/expenses/%d/receipts", expense.ID),
		map[string]string{"url": "https://files.example.com/r.png", "file_type": "image/png"}, suite.admin)
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, suite.householdPath("/transactions"), map[string]any{
		"expense_id":   expense.ID,
		"from_user_id": suite.member.ID,
		"to_user_id":   suite.admin.ID,
		"amount":       40.25,
	}, suite.member)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var tx dto.TransactionDTO
	suite.decode(w, &tx)
	suite.Equal(models.TransactionStatusPending, tx.Status)

	w = suite.do(http.MethodGet, suite.householdPath("/expenses?category=GROCERIES"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	var page dto.ListResponse[dto.ExpenseDTO]
	suite.decode(w, &page)
	suite.Len(page.Items, 1)

	w = suite.do(http.MethodGet, suite.householdPath("/expenses?category=YACHTS"), nil, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestExpenses_MemberCannotCreate() {
	w := suite.do(http.MethodPost, suite.householdPath("/expenses"), map[string]any{
		"title":  "Snacks",
		"amount": 5,
	}, suite.member)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestExpenses_RejectsNonPositiveAmount() {
	w := suite.do(http.MethodPost, suite.householdPath("/expenses"), map[string]any{
		"title":  "Free lunch",
		"amount": 0,
	}, suite.admin)

	suite.Equal(http.StatusBadRequest, w.Code)
}
