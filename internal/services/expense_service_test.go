package services

import (
	"time"

	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/utils"
)

func (s *ServiceTestSuite) expenseService() *ExpenseService {
	return NewExpenseService(s.store, s.guard, s.bus, newNopLogger())
}

func (s *ServiceTestSuite) transactionService() *TransactionService {
	return NewTransactionService(s.store, s.guard, s.bus, newNopLogger())
}

func (s *ServiceTestSuite) eventService() *EventService {
	return NewEventService(s.store, s.guard, s.bus, newNopLogger())
}

func (s *ServiceTestSuite) createExpense() uint64 {
	out, err := s.expenseService().CreateExpense(s.ctx, s.household.ID, CreateExpenseInput{
		Title:  "Groceries",
		Amount: 60,
		Splits: []SplitInput{{UserID: s.admin.ID, Amount: 30}, {UserID: s.member.ID, Amount: 30}},
	}, s.admin.ID)
	s.Require().NoError(err)
	return out.ID
}

func (s *ServiceTestSuite) TestCreateExpense() {
	out, err := s.expenseService().CreateExpense(s.ctx, s.household.ID, CreateExpenseInput{
		Title:  "Rent",
		Amount: 1200,
		Splits: []SplitInput{{UserID: s.member.ID, Amount: 600}},
	}, s.admin.ID)
	s.Require().NoError(err)

	s.Equal(s.admin.ID, out.PaidByID)
	s.Equal(models.ExpenseCategoryOther, out.Category)
	s.Len(out.Splits, 1)
	s.True(s.bus.Has(s.householdChannel(), EventExpenseCreated))
}

func (s *ServiceTestSuite) TestCreateExpense_Validation() {
	svc := s.expenseService()

	_, err := svc.CreateExpense(s.ctx, s.household.ID, CreateExpenseInput{Title: "Rent", Amount: 10}, s.member.ID)
	s.ErrorIs(err, ErrAccessDenied)

	_, err = svc.CreateExpense(s.ctx, s.household.ID, CreateExpenseInput{Title: "Rent", Amount: 0}, s.admin.ID)
	s.ErrorIs(err, ErrInvalidAmount)

	_, err = svc.CreateExpense(s.ctx, s.household.ID, CreateExpenseInput{
		Title: "Rent", Amount: 10, Splits: []SplitInput{{UserID: s.outsider.ID, Amount: 5}},
	}, s.admin.ID)
	s.ErrorIs(err, ErrSplitNotMember)

	_, err = svc.CreateExpense(s.ctx, s.household.ID, CreateExpenseInput{
		Title: "Rent", Amount: 10, Splits: []SplitInput{{UserID: s.member.ID, Amount: -1}},
	}, s.admin.ID)
	s.ErrorIs(err, ErrInvalidSplit)
}

func (s *ServiceTestSuite) TestDeleteExpense_RemovesDependents() {
	expenseID := s.createExpense()
	_, err := s.expenseService().UploadReceipt(s.ctx, s.household.ID, expenseID, ReceiptInput{URL: "https://files.example.com/r.png"}, s.member.ID)
	s.Require().NoError(err)
	_, err = s.transactionService().CreateTransaction(s.ctx, s.household.ID, CreateTransactionInput{
		ExpenseID: &expenseID, FromUserID: s.member.ID, ToUserID: s.admin.ID, Amount: 30,
	}, s.member.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.expenseService().DeleteExpense(s.ctx, s.household.ID, expenseID, s.admin.ID))

	_, err = s.expenseService().GetExpenseByID(s.ctx, s.household.ID, expenseID, s.admin.ID)
	s.ErrorIs(err, ErrExpenseNotFound)

	txs, err := s.transactionService().GetTransactions(s.ctx, s.household.ID, s.admin.ID, utils.PaginationParams{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Empty(txs.Items)

	deleted, err := s.store.Expenses.FindByID(s.ctx, s.household.ID, expenseID, true)
	s.Require().NoError(err)
	s.Empty(deleted.Splits)
}

func (s *ServiceTestSuite) TestUpdateExpenseSplits() {
	expenseID := s.createExpense()

	out, err := s.expenseService().UpdateExpenseSplits(s.ctx, s.household.ID, expenseID, []SplitInput{{UserID: s.member.ID, Amount: 60}}, s.admin.ID)
	s.Require().NoError(err)
	s.Require().Len(out.Splits, 1)
	s.Equal(60.0, out.Splits[0].Amount)
	s.True(s.bus.Has(s.householdChannel(), EventExpenseSplitsUpdated))
}

func (s *ServiceTestSuite) TestTransactionStatus_PartiesOrAdmin() {
	third := s.outsider
	s.addActiveMember(third)
	out, err := s.transactionService().CreateTransaction(s.ctx, s.household.ID, CreateTransactionInput{
		FromUserID: s.member.ID, ToUserID: s.admin.ID, Amount: 12.5,
	}, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.TransactionStatusPending, out.Status)

	_, err = s.transactionService().UpdateTransactionStatus(s.ctx, s.household.ID, out.ID, models.TransactionStatusCompleted, third.ID)
	s.ErrorIs(err, ErrNotTransactionParty)

	done, err := s.transactionService().UpdateTransactionStatus(s.ctx, s.household.ID, out.ID, models.TransactionStatusCompleted, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.TransactionStatusCompleted, done.Status)

	_, err = s.transactionService().CreateTransaction(s.ctx, s.household.ID, CreateTransactionInput{
		FromUserID: s.member.ID, ToUserID: s.member.ID, Amount: 1,
	}, s.member.ID)
	s.ErrorIs(err, ErrTransactionParties)
}

func (s *ServiceTestSuite) TestEvents_Lifecycle() {
	svc := s.eventService()
	start := time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC)

	_, err := svc.CreateEvent(s.ctx, s.household.ID, EventInput{Title: "Dinner", StartTime: start, EndTime: start}, s.member.ID)
	s.ErrorIs(err, ErrInvalidTimeRange)

	event, err := svc.CreateEvent(s.ctx, s.household.ID, EventInput{
		Title:     "Dinner",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Category:  models.EventCategorySocial,
		Reminders: []ReminderInput{{Type: models.ReminderTypePush, Time: start.Add(-time.Hour)}},
	}, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.EventStatusScheduled, event.Status)
	s.Len(event.Reminders, 1)
	s.True(s.bus.Has(s.householdChannel(), EventCalendarEventCreated))

	byDate, err := svc.GetEventsByDate(s.ctx, s.household.ID, start, s.admin.ID)
	s.Require().NoError(err)
	s.Len(byDate, 1)

	updated, err := svc.UpdateEvent(s.ctx, s.household.ID, event.ID, UpdateEventInput{
		Recurrence: &RecurrenceInput{Frequency: models.FrequencyWeekly},
	}, s.member.ID)
	s.Require().NoError(err)
	s.NotNil(updated.RecurrenceRuleID)

	cancelled, err := svc.UpdateEventStatus(s.ctx, s.household.ID, event.ID, models.EventStatusCancelled, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.EventStatusCancelled, cancelled.Status)

	s.addActiveMember(s.outsider)
	s.ErrorIs(svc.DeleteEvent(s.ctx, s.household.ID, event.ID, s.outsider.ID), ErrNotEventOwner)
	s.Require().NoError(svc.DeleteEvent(s.ctx, s.household.ID, event.ID, s.member.ID))

	_, err = svc.GetEventByID(s.ctx, s.household.ID, event.ID, s.admin.ID)
	s.ErrorIs(err, ErrEventNotFound)

	var actions []models.CalendarEventAction
	s.Require().NoError(s.db.Model(&models.CalendarEventHistory{}).
		Where("event_id = ?", event.ID).Order("id ASC").Pluck("action", &actions).Error)
	s.Equal([]models.CalendarEventAction{
		models.EventActionCreated,
		models.EventActionRecurrenceChanged,
		models.EventActionStatusChanged,
		models.EventActionDeleted,
	}, actions)
}

func (s *ServiceTestSuite) TestCreateChoreEvent_LinksChore() {
	choreID := s.createChore(nil)
	start := time.Now().Add(24 * time.Hour)
	input := EventInput{StartTime: start, EndTime: start.Add(time.Hour)}

	event, err := s.eventService().CreateChoreEvent(s.ctx, s.household.ID, choreID, input, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.EventCategoryChore, event.Category)
	s.Equal("Dishes", event.Title)

	chore, err := s.choreService().GetChoreByID(s.ctx, s.household.ID, choreID, s.member.ID)
	s.Require().NoError(err)
	s.Require().NotNil(chore.EventID)
	s.Equal(event.ID, *chore.EventID)

	_, err = s.eventService().CreateChoreEvent(s.ctx, s.household.ID, choreID, input, s.member.ID)
	s.ErrorIs(err, ErrChoreHasEvent)

	_, err = s.eventService().CreateEvent(s.ctx, s.household.ID, EventInput{
		Title: "Manual", StartTime: start, EndTime: start.Add(time.Hour), Category: models.EventCategoryChore,
	}, s.member.ID)
	s.ErrorIs(err, ErrManualChoreEvent)
}

func (s *ServiceTestSuite) addActiveMember(user *models.User) {
	s.Require().NoError(s.db.Create(&models.HouseholdMember{
		UserID:      user.ID,
		HouseholdID: s.household.ID,
		Role:        models.RoleMember,
		IsAccepted:  true,
		JoinedAt:    time.Now(),
	}).Error)
}
