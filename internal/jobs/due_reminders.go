package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/household-api/internal/constants"
	"github.com/yukikurage/household-api/internal/dto"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/repository"
	"github.com/yukikurage/household-api/internal/services"
	"go.uber.org/zap"
)

// NotificationCreator stores an in-app notification for one user.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, input services.CreateNotificationInput) (*dto.NotificationDTO, error)
}

// DueReminders notifies assignees of chores and split members of expenses
// that fall due within the lookahead window.
type DueReminders struct {
	store         *repository.Store
	notifications NotificationCreator
	lookahead     time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

func NewDueReminders(store *repository.Store, notifications NotificationCreator, logger *zap.Logger) *DueReminders {
	return &DueReminders{
		store:         store,
		notifications: notifications,
		lookahead:     constants.ReminderLookahead,
		logger:        logger.Named("due_reminders"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (j *DueReminders) Name() string { return "due_reminders" }

func (j *DueReminders) Run(ctx context.Context) error {
	from := j.now()
	to := from.Add(j.lookahead)

	chores, err := j.store.Chores.ListDueBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list due chores: %w", err)
	}
	expenses, err := j.store.Expenses.ListDueBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list due expenses: %w", err)
	}

	var errs []error
	sent := 0
	for _, chore := range chores {
		message := fmt.Sprintf("Reminder: Chore %q is due on %s.", chore.Title, formatDue(chore.DueDate))
		for _, a := range chore.Assignments {
			if a.CompletedAt != nil {
				continue
			}
			_, err := j.notifications.CreateNotification(ctx, services.CreateNotificationInput{
				UserID:      a.UserID,
				HouseholdID: &chore.HouseholdID,
				Type:        models.NotificationTypeChore,
				Message:     message,
				ChoreID:     &chore.ID,
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("chore %d user %d: %w", chore.ID, a.UserID, err))
				continue
			}
			sent++
		}
	}
	for _, expense := range expenses {
		for _, split := range expense.Splits {
			message := fmt.Sprintf("Reminder: You owe %.2f for expense %q due on %s.", split.Amount, expense.Title, formatDue(expense.DueDate))
			_, err := j.notifications.CreateNotification(ctx, services.CreateNotificationInput{
				UserID:      split.UserID,
				HouseholdID: &expense.HouseholdID,
				Type:        models.NotificationTypeExpense,
				Message:     message,
				ExpenseID:   &expense.ID,
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("expense %d user %d: %w", expense.ID, split.UserID, err))
				continue
			}
			sent++
		}
	}

	j.logger.Info("reminders created",
		zap.Int("chores", len(chores)),
		zap.Int("expenses", len(expenses)),
		zap.Int("notifications", sent),
	)
	return errors.Join(errs...)
}

func formatDue(t *time.Time) string {
	if t == nil {
		return "no due date"
	}
	return t.Format("Mon Jan 2 2006")
}
