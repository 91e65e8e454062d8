package jobs

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/yukikurage/household-api/internal/dto"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"github.com/yukikurage/household-api/internal/services"
	"go.uber.org/zap"
)

const choreEventLength = 24 * time.Hour

// ChoreRotation turns recurring chore templates into dated chore instances.
// Each instance gets a CHORE calendar event and one assignee picked at random
// from the accepted members of the household.
type ChoreRotation struct {
	store       *repository.Store
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
	now         func() time.Time
	pick        func(n int) int
}

func NewChoreRotation(store *repository.Store, broadcaster realtime.Broadcaster, logger *zap.Logger) *ChoreRotation {
	return &ChoreRotation{
		store:       store,
		broadcaster: broadcaster,
		logger:      logger.Named("chore_rotation"),
		now:         func() time.Time { return time.Now().UTC() },
		pick:        rand.Intn,
	}
}

func (j *ChoreRotation) Name() string { return "chore_rotation" }

func (j *ChoreRotation) Run(ctx context.Context) error {
	now := j.now()
	templates, err := j.store.Chores.ListRecurringDue(ctx, now)
	if err != nil {
		return fmt.Errorf("list recurring chores: %w", err)
	}

	byHousehold := make(map[uint64][]models.Chore)
	var order []uint64
	for _, t := range templates {
		if _, ok := byHousehold[t.HouseholdID]; !ok {
			order = append(order, t.HouseholdID)
		}
		byHousehold[t.HouseholdID] = append(byHousehold[t.HouseholdID], t)
	}

	created := 0
	for _, householdID := range order {
		n, err := j.rotateHousehold(ctx, householdID, byHousehold[householdID], now)
		created += n
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			j.logger.Error("household rotation failed", zap.Uint64("household_id", householdID), zap.Error(err))
		}
	}

	j.logger.Info("recurring chores scheduled", zap.Int("templates", len(templates)), zap.Int("created", created))
	return nil
}

func (j *ChoreRotation) rotateHousehold(ctx context.Context, householdID uint64, templates []models.Chore, now time.Time) (int, error) {
	members, err := j.store.Members.ListActiveByHousehold(ctx, householdID)
	if err != nil {
		return 0, fmt.Errorf("list members: %w", err)
	}
	if !hasAdmin(members) {
		j.logger.Warn("household has no admin, skipping", zap.Uint64("household_id", householdID))
		return 0, nil
	}

	created := 0
	var errs []error
	for i := range templates {
		template := &templates[i]
		rule := template.RecurrenceRule
		if rule == nil {
			continue
		}
		if rule.Until != nil && rule.Until.Before(now) {
			continue
		}
		assignee := members[j.pick(len(members))].UserID
		instance, err := j.createInstance(ctx, template, assignee, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("chore %d: %w", template.ID, err))
			continue
		}
		created++

		chore, err := j.store.Chores.FindByID(ctx, householdID, instance.ID, false)
		if err != nil {
			errs = append(errs, fmt.Errorf("reload chore %d: %w", instance.ID, err))
			continue
		}
		j.broadcaster.Publish(realtime.HouseholdChannel(householdID), services.EventChoreCreated, dto.ToChoreDTO(*chore))
	}
	return created, errors.Join(errs...)
}

func (j *ChoreRotation) createInstance(ctx context.Context, template *models.Chore, assignee uint64, now time.Time) (*models.Chore, error) {
	rule := template.RecurrenceRule
	due := rule.Next(now)

	var instance *models.Chore
	err := j.store.Transaction(ctx, func(tx *repository.Store) error {
		event := &models.Event{
			HouseholdID: template.HouseholdID,
			Title:       "Chore: " + template.Title,
			Description: template.Description,
			StartTime:   due,
			EndTime:     due.Add(choreEventLength),
			Category:    models.EventCategoryChore,
			Status:      models.EventStatusScheduled,
		}
		if err := tx.Events.Create(ctx, event); err != nil {
			return fmt.Errorf("create event: %w", err)
		}

		instance = &models.Chore{
			HouseholdID: template.HouseholdID,
			Title:       template.Title,
			Description: template.Description,
			DueDate:     &due,
			Status:      models.ChoreStatusPending,
			Priority:    template.Priority,
			EventID:     &event.ID,
			Assignments: []models.ChoreAssignment{{UserID: assignee, AssignedAt: now}},
		}
		if err := tx.Chores.Create(ctx, instance); err != nil {
			return fmt.Errorf("create chore: %w", err)
		}

		event.ChoreID = &instance.ID
		if err := tx.Events.Update(ctx, event); err != nil {
			return fmt.Errorf("link event: %w", err)
		}
		if err := tx.Events.AppendHistory(ctx, &models.CalendarEventHistory{
			EventID:   event.ID,
			Action:    models.EventActionCreated,
			ChangedAt: now,
		}); err != nil {
			return fmt.Errorf("record event history: %w", err)
		}
		if err := tx.Chores.AppendHistory(ctx, &models.ChoreHistory{
			ChoreID:   instance.ID,
			Action:    models.ChoreActionCreated,
			ChangedAt: now,
		}); err != nil {
			return fmt.Errorf("record chore history: %w", err)
		}

		next := due
		if template.DueDate != nil {
			next = rule.Next(*template.DueDate)
		}
		// A template that fell several periods behind catches up to the
		// next occurrence after now instead of spawning one instance per run.
		if !next.After(now) {
			next = due
		}
		return tx.Chores.Update(ctx, template.ID, map[string]interface{}{"due_date": next})
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func hasAdmin(members []models.HouseholdMember) bool {
	for _, m := range members {
		if m.Role == models.RoleAdmin {
			return true
		}
	}
	return false
}
