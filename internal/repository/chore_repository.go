package repository

import (
	"context"
	"time"

	"github.com/yukikurage/household-api/internal/database"
	"github.com/yukikurage/household-api/internal/models"
	"gorm.io/gorm"
)

// GormChoreRepository is a GORM implementation of ChoreRepository
type GormChoreRepository struct {
	db *gorm.DB
}

// NewChoreRepository creates a new ChoreRepository
func NewChoreRepository(db *gorm.DB) ChoreRepository {
	return &GormChoreRepository{db: db}
}

func preloadChore(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB { return db.Order("subtasks.id ASC") }).
		Preload("Assignments.User").
		Preload("RecurrenceRule")
}

// Create creates a chore together with its subtasks and assignments
func (r *GormChoreRepository) Create(ctx context.Context, chore *models.Chore) error {
	return r.db.WithContext(ctx).Omit("Household", "RecurrenceRule").Create(chore).Error
}

func (r *GormChoreRepository) FindByID(ctx context.Context, householdID, choreID uint64, includeDeleted bool) (*models.Chore, error) {
	var chore models.Chore
	err := r.db.WithContext(ctx).
		Scopes(database.WithDeleted(includeDeleted), preloadChore).
		Where("household_id = ?", householdID).
		First(&chore, choreID).Error
	if err != nil {
		return nil, err
	}
	return &chore, nil
}

func (r *GormChoreRepository) List(ctx context.Context, filter ChoreFilter) ([]models.Chore, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Chore{})
	if filter.IncludeDeleted {
		query = query.Unscoped()
	}
	query = query.Where("chores.household_id = ?", filter.HouseholdID)

	if filter.Status != nil {
		query = query.Where("chores.status = ?", *filter.Status)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM chore_assignments ca WHERE ca.chore_id = chores.id AND ca.user_id = ?)", *filter.AssignedUserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var chores []models.Chore
	err := query.
		Scopes(preloadChore, database.Paginate(filter.Pagination)).
		Order("chores.due_date IS NULL, chores.due_date ASC, chores.id ASC").
		Find(&chores).Error
	if err != nil {
		return nil, 0, err
	}

	return chores, total, nil
}

func (r *GormChoreRepository) Update(ctx context.Context, choreID uint64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Chore{}).Where("id = ?", choreID).Updates(fields).Error
}

func (r *GormChoreRepository) Delete(ctx context.Context, choreID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Chore{}, choreID).Error
}

func (r *GormChoreRepository) HardDelete(ctx context.Context, choreID uint64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.Chore{}, choreID).Error
}

func (r *GormChoreRepository) ReplaceAssignments(ctx context.Context, choreID uint64, userIDs []uint64) error {
	if err := r.DeleteAssignments(ctx, choreID); err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	now := time.Now()
	assignments := make([]models.ChoreAssignment, len(userIDs))
	for i, userID := range userIDs {
		assignments[i] = models.ChoreAssignment{ChoreID: choreID, UserID: userID, AssignedAt: now}
	}
	return r.db.WithContext(ctx).Create(&assignments).Error
}

func (r *GormChoreRepository) DeleteAssignments(ctx context.Context, choreID uint64) error {
	return r.db.WithContext(ctx).Where("chore_id = ?", choreID).Delete(&models.ChoreAssignment{}).Error
}

func (r *GormChoreRepository) FindAssignment(ctx context.Context, choreID, userID uint64) (*models.ChoreAssignment, error) {
	var assignment models.ChoreAssignment
	err := r.db.WithContext(ctx).
		Where("chore_id = ? AND user_id = ?", choreID, userID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *GormChoreRepository) CreateAssignment(ctx context.Context, assignment *models.ChoreAssignment) error {
	return r.db.WithContext(ctx).Omit("User").Create(assignment).Error
}

func (r *GormChoreRepository) DeleteAssignment(ctx context.Context, choreID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("chore_id = ? AND user_id = ?", choreID, userID).
		Delete(&models.ChoreAssignment{}).Error
}

func (r *GormChoreRepository) AppendHistory(ctx context.Context, entry *models.ChoreHistory) error {
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now()
	}
	return r.db.WithContext(ctx).Omit("ChangedBy").Create(entry).Error
}

func (r *GormChoreRepository) ListHistory(ctx context.Context, choreID uint64) ([]models.ChoreHistory, error) {
	var entries []models.ChoreHistory
	err := r.db.WithContext(ctx).
		Preload("ChangedBy").
		Where("chore_id = ?", choreID).
		Order("changed_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *GormChoreRepository) CreateRecurrenceRule(ctx context.Context, rule *models.RecurrenceRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *GormChoreRepository) ListRecurringDue(ctx context.Context, now time.Time) ([]models.Chore, error) {
	var chores []models.Chore
	err := r.db.WithContext(ctx).
		Scopes(liveHousehold("chores")).
		Preload("RecurrenceRule").
		Where("chores.recurrence_rule_id IS NOT NULL").
		Where("(chores.due_date IS NULL OR chores.due_date <= ?)", now).
		Order("chores.household_id ASC, chores.id ASC").
		Find(&chores).Error
	return chores, err
}

func (r *GormChoreRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]models.Chore, error) {
	var chores []models.Chore
	err := r.db.WithContext(ctx).
		Scopes(liveHousehold("chores")).
		Preload("Assignments").
		Where("chores.due_date > ? AND chores.due_date <= ?", from, to).
		Where("chores.status <> ?", models.ChoreStatusCompleted).
		Find(&chores).Error
	return chores, err
}

// GormSubtaskRepository is a GORM implementation of SubtaskRepository
type GormSubtaskRepository struct {
	db *gorm.DB
}

// NewSubtaskRepository creates a new SubtaskRepository
func NewSubtaskRepository(db *gorm.DB) SubtaskRepository {
	return &GormSubtaskRepository{db: db}
}

func (r *GormSubtaskRepository) Create(ctx context.Context, subtask *models.Subtask) error {
	return r.db.WithContext(ctx).Create(subtask).Error
}

func (r *GormSubtaskRepository) FindByID(ctx context.Context, choreID, subtaskID uint64) (*models.Subtask, error) {
	var subtask models.Subtask
	err := r.db.WithContext(ctx).Where("chore_id = ?", choreID).First(&subtask, subtaskID).Error
	if err != nil {
		return nil, err
	}
	return &subtask, nil
}

func (r *GormSubtaskRepository) ListByChore(ctx context.Context, choreID uint64) ([]models.Subtask, error) {
	var subtasks []models.Subtask
	err := r.db.WithContext(ctx).Where("chore_id = ?", choreID).Order("id ASC").Find(&subtasks).Error
	return subtasks, err
}

func (r *GormSubtaskRepository) Update(ctx context.Context, subtask *models.Subtask) error {
	return r.db.WithContext(ctx).Save(subtask).Error
}

func (r *GormSubtaskRepository) Delete(ctx context.Context, subtaskID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Subtask{}, subtaskID).Error
}

func (r *GormSubtaskRepository) ReplaceAll(ctx context.Context, choreID uint64, subtasks []models.Subtask) error {
	if err := r.DeleteByChore(ctx, choreID); err != nil {
		return err
	}
	if len(subtasks) == 0 {
		return nil
	}
	for i := range subtasks {
		subtasks[i].ID = 0
		subtasks[i].ChoreID = choreID
	}
	return r.db.WithContext(ctx).Create(&subtasks).Error
}

func (r *GormSubtaskRepository) DeleteByChore(ctx context.Context, choreID uint64) error {
	return r.db.WithContext(ctx).Where("chore_id = ?", choreID).Delete(&models.Subtask{}).Error
}

// GormSwapRequestRepository is a GORM implementation of SwapRequestRepository
type GormSwapRequestRepository struct {
	db *gorm.DB
}

// NewSwapRequestRepository creates a new SwapRequestRepository
func NewSwapRequestRepository(db *gorm.DB) SwapRequestRepository {
	return &GormSwapRequestRepository{db: db}
}

func (r *GormSwapRequestRepository) Create(ctx context.Context, request *models.ChoreSwapRequest) error {
	return r.db.WithContext(ctx).Omit("RequestingUser", "TargetUser").Create(request).Error
}

func (r *GormSwapRequestRepository) FindByID(ctx context.Context, id uint64) (*models.ChoreSwapRequest, error) {
	var request models.ChoreSwapRequest
	err := r.db.WithContext(ctx).
		Preload("RequestingUser").
		Preload("TargetUser").
		First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *GormSwapRequestRepository) ListByChore(ctx context.Context, choreID uint64) ([]models.ChoreSwapRequest, error) {
	var requests []models.ChoreSwapRequest
	err := r.db.WithContext(ctx).
		Preload("RequestingUser").
		Preload("TargetUser").
		Where("chore_id = ?", choreID).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *GormSwapRequestRepository) Transition(ctx context.Context, id uint64, from, to models.SwapRequestStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ChoreSwapRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormSwapRequestRepository) RejectPending(ctx context.Context, choreID uint64) error {
	return r.db.WithContext(ctx).Model(&models.ChoreSwapRequest{}).
		Where("chore_id = ? AND status = ?", choreID, models.SwapStatusPending).
		Update("status", models.SwapStatusRejected).Error
}
