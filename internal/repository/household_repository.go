package repository

import (
	"context"

	"github.com/yukikurage/household-api/internal/database"
	"github.com/yukikurage/household-api/internal/models"
	"gorm.io/gorm"
)

// activeMembership restricts household_members to rows that grant access.
const activeMembership = "household_members.is_accepted = ? AND household_members.is_rejected = ? AND household_members.left_at IS NULL"

// GormHouseholdRepository is a GORM implementation of HouseholdRepository
type GormHouseholdRepository struct {
	db *gorm.DB
}

// NewHouseholdRepository creates a new HouseholdRepository
func NewHouseholdRepository(db *gorm.DB) HouseholdRepository {
	return &GormHouseholdRepository{db: db}
}

func (r *GormHouseholdRepository) Create(ctx context.Context, household *models.Household) error {
	return r.db.WithContext(ctx).Create(household).Error
}

func (r *GormHouseholdRepository) FindByID(ctx context.Context, id uint64, includeDeleted bool) (*models.Household, error) {
	var household models.Household
	if err := r.db.WithContext(ctx).Scopes(database.WithDeleted(includeDeleted)).First(&household, id).Error; err != nil {
		return nil, err
	}
	return &household, nil
}

func (r *GormHouseholdRepository) FindWithMembers(ctx context.Context, id uint64) (*models.Household, error) {
	var household models.Household
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC") }).
		Preload("Members.User").
		First(&household, id).Error
	if err != nil {
		return nil, err
	}
	return &household, nil
}

func (r *GormHouseholdRepository) ListForUser(ctx context.Context, userID uint64) ([]models.Household, error) {
	var households []models.Household
	err := r.db.WithContext(ctx).
		Joins("JOIN household_members ON household_members.household_id = households.id").
		Where("household_members.user_id = ?", userID).
		Where(activeMembership, true, false).
		Order("households.created_at ASC").
		Find(&households).Error
	return households, err
}

func (r *GormHouseholdRepository) Update(ctx context.Context, household *models.Household) error {
	return r.db.WithContext(ctx).Save(household).Error
}

func (r *GormHouseholdRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Household{}, id).Error
}

func (r *GormHouseholdRepository) HardDelete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.Household{}, id).Error
}

// GormMemberRepository is a GORM implementation of MemberRepository
type GormMemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &GormMemberRepository{db: db}
}

func (r *GormMemberRepository) Create(ctx context.Context, member *models.HouseholdMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *GormMemberRepository) Find(ctx context.Context, householdID, userID uint64) (*models.HouseholdMember, error) {
	var member models.HouseholdMember
	err := r.db.WithContext(ctx).
		Scopes(liveHousehold("household_members")).
		Where("household_members.household_id = ? AND household_members.user_id = ?", householdID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *GormMemberRepository) FindByID(ctx context.Context, householdID, memberID uint64) (*models.HouseholdMember, error) {
	var member models.HouseholdMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("household_id = ? AND id = ?", householdID, memberID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *GormMemberRepository) Save(ctx context.Context, member *models.HouseholdMember) error {
	return r.db.WithContext(ctx).Omit("User", "Household").Save(member).Error
}

func (r *GormMemberRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.HouseholdMember{}, id).Error
}

func (r *GormMemberRepository) ListByHousehold(ctx context.Context, householdID uint64) ([]models.HouseholdMember, error) {
	var members []models.HouseholdMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("household_id = ?", householdID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *GormMemberRepository) ListActiveByHousehold(ctx context.Context, householdID uint64) ([]models.HouseholdMember, error) {
	var members []models.HouseholdMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("household_id = ?", householdID).
		Where(activeMembership, true, false).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *GormMemberRepository) ListActiveByUser(ctx context.Context, userID uint64) ([]models.HouseholdMember, error) {
	var members []models.HouseholdMember
	err := r.db.WithContext(ctx).
		Scopes(liveHousehold("household_members")).
		Preload("Household").
		Where("household_members.user_id = ?", userID).
		Where(activeMembership, true, false).
		Find(&members).Error
	return members, err
}

func (r *GormMemberRepository) ListPendingByUser(ctx context.Context, userID uint64) ([]models.HouseholdMember, error) {
	var members []models.HouseholdMember
	err := r.db.WithContext(ctx).
		Preload("Household").
		Where("user_id = ? AND is_invited = ? AND is_accepted = ? AND is_rejected = ?", userID, true, false, false).
		Find(&members).Error
	return members, err
}

func (r *GormMemberRepository) CountActive(ctx context.Context, householdID uint64, userIDs []uint64) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.HouseholdMember{}).
		Where("household_id = ? AND user_id IN ?", householdID, userIDs).
		Where(activeMembership, true, false).
		Count(&count).Error
	return count, err
}
