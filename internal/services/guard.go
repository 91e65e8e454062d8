package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/repository"
	"gorm.io/gorm"
)

// Role sets accepted by MembershipGuard.Verify.
var (
	AnyRole   = []models.HouseholdRole{models.RoleAdmin, models.RoleMember}
	AdminOnly = []models.HouseholdRole{models.RoleAdmin}
)

// MembershipGuard is the single authorization check for household-scoped
// operations.
type MembershipGuard struct {
	members repository.MemberRepository
}

// NewMembershipGuard creates a new MembershipGuard.
func NewMembershipGuard(store *repository.Store) *MembershipGuard {
	return &MembershipGuard{members: store.Members}
}

// Verify returns the caller's membership when it is accepted, not rejected,
// not left and holds one of allowedRoles. Every failing condition yields the
// same ErrAccessDenied so callers cannot tell which one failed.
func (g *MembershipGuard) Verify(ctx context.Context, householdID, userID uint64, allowedRoles ...models.HouseholdRole) (*models.HouseholdMember, error) {
	member, err := g.members.Find(ctx, householdID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	if !member.IsActive() || !slices.Contains(allowedRoles, member.Role) {
		return nil, ErrAccessDenied
	}
	return member, nil
}

// ActiveHouseholdIDs lists the households the user currently has access to.
func (g *MembershipGuard) ActiveHouseholdIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	members, err := g.members.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	ids := make([]uint64, len(members))
	for i, m := range members {
		ids[i] = m.HouseholdID
	}
	return ids, nil
}
