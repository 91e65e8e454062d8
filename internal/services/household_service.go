package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/household-api/internal/dto"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"github.com/yukikurage/household-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidHouseholdName = apierrors.NewBadRequest("Household name cannot be empty.")
	ErrCannotRemoveYourself = apierrors.NewBadRequest("You cannot remove yourself from the household.")
)

// HouseholdService manages households and their memberships.
type HouseholdService struct {
	store       *repository.Store
	guard       *MembershipGuard
	broadcaster realtime.Broadcaster
	mailer      EmailSender
	logger      *zap.Logger
}

// NewHouseholdService creates a new HouseholdService.
func NewHouseholdService(store *repository.Store, guard *MembershipGuard, broadcaster realtime.Broadcaster, mailer EmailSender, logger *zap.Logger) *HouseholdService {
	return &HouseholdService{
		store:       store,
		guard:       guard,
		broadcaster: broadcaster,
		mailer:      mailer,
		logger:      logger,
	}
}

// HouseholdInput carries the editable household fields. Nil fields are left unchanged on update.
type HouseholdInput struct {
	Name     *string
	Currency *string
	Icon     *string
	Timezone *string
	Language *string
}

func (in HouseholdInput) apply(h *models.Household) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return ErrInvalidHouseholdName
		}
		h.Name = name
	}
	if in.Currency != nil && *in.Currency != "" {
		h.Currency = strings.ToUpper(*in.Currency)
	}
	if in.Icon != nil {
		h.Icon = *in.Icon
	}
	if in.Timezone != nil && *in.Timezone != "" {
		h.Timezone = *in.Timezone
	}
	if in.Language != nil && *in.Language != "" {
		h.Language = *in.Language
	}
	return nil
}

// CreateHousehold creates a household with the creator as its accepted ADMIN.
func (s *HouseholdService) CreateHousehold(ctx context.Context, input HouseholdInput, creatorID uint64) (*dto.HouseholdDTO, error) {
	if input.Name == nil {
		return nil, required("Name")
	}
	household := &models.Household{Currency: "USD", Timezone: "UTC", Language: "en"}
	if err := input.apply(household); err != nil {
		return nil, err
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		creator, err := tx.Users.FindByID(ctx, creatorID, false)
		if err != nil {
			return notFoundOr(err, ErrUserNotFound, "find user")
		}
		if err := tx.Households.Create(ctx, household); err != nil {
			return fmt.Errorf("failed to create household: %w", err)
		}
		member := &models.HouseholdMember{
			UserID:      creatorID,
			HouseholdID: household.ID,
			Role:        models.RoleAdmin,
			IsAccepted:  true,
			JoinedAt:    now(),
		}
		if err := tx.Members.Create(ctx, member); err != nil {
			return fmt.Errorf("failed to add creator to household: %w", err)
		}
		if creator.ActiveHouseholdID == nil {
			if err := tx.Users.SetActiveHousehold(ctx, creatorID, &household.ID); err != nil {
				return fmt.Errorf("failed to set active household: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadHousehold(ctx, household.ID)
}

// GetHouseholds lists the households in which the user is an active member.
func (s *HouseholdService) GetHouseholds(ctx context.Context, userID uint64) ([]dto.HouseholdDTO, error) {
	households, err := s.store.Households.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list households: %w", err)
	}
	out := make([]dto.HouseholdDTO, 0, len(households))
	for _, h := range households {
		item, err := dto.ToHouseholdDTO(h)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// GetHouseholdByID returns a household with its members.
func (s *HouseholdService) GetHouseholdByID(ctx context.Context, householdID, userID uint64) (*dto.HouseholdDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	return s.loadHousehold(ctx, householdID)
}

// UpdateHousehold changes the household settings.
func (s *HouseholdService) UpdateHousehold(ctx context.Context, householdID uint64, input HouseholdInput, userID uint64) (*dto.HouseholdDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return nil, err
	}

	household, err := s.store.Households.FindByID(ctx, householdID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrHouseholdNotFound, "find household")
	}
	if err := input.apply(household); err != nil {
		return nil, err
	}
	if err := s.store.Households.Update(ctx, household); err != nil {
		return nil, fmt.Errorf("failed to update household: %w", err)
	}

	out, err := s.loadHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventHouseholdUpdate, out)
	return out, nil
}

// DeleteHousehold soft-deletes the household and clears every active-household pointer to it.
func (s *HouseholdService) DeleteHousehold(ctx context.Context, householdID, userID uint64) error {
	if _, err := s.guard.Verify(ctx, householdID, userID, AdminOnly...); err != nil {
		return err
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.ClearActiveHousehold(ctx, householdID); err != nil {
			return fmt.Errorf("failed to clear active household: %w", err)
		}
		if err := tx.Households.Delete(ctx, householdID); err != nil {
			return fmt.Errorf("failed to delete household: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	toHousehold(s.broadcaster, householdID, EventHouseholdDeleted, dto.Deleted(householdID))
	s.logger.Info("household deleted", zap.Uint64("household_id", householdID), zap.Uint64("user_id", userID))
	return nil
}

// GetMembers lists every membership row of the household, invitations included.
func (s *HouseholdService) GetMembers(ctx context.Context, householdID, userID uint64) ([]dto.MemberDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	members, err := s.store.Members.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return dto.ToMemberDTOs(members)
}

// AddMember invites the user registered under email.
func (s *HouseholdService) AddMember(ctx context.Context, householdID uint64, email string, role models.HouseholdRole, actorID uint64) (*dto.MemberDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, actorID, AdminOnly...); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.store.Users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "find user")
	}
	if _, err := s.store.Members.Find(ctx, householdID, user.ID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	member := &models.HouseholdMember{
		UserID:      user.ID,
		HouseholdID: householdID,
		Role:        role,
		IsInvited:   true,
	}
	if err := s.store.Members.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to invite member: %w", err)
	}

	out, err := s.loadMember(ctx, householdID, member.ID)
	if err != nil {
		return nil, err
	}
	toUser(s.broadcaster, user.ID, EventHouseholdInvitation, out)
	toHousehold(s.broadcaster, householdID, EventMemberUpdate, out)
	return out, nil
}

// AcceptOrRejectInvitation answers a pending invitation of the user.
func (s *HouseholdService) AcceptOrRejectInvitation(ctx context.Context, householdID, userID uint64, accept bool) (*dto.MemberDTO, error) {
	member, err := s.store.Members.Find(ctx, householdID, userID)
	if err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound, "find invitation")
	}
	if !member.IsPendingInvitation() {
		return nil, ErrInvalidInvitation
	}

	member.IsInvited = false
	if accept {
		member.IsAccepted = true
		member.JoinedAt = now()
	} else {
		member.IsRejected = true
		member.LeftAt = ptr(now())
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Members.Save(ctx, member); err != nil {
			return fmt.Errorf("failed to update invitation: %w", err)
		}
		if !accept {
			return nil
		}
		user, err := tx.Users.FindByID(ctx, userID, false)
		if err != nil {
			return notFoundOr(err, ErrUserNotFound, "find user")
		}
		if user.ActiveHouseholdID == nil {
			if err := tx.Users.SetActiveHousehold(ctx, userID, &householdID); err != nil {
				return fmt.Errorf("failed to set active household: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := s.loadMember(ctx, householdID, member.ID)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventMemberUpdate, out)
	toUser(s.broadcaster, userID, EventInvitationUpdate, out)
	return out, nil
}

// RemoveMember deletes a membership row.
func (s *HouseholdService) RemoveMember(ctx context.Context, householdID, memberID, actorID uint64) error {
	if _, err := s.guard.Verify(ctx, householdID, actorID, AdminOnly...); err != nil {
		return err
	}

	member, err := s.store.Members.FindByID(ctx, householdID, memberID)
	if err != nil {
		return notFoundOr(err, ErrMemberNotFound, "find member")
	}
	if member.UserID == actorID {
		return ErrCannotRemoveYourself
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Members.Delete(ctx, member.ID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		if err := tx.Users.ClearActiveHousehold(ctx, householdID, member.UserID); err != nil {
			return fmt.Errorf("failed to clear active household: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	payload := dto.Deleted(member.ID)
	toHousehold(s.broadcaster, householdID, EventMemberRemoved, payload)
	toUser(s.broadcaster, member.UserID, EventMemberRemoved, payload)
	revokeAccess(s.broadcaster, member.UserID, householdID)
	return nil
}

// UpdateMemberRole changes the role of a member.
func (s *HouseholdService) UpdateMemberRole(ctx context.Context, householdID, memberID uint64, role models.HouseholdRole, actorID uint64) (*dto.MemberDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, actorID, AdminOnly...); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	member, err := s.store.Members.FindByID(ctx, householdID, memberID)
	if err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound, "find member")
	}
	member.Role = role
	if err := s.store.Members.Save(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	out, err := dto.ToMemberDTO(*member)
	if err != nil {
		return nil, err
	}
	toHousehold(s.broadcaster, householdID, EventMemberUpdate, &out)
	return &out, nil
}

// LeaveHousehold ends the caller's membership.
func (s *HouseholdService) LeaveHousehold(ctx context.Context, householdID, userID uint64) error {
	member, err := s.guard.Verify(ctx, householdID, userID, AnyRole...)
	if err != nil {
		return err
	}

	member.LeftAt = ptr(now())
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Members.Save(ctx, member); err != nil {
			return fmt.Errorf("failed to leave household: %w", err)
		}
		if err := tx.Users.ClearActiveHousehold(ctx, householdID, userID); err != nil {
			return fmt.Errorf("failed to clear active household: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	out, err := s.loadMember(ctx, householdID, member.ID)
	if err != nil {
		return err
	}
	toHousehold(s.broadcaster, householdID, EventMemberUpdate, out)
	revokeAccess(s.broadcaster, userID, householdID)
	return nil
}

// GetPendingInvitations lists the invitations awaiting the user's answer.
func (s *HouseholdService) GetPendingInvitations(ctx context.Context, userID uint64) ([]dto.InvitationDTO, error) {
	members, err := s.store.Members.ListPendingByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	out := make([]dto.InvitationDTO, 0, len(members))
	for _, m := range members {
		// Invitations into a deleted household are not loaded with their household.
		if m.Household == nil {
			continue
		}
		item, err := dto.ToInvitationDTO(m)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// SetActiveHousehold points the user at one of their households.
func (s *HouseholdService) SetActiveHousehold(ctx context.Context, householdID, userID uint64) (*dto.UserDTO, error) {
	if _, err := s.guard.Verify(ctx, householdID, userID, AnyRole...); err != nil {
		return nil, err
	}
	if err := s.store.Users.SetActiveHousehold(ctx, userID, &householdID); err != nil {
		return nil, fmt.Errorf("failed to set active household: %w", err)
	}
	user, err := s.store.Users.FindByID(ctx, userID, false)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "find user")
	}
	out := dto.ToUserDTO(*user)
	return &out, nil
}

// SendInvitationEmail mails an invitation code for the household to email.
func (s *HouseholdService) SendInvitationEmail(ctx context.Context, householdID uint64, email string, actorID uint64) error {
	if _, err := s.guard.Verify(ctx, householdID, actorID, AdminOnly...); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return required("Email")
	}

	household, err := s.store.Households.FindByID(ctx, householdID, false)
	if err != nil {
		return notFoundOr(err, ErrHouseholdNotFound, "find household")
	}
	code, err := utils.GenerateInviteCode()
	if err != nil {
		return fmt.Errorf("failed to generate invitation code: %w", err)
	}

	subject := fmt.Sprintf("You are invited to join %s", household.Name)
	body := fmt.Sprintf("You have been invited to join the household %q.\nInvitation code: %s\n", household.Name, code)
	if err := s.mailer.SendEmail(ctx, email, subject, body); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}

	s.logger.Info("invitation email sent", zap.Uint64("household_id", householdID), zap.Uint64("actor_id", actorID))
	return nil
}

func (s *HouseholdService) loadHousehold(ctx context.Context, householdID uint64) (*dto.HouseholdDTO, error) {
	household, err := s.store.Households.FindWithMembers(ctx, householdID)
	if err != nil {
		return nil, notFoundOr(err, ErrHouseholdNotFound, "find household")
	}
	out, err := dto.ToHouseholdDTO(*household)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *HouseholdService) loadMember(ctx context.Context, householdID, memberID uint64) (*dto.MemberDTO, error) {
	member, err := s.store.Members.FindByID(ctx, householdID, memberID)
	if err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound, "find member")
	}
	out, err := dto.ToMemberDTO(*member)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
