package dto

import (
	"time"

	"github.com/yukikurage/household-api/internal/models"
)

// HouseholdDTO represents a household in API responses
type HouseholdDTO struct {
	ID        uint64      `json:"id"`
	Name      string      `json:"name"`
	Currency  string      `json:"currency"`
	Icon      string      `json:"icon,omitempty"`
	Timezone  string      `json:"timezone"`
	Language  string      `json:"language"`
	CreatedAt time.Time   `json:"created_at"`
	Members   []MemberDTO `json:"members,omitempty"`
}

// MemberDTO represents a household membership
type MemberDTO struct {
	ID          uint64               `json:"id"`
	HouseholdID uint64               `json:"household_id"`
	Role        models.HouseholdRole `json:"role"`
	IsInvited   bool                 `json:"is_invited"`
	IsAccepted  bool                 `json:"is_accepted"`
	IsRejected  bool                 `json:"is_rejected"`
	JoinedAt    *time.Time           `json:"joined_at"`
	LeftAt      *time.Time           `json:"left_at"`
	Nickname    string               `json:"nickname,omitempty"`
	User        UserSummaryDTO       `json:"user"`
}

// InvitationDTO is a pending membership seen by the invited user
type InvitationDTO struct {
	MemberID  uint64               `json:"member_id"`
	Role      models.HouseholdRole `json:"role"`
	Household HouseholdDTO         `json:"household"`
}

// ToHouseholdDTO converts a Household model; members are included when loaded.
func ToHouseholdDTO(household models.Household) (HouseholdDTO, error) {
	out := HouseholdDTO{
		ID:        household.ID,
		Name:      household.Name,
		Currency:  household.Currency,
		Icon:      household.Icon,
		Timezone:  household.Timezone,
		Language:  household.Language,
		CreatedAt: household.CreatedAt,
	}
	if len(household.Members) > 0 {
		members, err := ToMemberDTOs(household.Members)
		if err != nil {
			return HouseholdDTO{}, err
		}
		out.Members = members
	}
	return out, nil
}

// ToMemberDTO converts a membership; the user relation is required.
func ToMemberDTO(member models.HouseholdMember) (MemberDTO, error) {
	if member.User == nil {
		return MemberDTO{}, missing("HouseholdMember", "User")
	}
	return MemberDTO{
		ID:          member.ID,
		HouseholdID: member.HouseholdID,
		Role:        models.NormalizeHouseholdRole(member.Role),
		IsInvited:   member.IsInvited,
		IsAccepted:  member.IsAccepted,
		IsRejected:  member.IsRejected,
		JoinedAt:    timeOrNil(member.JoinedAt),
		LeftAt:      member.LeftAt,
		Nickname:    member.Nickname,
		User:        ToUserSummaryDTO(*member.User),
	}, nil
}

// ToMemberDTOs converts a slice of memberships
func ToMemberDTOs(members []models.HouseholdMember) ([]MemberDTO, error) {
	out := make([]MemberDTO, len(members))
	for i, m := range members {
		dto, err := ToMemberDTO(m)
		if err != nil {
			return nil, err
		}
		out[i] = dto
	}
	return out, nil
}

// ToInvitationDTO converts a pending membership; the household relation is required.
func ToInvitationDTO(member models.HouseholdMember) (InvitationDTO, error) {
	if member.Household == nil {
		return InvitationDTO{}, missing("HouseholdMember", "Household")
	}
	household, err := ToHouseholdDTO(*member.Household)
	if err != nil {
		return InvitationDTO{}, err
	}
	return InvitationDTO{
		MemberID:  member.ID,
		Role:      models.NormalizeHouseholdRole(member.Role),
		Household: household,
	}, nil
}
