package models

import (
	"time"

	"gorm.io/gorm"
)

type Household struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Currency  string         `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Icon      string         `json:"icon,omitempty"`
	Timezone  string         `gorm:"size:64;not null;default:'UTC'" json:"timezone"`
	Language  string         `gorm:"size:8;not null;default:'en'" json:"language"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members []HouseholdMember `gorm:"foreignKey:HouseholdID" json:"members,omitempty"`
}

// HouseholdMember joins a user to a household. The invitation state lives in
// three independent flags; see IsActive for the combination that grants access.
type HouseholdMember struct {
	ID          uint64        `gorm:"primarykey" json:"id"`
	UserID      uint64        `gorm:"not null;uniqueIndex:idx_household_members_user_household" json:"user_id"`
	HouseholdID uint64        `gorm:"not null;uniqueIndex:idx_household_members_user_household;index" json:"household_id"`
	Role        HouseholdRole `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"role"`
	IsInvited   bool          `gorm:"not null;default:false" json:"is_invited"`
	IsAccepted  bool          `gorm:"not null;default:false" json:"is_accepted"`
	IsRejected  bool          `gorm:"not null;default:false" json:"is_rejected"`
	JoinedAt    time.Time     `json:"joined_at"`
	LeftAt      *time.Time    `json:"left_at"`
	Nickname    string        `gorm:"size:100" json:"nickname,omitempty"`

	// Relations
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Household *Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
}

// IsActive reports whether the membership currently grants access.
func (m *HouseholdMember) IsActive() bool {
	return m.IsAccepted && !m.IsRejected && m.LeftAt == nil
}

// IsPendingInvitation reports whether the membership can still be accepted or rejected.
func (m *HouseholdMember) IsPendingInvitation() bool {
	return m.IsInvited && !m.IsAccepted && !m.IsRejected
}
