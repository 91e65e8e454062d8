package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID                uint64         `gorm:"primarykey" json:"id"`
	Email             string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name              string         `gorm:"size:100;not null" json:"name"`
	PasswordHash      string         `gorm:"not null" json:"-"`
	ProfileImageURL   string         `json:"profile_image_url,omitempty"`
	ActiveHouseholdID *uint64        `json:"active_household_id"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
