// Package dto converts persisted models into the shapes returned by the API
// and pushed over the realtime channels.
//
// Enum fields pass through the models.Normalize* functions: an unknown stored
// value is reported as the type's default rather than failing the read. A
// missing required relation is a data-integrity error and fails loudly with
// ErrMissingRelation.
package dto

import (
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/utils"
)

// ErrMissingRelation reports a required relation that was not loaded.
var ErrMissingRelation = errors.New("required relation not loaded")

func missing(entity, relation string) error {
	return fmt.Errorf("%s.%s: %w", entity, relation, ErrMissingRelation)
}

// ListResponse wraps a page of items
type ListResponse[T any] struct {
	Items      []T                      `json:"items"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// NewListResponse builds a ListResponse, never encoding a nil slice.
func NewListResponse[T any](items []T, params utils.PaginationParams, total int64) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Pagination: utils.NewPaginationResponse(params, total)}
}

// UserDTO represents a user in API responses
type UserDTO struct {
	ID                uint64  `json:"id"`
	Email             string  `json:"email"`
	Name              string  `json:"name"`
	ProfileImageURL   string  `json:"profile_image_url,omitempty"`
	ActiveHouseholdID *uint64 `json:"active_household_id,omitempty"`
}

// UserSummaryDTO is the public part of a user embedded in other entities
type UserSummaryDTO struct {
	ID              uint64 `json:"id"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:                user.ID,
		Email:             user.Email,
		Name:              user.Name,
		ProfileImageURL:   user.ProfileImageURL,
		ActiveHouseholdID: user.ActiveHouseholdID,
	}
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:              user.ID,
		Name:            user.Name,
		ProfileImageURL: user.ProfileImageURL,
	}
}

func optionalUser(user *models.User) *UserSummaryDTO {
	if user == nil {
		return nil
	}
	summary := ToUserSummaryDTO(*user)
	return &summary
}

// DeletedDTO is the payload published when an entity is removed
type DeletedDTO struct {
	ID      uint64 `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Deleted builds a DeletedDTO.
func Deleted(id uint64) DeletedDTO {
	return DeletedDTO{ID: id, Deleted: true}
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
