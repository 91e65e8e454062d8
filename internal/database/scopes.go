package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/household-api/internal/utils"
)

// Paginate applies pagination to a GORM query. A zero limit means the
// default first page.
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	if params.Limit <= 0 {
		params = utils.DefaultPagination()
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// WithDeleted lifts the soft-delete filter when includeDeleted is set.
func WithDeleted(includeDeleted bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if includeDeleted {
			return db.Unscoped()
		}
		return db
	}
}
