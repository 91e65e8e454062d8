package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// compositeIndexes are created after AutoMigrate for the hot list queries.
var compositeIndexes = []struct {
	table   string
	name    string
	columns string
}{
	{"chores", "idx_chores_household_status", "household_id, status"},
	{"chores", "idx_chores_household_due_date", "household_id, due_date"},
	{"expenses", "idx_expenses_household_due_date", "household_id, due_date"},
	{"events", "idx_events_household_start_time", "household_id, start_time"},
	{"messages", "idx_messages_thread_created_at", "thread_id, created_at"},
	{"notifications", "idx_notifications_user_is_read", "user_id, is_read"},
	{"chore_swap_requests", "idx_chore_swap_requests_chore_status", "chore_id, status"},
}

// AddIndexes adds composite indexes that are missing.
func AddIndexes(db *gorm.DB, logger *zap.Logger) error {
	migrator := db.Migrator()
	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logger.Info("created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}

// MigrateDatabase runs AutoMigrate followed by the composite indexes.
func MigrateDatabase(db *gorm.DB, logger *zap.Logger) error {
	if err := Migrate(db); err != nil {
		return err
	}

	if err := AddIndexes(db, logger); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
