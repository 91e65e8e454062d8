// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/household-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a migrated in-memory sqlite database private to the test.
// The shared-cache DSN keeps every pooled connection on the same database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_busy_timeout=5000", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// CreateUser inserts a user with the given email.
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		Name:         strings.Split(email, "@")[0],
		PasswordHash: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateHousehold inserts a household with admin as its accepted ADMIN.
func CreateHousehold(t *testing.T, db *gorm.DB, name string, admin *models.User) *models.Household {
	t.Helper()
	household := &models.Household{Name: name, Currency: "USD", Timezone: "UTC", Language: "en"}
	require.NoError(t, db.Create(household).Error)
	AddMember(t, db, household, admin, models.RoleAdmin)
	return household
}

// AddMember inserts an accepted membership.
func AddMember(t *testing.T, db *gorm.DB, household *models.Household, user *models.User, role models.HouseholdRole) *models.HouseholdMember {
	t.Helper()
	member := &models.HouseholdMember{
		UserID:      user.ID,
		HouseholdID: household.ID,
		Role:        role,
		IsAccepted:  true,
		JoinedAt:    time.Now(),
	}
	require.NoError(t, db.Create(member).Error)
	return member
}
