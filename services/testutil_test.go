package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/learnhub/api/database"
	"github.com/learnhub/api/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPoolEmail = "pool@learnhub.test"

// newTestDB opens an in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// newTestCoinService seeds the pool account with a funded balance and a
// matching ledger row, then resolves it the way startup does
func newTestCoinService(t *testing.T, db *gorm.DB, balance int64) *CoinService {
	t.Helper()

	pool := &model.User{
		Email:        testPoolEmail,
		PasswordHash: "not-a-real-hash",
		Name:         "Reward Pool",
		Role:         model.RoleAdmin,
		IsActive:     true,
		Coins:        balance,
	}
	require.NoError(t, db.Create(pool).Error)
	require.NoError(t, db.Create(&model.CoinTransaction{
		UserID: pool.ID,
		Amount: balance,
		Type:   model.CoinTransactionEarned,
		Reason: "Initial pool allocation",
	}).Error)

	svc, err := NewCoinService(db, testPoolEmail)
	require.NoError(t, err)
	return svc
}

// createTestUser inserts a user. A non-zero starting balance gets a matching
// ledger row so the ledger-sum invariant holds.
func createTestUser(t *testing.T, db *gorm.DB, email, role string, coins int64) *model.User {
	t.Helper()

	user := &model.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Name:         email,
		Role:         role,
		IsActive:     true,
		Coins:        coins,
	}
	require.NoError(t, db.Create(user).Error)
	if coins != 0 {
		require.NoError(t, db.Create(&model.CoinTransaction{
			UserID: user.ID,
			Amount: coins,
			Type:   model.CoinTransactionEarned,
			Reason: "Starting balance",
		}).Error)
	}
	return user
}

// ledgerSum adds up a user's ledger entries
func ledgerSum(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()

	var sum int64
	err := db.Model(&model.CoinTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	require.NoError(t, err)
	return sum
}

// balanceOf reads a user's cached balance
func balanceOf(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()

	var user model.User
	require.NoError(t, db.First(&user, userID).Error)
	return user.Coins
}
