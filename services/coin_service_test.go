package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/learnhub/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewCoinService(t *testing.T) {
	db := newTestDB(t)

	t.Run("fails without a pool email", func(t *testing.T) {
		_, err := NewCoinService(db, "")
		assert.ErrorIs(t, err, ErrAdminAccountMissing)
	})

	t.Run("fails when the pool account does not exist", func(t *testing.T) {
		_, err := NewCoinService(db, "nobody@learnhub.test")
		assert.ErrorIs(t, err, ErrAdminAccountMissing)
	})

	t.Run("resolves the pool account", func(t *testing.T) {
		svc := newTestCoinService(t, db, 1000)
		assert.NotZero(t, svc.AdminPoolID())
	})
}

func TestTransfer(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCoinService(t, db, 1000)
	user := createTestUser(t, db, "alice@learnhub.test", model.RoleUser, 0)

	err := svc.TransferFromPool(context.Background(), user.ID, 50, "Doubt answered")
	require.NoError(t, err)

	assert.Equal(t, int64(50), balanceOf(t, db, user.ID))
	assert.Equal(t, int64(950), balanceOf(t, db, svc.AdminPoolID()))

	// Both sides of the transfer appear in the ledger
	var entries []model.CoinTransaction
	require.NoError(t, db.Where("reason = ?", "Doubt answered").Order("amount ASC").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(-50), entries[0].Amount)
	assert.Equal(t, model.CoinTransactionSpent, entries[0].Type)
	assert.Equal(t, svc.AdminPoolID(), entries[0].UserID)
	assert.Equal(t, int64(50), entries[1].Amount)
	assert.Equal(t, model.CoinTransactionEarned, entries[1].Type)
	assert.Equal(t, user.ID, entries[1].UserID)

	// Cached balances agree with the ledger
	assert.Equal(t, balanceOf(t, db, user.ID), ledgerSum(t, db, user.ID))
	assert.Equal(t, balanceOf(t, db, svc.AdminPoolID()), ledgerSum(t, db, svc.AdminPoolID()))
}

func TestTransferInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCoinService(t, db, 10)
	user := createTestUser(t, db, "alice@learnhub.test", model.RoleUser, 0)

	err := svc.TransferFromPool(context.Background(), user.ID, 100, "Too much")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Nothing moved and no ledger rows were written
	assert.Equal(t, int64(10), balanceOf(t, db, svc.AdminPoolID()))
	assert.Equal(t, int64(0), balanceOf(t, db, user.ID))
	var count int64
	require.NoError(t, db.Model(&model.CoinTransaction{}).Where("reason = ?", "Too much").Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransferValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCoinService(t, db, 1000)
	user := createTestUser(t, db, "alice@learnhub.test", model.RoleUser, 0)

	t.Run("rejects zero amount", func(t *testing.T) {
		err := svc.TransferFromPool(context.Background(), user.ID, 0, "Nothing")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		err := svc.TransferFromPool(context.Background(), user.ID, -5, "Negative")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects self transfer", func(t *testing.T) {
		err := svc.Transfer(context.Background(), user.ID, user.ID, 5, "Self")
		assert.Error(t, err)
	})

	t.Run("missing sender", func(t *testing.T) {
		err := svc.Transfer(context.Background(), 9999, user.ID, 5, "Ghost sender")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("missing receiver rolls back the debit", func(t *testing.T) {
		before := balanceOf(t, db, svc.AdminPoolID())
		err := svc.TransferFromPool(context.Background(), 9999, 5, "Ghost receiver")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.Equal(t, before, balanceOf(t, db, svc.AdminPoolID()))
	})
}

func TestBalanceOf(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCoinService(t, db, 1000)
	user := createTestUser(t, db, "alice@learnhub.test", model.RoleUser, 75)

	balance, err := svc.BalanceOf(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(75), balance)

	_, err = svc.BalanceOf(context.Background(), 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTransactionsFor(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCoinService(t, db, 1000)
	user := createTestUser(t, db, "alice@learnhub.test", model.RoleUser, 0)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.TransferFromPool(context.Background(), user.ID, 10, fmt.Sprintf("Reward %d", i)))
	}

	transactions, total, err := svc.TransactionsFor(context.Background(), user.ID, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, transactions, 3)
	for _, tr := range transactions {
		assert.Equal(t, user.ID, tr.UserID)
	}
}

func TestLeaderboard(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCoinService(t, db, 1000)

	alice := createTestUser(t, db, "alice@learnhub.test", model.RoleUser, 30)
	bob := createTestUser(t, db, "bob@learnhub.test", model.RoleUser, 90)
	carol := createTestUser(t, db, "carol@learnhub.test", model.RoleUser, 30)
	createTestUser(t, db, "staff@learnhub.test", model.RoleAdmin, 500)

	inactive := createTestUser(t, db, "gone@learnhub.test", model.RoleUser, 999)
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	entries, err := svc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Highest balance first, ties broken by account age
	assert.Equal(t, bob.ID, entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, alice.ID, entries[1].UserID)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, carol.ID, entries[2].UserID)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestReconcile(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCoinService(t, db, 1000)
	user := createTestUser(t, db, "alice@learnhub.test", model.RoleUser, 0)
	require.NoError(t, svc.TransferFromPool(context.Background(), user.ID, 40, "Reward"))

	t.Run("clean ledger reports no drift", func(t *testing.T) {
		drifts, err := svc.Reconcile(context.Background())
		require.NoError(t, err)
		assert.Empty(t, drifts)
	})

	t.Run("detects a balance that bypassed the ledger", func(t *testing.T) {
		require.NoError(t, db.Model(&model.User{}).
			Where("id = ?", user.ID).
			UpdateColumn("coins", gorm.Expr("coins + ?", 7)).Error)

		drifts, err := svc.Reconcile(context.Background())
		require.NoError(t, err)
		require.Len(t, drifts, 1)
		assert.Equal(t, user.ID, drifts[0].UserID)
		assert.Equal(t, int64(47), drifts[0].Coins)
		assert.Equal(t, int64(40), drifts[0].LedgerSum)

		// Reconcile never mutates
		assert.Equal(t, int64(47), balanceOf(t, db, user.ID))
	})
}

func TestTransferErrorWrapping(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCoinService(t, db, 5)
	user := createTestUser(t, db, "alice@learnhub.test", model.RoleUser, 0)

	err := svc.TransferFromPool(context.Background(), user.ID, 100, "Overdraft")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
}

func TestLedgerFor(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCoinService(t, db, 1000)
	user := createTestUser(t, db, "alice@learnhub.test", model.RoleUser, 0)

	doubt := &model.Doubt{Question: "What is a mutex?", AskedByID: user.ID, Status: model.DoubtStatusAnswered}
	require.NoError(t, db.Create(doubt).Error)

	require.NoError(t, svc.TransferFromPool(context.Background(), user.ID, 10, "Welcome bonus"))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return TransferTx(tx, svc.AdminPoolID(), user.ID, 25, "Doubt answered", &doubt.ID, nil)
	}))

	// Spread the timestamps so the newest-first order is unambiguous
	var rows []model.CoinTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).Order("id ASC").Find(&rows).Error)
	base := time.Now().Add(-time.Hour)
	for i, row := range rows {
		require.NoError(t, db.Model(&model.CoinTransaction{}).Where("id = ?", row.ID).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	entries, total, err := svc.LedgerFor(context.Background(), user.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)

	assert.Equal(t, int64(25), entries[0].Amount)
	assert.Equal(t, int64(35), entries[0].BalanceAfter)
	assert.Equal(t, "What is a mutex?", entries[0].Related)
	assert.Equal(t, int64(10), entries[1].Amount)
	assert.Equal(t, int64(10), entries[1].BalanceAfter)
	assert.Empty(t, entries[1].Related)

	// A later page resumes the running balance where the first page stopped
	entries, _, err = svc.LedgerFor(context.Background(), user.ID, 10, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(10), entries[0].BalanceAfter)
}
