package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/learnhub/api/model"
	"gorm.io/gorm"
)

var (
	// ErrAdminAccountMissing means the pooled reward account could not be resolved
	ErrAdminAccountMissing = errors.New("admin pool account not found")
	// ErrInsufficientFunds means the sender's balance cannot cover the transfer
	ErrInsufficientFunds = errors.New("insufficient coin balance")
	// ErrInvalidAmount means the transfer amount is zero or negative
	ErrInvalidAmount = errors.New("transfer amount must be positive")
)

// CoinService manages the append-only coin ledger. Every balance change goes
// through a transfer between two accounts; the pooled admin account funds all
// reward payouts.
type CoinService struct {
	db          *gorm.DB
	adminPoolID uint
}

// NewCoinService creates a coin service bound to the pooled admin account.
// The pool account is resolved once at startup by its configured email.
func NewCoinService(db *gorm.DB, adminPoolEmail string) (*CoinService, error) {
	if adminPoolEmail == "" {
		return nil, ErrAdminAccountMissing
	}

	var pool model.User
	if err := db.Where("email = ?", adminPoolEmail).First(&pool).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminAccountMissing
		}
		return nil, fmt.Errorf("failed to resolve admin pool account: %w", err)
	}

	log.Printf("Coin ledger using pool account %d (%s)", pool.ID, pool.Email)
	return &CoinService{db: db, adminPoolID: pool.ID}, nil
}

// AdminPoolID returns the resolved pool account ID
func (s *CoinService) AdminPoolID() uint {
	return s.adminPoolID
}

// Transfer moves coins between two accounts in a single transaction.
// Both balances and both ledger rows commit together or not at all.
func (s *CoinService) Transfer(ctx context.Context, fromID, toID uint, amount int64, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return TransferTx(tx, fromID, toID, amount, reason, nil, nil)
	})
}

// TransferFromPool pays out from the pooled admin account
func (s *CoinService) TransferFromPool(ctx context.Context, toID uint, amount int64, reason string) error {
	return s.Transfer(ctx, s.adminPoolID, toID, amount, reason)
}

// TransferTx performs a transfer inside an existing transaction so callers can
// compose it with other writes (status transitions, notifications). The sender
// balance check uses a conditional update to stay correct under concurrency.
func TransferTx(tx *gorm.DB, fromID, toID uint, amount int64, reason string, doubtID, thoughtID *uint) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return errors.New("cannot transfer coins to the same account")
	}

	// Debit the sender only if the balance covers the amount
	debit := tx.Model(&model.User{}).
		Where("id = ? AND coins >= ?", fromID, amount).
		UpdateColumn("coins", gorm.Expr("coins - ?", amount))
	if debit.Error != nil {
		return fmt.Errorf("failed to debit sender: %w", debit.Error)
	}
	if debit.RowsAffected == 0 {
		// Distinguish a missing account from an underfunded one
		var count int64
		if err := tx.Model(&model.User{}).Where("id = ?", fromID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrInsufficientFunds
	}

	// Credit the receiver
	credit := tx.Model(&model.User{}).
		Where("id = ?", toID).
		UpdateColumn("coins", gorm.Expr("coins + ?", amount))
	if credit.Error != nil {
		return fmt.Errorf("failed to credit receiver: %w", credit.Error)
	}
	if credit.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	// Ledger rows, one per side
	entries := []model.CoinTransaction{
		{
			UserID:    fromID,
			Amount:    -amount,
			Type:      model.CoinTransactionSpent,
			Reason:    reason,
			DoubtID:   doubtID,
			ThoughtID: thoughtID,
		},
		{
			UserID:    toID,
			Amount:    amount,
			Type:      model.CoinTransactionEarned,
			Reason:    reason,
			DoubtID:   doubtID,
			ThoughtID: thoughtID,
		},
	}
	if err := tx.Create(&entries).Error; err != nil {
		return fmt.Errorf("failed to write ledger entries: %w", err)
	}

	return nil
}

// BalanceOf returns a user's current coin balance
func (s *CoinService) BalanceOf(ctx context.Context, userID uint) (int64, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Select("coins").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.Coins, nil
}

// TransactionsFor returns a page of a user's ledger entries, newest first
func (s *CoinService) TransactionsFor(ctx context.Context, userID uint, limit, offset int) ([]model.CoinTransaction, int64, error) {
	var total int64
	query := s.db.WithContext(ctx).Model(&model.CoinTransaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var transactions []model.CoinTransaction
	err := query.
		Preload("Doubt").
		Preload("Thought").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, total, nil
}

// LedgerEntry is a ledger row annotated with the balance after it was applied
// and the title of the doubt or thought that produced it
type LedgerEntry struct {
	model.CoinTransaction
	BalanceAfter int64  `json:"balance_after"`
	Related      string `json:"related,omitempty"`
}

// LedgerFor returns a page of the user's ledger, newest first, with running
// balances. The newest entry on the page lands at the current balance minus
// everything newer than the page.
func (s *CoinService) LedgerFor(ctx context.Context, userID uint, limit, offset int) ([]LedgerEntry, int64, error) {
	transactions, total, err := s.TransactionsFor(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	balance, err := s.BalanceOf(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if offset > 0 {
		newer := s.db.WithContext(ctx).
			Model(&model.CoinTransaction{}).
			Select("amount").
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(offset)

		var newerSum int64
		err := s.db.WithContext(ctx).
			Table("(?) AS newer", newer).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&newerSum).Error
		if err != nil {
			return nil, 0, fmt.Errorf("failed to sum newer ledger entries: %w", err)
		}
		balance -= newerSum
	}

	entries := make([]LedgerEntry, len(transactions))
	running := balance
	for i, txn := range transactions {
		entries[i] = LedgerEntry{
			CoinTransaction: txn,
			BalanceAfter:    running,
		}
		switch {
		case txn.Doubt != nil:
			entries[i].Related = txn.Doubt.Question
		case txn.Thought != nil:
			entries[i].Related = txn.Thought.Title
		}
		running -= txn.Amount
	}
	return entries, total, nil
}

// LeaderboardEntry is one row of the coin leaderboard
type LeaderboardEntry struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Coins  int64  `json:"coins"`
	Rank   int    `json:"rank"`
}

// Leaderboard returns the top regular users by coin balance. Ties break by
// account age, oldest first. The pooled admin account is excluded.
func (s *CoinService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var users []model.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND is_active = ? AND id != ?", model.RoleUser, true, s.adminPoolID).
		Order("coins DESC, created_at ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = LeaderboardEntry{
			UserID: u.ID,
			Name:   u.Name,
			Avatar: u.Avatar,
			Coins:  u.Coins,
			Rank:   i + 1,
		}
	}
	return entries, nil
}

// LedgerDrift is a user whose cached balance disagrees with their ledger sum
type LedgerDrift struct {
	UserID    uint  `json:"user_id"`
	Coins     int64 `json:"coins"`
	LedgerSum int64 `json:"ledger_sum"`
}

// Reconcile compares every user's cached balance against the sum of their
// ledger entries and returns the accounts that drifted. It never mutates.
func (s *CoinService) Reconcile(ctx context.Context) ([]LedgerDrift, error) {
	var drifts []LedgerDrift
	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Select("users.id AS user_id, users.coins AS coins, COALESCE(SUM(coin_transactions.amount), 0) AS ledger_sum").
		Joins("LEFT JOIN coin_transactions ON coin_transactions.user_id = users.id").
		Group("users.id").
		Having("users.coins != COALESCE(SUM(coin_transactions.amount), 0)").
		Scan(&drifts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile ledger: %w", err)
	}
	return drifts, nil
}
