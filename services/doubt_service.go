package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/learnhub/api/model"
	"gorm.io/gorm"
)

var (
	// ErrDoubtNotPending means the doubt already left the pending state
	ErrDoubtNotPending = errors.New("doubt is not pending")
	// ErrDoubtAlreadyClosed means the doubt was closed before
	ErrDoubtAlreadyClosed = errors.New("doubt is already closed")
	// ErrDoubtNotOwned means the caller does not own the doubt
	ErrDoubtNotOwned = errors.New("doubt belongs to another user")
	// ErrQuestionInvalid means the submitted question failed validation
	ErrQuestionInvalid = errors.New("question must be between 1 and 1000 characters")
)

// DoubtService handles the question/answer workflow and the coin reward that
// accompanies an answer.
type DoubtService struct {
	db          *gorm.DB
	coins       *CoinService
	rewardCoins int64
}

// NewDoubtService creates a new doubt service
func NewDoubtService(db *gorm.DB, coins *CoinService, rewardCoins int64) *DoubtService {
	return &DoubtService{
		db:          db,
		coins:       coins,
		rewardCoins: rewardCoins,
	}
}

// Submit creates a new pending doubt for the given user
func (s *DoubtService) Submit(ctx context.Context, userID uint, question string) (*model.Doubt, error) {
	question = strings.TrimSpace(question)
	if question == "" || len(question) > model.MaxQuestionLength {
		return nil, ErrQuestionInvalid
	}

	doubt := &model.Doubt{
		Question:  question,
		AskedByID: userID,
		Status:    model.DoubtStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(doubt).Error; err != nil {
		return nil, fmt.Errorf("failed to create doubt: %w", err)
	}
	return doubt, nil
}

// AnswerRequest carries the admin's response to a doubt
type AnswerRequest struct {
	Title       string
	Description string
	URL         string
}

// Answer resolves a pending doubt. The status transition, the coin reward and
// the asker's notification commit in one transaction. The conditional update
// on status guarantees a doubt is rewarded at most once even under concurrent
// answer attempts.
func (s *DoubtService) Answer(ctx context.Context, doubtID, adminID uint, req AnswerRequest) (*model.Doubt, error) {
	var doubt model.Doubt

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&doubt, doubtID).Error; err != nil {
			return err
		}

		now := time.Now()
		result := tx.Model(&model.Doubt{}).
			Where("id = ? AND status = ?", doubtID, model.DoubtStatusPending).
			Updates(map[string]interface{}{
				"status":               model.DoubtStatusAnswered,
				"response_title":       req.Title,
				"response_description": req.Description,
				"response_url":         req.URL,
				"answered_by_id":       adminID,
				"answered_at":          now,
				"coins_awarded":        s.rewardCoins,
				"is_coins_awarded":     true,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update doubt: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrDoubtNotPending
		}

		// Reward the asker from the pool
		doubtRef := doubtID
		if err := TransferTx(tx, s.coins.AdminPoolID(), doubt.AskedByID, s.rewardCoins,
			"Doubt answered", &doubtRef, nil); err != nil {
			return err
		}

		// Tell the asker their question was answered
		notification := model.Notification{
			Title:          "Your doubt has been answered",
			Message:        fmt.Sprintf("An instructor answered your question and you earned %d coins.", s.rewardCoins),
			Type:           model.NotificationTypeGeneral,
			TargetAudience: model.AudienceSpecific,
			Priority:       model.PriorityMedium,
			Status:         model.NotificationStatusSent,
			SentAt:         &now,
			SentByID:       adminID,
		}
		if err := tx.Create(&notification).Error; err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		recipient := model.NotificationRecipient{
			NotificationID: notification.ID,
			UserID:         doubt.AskedByID,
		}
		if err := tx.Create(&recipient).Error; err != nil {
			return fmt.Errorf("failed to create notification recipient: %w", err)
		}

		return tx.First(&doubt, doubtID).Error
	})
	if err != nil {
		return nil, err
	}
	return &doubt, nil
}

// Close marks a doubt as closed without a reward and tells the asker. Pending
// and answered doubts may be closed; closing an already-closed doubt is an
// illegal transition.
func (s *DoubtService) Close(ctx context.Context, doubtID, adminID uint) (*model.Doubt, error) {
	var doubt model.Doubt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&doubt, doubtID).Error; err != nil {
			return err
		}
		if doubt.Status == model.DoubtStatusClosed {
			return ErrDoubtAlreadyClosed
		}

		result := tx.Model(&model.Doubt{}).
			Where("id = ? AND status != ?", doubtID, model.DoubtStatusClosed).
			Update("status", model.DoubtStatusClosed)
		if result.Error != nil {
			return fmt.Errorf("failed to close doubt: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrDoubtAlreadyClosed
		}
		doubt.Status = model.DoubtStatusClosed

		now := time.Now()
		notification := model.Notification{
			Title:          "Your doubt has been closed",
			Message:        "An instructor closed your question without an answer.",
			Type:           model.NotificationTypeGeneral,
			TargetAudience: model.AudienceSpecific,
			Priority:       model.PriorityLow,
			Status:         model.NotificationStatusSent,
			SentAt:         &now,
			SentByID:       adminID,
		}
		if err := tx.Create(&notification).Error; err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		recipient := model.NotificationRecipient{
			NotificationID: notification.ID,
			UserID:         doubt.AskedByID,
		}
		if err := tx.Create(&recipient).Error; err != nil {
			return fmt.Errorf("failed to create notification recipient: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doubt, nil
}

// Delete removes a doubt. Regular users may only delete their own doubts while
// still pending; admins may delete any doubt.
func (s *DoubtService) Delete(ctx context.Context, doubtID, userID uint, isAdmin bool) error {
	var doubt model.Doubt
	if err := s.db.WithContext(ctx).First(&doubt, doubtID).Error; err != nil {
		return err
	}

	if !isAdmin {
		if doubt.AskedByID != userID {
			return ErrDoubtNotOwned
		}
		if doubt.Status != model.DoubtStatusPending {
			return ErrDoubtNotPending
		}
	}

	return s.db.WithContext(ctx).Delete(&doubt).Error
}

// ListDoubtsOptions filters doubt listings
type ListDoubtsOptions struct {
	UserID uint // zero means all users
	Status string
	Search string // case-insensitive substring match on the question
	Limit  int
	Offset int
}

// List returns a page of doubts matching the options, newest first
func (s *DoubtService) List(ctx context.Context, opts ListDoubtsOptions) ([]model.Doubt, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Doubt{})
	if opts.UserID != 0 {
		query = query.Where("asked_by_id = ?", opts.UserID)
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.Search != "" {
		query = query.Where("LOWER(question) LIKE ?", "%"+strings.ToLower(opts.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count doubts: %w", err)
	}

	var doubts []model.Doubt
	err := query.
		Preload("AskedBy").
		Preload("AnsweredBy").
		Order("created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&doubts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list doubts: %w", err)
	}

	return doubts, total, nil
}

// Get loads a single doubt with its participants
func (s *DoubtService) Get(ctx context.Context, doubtID uint) (*model.Doubt, error) {
	var doubt model.Doubt
	err := s.db.WithContext(ctx).
		Preload("AskedBy").
		Preload("AnsweredBy").
		First(&doubt, doubtID).Error
	if err != nil {
		return nil, err
	}
	return &doubt, nil
}

// DoubtStats summarizes a user's doubt activity
type DoubtStats struct {
	Total       int64 `json:"total"`
	Pending     int64 `json:"pending"`
	Answered    int64 `json:"answered"`
	Closed      int64 `json:"closed"`
	CoinsEarned int64 `json:"coins_earned"`
}

// StatsFor aggregates doubt counts and earned coins for one user
func (s *DoubtService) StatsFor(ctx context.Context, userID uint) (*DoubtStats, error) {
	stats := &DoubtStats{}
	db := s.db.WithContext(ctx)

	type statusCount struct {
		Status model.DoubtStatus
		Count  int64
	}
	var counts []statusCount
	err := db.Model(&model.Doubt{}).
		Select("status, COUNT(*) as count").
		Where("asked_by_id = ?", userID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate doubts: %w", err)
	}

	for _, c := range counts {
		stats.Total += c.Count
		switch c.Status {
		case model.DoubtStatusPending:
			stats.Pending = c.Count
		case model.DoubtStatusAnswered:
			stats.Answered = c.Count
		case model.DoubtStatusClosed:
			stats.Closed = c.Count
		}
	}

	// Earned coins come from the ledger, not the doubt projection
	err = db.Model(&model.CoinTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND doubt_id IS NOT NULL AND amount > 0", userID).
		Scan(&stats.CoinsEarned).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum doubt rewards: %w", err)
	}

	return stats, nil
}
