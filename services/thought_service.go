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
	// ErrThoughtNotPending means the thought already left the pending state
	ErrThoughtNotPending = errors.New("thought is not pending")
	// ErrThoughtNotOwned means the caller does not own the thought
	ErrThoughtNotOwned = errors.New("thought belongs to another user")
	// ErrThoughtInvalid means the submission failed validation
	ErrThoughtInvalid = errors.New("thought title or message is invalid")
	// ErrReviewNotesRequired means a rejection is missing its explanation
	ErrReviewNotesRequired = errors.New("review notes are required when rejecting")
)

// ThoughtService handles the submit/approve/reject moderation workflow.
// Approval publishes the thought as an announcement and rewards the author.
type ThoughtService struct {
	db          *gorm.DB
	coins       *CoinService
	rewardCoins int64
}

// NewThoughtService creates a new thought service
func NewThoughtService(db *gorm.DB, coins *CoinService, rewardCoins int64) *ThoughtService {
	return &ThoughtService{
		db:          db,
		coins:       coins,
		rewardCoins: rewardCoins,
	}
}

// Submit creates a new pending thought for moderation
func (s *ThoughtService) Submit(ctx context.Context, userID uint, title, message string) (*model.Thought, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" || len(title) > model.MaxThoughtTitleLength {
		return nil, ErrThoughtInvalid
	}
	if message == "" || len(message) > model.MaxThoughtMessageLength {
		return nil, ErrThoughtInvalid
	}

	thought := &model.Thought{
		Title:         title,
		Message:       message,
		SubmittedByID: userID,
		Status:        model.ThoughtStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(thought).Error; err != nil {
		return nil, fmt.Errorf("failed to create thought: %w", err)
	}
	return thought, nil
}

// ApproveRequest shapes the announcement created for an approved thought
type ApproveRequest struct {
	ReviewNotes string
	Audience    model.NotificationAudience // defaults to all
	TargetUsers []uint                     // only for AudienceSpecific
	Priority    model.NotificationPriority // defaults to medium
}

// Approve publishes a pending thought. The status transition, the broadcast
// notification carrying the thought's text, and the author's coin reward
// commit in one transaction. The conditional update on status guarantees a
// thought is approved and rewarded at most once.
func (s *ThoughtService) Approve(ctx context.Context, thoughtID, adminID uint, req ApproveRequest) (*model.Thought, error) {
	if len(req.ReviewNotes) > model.MaxReviewNotesLength {
		return nil, ErrThoughtInvalid
	}
	if req.Audience == "" {
		req.Audience = model.AudienceAll
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}

	var thought model.Thought
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&thought, thoughtID).Error; err != nil {
			return err
		}

		now := time.Now()

		// Publish the thought as an announcement
		notification := model.Notification{
			Title:          thought.Title,
			Message:        thought.Message,
			Type:           model.NotificationTypeAnnouncement,
			TargetAudience: req.Audience,
			Priority:       req.Priority,
			Status:         model.NotificationStatusSent,
			SentAt:         &now,
			SentByID:       adminID,
		}
		if err := tx.Create(&notification).Error; err != nil {
			return fmt.Errorf("failed to create announcement: %w", err)
		}
		if err := FanOutTx(tx, &notification, req.TargetUsers); err != nil {
			return err
		}

		result := tx.Model(&model.Thought{}).
			Where("id = ? AND status = ?", thoughtID, model.ThoughtStatusPending).
			Updates(map[string]interface{}{
				"status":          model.ThoughtStatusApproved,
				"reviewed_by_id":  adminID,
				"reviewed_at":     now,
				"review_notes":    req.ReviewNotes,
				"notification_id": notification.ID,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update thought: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrThoughtNotPending
		}

		// Reward the author from the pool
		thoughtRef := thoughtID
		if err := TransferTx(tx, s.coins.AdminPoolID(), thought.SubmittedByID, s.rewardCoins,
			"Thought approved", nil, &thoughtRef); err != nil {
			return err
		}

		return tx.First(&thought, thoughtID).Error
	})
	if err != nil {
		return nil, err
	}
	return &thought, nil
}

// Reject declines a pending thought. Review notes explaining the rejection
// are mandatory. No coins move and no notification is created.
func (s *ThoughtService) Reject(ctx context.Context, thoughtID, adminID uint, reviewNotes string) (*model.Thought, error) {
	reviewNotes = strings.TrimSpace(reviewNotes)
	if reviewNotes == "" {
		return nil, ErrReviewNotesRequired
	}
	if len(reviewNotes) > model.MaxReviewNotesLength {
		return nil, ErrThoughtInvalid
	}

	var thought model.Thought
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&thought, thoughtID).Error; err != nil {
			return err
		}

		result := tx.Model(&model.Thought{}).
			Where("id = ? AND status = ?", thoughtID, model.ThoughtStatusPending).
			Updates(map[string]interface{}{
				"status":         model.ThoughtStatusRejected,
				"reviewed_by_id": adminID,
				"reviewed_at":    time.Now(),
				"review_notes":   reviewNotes,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update thought: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrThoughtNotPending
		}

		return tx.First(&thought, thoughtID).Error
	})
	if err != nil {
		return nil, err
	}
	return &thought, nil
}

// Delete removes a thought. Regular users may only delete their own thoughts
// while still pending; admins may delete any thought. The announcement created
// by an earlier approval stays published.
func (s *ThoughtService) Delete(ctx context.Context, thoughtID, userID uint, isAdmin bool) error {
	var thought model.Thought
	if err := s.db.WithContext(ctx).First(&thought, thoughtID).Error; err != nil {
		return err
	}

	if !isAdmin {
		if thought.SubmittedByID != userID {
			return ErrThoughtNotOwned
		}
		if thought.Status != model.ThoughtStatusPending {
			return ErrThoughtNotPending
		}
	}

	return s.db.WithContext(ctx).Delete(&thought).Error
}

// ListThoughtsOptions filters thought listings
type ListThoughtsOptions struct {
	UserID uint // zero means all users
	Status string
	Limit  int
	Offset int
}

// List returns a page of thoughts matching the options, newest first
func (s *ThoughtService) List(ctx context.Context, opts ListThoughtsOptions) ([]model.Thought, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Thought{})
	if opts.UserID != 0 {
		query = query.Where("submitted_by_id = ?", opts.UserID)
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count thoughts: %w", err)
	}

	var thoughts []model.Thought
	err := query.
		Preload("SubmittedBy").
		Preload("ReviewedBy").
		Order("created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&thoughts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list thoughts: %w", err)
	}
	return thoughts, total, nil
}

// Get loads a single thought with its participants
func (s *ThoughtService) Get(ctx context.Context, thoughtID uint) (*model.Thought, error) {
	var thought model.Thought
	err := s.db.WithContext(ctx).
		Preload("SubmittedBy").
		Preload("ReviewedBy").
		First(&thought, thoughtID).Error
	if err != nil {
		return nil, err
	}
	return &thought, nil
}

// ThoughtStats summarizes a user's thought activity
type ThoughtStats struct {
	Total       int64 `json:"total"`
	Pending     int64 `json:"pending"`
	Approved    int64 `json:"approved"`
	Rejected    int64 `json:"rejected"`
	CoinsEarned int64 `json:"coins_earned"`
}

// StatsFor aggregates thought counts and earned coins for one user
func (s *ThoughtService) StatsFor(ctx context.Context, userID uint) (*ThoughtStats, error) {
	stats := &ThoughtStats{}
	db := s.db.WithContext(ctx)

	type statusCount struct {
		Status model.ThoughtStatus
		Count  int64
	}
	var counts []statusCount
	err := db.Model(&model.Thought{}).
		Select("status, COUNT(*) as count").
		Where("submitted_by_id = ?", userID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate thoughts: %w", err)
	}

	for _, c := range counts {
		stats.Total += c.Count
		switch c.Status {
		case model.ThoughtStatusPending:
			stats.Pending = c.Count
		case model.ThoughtStatusApproved:
			stats.Approved = c.Count
		case model.ThoughtStatusRejected:
			stats.Rejected = c.Count
		}
	}

	err = db.Model(&model.CoinTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND thought_id IS NOT NULL AND amount > 0", userID).
		Scan(&stats.CoinsEarned).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum thought rewards: %w", err)
	}

	return stats, nil
}
