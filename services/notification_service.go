package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/learnhub/api/model"
	"gorm.io/gorm"
)

var (
	// ErrAudienceEmpty means audience resolution produced no recipients
	ErrAudienceEmpty = errors.New("notification audience resolved to no users")
	// ErrAlreadySent means the notification has already been dispatched
	ErrAlreadySent = errors.New("notification has already been sent")
	// ErrScheduleRequired means a scheduled notification is missing its time
	ErrScheduleRequired = errors.New("scheduled notifications require a future scheduled_for time")
)

// NotificationService handles broadcast and targeted notifications. The
// audience is resolved to a recipient snapshot at send time; users created
// afterwards never see the notification.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// CreateNotificationRequest represents an admin's request to create a notification
type CreateNotificationRequest struct {
	Title        string
	Message      string
	Type         model.NotificationType
	Audience     model.NotificationAudience
	TargetUsers  []uint // only for AudienceSpecific
	Priority     model.NotificationPriority
	Link         string
	Icon         string
	SentByID     uint
	Draft        bool
	ScheduledFor *time.Time
}

// Create stores a notification. Drafts stay unsent, scheduled ones wait for
// the dispatcher, everything else fans out immediately.
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*model.Notification, error) {
	notification := &model.Notification{
		Title:          req.Title,
		Message:        req.Message,
		Type:           req.Type,
		TargetAudience: req.Audience,
		Priority:       req.Priority,
		Link:           req.Link,
		Icon:           req.Icon,
		SentByID:       req.SentByID,
	}
	if notification.Type == "" {
		notification.Type = model.NotificationTypeGeneral
	}
	if notification.Priority == "" {
		notification.Priority = model.PriorityMedium
	}
	if notification.TargetAudience == "" {
		notification.TargetAudience = model.AudienceAll
	}

	switch {
	case req.Draft:
		notification.Status = model.NotificationStatusDraft
		if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
			return nil, fmt.Errorf("failed to create draft: %w", err)
		}
		return notification, nil

	case req.ScheduledFor != nil:
		if !req.ScheduledFor.After(time.Now()) {
			return nil, ErrScheduleRequired
		}
		notification.Status = model.NotificationStatusScheduled
		notification.ScheduledFor = req.ScheduledFor
		if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
			return nil, fmt.Errorf("failed to create scheduled notification: %w", err)
		}
		return notification, nil

	default:
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			notification.Status = model.NotificationStatusSent
			now := time.Now()
			notification.SentAt = &now
			if err := tx.Create(notification).Error; err != nil {
				return fmt.Errorf("failed to create notification: %w", err)
			}
			return FanOutTx(tx, notification, req.TargetUsers)
		})
		if err != nil {
			return nil, err
		}
		return notification, nil
	}
}

// FanOutTx resolves the notification's audience and writes the recipient
// snapshot inside the caller's transaction.
func FanOutTx(tx *gorm.DB, notification *model.Notification, targetUsers []uint) error {
	userIDs, err := resolveAudienceTx(tx, notification.TargetAudience, targetUsers)
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return ErrAudienceEmpty
	}

	recipients := make([]model.NotificationRecipient, len(userIDs))
	for i, id := range userIDs {
		recipients[i] = model.NotificationRecipient{
			NotificationID: notification.ID,
			UserID:         id,
		}
	}
	if err := tx.CreateInBatches(&recipients, 500).Error; err != nil {
		return fmt.Errorf("failed to write recipient snapshot: %w", err)
	}
	return nil
}

// resolveAudienceTx maps an abstract audience to concrete active user IDs
func resolveAudienceTx(tx *gorm.DB, audience model.NotificationAudience, targetUsers []uint) ([]uint, error) {
	query := tx.Model(&model.User{}).Where("is_active = ?", true)

	switch audience {
	case model.AudienceAll:
		// no further filter
	case model.AudienceStudents:
		query = query.Where("role = ?", model.RoleUser)
	case model.AudienceInstructors:
		query = query.Where("role = ?", model.RoleAdmin)
	case model.AudienceSpecific:
		if len(targetUsers) == 0 {
			return nil, ErrAudienceEmpty
		}
		query = query.Where("id IN ?", targetUsers)
	default:
		return nil, fmt.Errorf("unknown audience %q", audience)
	}

	var ids []uint
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve audience: %w", err)
	}
	return ids, nil
}

// Send dispatches a draft or scheduled notification immediately
func (s *NotificationService) Send(ctx context.Context, notificationID uint, targetUsers []uint) (*model.Notification, error) {
	var notification model.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&notification, notificationID).Error; err != nil {
			return err
		}
		if notification.Status == model.NotificationStatusSent {
			return ErrAlreadySent
		}

		now := time.Now()
		result := tx.Model(&model.Notification{}).
			Where("id = ? AND status != ?", notificationID, model.NotificationStatusSent).
			Updates(map[string]interface{}{
				"status":  model.NotificationStatusSent,
				"sent_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark notification sent: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadySent
		}

		notification.Status = model.NotificationStatusSent
		notification.SentAt = &now
		return FanOutTx(tx, &notification, targetUsers)
	})
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// DispatchDue promotes every scheduled notification whose time has arrived.
// Called by the cron dispatcher. Returns how many were sent.
func (s *NotificationService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	var due []model.Notification
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", model.NotificationStatusScheduled, now).
		Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query due notifications: %w", err)
	}

	sent := 0
	for _, notification := range due {
		if _, err := s.Send(ctx, notification.ID, nil); err != nil {
			if errors.Is(err, ErrAlreadySent) {
				continue
			}
			log.Printf("Failed to dispatch notification %d: %v", notification.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// FeedOptions filters a user's notification feed
type FeedOptions struct {
	UserID     uint
	UnreadOnly bool
	Limit      int
	Offset     int
}

// Feed returns the user's visible notifications, newest first. Dismissed
// notifications are hidden.
func (s *NotificationService) Feed(ctx context.Context, opts FeedOptions) ([]model.FeedItem, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&model.NotificationRecipient{}).
		Joins("JOIN notifications ON notifications.id = notification_recipients.notification_id").
		Where("notification_recipients.user_id = ? AND notification_recipients.dismissed = ?", opts.UserID, false).
		Where("notifications.deleted_at IS NULL")
	if opts.UnreadOnly {
		query = query.Where("notification_recipients.read_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count feed: %w", err)
	}

	type feedRow struct {
		ID        uint
		Title     string
		Message   string
		Type      model.NotificationType
		Priority  model.NotificationPriority
		Link      string
		Icon      string
		ReadAt    *time.Time
		CreatedAt time.Time
	}
	var rows []feedRow
	err := query.
		Select(`notifications.id, notifications.title, notifications.message,
			notifications.type, notifications.priority, notifications.link,
			notifications.icon, notification_recipients.read_at,
			notifications.created_at`).
		Order("notifications.created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load feed: %w", err)
	}

	items := make([]model.FeedItem, len(rows))
	for i, r := range rows {
		items[i] = model.FeedItem{
			ID:        r.ID,
			Title:     r.Title,
			Message:   r.Message,
			Type:      r.Type,
			Priority:  r.Priority,
			Link:      r.Link,
			Icon:      r.Icon,
			Read:      r.ReadAt != nil,
			CreatedAt: r.CreatedAt,
		}
	}
	return items, total, nil
}

// UnreadCount returns how many undismissed notifications the user has not read
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.NotificationRecipient{}).
		Where("user_id = ? AND read_at IS NULL AND dismissed = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead records that the user has read a notification. Idempotent.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID uint) error {
	now := time.Now()
	result := s.db.WithContext(ctx).
		Model(&model.NotificationRecipient{}).
		Where("notification_id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either already read or not a recipient; only the latter is an error
		var count int64
		err := s.db.WithContext(ctx).
			Model(&model.NotificationRecipient{}).
			Where("notification_id = ? AND user_id = ?", notificationID, userID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// MarkAllRead marks every unread notification for the user as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.NotificationRecipient{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now())
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RemoveRecipient deletes the user's own recipient row, taking the
// notification out of their feed permanently.
func (s *NotificationService) RemoveRecipient(ctx context.Context, notificationID, userID uint) error {
	result := s.db.WithContext(ctx).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Delete(&model.NotificationRecipient{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Dismiss hides a notification from the user's feed. Idempotent.
func (s *NotificationService) Dismiss(ctx context.Context, notificationID, userID uint) error {
	result := s.db.WithContext(ctx).
		Model(&model.NotificationRecipient{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Update("dismissed", true)
	if result.Error != nil {
		return fmt.Errorf("failed to dismiss notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListNotificationsOptions filters the admin notification listing
type ListNotificationsOptions struct {
	Status string
	Type   string
	Limit  int
	Offset int
}

// List returns a page of notifications for the admin console
func (s *NotificationService) List(ctx context.Context, opts ListNotificationsOptions) ([]model.Notification, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Notification{})
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.Type != "" {
		query = query.Where("type = ?", opts.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []model.Notification
	err := query.
		Preload("SentBy").
		Order("created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// Get loads a single notification with its sender
func (s *NotificationService) Get(ctx context.Context, notificationID uint) (*model.Notification, error) {
	var notification model.Notification
	err := s.db.WithContext(ctx).
		Preload("SentBy").
		First(&notification, notificationID).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// Update edits a draft or scheduled notification. Sent ones are immutable.
func (s *NotificationService) Update(ctx context.Context, notificationID uint, updates map[string]interface{}) (*model.Notification, error) {
	var notification model.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&notification, notificationID).Error; err != nil {
			return err
		}
		if notification.Status == model.NotificationStatusSent {
			return ErrAlreadySent
		}
		if err := tx.Model(&notification).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// Delete soft-deletes a notification. Recipients keep their rows but the feed
// join hides them.
func (s *NotificationService) Delete(ctx context.Context, notificationID uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Notification{}, notificationID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NotificationStats summarizes the notification table for the admin console
type NotificationStats struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByType     map[string]int64 `json:"by_type"`
	Recipients int64            `json:"recipients"`
	ReadRate   float64          `json:"read_rate"`
}

// Stats aggregates notification counts by status and type plus the overall
// recipient read rate
func (s *NotificationService) Stats(ctx context.Context) (*NotificationStats, error) {
	stats := &NotificationStats{
		ByStatus: map[string]int64{},
		ByType:   map[string]int64{},
	}
	db := s.db.WithContext(ctx)

	type bucket struct {
		Key   string
		Count int64
	}
	var byStatus []bucket
	err := db.Model(&model.Notification{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by status: %w", err)
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
		stats.Total += b.Count
	}

	var byType []bucket
	err = db.Model(&model.Notification{}).
		Select("type AS key, COUNT(*) AS count").
		Group("type").
		Scan(&byType).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by type: %w", err)
	}
	for _, b := range byType {
		stats.ByType[b.Key] = b.Count
	}

	if err := db.Model(&model.NotificationRecipient{}).Count(&stats.Recipients).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipients: %w", err)
	}
	if stats.Recipients > 0 {
		var read int64
		err := db.Model(&model.NotificationRecipient{}).
			Where("read_at IS NOT NULL").
			Count(&read).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count read recipients: %w", err)
		}
		stats.ReadRate = float64(read) / float64(stats.Recipients)
	}

	return stats, nil
}

// CleanupOld hard-deletes sent notifications older than the retention window
// along with their recipient rows. Returns how many notifications were purged.
func (s *NotificationService) CleanupOld(ctx context.Context, olderThan time.Time) (int64, error) {
	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		err := tx.Unscoped().Model(&model.Notification{}).
			Where("status = ? AND sent_at < ?", model.NotificationStatusSent, olderThan).
			Pluck("id", &ids).Error
		if err != nil {
			return fmt.Errorf("failed to find old notifications: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("notification_id IN ?", ids).
			Delete(&model.NotificationRecipient{}).Error; err != nil {
			return fmt.Errorf("failed to purge recipients: %w", err)
		}

		result := tx.Unscoped().Where("id IN ?", ids).Delete(&model.Notification{})
		if result.Error != nil {
			return fmt.Errorf("failed to purge notifications: %w", result.Error)
		}
		purged = result.RowsAffected
		return nil
	})
	return purged, err
}
