package services

import (
	"context"
	"testing"
	"time"

	"github.com/learnhub/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newNotificationFixture(t *testing.T) (*gorm.DB, *NotificationService, *model.User, *model.User) {
	t.Helper()

	db := newTestDB(t)
	svc := NewNotificationService(db)
	admin := createTestUser(t, db, "admin@learnhub.test", model.RoleAdmin, 0)
	student := createTestUser(t, db, "student@learnhub.test", model.RoleUser, 0)
	return db, svc, admin, student
}

func recipientCount(t *testing.T, db *gorm.DB, notificationID uint) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&model.NotificationRecipient{}).
		Where("notification_id = ?", notificationID).Count(&count).Error)
	return count
}

func TestNotificationCreateImmediate(t *testing.T) {
	db, svc, admin, student := newNotificationFixture(t)

	inactive := createTestUser(t, db, "gone@learnhub.test", model.RoleUser, 0)
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	notification, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:    "Welcome",
		Message:  "The platform is live.",
		SentByID: admin.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, model.NotificationStatusSent, notification.Status)
	assert.NotNil(t, notification.SentAt)
	assert.Equal(t, model.NotificationTypeGeneral, notification.Type)
	assert.Equal(t, model.AudienceAll, notification.TargetAudience)
	assert.Equal(t, model.PriorityMedium, notification.Priority)

	// Inactive users are excluded from the snapshot
	assert.Equal(t, int64(2), recipientCount(t, db, notification.ID))

	// Users created after the fan-out never join the snapshot
	createTestUser(t, db, "late@learnhub.test", model.RoleUser, 0)
	assert.Equal(t, int64(2), recipientCount(t, db, notification.ID))

	feed, total, err := svc.Feed(context.Background(), FeedOptions{UserID: student.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, feed, 1)
	assert.Equal(t, "Welcome", feed[0].Title)
	assert.False(t, feed[0].Read)
}

func TestNotificationAudiences(t *testing.T) {
	db, svc, admin, student := newNotificationFixture(t)

	t.Run("students audience targets regular users", func(t *testing.T) {
		notification, err := svc.Create(context.Background(), CreateNotificationRequest{
			Title:    "For students",
			Message:  "Assignment due.",
			Audience: model.AudienceStudents,
			SentByID: admin.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), recipientCount(t, db, notification.ID))
	})

	t.Run("instructors audience targets admins", func(t *testing.T) {
		notification, err := svc.Create(context.Background(), CreateNotificationRequest{
			Title:    "For instructors",
			Message:  "Moderation queue is growing.",
			Audience: model.AudienceInstructors,
			SentByID: admin.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), recipientCount(t, db, notification.ID))
	})

	t.Run("specific audience needs target users", func(t *testing.T) {
		_, err := svc.Create(context.Background(), CreateNotificationRequest{
			Title:    "For nobody",
			Message:  "Empty.",
			Audience: model.AudienceSpecific,
			SentByID: admin.ID,
		})
		assert.ErrorIs(t, err, ErrAudienceEmpty)
	})

	t.Run("specific audience snapshots the named users", func(t *testing.T) {
		notification, err := svc.Create(context.Background(), CreateNotificationRequest{
			Title:       "Just you",
			Message:     "Personal note.",
			Audience:    model.AudienceSpecific,
			TargetUsers: []uint{student.ID},
			SentByID:    admin.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), recipientCount(t, db, notification.ID))
	})
}

func TestNotificationDraftAndSchedule(t *testing.T) {
	db, svc, admin, _ := newNotificationFixture(t)

	t.Run("drafts stay unsent", func(t *testing.T) {
		notification, err := svc.Create(context.Background(), CreateNotificationRequest{
			Title:    "Draft",
			Message:  "Work in progress.",
			SentByID: admin.ID,
			Draft:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, model.NotificationStatusDraft, notification.Status)
		assert.Nil(t, notification.SentAt)
		assert.Zero(t, recipientCount(t, db, notification.ID))
	})

	t.Run("scheduling requires a future time", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := svc.Create(context.Background(), CreateNotificationRequest{
			Title:        "Too late",
			Message:      "Message.",
			SentByID:     admin.ID,
			ScheduledFor: &past,
		})
		assert.ErrorIs(t, err, ErrScheduleRequired)
	})

	t.Run("scheduled notifications wait for the dispatcher", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		notification, err := svc.Create(context.Background(), CreateNotificationRequest{
			Title:        "Later",
			Message:      "Message.",
			SentByID:     admin.ID,
			ScheduledFor: &future,
		})
		require.NoError(t, err)
		assert.Equal(t, model.NotificationStatusScheduled, notification.Status)
		assert.Zero(t, recipientCount(t, db, notification.ID))
	})
}

func TestNotificationSend(t *testing.T) {
	db, svc, admin, _ := newNotificationFixture(t)

	draft, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:    "Draft",
		Message:  "Ready to go.",
		SentByID: admin.ID,
		Draft:    true,
	})
	require.NoError(t, err)

	sent, err := svc.Send(context.Background(), draft.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.NotificationStatusSent, sent.Status)
	assert.NotNil(t, sent.SentAt)
	assert.Equal(t, int64(2), recipientCount(t, db, draft.ID))

	_, err = svc.Send(context.Background(), draft.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadySent)

	// Sending twice never duplicates the snapshot
	assert.Equal(t, int64(2), recipientCount(t, db, draft.ID))
}

func TestNotificationDispatchDue(t *testing.T) {
	db, svc, admin, _ := newNotificationFixture(t)

	due := time.Now().Add(time.Minute)
	scheduled, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:        "Scheduled",
		Message:      "Message.",
		SentByID:     admin.ID,
		ScheduledFor: &due,
	})
	require.NoError(t, err)

	farOff := time.Now().Add(24 * time.Hour)
	notYet, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:        "Not yet",
		Message:      "Message.",
		SentByID:     admin.ID,
		ScheduledFor: &farOff,
	})
	require.NoError(t, err)

	sent, err := svc.DispatchDue(context.Background(), time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	var dispatched model.Notification
	require.NoError(t, db.First(&dispatched, scheduled.ID).Error)
	assert.Equal(t, model.NotificationStatusSent, dispatched.Status)

	var waiting model.Notification
	require.NoError(t, db.First(&waiting, notYet.ID).Error)
	assert.Equal(t, model.NotificationStatusScheduled, waiting.Status)

	// Re-running past the same moment sends nothing new
	sent, err = svc.DispatchDue(context.Background(), time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestNotificationReadState(t *testing.T) {
	_, svc, admin, student := newNotificationFixture(t)

	first, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:    "First",
		Message:  "Message.",
		SentByID: admin.ID,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateNotificationRequest{
		Title:    "Second",
		Message:  "Message.",
		SentByID: admin.ID,
	})
	require.NoError(t, err)

	count, err := svc.UnreadCount(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, svc.MarkRead(context.Background(), first.ID, student.ID))

	count, err = svc.UnreadCount(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Marking read twice is fine
	require.NoError(t, svc.MarkRead(context.Background(), first.ID, student.ID))

	// A non-recipient cannot mark read
	stranger := createTestUser(t, svc.db, "late@learnhub.test", model.RoleUser, 0)
	err = svc.MarkRead(context.Background(), first.ID, stranger.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	marked, err := svc.MarkAllRead(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	unreadOnly, total, err := svc.Feed(context.Background(), FeedOptions{UserID: student.ID, UnreadOnly: true, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, unreadOnly)
}

func TestNotificationDismiss(t *testing.T) {
	_, svc, admin, student := newNotificationFixture(t)

	notification, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:    "Dismiss me",
		Message:  "Message.",
		SentByID: admin.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Dismiss(context.Background(), notification.ID, student.ID))

	feed, total, err := svc.Feed(context.Background(), FeedOptions{UserID: student.ID, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, feed)

	// Dismissed notifications drop out of the unread count too
	count, err := svc.UnreadCount(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	err = svc.Dismiss(context.Background(), 9999, student.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestNotificationUpdate(t *testing.T) {
	_, svc, admin, _ := newNotificationFixture(t)

	t.Run("drafts are editable", func(t *testing.T) {
		draft, err := svc.Create(context.Background(), CreateNotificationRequest{
			Title:    "Draft",
			Message:  "Original.",
			SentByID: admin.ID,
			Draft:    true,
		})
		require.NoError(t, err)

		updated, err := svc.Update(context.Background(), draft.ID, map[string]interface{}{
			"title": "Edited",
		})
		require.NoError(t, err)
		assert.Equal(t, "Edited", updated.Title)
	})

	t.Run("sent notifications are immutable", func(t *testing.T) {
		sent, err := svc.Create(context.Background(), CreateNotificationRequest{
			Title:    "Sent",
			Message:  "Message.",
			SentByID: admin.ID,
		})
		require.NoError(t, err)

		_, err = svc.Update(context.Background(), sent.ID, map[string]interface{}{
			"title": "Nope",
		})
		assert.ErrorIs(t, err, ErrAlreadySent)
	})
}

func TestNotificationDeleteHidesFeed(t *testing.T) {
	_, svc, admin, student := newNotificationFixture(t)

	notification, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:    "Short lived",
		Message:  "Message.",
		SentByID: admin.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), notification.ID))

	feed, total, err := svc.Feed(context.Background(), FeedOptions{UserID: student.ID, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, feed)

	assert.ErrorIs(t, svc.Delete(context.Background(), notification.ID), gorm.ErrRecordNotFound)
}

func TestNotificationCleanupOld(t *testing.T) {
	db, svc, admin, _ := newNotificationFixture(t)

	old, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:    "Ancient",
		Message:  "Message.",
		SentByID: admin.ID,
	})
	require.NoError(t, err)
	recent, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:    "Fresh",
		Message:  "Message.",
		SentByID: admin.ID,
	})
	require.NoError(t, err)

	// Age the first notification past the retention window
	aged := time.Now().Add(-100 * 24 * time.Hour)
	require.NoError(t, db.Model(&model.Notification{}).
		Where("id = ?", old.ID).Update("sent_at", aged).Error)

	purged, err := svc.CleanupOld(context.Background(), time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var count int64
	require.NoError(t, db.Unscoped().Model(&model.Notification{}).Where("id = ?", old.ID).Count(&count).Error)
	assert.Zero(t, count)
	assert.Zero(t, recipientCount(t, db, old.ID))

	require.NoError(t, db.Model(&model.Notification{}).Where("id = ?", recent.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(2), recipientCount(t, db, recent.ID))
}

func TestNotificationRemoveRecipient(t *testing.T) {
	db, svc, admin, student := newNotificationFixture(t)

	notification, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:    "Removable",
		Message:  "Message.",
		SentByID: admin.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveRecipient(context.Background(), notification.ID, student.ID))

	feed, total, err := svc.Feed(context.Background(), FeedOptions{UserID: student.ID, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, feed)

	// Only the caller's copy goes away
	assert.Equal(t, int64(1), recipientCount(t, db, notification.ID))

	assert.ErrorIs(t, svc.RemoveRecipient(context.Background(), notification.ID, student.ID), gorm.ErrRecordNotFound)
}

func TestNotificationStats(t *testing.T) {
	_, svc, admin, student := newNotificationFixture(t)

	sent, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:    "Sent",
		Message:  "Message.",
		SentByID: admin.ID,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateNotificationRequest{
		Title:    "Draft",
		Message:  "Message.",
		Draft:    true,
		SentByID: admin.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), sent.ID, student.ID))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[string(model.NotificationStatusSent)])
	assert.Equal(t, int64(1), stats.ByStatus[string(model.NotificationStatusDraft)])
	assert.Equal(t, int64(2), stats.ByType[string(model.NotificationTypeGeneral)])
	assert.Equal(t, int64(2), stats.Recipients)
	assert.InDelta(t, 0.5, stats.ReadRate, 0.0001)
}
