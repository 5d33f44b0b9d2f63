package services

import (
	"context"
	"strings"
	"testing"

	"github.com/learnhub/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDoubtFixture(t *testing.T) (*gorm.DB, *DoubtService, *CoinService, *model.User, *model.User) {
	t.Helper()

	db := newTestDB(t)
	coins := newTestCoinService(t, db, 1000)
	svc := NewDoubtService(db, coins, 10)
	student := createTestUser(t, db, "student@learnhub.test", model.RoleUser, 0)
	admin := createTestUser(t, db, "admin@learnhub.test", model.RoleAdmin, 0)
	return db, svc, coins, student, admin
}

func TestDoubtSubmit(t *testing.T) {
	_, svc, _, student, _ := newDoubtFixture(t)

	t.Run("creates a pending doubt", func(t *testing.T) {
		doubt, err := svc.Submit(context.Background(), student.ID, "  What is a goroutine?  ")
		require.NoError(t, err)
		assert.Equal(t, "What is a goroutine?", doubt.Question)
		assert.Equal(t, model.DoubtStatusPending, doubt.Status)
		assert.Equal(t, student.ID, doubt.AskedByID)
		assert.False(t, doubt.IsCoinsAwarded)
	})

	t.Run("rejects an empty question", func(t *testing.T) {
		_, err := svc.Submit(context.Background(), student.ID, "   ")
		assert.ErrorIs(t, err, ErrQuestionInvalid)
	})

	t.Run("rejects an oversized question", func(t *testing.T) {
		_, err := svc.Submit(context.Background(), student.ID, strings.Repeat("a", model.MaxQuestionLength+1))
		assert.ErrorIs(t, err, ErrQuestionInvalid)
	})
}

func TestDoubtAnswer(t *testing.T) {
	db, svc, coins, student, admin := newDoubtFixture(t)

	doubt, err := svc.Submit(context.Background(), student.ID, "What is a channel?")
	require.NoError(t, err)

	answered, err := svc.Answer(context.Background(), doubt.ID, admin.ID, AnswerRequest{
		Title:       "Channels",
		Description: "A channel is a typed conduit between goroutines.",
		URL:         "https://go.dev/tour/concurrency/2",
	})
	require.NoError(t, err)

	assert.Equal(t, model.DoubtStatusAnswered, answered.Status)
	assert.Equal(t, "Channels", answered.ResponseTitle)
	require.NotNil(t, answered.AnsweredByID)
	assert.Equal(t, admin.ID, *answered.AnsweredByID)
	assert.NotNil(t, answered.AnsweredAt)
	assert.True(t, answered.IsCoinsAwarded)
	assert.Equal(t, int64(10), answered.CoinsAwarded)

	// Reward moved from the pool to the asker
	assert.Equal(t, int64(10), balanceOf(t, db, student.ID))
	assert.Equal(t, int64(990), balanceOf(t, db, coins.AdminPoolID()))

	// Ledger rows reference the doubt
	var entries []model.CoinTransaction
	require.NoError(t, db.Where("doubt_id = ?", doubt.ID).Find(&entries).Error)
	assert.Len(t, entries, 2)

	// The asker got a targeted notification
	var recipients []model.NotificationRecipient
	require.NoError(t, db.Where("user_id = ?", student.ID).Find(&recipients).Error)
	require.Len(t, recipients, 1)
	var notification model.Notification
	require.NoError(t, db.First(&notification, recipients[0].NotificationID).Error)
	assert.Equal(t, "Your doubt has been answered", notification.Title)
	assert.Equal(t, model.AudienceSpecific, notification.TargetAudience)
}

func TestDoubtAnswerOnlyOnce(t *testing.T) {
	db, svc, _, student, admin := newDoubtFixture(t)

	doubt, err := svc.Submit(context.Background(), student.ID, "What is defer?")
	require.NoError(t, err)

	_, err = svc.Answer(context.Background(), doubt.ID, admin.ID, AnswerRequest{
		Title:       "Defer",
		Description: "Runs at function exit.",
	})
	require.NoError(t, err)

	_, err = svc.Answer(context.Background(), doubt.ID, admin.ID, AnswerRequest{
		Title:       "Again",
		Description: "Second attempt.",
	})
	assert.ErrorIs(t, err, ErrDoubtNotPending)

	// The reward was paid exactly once
	assert.Equal(t, int64(10), balanceOf(t, db, student.ID))
	var entries int64
	require.NoError(t, db.Model(&model.CoinTransaction{}).Where("doubt_id = ?", doubt.ID).Count(&entries).Error)
	assert.Equal(t, int64(2), entries)
}

func TestDoubtAnswerMissing(t *testing.T) {
	_, svc, _, _, admin := newDoubtFixture(t)

	_, err := svc.Answer(context.Background(), 9999, admin.ID, AnswerRequest{
		Title:       "Ghost",
		Description: "No such doubt.",
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDoubtClose(t *testing.T) {
	db, svc, _, student, admin := newDoubtFixture(t)

	t.Run("closes a pending doubt and notifies the asker", func(t *testing.T) {
		doubt, err := svc.Submit(context.Background(), student.ID, "Never mind")
		require.NoError(t, err)

		closed, err := svc.Close(context.Background(), doubt.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DoubtStatusClosed, closed.Status)

		var notification model.Notification
		require.NoError(t, db.Where("title = ?", "Your doubt has been closed").First(&notification).Error)
		var recipient model.NotificationRecipient
		require.NoError(t, db.Where("notification_id = ?", notification.ID).First(&recipient).Error)
		assert.Equal(t, student.ID, recipient.UserID)
	})

	t.Run("closes an answered doubt", func(t *testing.T) {
		doubt, err := svc.Submit(context.Background(), student.ID, "What is an interface?")
		require.NoError(t, err)
		_, err = svc.Answer(context.Background(), doubt.ID, admin.ID, AnswerRequest{
			Title:       "Interfaces",
			Description: "A method set contract.",
		})
		require.NoError(t, err)

		closed, err := svc.Close(context.Background(), doubt.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DoubtStatusClosed, closed.Status)
	})

	t.Run("closing twice is an illegal transition", func(t *testing.T) {
		doubt, err := svc.Submit(context.Background(), student.ID, "Another one")
		require.NoError(t, err)
		_, err = svc.Close(context.Background(), doubt.ID, admin.ID)
		require.NoError(t, err)

		_, err = svc.Close(context.Background(), doubt.ID, admin.ID)
		assert.ErrorIs(t, err, ErrDoubtAlreadyClosed)

		// The doubt stays closed and no second notification goes out
		reloaded, err := svc.Get(context.Background(), doubt.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DoubtStatusClosed, reloaded.Status)
		var count int64
		require.NoError(t, db.Model(&model.Notification{}).
			Where("title = ?", "Your doubt has been closed").Count(&count).Error)
		assert.Equal(t, int64(3), count)
	})
}

func TestDoubtDelete(t *testing.T) {
	_, svc, _, student, admin := newDoubtFixture(t)

	t.Run("owner deletes a pending doubt", func(t *testing.T) {
		doubt, err := svc.Submit(context.Background(), student.ID, "Delete me")
		require.NoError(t, err)
		require.NoError(t, svc.Delete(context.Background(), doubt.ID, student.ID, false))

		_, err = svc.Get(context.Background(), doubt.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		doubt, err := svc.Submit(context.Background(), student.ID, "Mine")
		require.NoError(t, err)
		other := createTestUser(t, svc.db, "other@learnhub.test", model.RoleUser, 0)

		err = svc.Delete(context.Background(), doubt.ID, other.ID, false)
		assert.ErrorIs(t, err, ErrDoubtNotOwned)
	})

	t.Run("owner cannot delete once answered", func(t *testing.T) {
		doubt, err := svc.Submit(context.Background(), student.ID, "Answered already")
		require.NoError(t, err)
		_, err = svc.Answer(context.Background(), doubt.ID, admin.ID, AnswerRequest{
			Title:       "Done",
			Description: "Answered.",
		})
		require.NoError(t, err)

		err = svc.Delete(context.Background(), doubt.ID, student.ID, false)
		assert.ErrorIs(t, err, ErrDoubtNotPending)
	})

	t.Run("admin deletes any doubt", func(t *testing.T) {
		doubt, err := svc.Submit(context.Background(), student.ID, "Admin removes this")
		require.NoError(t, err)
		_, err = svc.Close(context.Background(), doubt.ID, admin.ID)
		require.NoError(t, err)

		require.NoError(t, svc.Delete(context.Background(), doubt.ID, admin.ID, true))
	})
}

func TestDoubtList(t *testing.T) {
	_, svc, _, student, admin := newDoubtFixture(t)
	other := createTestUser(t, svc.db, "other@learnhub.test", model.RoleUser, 0)

	d1, err := svc.Submit(context.Background(), student.ID, "First")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), student.ID, "Second")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), other.ID, "Third")
	require.NoError(t, err)

	_, err = svc.Answer(context.Background(), d1.ID, admin.ID, AnswerRequest{
		Title:       "First answer",
		Description: "Done.",
	})
	require.NoError(t, err)

	t.Run("filters by user", func(t *testing.T) {
		doubts, total, err := svc.List(context.Background(), ListDoubtsOptions{UserID: student.ID, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, doubts, 2)
	})

	t.Run("filters by status", func(t *testing.T) {
		doubts, total, err := svc.List(context.Background(), ListDoubtsOptions{Status: "pending", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, d := range doubts {
			assert.Equal(t, model.DoubtStatusPending, d.Status)
		}
	})
}

func TestDoubtStatsFor(t *testing.T) {
	_, svc, _, student, admin := newDoubtFixture(t)

	d1, err := svc.Submit(context.Background(), student.ID, "First")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), student.ID, "Second")
	require.NoError(t, err)
	d3, err := svc.Submit(context.Background(), student.ID, "Third")
	require.NoError(t, err)

	_, err = svc.Answer(context.Background(), d1.ID, admin.ID, AnswerRequest{
		Title:       "Answer",
		Description: "Done.",
	})
	require.NoError(t, err)
	_, err = svc.Close(context.Background(), d3.ID, admin.ID)
	require.NoError(t, err)

	stats, err := svc.StatsFor(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(1), stats.Answered)
	assert.Equal(t, int64(1), stats.Closed)
	assert.Equal(t, int64(10), stats.CoinsEarned)
}

func TestDoubtListSearch(t *testing.T) {
	_, svc, _, student, _ := newDoubtFixture(t)

	_, err := svc.Submit(context.Background(), student.ID, "How do channels work?")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), student.ID, "What is a slice header?")
	require.NoError(t, err)

	doubts, total, err := svc.List(context.Background(), ListDoubtsOptions{Search: "CHANNELS", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, doubts, 1)
	assert.Equal(t, "How do channels work?", doubts[0].Question)

	_, total, err = svc.List(context.Background(), ListDoubtsOptions{Search: "generics", Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}
