package admin

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/database"
	"github.com/learnhub/api/model"
	"github.com/learnhub/api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *model.User) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	pool := &model.User{
		Email:        "pool@learnhub.test",
		PasswordHash: "not-a-real-hash",
		Name:         "Reward Pool",
		Role:         model.RoleAdmin,
		IsActive:     true,
		Coins:        1000,
	}
	require.NoError(t, db.Create(pool).Error)
	require.NoError(t, db.Create(&model.CoinTransaction{
		UserID: pool.ID,
		Amount: 1000,
		Type:   model.CoinTransactionEarned,
		Reason: "Initial pool allocation",
	}).Error)

	admin := &model.User{
		Email:        "admin@learnhub.test",
		PasswordHash: "not-a-real-hash",
		Name:         "Admin",
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	require.NoError(t, db.Create(admin).Error)

	student := &model.User{
		Email:        "student@learnhub.test",
		PasswordHash: "not-a-real-hash",
		Name:         "Student",
		Role:         model.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, db.Create(student).Error)

	coins, err := services.NewCoinService(db, "pool@learnhub.test")
	require.NoError(t, err)
	doubts := services.NewDoubtService(db, coins, 10)
	thoughts := services.NewThoughtService(db, coins, 10)
	notifications := services.NewNotificationService(db)
	analytics := services.NewAnalyticsService(db)

	handler := NewAdminHandler(db, doubts, thoughts, notifications, coins, analytics)
	app := fiber.New()

	// Stand-in for the auth middleware
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", admin.ID)
		return c.Next()
	})
	app.Post("/admin/doubts/:id/answer", handler.AnswerDoubt)
	app.Post("/admin/doubts/:id/close", handler.CloseDoubt)
	app.Post("/admin/thoughts/:id/approve", handler.ApproveThought)
	app.Post("/admin/thoughts/:id/reject", handler.RejectThought)

	return app, db, student
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var envelope map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return resp, envelope
}

func createPendingDoubt(t *testing.T, db *gorm.DB, askerID uint) *model.Doubt {
	t.Helper()

	doubt := &model.Doubt{
		Question:  "What does defer evaluate eagerly?",
		AskedByID: askerID,
		Status:    model.DoubtStatusPending,
	}
	require.NoError(t, db.Create(doubt).Error)
	return doubt
}

func TestAnswerDoubtTwice(t *testing.T) {
	app, db, student := newTestApp(t)
	doubt := createPendingDoubt(t, db, student.ID)

	body := map[string]interface{}{
		"title":       "Defer arguments",
		"description": "Arguments are evaluated when defer runs, not at return.",
	}
	resp, _ := doRequest(t, app, http.MethodPost, "/admin/doubts/1/answer", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Repeating the answer is an illegal transition, not a server fault
	resp, envelope := doRequest(t, app, http.MethodPost, "/admin/doubts/1/answer", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, envelope["success"])

	// Exactly one reward landed
	var count int64
	require.NoError(t, db.Model(&model.CoinTransaction{}).
		Where("doubt_id = ?", doubt.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCloseDoubtTwice(t *testing.T) {
	app, db, student := newTestApp(t)
	createPendingDoubt(t, db, student.ID)

	resp, _ := doRequest(t, app, http.MethodPost, "/admin/doubts/1/close", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope := doRequest(t, app, http.MethodPost, "/admin/doubts/1/close", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, envelope["success"])
}

func TestReviewThoughtTwice(t *testing.T) {
	app, db, student := newTestApp(t)

	thought := &model.Thought{
		Title:         "Small interfaces",
		Message:       "Keep interfaces at one or two methods.",
		SubmittedByID: student.ID,
		Status:        model.ThoughtStatusPending,
	}
	require.NoError(t, db.Create(thought).Error)

	resp, _ := doRequest(t, app, http.MethodPost, "/admin/thoughts/1/approve", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/admin/thoughts/1/approve", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/admin/thoughts/1/reject", map[string]interface{}{
		"review_notes": "Already reviewed.",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
