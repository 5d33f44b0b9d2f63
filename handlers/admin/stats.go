package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/model"
	"github.com/learnhub/api/utils/response"
)

// DoubtStatsOverview summarizes the doubt queue for the admin console
// GET /admin/doubts/stats
func (h *AdminHandler) DoubtStatsOverview(c *fiber.Ctx) error {
	type statusCount struct {
		Status model.DoubtStatus
		Count  int64
	}
	var counts []statusCount
	err := h.db.Model(&model.Doubt{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to aggregate doubts")
	}

	var total, pending, answered, closed int64
	for _, cnt := range counts {
		total += cnt.Count
		switch cnt.Status {
		case model.DoubtStatusPending:
			pending = cnt.Count
		case model.DoubtStatusAnswered:
			answered = cnt.Count
		case model.DoubtStatusClosed:
			closed = cnt.Count
		}
	}

	days := c.QueryInt("days", 30)
	trend, err := h.analytics.DoubtTrend(c.Context(), days)
	if err != nil {
		return response.InternalServerError(c, "Failed to load doubt trend")
	}

	type topAsker struct {
		UserID uint   `json:"user_id"`
		Name   string `json:"name"`
		Count  int64  `json:"count"`
	}
	var askers []topAsker
	err = h.db.Model(&model.Doubt{}).
		Select("doubts.asked_by_id AS user_id, users.name AS name, COUNT(*) AS count").
		Joins("JOIN users ON users.id = doubts.asked_by_id").
		Group("doubts.asked_by_id, users.name").
		Order("count DESC").
		Limit(5).
		Scan(&askers).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load top askers")
	}

	return response.Success(c, fiber.Map{
		"total":      total,
		"pending":    pending,
		"answered":   answered,
		"closed":     closed,
		"trend":      trend,
		"top_askers": askers,
	})
}

// ThoughtStatsOverview summarizes the thought moderation queue
// GET /admin/thoughts/stats
func (h *AdminHandler) ThoughtStatsOverview(c *fiber.Ctx) error {
	type statusCount struct {
		Status model.ThoughtStatus
		Count  int64
	}
	var counts []statusCount
	err := h.db.Model(&model.Thought{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to aggregate thoughts")
	}

	var total, pending, approved, rejected int64
	for _, cnt := range counts {
		total += cnt.Count
		switch cnt.Status {
		case model.ThoughtStatusPending:
			pending = cnt.Count
		case model.ThoughtStatusApproved:
			approved = cnt.Count
		case model.ThoughtStatusRejected:
			rejected = cnt.Count
		}
	}

	var coinsPaid int64
	err = h.db.Model(&model.CoinTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("thought_id IS NOT NULL AND amount > 0").
		Scan(&coinsPaid).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to sum thought rewards")
	}

	return response.Success(c, fiber.Map{
		"total":      total,
		"pending":    pending,
		"approved":   approved,
		"rejected":   rejected,
		"coins_paid": coinsPaid,
	})
}

// ContentStatsOverview summarizes the content library
// GET /admin/content/stats
func (h *AdminHandler) ContentStatsOverview(c *fiber.Ctx) error {
	var total, published int64
	if err := h.db.Model(&model.Content{}).Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count content")
	}
	if err := h.db.Model(&model.Content{}).Where("status = ?", model.ContentStatusPublished).Count(&published).Error; err != nil {
		return response.InternalServerError(c, "Failed to count published content")
	}

	var totals struct {
		Views     int64
		Downloads int64
	}
	err := h.db.Model(&model.Content{}).
		Select("COALESCE(SUM(views), 0) AS views, COALESCE(SUM(downloads), 0) AS downloads").
		Scan(&totals).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to sum content counters")
	}

	return response.Success(c, fiber.Map{
		"total":     total,
		"published": published,
		"views":     totals.Views,
		"downloads": totals.Downloads,
	})
}

// NotificationStatsOverview summarizes notification delivery
// GET /admin/notifications/stats
func (h *AdminHandler) NotificationStatsOverview(c *fiber.Ctx) error {
	stats, err := h.notifications.Stats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to aggregate notifications")
	}
	return response.Success(c, stats)
}

// UserStatsOverview summarizes the user base
// GET /admin/users/stats
func (h *AdminHandler) UserStatsOverview(c *fiber.Ctx) error {
	var total, active, admins int64
	if err := h.db.Model(&model.User{}).Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}
	if err := h.db.Model(&model.User{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return response.InternalServerError(c, "Failed to count active users")
	}
	if err := h.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins).Error; err != nil {
		return response.InternalServerError(c, "Failed to count admins")
	}

	days := c.QueryInt("days", 30)
	growth, err := h.analytics.UserGrowth(c.Context(), days)
	if err != nil {
		return response.InternalServerError(c, "Failed to load user growth")
	}

	return response.Success(c, fiber.Map{
		"total":     total,
		"active":    active,
		"suspended": total - active,
		"admins":    admins,
		"growth":    growth,
	})
}

// ListSettings pages through stored per-user settings rows
// GET /admin/settings
func (h *AdminHandler) ListSettings(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)

	var total int64
	if err := h.db.Model(&model.Settings{}).Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count settings")
	}

	var rows []model.Settings
	if err := h.db.Order("user_id ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return response.InternalServerError(c, "Failed to list settings")
	}

	return response.Paginated(c, rows, response.CalculatePagination(page, limit, total))
}

// SettingsStatsOverview reports how many users customized their settings
// GET /admin/settings/stats
func (h *AdminHandler) SettingsStatsOverview(c *fiber.Ctx) error {
	var users, customized int64
	if err := h.db.Model(&model.User{}).Count(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}
	if err := h.db.Model(&model.Settings{}).Count(&customized).Error; err != nil {
		return response.InternalServerError(c, "Failed to count settings")
	}

	return response.Success(c, fiber.Map{
		"users":      users,
		"customized": customized,
		"defaults":   users - customized,
	})
}

// CoinLeaderboard ranks users by coin balance for the admin console
// GET /admin/doubts/leaderboard
func (h *AdminHandler) CoinLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	entries, err := h.coins.Leaderboard(c.Context(), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to load leaderboard")
	}
	return response.Success(c, entries)
}
