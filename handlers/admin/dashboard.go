package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/model"
	"github.com/learnhub/api/utils/response"
	"gorm.io/gorm"
)

// Dashboard returns overall platform statistics
// GET /admin/dashboard/stats
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.analytics.GetDashboardStats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}
	return response.Success(c, stats)
}

// RecentActivity returns the latest doubts, thoughts, and enrollments
// GET /admin/dashboard/activity
func (h *AdminHandler) RecentActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 5)
	if limit < 1 || limit > 20 {
		limit = 5
	}

	var doubts []model.Doubt
	if err := h.db.Preload("AskedBy").Order("created_at DESC").Limit(limit).Find(&doubts).Error; err != nil {
		return response.InternalServerError(c, "Failed to load recent doubts")
	}
	var thoughts []model.Thought
	if err := h.db.Preload("SubmittedBy").Order("created_at DESC").Limit(limit).Find(&thoughts).Error; err != nil {
		return response.InternalServerError(c, "Failed to load recent thoughts")
	}
	var enrollments []model.Enrollment
	if err := h.db.Preload("User").Preload("Course").Order("created_at DESC").Limit(limit).Find(&enrollments).Error; err != nil {
		return response.InternalServerError(c, "Failed to load recent enrollments")
	}

	return response.Success(c, fiber.Map{
		"doubts":      doubts,
		"thoughts":    thoughts,
		"enrollments": enrollments,
	})
}

// AnalyticsOverview bundles the trailing-window trends into one payload
// GET /admin/analytics/overview
func (h *AdminHandler) AnalyticsOverview(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)

	users, err := h.analytics.UserGrowth(c.Context(), days)
	if err != nil {
		return response.InternalServerError(c, "Failed to load user growth")
	}
	enrollments, err := h.analytics.EnrollmentTrend(c.Context(), days)
	if err != nil {
		return response.InternalServerError(c, "Failed to load enrollment trend")
	}
	doubts, err := h.analytics.DoubtTrend(c.Context(), days)
	if err != nil {
		return response.InternalServerError(c, "Failed to load doubt trend")
	}

	return response.Success(c, fiber.Map{
		"users":       users,
		"enrollments": enrollments,
		"doubts":      doubts,
	})
}

// UserGrowth returns daily signups for the trailing window
// GET /admin/analytics/users
func (h *AdminHandler) UserGrowth(c *fiber.Ctx) error {
	points, err := h.analytics.UserGrowth(c.Context(), c.QueryInt("days", 30))
	if err != nil {
		return response.InternalServerError(c, "Failed to load user growth")
	}
	return response.Success(c, points)
}

// EnrollmentTrend returns daily enrollments for the trailing window
// GET /admin/analytics/enrollments
func (h *AdminHandler) EnrollmentTrend(c *fiber.Ctx) error {
	points, err := h.analytics.EnrollmentTrend(c.Context(), c.QueryInt("days", 30))
	if err != nil {
		return response.InternalServerError(c, "Failed to load enrollment trend")
	}
	return response.Success(c, points)
}

// DoubtTrend returns daily doubt submissions for the trailing window
// GET /admin/analytics/doubts
func (h *AdminHandler) DoubtTrend(c *fiber.Ctx) error {
	points, err := h.analytics.DoubtTrend(c.Context(), c.QueryInt("days", 30))
	if err != nil {
		return response.InternalServerError(c, "Failed to load doubt trend")
	}
	return response.Success(c, points)
}

// TopCourses ranks courses by enrollments
// GET /admin/analytics/courses
func (h *AdminHandler) TopCourses(c *fiber.Ctx) error {
	courses, err := h.analytics.TopCourses(c.Context(), c.QueryInt("limit", 10))
	if err != nil {
		return response.InternalServerError(c, "Failed to rank courses")
	}
	return response.Success(c, courses)
}

// Revenue aggregates enrollment-derived revenue
// GET /admin/analytics/revenue
func (h *AdminHandler) Revenue(c *fiber.Ctx) error {
	stats, err := h.analytics.Revenue(c.Context(), c.QueryInt("days", 30))
	if err != nil {
		return response.InternalServerError(c, "Failed to load revenue")
	}
	return response.Success(c, stats)
}

// ReconcileLedger runs the balance-vs-ledger check on demand
// GET /admin/coins/reconcile
func (h *AdminHandler) ReconcileLedger(c *fiber.Ctx) error {
	drifts, err := h.coins.Reconcile(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to reconcile ledger")
	}
	return response.Success(c, fiber.Map{
		"consistent": len(drifts) == 0,
		"drifts":     drifts,
	})
}

// ListAuditLogs returns the admin action audit trail
// GET /admin/audit
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)

	query := h.db.Model(&model.AdminAuditLog{})
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	var logs []model.AdminAuditLog
	err := query.
		Preload("Admin").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to list audit logs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}

// GetAuditLog returns one audit entry
// GET /admin/audit/:id
func (h *AdminHandler) GetAuditLog(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid audit log ID")
	}

	var log model.AdminAuditLog
	if err := h.db.Preload("Admin").First(&log, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Audit log not found")
		}
		return response.InternalServerError(c, "Failed to load audit log")
	}

	return response.Success(c, log)
}

// ListCronLogs returns recent cron job executions
// GET /admin/cron-logs
func (h *AdminHandler) ListCronLogs(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)

	query := h.db.Model(&model.CronJobLog{})
	if job := c.Query("job"); job != "" {
		query = query.Where("job_name = ?", job)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count cron logs")
	}

	var logs []model.CronJobLog
	err := query.
		Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to list cron logs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}
