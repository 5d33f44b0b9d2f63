package services

import (
	"context"
	"fmt"
	"time"

	"github.com/learnhub/api/model"
	"gorm.io/gorm"
)

// AnalyticsService handles admin analytics and reporting
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{
		db: db,
	}
}

// DashboardStats represents overall platform statistics
type DashboardStats struct {
	TotalUsers         int64   `json:"total_users"`
	ActiveUsers        int64   `json:"active_users"`
	NewUsersToday      int64   `json:"new_users_today"`
	TotalCourses       int64   `json:"total_courses"`
	PublishedCourses   int64   `json:"published_courses"`
	TotalEnrollments   int64   `json:"total_enrollments"`
	ActiveEnrollments  int64   `json:"active_enrollments"`
	PendingDoubts      int64   `json:"pending_doubts"`
	AnsweredDoubts     int64   `json:"answered_doubts"`
	PendingThoughts    int64   `json:"pending_thoughts"`
	SentNotifications  int64   `json:"sent_notifications"`
	CoinsInCirculation int64   `json:"coins_in_circulation"`
	TotalRevenue       float64 `json:"total_revenue"`
}

// GetDashboardStats retrieves overall platform statistics
func (s *AnalyticsService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	if err := db.Model(&model.User{}).
		Where("is_active = ?", true).
		Count(&stats.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	today := time.Now().Truncate(24 * time.Hour)
	if err := db.Model(&model.User{}).
		Where("created_at >= ?", today).
		Count(&stats.NewUsersToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count new users: %w", err)
	}

	if err := db.Model(&model.Course{}).Count(&stats.TotalCourses).Error; err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}

	if err := db.Model(&model.Course{}).
		Where("status = ?", model.CourseStatusPublished).
		Count(&stats.PublishedCourses).Error; err != nil {
		return nil, fmt.Errorf("failed to count published courses: %w", err)
	}

	if err := db.Model(&model.Enrollment{}).Count(&stats.TotalEnrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}

	if err := db.Model(&model.Enrollment{}).
		Where("status = ?", model.EnrollmentStatusActive).
		Count(&stats.ActiveEnrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to count active enrollments: %w", err)
	}

	if err := db.Model(&model.Doubt{}).
		Where("status = ?", model.DoubtStatusPending).
		Count(&stats.PendingDoubts).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending doubts: %w", err)
	}

	if err := db.Model(&model.Doubt{}).
		Where("status = ?", model.DoubtStatusAnswered).
		Count(&stats.AnsweredDoubts).Error; err != nil {
		return nil, fmt.Errorf("failed to count answered doubts: %w", err)
	}

	if err := db.Model(&model.Thought{}).
		Where("status = ?", model.ThoughtStatusPending).
		Count(&stats.PendingThoughts).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending thoughts: %w", err)
	}

	if err := db.Model(&model.Notification{}).
		Where("status = ?", model.NotificationStatusSent).
		Count(&stats.SentNotifications).Error; err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	// Coins held by regular users
	if err := db.Model(&model.User{}).
		Where("role = ?", model.RoleUser).
		Select("COALESCE(SUM(coins), 0)").
		Scan(&stats.CoinsInCirculation).Error; err != nil {
		return nil, fmt.Errorf("failed to sum coins: %w", err)
	}

	// Revenue approximated as price of every enrollment's course
	if err := db.Model(&model.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Select("COALESCE(SUM(courses.price), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return stats, nil
}

// TimeSeriesPoint is one bucket of a daily time series
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// countByDay buckets rows of a model by creation date over the trailing window
func (s *AnalyticsService) countByDay(ctx context.Context, value interface{}, days int) ([]TimeSeriesPoint, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	var points []TimeSeriesPoint
	err := s.db.WithContext(ctx).
		Model(value).
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build time series: %w", err)
	}
	return points, nil
}

// UserGrowth returns daily signups over the trailing window
func (s *AnalyticsService) UserGrowth(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	return s.countByDay(ctx, &model.User{}, days)
}

// EnrollmentTrend returns daily enrollments over the trailing window
func (s *AnalyticsService) EnrollmentTrend(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	return s.countByDay(ctx, &model.Enrollment{}, days)
}

// DoubtTrend returns daily doubt submissions over the trailing window
func (s *AnalyticsService) DoubtTrend(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	return s.countByDay(ctx, &model.Doubt{}, days)
}

// CoursePopularity is one course ranked by enrollment count
type CoursePopularity struct {
	CourseID    uint    `json:"course_id"`
	Title       string  `json:"title"`
	Enrollments int64   `json:"enrollments"`
	Revenue     float64 `json:"revenue"`
}

// TopCourses ranks courses by enrollment count
func (s *AnalyticsService) TopCourses(ctx context.Context, limit int) ([]CoursePopularity, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var courses []CoursePopularity
	err := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Select("courses.id AS course_id, courses.title AS title, COUNT(*) AS enrollments, COUNT(*) * courses.price AS revenue").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Group("courses.id, courses.title, courses.price").
		Order("enrollments DESC").
		Limit(limit).
		Scan(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank courses: %w", err)
	}
	return courses, nil
}

// RevenueStats summarizes revenue over the trailing window
type RevenueStats struct {
	Total     float64           `json:"total"`
	Window    float64           `json:"window"`
	ByDay     []RevenuePoint    `json:"by_day"`
	ByCourses []CoursePopularity `json:"by_courses"`
}

// RevenuePoint is one day of revenue
type RevenuePoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// Revenue aggregates enrollment-derived revenue
func (s *AnalyticsService) Revenue(ctx context.Context, days int) (*RevenueStats, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)
	db := s.db.WithContext(ctx)

	stats := &RevenueStats{}

	err := db.Model(&model.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Select("COALESCE(SUM(courses.price), 0)").
		Scan(&stats.Total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum total revenue: %w", err)
	}

	err = db.Model(&model.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.created_at >= ?", since).
		Select("COALESCE(SUM(courses.price), 0)").
		Scan(&stats.Window).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum window revenue: %w", err)
	}

	err = db.Model(&model.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.created_at >= ?", since).
		Select("DATE(enrollments.created_at) AS date, COALESCE(SUM(courses.price), 0) AS revenue").
		Group("DATE(enrollments.created_at)").
		Order("date ASC").
		Scan(&stats.ByDay).Error
	if err != nil {
		return nil, fmt.Errorf("failed to bucket revenue: %w", err)
	}

	byCourses, err := s.TopCourses(ctx, 10)
	if err != nil {
		return nil, err
	}
	stats.ByCourses = byCourses

	return stats, nil
}
