package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/learnhub/api/model"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyEnrolled means the user already has an enrollment for the course
	ErrAlreadyEnrolled = errors.New("user is already enrolled in this course")
	// ErrCourseNotPublished means the course cannot accept enrollments
	ErrCourseNotPublished = errors.New("course is not published")
	// ErrNotEnrolled means the user has no enrollment for the course
	ErrNotEnrolled = errors.New("user is not enrolled in this course")
	// ErrInvalidProgress means the progress value is out of range
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
)

// CourseService handles the catalog and enrollment lifecycle
type CourseService struct {
	db *gorm.DB
}

// NewCourseService creates a new course service
func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

// ListCoursesOptions filters course listings
type ListCoursesOptions struct {
	Status   string // admins may filter by any status; public listings force published
	Category string
	Level    string
	Search   string
	Limit    int
	Offset   int
}

// List returns a page of courses matching the options
func (s *CourseService) List(ctx context.Context, opts ListCoursesOptions) ([]model.Course, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Course{})
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.Category != "" {
		query = query.Where("category = ?", opts.Category)
	}
	if opts.Level != "" {
		query = query.Where("level = ?", opts.Level)
	}
	if opts.Search != "" {
		pattern := "%" + strings.ToLower(opts.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	var courses []model.Course
	err := query.
		Order("created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&courses).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, total, nil
}

// Get loads a single course
func (s *CourseService) Get(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// Create stores a new course
func (s *CourseService) Create(ctx context.Context, course *model.Course) error {
	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

// Update applies partial updates to a course
func (s *CourseService) Update(ctx context.Context, courseID uint, updates map[string]interface{}) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&course, courseID).Error; err != nil {
			return err
		}
		if err := tx.Model(&course).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update course: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Delete soft-deletes a course
func (s *CourseService) Delete(ctx context.Context, courseID uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Course{}, courseID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Enroll creates an enrollment for the user. The course must be published and
// the (user, course) pair must be new; the enrolled counter moves in the same
// transaction as the enrollment row.
func (s *CourseService) Enroll(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			return err
		}
		if course.Status != model.CourseStatusPublished {
			return ErrCourseNotPublished
		}

		var existing int64
		err := tx.Model(&model.Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyEnrolled
		}

		enrollment = model.Enrollment{
			UserID:   userID,
			CourseID: courseID,
			Status:   model.EnrollmentStatusActive,
		}
		if err := tx.Create(&enrollment).Error; err != nil {
			return fmt.Errorf("failed to create enrollment: %w", err)
		}

		err = tx.Model(&model.Course{}).
			Where("id = ?", courseID).
			UpdateColumn("enrolled_count", gorm.Expr("enrolled_count + 1")).Error
		if err != nil {
			return fmt.Errorf("failed to bump enrolled count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// EnrollmentsFor returns all of a user's enrollments with their courses
func (s *CourseService) EnrollmentsFor(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// UpdateProgress records progress on an enrollment. Reaching 100 marks the
// enrollment completed.
func (s *CourseService) UpdateProgress(ctx context.Context, userID, courseID uint, progress, completedLessons int) (*model.Enrollment, error) {
	if progress < 0 || progress > 100 {
		return nil, ErrInvalidProgress
	}

	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&enrollment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotEnrolled
			}
			return err
		}

		updates := map[string]interface{}{
			"progress":          progress,
			"completed_lessons": completedLessons,
			"last_accessed_at":  tx.NowFunc(),
		}
		if progress == 100 {
			updates["status"] = model.EnrollmentStatusCompleted
		}
		if err := tx.Model(&enrollment).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Drop marks an enrollment as dropped. The enrolled counter is not decremented,
// it tracks lifetime enrollments.
func (s *CourseService) Drop(ctx context.Context, userID, courseID uint) error {
	result := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, model.EnrollmentStatusActive).
		Update("status", model.EnrollmentStatusDropped)
	if result.Error != nil {
		return fmt.Errorf("failed to drop enrollment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotEnrolled
	}
	return nil
}

// Rate records the user's rating and review for a course they are enrolled in,
// then refreshes the course's average rating.
func (s *CourseService) Rate(ctx context.Context, userID, courseID uint, rating float64, review string) error {
	if rating < 1 || rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Updates(map[string]interface{}{
				"rating": rating,
				"review": review,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to save rating: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotEnrolled
		}

		// Refresh the denormalized course average
		var avg float64
		err := tx.Model(&model.Enrollment{}).
			Where("course_id = ? AND rating IS NOT NULL", courseID).
			Select("COALESCE(AVG(rating), 0)").
			Scan(&avg).Error
		if err != nil {
			return err
		}
		return tx.Model(&model.Course{}).
			Where("id = ?", courseID).
			UpdateColumn("rating", avg).Error
	})
}
