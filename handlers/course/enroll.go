package course

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/services"
	"github.com/learnhub/api/utils/middleware"
	"github.com/learnhub/api/utils/response"
	"gorm.io/gorm"
)

// Enroll enrolls the authenticated user in a published course
func (h *CourseHandler) Enroll(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	courseID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	enrollment, err := h.courses.Enroll(c.Context(), userID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrCourseNotPublished):
			return response.BadRequest(c, "Course is not open for enrollment")
		case errors.Is(err, services.ErrAlreadyEnrolled):
			return response.Conflict(c, "Already enrolled in this course")
		default:
			return response.InternalServerError(c, "Failed to enroll")
		}
	}

	return response.Created(c, enrollment)
}

// MyEnrollments lists the authenticated user's enrollments with their courses
func (h *CourseHandler) MyEnrollments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	enrollments, err := h.courses.EnrollmentsFor(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list enrollments")
	}

	return response.Success(c, enrollments)
}

// ProgressRequest carries a progress update
type ProgressRequest struct {
	Progress         int `json:"progress" validate:"gte=0,lte=100"`
	CompletedLessons int `json:"completed_lessons,omitempty"`
}

// UpdateProgress records the user's progress in a course
func (h *CourseHandler) UpdateProgress(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	courseID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req ProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	enrollment, err := h.courses.UpdateProgress(c.Context(), userID, courseID, req.Progress, req.CompletedLessons)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidProgress):
			return response.BadRequest(c, "Progress must be between 0 and 100")
		case errors.Is(err, services.ErrNotEnrolled):
			return response.NotFound(c, "Not enrolled in this course")
		default:
			return response.InternalServerError(c, "Failed to update progress")
		}
	}

	return response.Success(c, enrollment)
}

// DropEnrollment marks the user's active enrollment as dropped
func (h *CourseHandler) DropEnrollment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	courseID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	if err := h.courses.Drop(c.Context(), userID, courseID); err != nil {
		if errors.Is(err, services.ErrNotEnrolled) {
			return response.NotFound(c, "No active enrollment for this course")
		}
		return response.InternalServerError(c, "Failed to drop enrollment")
	}

	return response.SuccessWithMessage(c, "Enrollment dropped", nil)
}

// RateRequest carries a course rating and optional review
type RateRequest struct {
	Rating float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Review string  `json:"review,omitempty"`
}

// RateCourse records a rating from an enrolled user
func (h *CourseHandler) RateCourse(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	courseID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req RateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.courses.Rate(c.Context(), userID, courseID, req.Rating, req.Review); err != nil {
		if errors.Is(err, services.ErrNotEnrolled) {
			return response.NotFound(c, "Not enrolled in this course")
		}
		return response.BadRequest(c, err.Error())
	}

	return response.SuccessWithMessage(c, "Rating saved", nil)
}
