package course

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/model"
	"github.com/learnhub/api/services"
	"github.com/learnhub/api/utils/middleware"
	"github.com/learnhub/api/utils/response"
	"gorm.io/gorm"
)

// CourseHandler handles catalog requests
type CourseHandler struct {
	db      *gorm.DB
	courses *services.CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, courses *services.CourseService) *CourseHandler {
	return &CourseHandler{db: db, courses: courses}
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func parsePagination(c *fiber.Ctx) (page, limit, offset int) {
	page = c.QueryInt("page", 1)
	limit = c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit, (page - 1) * limit
}

// ListCourses returns published courses. Admins may pass ?status= to see
// drafts and archived courses.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)

	opts := services.ListCoursesOptions{
		Status:   string(model.CourseStatusPublished),
		Category: c.Query("category"),
		Level:    c.Query("level"),
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   offset,
	}

	// Only admins may look past the published catalog
	if role, _ := middleware.GetUserRole(c); role == model.RoleAdmin {
		opts.Status = c.Query("status")
	}

	courses, total, err := h.courses.List(c.Context(), opts)
	if err != nil {
		return response.InternalServerError(c, "Failed to list courses")
	}

	return response.Paginated(c, courses, response.CalculatePagination(page, limit, total))
}

// GetCourse returns one course. Unpublished courses are only visible to admins.
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.courses.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to load course")
	}

	if course.Status != model.CourseStatusPublished {
		if role, _ := middleware.GetUserRole(c); role != model.RoleAdmin {
			return response.NotFound(c, "Course not found")
		}
	}

	return response.Success(c, course)
}

// CourseRequest carries course fields for create and update
type CourseRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Instructor  string  `json:"instructor" validate:"required"`
	Duration    string  `json:"duration,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
	Image       string  `json:"image,omitempty"`
	Status      string  `json:"status,omitempty"`
	Category    string  `json:"category,omitempty"`
	Level       string  `json:"level,omitempty"`
}

// CreateCourse creates a course (admin only)
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Title == "" || req.Description == "" || req.Instructor == "" {
		return response.BadRequest(c, "Title, description, and instructor are required")
	}
	if req.Price < 0 {
		return response.BadRequest(c, "Price cannot be negative")
	}

	status := model.CourseStatus(req.Status)
	if status == "" {
		status = model.CourseStatusPublished
	}
	switch status {
	case model.CourseStatusDraft, model.CourseStatusPublished, model.CourseStatusArchived:
	default:
		return response.BadRequest(c, "Invalid course status")
	}

	adminID, _ := middleware.GetUserID(c)
	course := model.Course{
		Title:       req.Title,
		Description: req.Description,
		Instructor:  req.Instructor,
		Duration:    req.Duration,
		Price:       req.Price,
		Image:       req.Image,
		Status:      status,
		Category:    req.Category,
		Level:       req.Level,
		CreatedByID: &adminID,
	}
	if err := h.courses.Create(c.Context(), &course); err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// UpdateCourse edits a course (admin only)
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Instructor != "" {
		updates["instructor"] = req.Instructor
	}
	if req.Duration != "" {
		updates["duration"] = req.Duration
	}
	if req.Price > 0 {
		updates["price"] = req.Price
	}
	if req.Image != "" {
		updates["image"] = req.Image
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Level != "" {
		updates["level"] = req.Level
	}
	if req.Status != "" {
		switch model.CourseStatus(req.Status) {
		case model.CourseStatusDraft, model.CourseStatusPublished, model.CourseStatusArchived:
			updates["status"] = req.Status
		default:
			return response.BadRequest(c, "Invalid course status")
		}
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "Nothing to update")
	}

	course, err := h.courses.Update(c.Context(), id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to update course")
	}

	return response.Success(c, course)
}

// DeleteCourse removes a course (admin only)
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	if err := h.courses.Delete(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to delete course")
	}

	return response.SuccessWithMessage(c, "Course deleted", nil)
}
