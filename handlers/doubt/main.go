package doubt

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

// DoubtHandler handles the user-facing doubt endpoints
type DoubtHandler struct {
	db     *gorm.DB
	doubts *services.DoubtService
}

// NewDoubtHandler creates a new doubt handler
func NewDoubtHandler(db *gorm.DB, doubts *services.DoubtService) *DoubtHandler {
	return &DoubtHandler{db: db, doubts: doubts}
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

// SubmitRequest carries a new doubt
type SubmitRequest struct {
	Question string `json:"question" validate:"required,max=1000"`
}

// Submit creates a new pending doubt
func (h *DoubtHandler) Submit(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	doubt, err := h.doubts.Submit(c.Context(), userID, req.Question)
	if err != nil {
		if errors.Is(err, services.ErrQuestionInvalid) {
			return response.BadRequest(c, "Question must be between 1 and 1000 characters")
		}
		return response.InternalServerError(c, "Failed to submit doubt")
	}

	return response.Created(c, doubt)
}

// MyDoubts lists the authenticated user's doubts
func (h *DoubtHandler) MyDoubts(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	page, limit, offset := parsePagination(c)
	doubts, total, err := h.doubts.List(c.Context(), services.ListDoubtsOptions{
		UserID: userID,
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to list doubts")
	}

	return response.Paginated(c, doubts, response.CalculatePagination(page, limit, total))
}

// GetDoubt returns one of the user's doubts. Admins may view any doubt.
func (h *DoubtHandler) GetDoubt(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid doubt ID")
	}

	doubt, err := h.doubts.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Doubt not found")
		}
		return response.InternalServerError(c, "Failed to load doubt")
	}

	role, _ := middleware.GetUserRole(c)
	if doubt.AskedByID != userID && role != model.RoleAdmin {
		return response.Forbidden(c, "Access denied")
	}

	return response.Success(c, doubt)
}

// MyStats returns doubt counts and coins earned from doubts
func (h *DoubtHandler) MyStats(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	stats, err := h.doubts.StatsFor(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load stats")
	}
	return response.Success(c, stats)
}

// Delete removes one of the user's pending doubts
func (h *DoubtHandler) Delete(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid doubt ID")
	}

	role, _ := middleware.GetUserRole(c)
	err = h.doubts.Delete(c.Context(), id, userID, role == model.RoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Doubt not found")
		case errors.Is(err, services.ErrDoubtNotOwned):
			return response.Forbidden(c, "Access denied")
		case errors.Is(err, services.ErrDoubtNotPending):
			return response.BadRequest(c, "Only pending doubts can be deleted")
		default:
			return response.InternalServerError(c, "Failed to delete doubt")
		}
	}

	return response.SuccessWithMessage(c, "Doubt deleted", nil)
}
