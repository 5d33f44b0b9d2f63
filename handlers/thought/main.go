package thought

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

// ThoughtHandler handles the user-facing thought endpoints
type ThoughtHandler struct {
	db       *gorm.DB
	thoughts *services.ThoughtService
	coins    *services.CoinService
}

// NewThoughtHandler creates a new thought handler
func NewThoughtHandler(db *gorm.DB, thoughts *services.ThoughtService, coins *services.CoinService) *ThoughtHandler {
	return &ThoughtHandler{db: db, thoughts: thoughts, coins: coins}
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

// SubmitRequest carries a new thought
type SubmitRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=1000"`
}

// Submit creates a new pending thought
func (h *ThoughtHandler) Submit(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	thought, err := h.thoughts.Submit(c.Context(), userID, req.Title, req.Message)
	if err != nil {
		if errors.Is(err, services.ErrThoughtInvalid) {
			return response.BadRequest(c, "Title (max 200) and message (max 1000) are required")
		}
		return response.InternalServerError(c, "Failed to submit thought")
	}

	return response.Created(c, thought)
}

// Approved lists approved thoughts, the public wall
func (h *ThoughtHandler) Approved(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)
	thoughts, total, err := h.thoughts.List(c.Context(), services.ListThoughtsOptions{
		Status: string(model.ThoughtStatusApproved),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to list thoughts")
	}

	return response.Paginated(c, thoughts, response.CalculatePagination(page, limit, total))
}

// MyThoughts lists the authenticated user's thoughts in every state
func (h *ThoughtHandler) MyThoughts(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	page, limit, offset := parsePagination(c)
	thoughts, total, err := h.thoughts.List(c.Context(), services.ListThoughtsOptions{
		UserID: userID,
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to list thoughts")
	}

	return response.Paginated(c, thoughts, response.CalculatePagination(page, limit, total))
}

// MyStats returns thought counts and coins earned from thoughts
func (h *ThoughtHandler) MyStats(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	stats, err := h.thoughts.StatsFor(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load stats")
	}
	return response.Success(c, stats)
}

// Delete removes one of the user's pending thoughts
func (h *ThoughtHandler) Delete(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid thought ID")
	}

	role, _ := middleware.GetUserRole(c)
	err = h.thoughts.Delete(c.Context(), id, userID, role == model.RoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Thought not found")
		case errors.Is(err, services.ErrThoughtNotOwned):
			return response.Forbidden(c, "Access denied")
		case errors.Is(err, services.ErrThoughtNotPending):
			return response.BadRequest(c, "Only pending thoughts can be deleted")
		default:
			return response.InternalServerError(c, "Failed to delete thought")
		}
	}

	return response.SuccessWithMessage(c, "Thought deleted", nil)
}
