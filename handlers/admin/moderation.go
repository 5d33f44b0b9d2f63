package admin

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/model"
	"github.com/learnhub/api/services"
	"github.com/learnhub/api/utils/middleware"
	"github.com/learnhub/api/utils/response"
	"gorm.io/gorm"
)

// ListDoubts returns all doubts, filterable by status
// GET /admin/doubts
func (h *AdminHandler) ListDoubts(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)
	doubts, total, err := h.doubts.List(c.Context(), services.ListDoubtsOptions{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to list doubts")
	}

	return response.Paginated(c, doubts, response.CalculatePagination(page, limit, total))
}

// AnswerDoubtRequest carries the admin's response
type AnswerDoubtRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	URL         string `json:"url,omitempty"`
}

// AnswerDoubt resolves a pending doubt and rewards the asker
// POST /admin/doubts/:id/answer
func (h *AdminHandler) AnswerDoubt(c *fiber.Ctx) error {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid doubt ID")
	}

	var req AnswerDoubtRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Title == "" || req.Description == "" {
		return response.BadRequest(c, "Title and description are required")
	}
	if len(req.Title) > 200 || len(req.Description) > 2000 {
		return response.BadRequest(c, "Title or description too long")
	}
	if req.URL != "" {
		parsed, err := url.Parse(req.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return response.BadRequest(c, "Response URL must be a valid http(s) link")
		}
	}

	doubt, err := h.doubts.Answer(c.Context(), id, adminID, services.AnswerRequest{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Doubt not found")
		case errors.Is(err, services.ErrDoubtNotPending):
			return response.BadRequest(c, "Doubt has already been answered or closed")
		case errors.Is(err, services.ErrInsufficientFunds):
			return response.Conflict(c, "Reward pool cannot cover the payout")
		default:
			return response.InternalServerError(c, "Failed to answer doubt")
		}
	}

	return response.Success(c, doubt)
}

// CloseDoubt marks a doubt as closed without a reward
// POST /admin/doubts/:id/close
func (h *AdminHandler) CloseDoubt(c *fiber.Ctx) error {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid doubt ID")
	}

	doubt, err := h.doubts.Close(c.Context(), id, adminID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Doubt not found")
		case errors.Is(err, services.ErrDoubtAlreadyClosed):
			return response.BadRequest(c, "Doubt is already closed")
		default:
			return response.InternalServerError(c, "Failed to close doubt")
		}
	}

	return response.Success(c, doubt)
}

// ListThoughts returns all thoughts, filterable by status
// GET /admin/thoughts
func (h *AdminHandler) ListThoughts(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)
	thoughts, total, err := h.thoughts.List(c.Context(), services.ListThoughtsOptions{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to list thoughts")
	}

	return response.Paginated(c, thoughts, response.CalculatePagination(page, limit, total))
}

// GetThought returns one thought with its participants
// GET /admin/thoughts/:id
func (h *AdminHandler) GetThought(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid thought ID")
	}

	thought, err := h.thoughts.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Thought not found")
		}
		return response.InternalServerError(c, "Failed to load thought")
	}

	return response.Success(c, thought)
}

// DeleteThought removes a thought in any state
// DELETE /admin/thoughts/:id
func (h *AdminHandler) DeleteThought(c *fiber.Ctx) error {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid thought ID")
	}

	if err := h.thoughts.Delete(c.Context(), id, adminID, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Thought not found")
		}
		return response.InternalServerError(c, "Failed to delete thought")
	}

	return response.SuccessWithMessage(c, "Thought deleted", nil)
}

// ReviewThoughtRequest carries the moderation decision notes
type ReviewThoughtRequest struct {
	ReviewNotes string `json:"review_notes,omitempty" validate:"max=500"`
}

// ApproveThoughtRequest adds announcement targeting to the review decision
type ApproveThoughtRequest struct {
	ReviewNotes    string `json:"review_notes,omitempty" validate:"max=500"`
	TargetAudience string `json:"target_audience,omitempty"`
	TargetUsers    []uint `json:"target_users,omitempty"`
	Priority       string `json:"priority,omitempty"`
}

// ApproveThought publishes a pending thought and rewards the author
// POST /admin/thoughts/:id/approve
func (h *AdminHandler) ApproveThought(c *fiber.Ctx) error {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid thought ID")
	}

	var req ApproveThoughtRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	thought, err := h.thoughts.Approve(c.Context(), id, adminID, services.ApproveRequest{
		ReviewNotes: req.ReviewNotes,
		Audience:    model.NotificationAudience(req.TargetAudience),
		TargetUsers: req.TargetUsers,
		Priority:    model.NotificationPriority(req.Priority),
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Thought not found")
		case errors.Is(err, services.ErrThoughtNotPending):
			return response.BadRequest(c, "Thought has already been reviewed")
		case errors.Is(err, services.ErrThoughtInvalid):
			return response.BadRequest(c, "Review notes too long")
		case errors.Is(err, services.ErrAudienceEmpty):
			return response.BadRequest(c, "Announcement audience resolves to nobody")
		case errors.Is(err, services.ErrInsufficientFunds):
			return response.Conflict(c, "Reward pool cannot cover the payout")
		default:
			return response.InternalServerError(c, "Failed to approve thought")
		}
	}

	return response.Success(c, thought)
}

// RejectThought declines a pending thought. Review notes are mandatory.
// POST /admin/thoughts/:id/reject
func (h *AdminHandler) RejectThought(c *fiber.Ctx) error {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid thought ID")
	}

	var req ReviewThoughtRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	thought, err := h.thoughts.Reject(c.Context(), id, adminID, req.ReviewNotes)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Thought not found")
		case errors.Is(err, services.ErrThoughtNotPending):
			return response.BadRequest(c, "Thought has already been reviewed")
		case errors.Is(err, services.ErrReviewNotesRequired):
			return response.BadRequest(c, "Review notes are required when rejecting")
		case errors.Is(err, services.ErrThoughtInvalid):
			return response.BadRequest(c, "Review notes too long")
		default:
			return response.InternalServerError(c, "Failed to reject thought")
		}
	}

	return response.Success(c, thought)
}
