package content

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/model"
	"github.com/learnhub/api/utils/middleware"
	"github.com/learnhub/api/utils/response"
	"gorm.io/gorm"
)

// ContentHandler handles the study material library
type ContentHandler struct {
	db *gorm.DB
}

// NewContentHandler creates a new content handler
func NewContentHandler(db *gorm.DB) *ContentHandler {
	return &ContentHandler{db: db}
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// List returns published content. Admins may pass ?status= to see drafts.
func (h *ContentHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.Content{})

	status := string(model.ContentStatusPublished)
	if role, _ := middleware.GetUserRole(c); role == model.RoleAdmin {
		status = c.Query("status")
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count content")
	}

	var items []model.Content
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&items).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to list content")
	}

	return response.Paginated(c, items, response.CalculatePagination(page, limit, total))
}

// Get returns one content item and counts the view
func (h *ContentHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID")
	}

	var item model.Content
	if err := h.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Content not found")
		}
		return response.InternalServerError(c, "Failed to load content")
	}

	if item.Status != model.ContentStatusPublished {
		if role, _ := middleware.GetUserRole(c); role != model.RoleAdmin {
			return response.NotFound(c, "Content not found")
		}
	}

	h.db.Model(&item).UpdateColumn("views", gorm.Expr("views + 1"))
	item.Views++

	return response.Success(c, item)
}

// View counts a view without returning the full record
func (h *ContentHandler) View(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID")
	}

	result := h.db.Model(&model.Content{}).
		Where("id = ? AND status = ?", id, model.ContentStatusPublished).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to count view")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Content not found")
	}

	return response.SuccessWithMessage(c, "View counted", nil)
}

// Download returns the content URL and counts the download
func (h *ContentHandler) Download(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID")
	}

	var item model.Content
	if err := h.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Content not found")
		}
		return response.InternalServerError(c, "Failed to load content")
	}
	if item.Status != model.ContentStatusPublished {
		return response.NotFound(c, "Content not found")
	}

	h.db.Model(&item).UpdateColumn("downloads", gorm.Expr("downloads + 1"))

	return response.Success(c, fiber.Map{"url": item.URL})
}

// ContentRequest carries content fields for create and update
type ContentRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Category    string `json:"category,omitempty"`
	URL         string `json:"url" validate:"required,url"`
	Status      string `json:"status,omitempty"`
}

// Create stores a new content item (admin only)
func (h *ContentHandler) Create(c *fiber.Ctx) error {
	var req ContentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Title == "" || req.URL == "" {
		return response.BadRequest(c, "Title and URL are required")
	}

	status := model.ContentStatus(req.Status)
	if status == "" {
		status = model.ContentStatusPublished
	}

	adminID, _ := middleware.GetUserID(c)
	item := model.Content{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Category:    req.Category,
		URL:         req.URL,
		Status:      status,
		CreatedByID: &adminID,
	}
	if item.Type == "" {
		item.Type = "article"
	}

	if err := h.db.Create(&item).Error; err != nil {
		return response.InternalServerError(c, "Failed to create content")
	}
	return response.Created(c, item)
}

// Update edits a content item (admin only)
func (h *ContentHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID")
	}

	var item model.Content
	if err := h.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Content not found")
		}
		return response.InternalServerError(c, "Failed to load content")
	}

	var req ContentRequest
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
	if req.Type != "" {
		updates["type"] = req.Type
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.URL != "" {
		updates["url"] = req.URL
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "Nothing to update")
	}

	if err := h.db.Model(&item).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to update content")
	}
	return response.Success(c, item)
}

// Delete removes a content item (admin only)
func (h *ContentHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID")
	}

	result := h.db.Delete(&model.Content{}, id)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete content")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Content not found")
	}

	return response.SuccessWithMessage(c, "Content deleted", nil)
}
