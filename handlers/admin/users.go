package admin

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/model"
	"github.com/learnhub/api/services"
	"github.com/learnhub/api/utils/auth"
	"github.com/learnhub/api/utils/middleware"
	"github.com/learnhub/api/utils/response"
	"gorm.io/gorm"
)

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
	Role    string `query:"role"`
	Search  string `query:"search"`
	Sort    string `query:"sort"`
	SortDir string `query:"sort_dir"`
}

// ListUsers retrieves all users with pagination and filters
// GET /admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	// Default pagination
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Sort != "created_at" && req.Sort != "name" && req.Sort != "email" && req.Sort != "coins" {
		req.Sort = "created_at"
	}
	if req.SortDir != "asc" && req.SortDir != "desc" {
		req.SortDir = "desc"
	}

	query := h.db.Model(&model.User{})
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	err := query.
		Order(req.Sort + " " + req.SortDir).
		Limit(req.Limit).
		Offset((req.Page - 1) * req.Limit).
		Find(&users).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	responses := make([]model.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}

	return response.Paginated(c, responses, response.CalculatePagination(req.Page, req.Limit, total))
}

// GetUser returns one user with their activity summary
// GET /admin/users/:id
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	var enrollments, doubts, thoughts int64
	h.db.Model(&model.Enrollment{}).Where("user_id = ?", id).Count(&enrollments)
	h.db.Model(&model.Doubt{}).Where("asked_by_id = ?", id).Count(&doubts)
	h.db.Model(&model.Thought{}).Where("submitted_by_id = ?", id).Count(&thoughts)

	return response.Success(c, fiber.Map{
		"user":        user.ToResponse(),
		"enrollments": enrollments,
		"doubts":      doubts,
		"thoughts":    thoughts,
	})
}

// UpdateUserRequest represents the request body for updating a user
type UpdateUserRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

// UpdateUser edits a user's name, role, or active flag
// PUT /admin/users/:id
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Role != "" {
		if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
			return response.BadRequest(c, "Invalid role")
		}
		updates["role"] = req.Role
	}
	if req.IsActive != nil {
		// Admins cannot deactivate themselves
		adminID, _ := middleware.GetUserID(c)
		if id == adminID && !*req.IsActive {
			return response.BadRequest(c, "Cannot deactivate your own account")
		}
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "Nothing to update")
	}

	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}

	return response.Success(c, user.ToResponse())
}

// SuspendUser toggles a user's active flag
// PATCH /admin/users/:id/suspend
func (h *AdminHandler) SuspendUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	adminID, _ := middleware.GetUserID(c)
	if id == adminID {
		return response.BadRequest(c, "Cannot deactivate your own account")
	}

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	if err := h.db.Model(&user).Update("is_active", !user.IsActive).Error; err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}

	user.IsActive = !user.IsActive
	return response.Success(c, user.ToResponse())
}

// DeleteUser soft-deletes a user account
// DELETE /admin/users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	adminID, _ := middleware.GetUserID(c)
	if id == adminID {
		return response.BadRequest(c, "Cannot delete your own account")
	}
	if id == h.coins.AdminPoolID() {
		return response.BadRequest(c, "Cannot delete the reward pool account")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", id).Delete(&model.Settings{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.SuccessWithMessage(c, "User deleted", nil)
}

// ResetPasswordRequest represents the request for admin password reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ResetUserPassword sets a new password for a user
// POST /admin/users/:id/reset-password
func (h *AdminHandler) ResetUserPassword(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if !auth.IsPasswordValid(req.NewPassword) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	result := h.db.Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to reset password")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "User not found")
	}

	return response.SuccessWithMessage(c, "Password reset", nil)
}

// TransferCoinsRequest represents a manual coin transfer
type TransferCoinsRequest struct {
	ToUserID uint   `json:"to_user_id" validate:"required"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Reason   string `json:"reason" validate:"required"`
}

// TransferCoins pays out coins from the pool to a user
// POST /admin/users/coins/transfer
func (h *AdminHandler) TransferCoins(c *fiber.Ctx) error {
	var req TransferCoinsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ToUserID == 0 || req.Amount <= 0 || req.Reason == "" {
		return response.BadRequest(c, "Recipient, positive amount, and reason are required")
	}

	err := h.coins.TransferFromPool(c.Context(), req.ToUserID, req.Amount, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Recipient not found")
		case errors.Is(err, services.ErrInsufficientFunds):
			return response.BadRequest(c, "Pool balance cannot cover this transfer")
		case errors.Is(err, services.ErrInvalidAmount):
			return response.BadRequest(c, "Amount must be positive")
		default:
			return response.InternalServerError(c, "Failed to transfer coins")
		}
	}

	return response.SuccessWithMessage(c, "Coins transferred", nil)
}
