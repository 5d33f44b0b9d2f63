package settings

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/model"
	"github.com/learnhub/api/utils/middleware"
	"github.com/learnhub/api/utils/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SettingsHandler handles per-user settings
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// loadOrCreate returns the user's settings, creating the default record on
// first access.
func (h *SettingsHandler) loadOrCreate(userID uint) (*model.Settings, error) {
	var settings model.Settings
	err := h.db.Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings = model.DefaultSettings(userID)
	if err := h.db.Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Get returns the authenticated user's settings
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	settings, err := h.loadOrCreate(userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load settings")
	}
	return response.Success(c, settings)
}

// UpdateRequest carries the sections a user may replace. Omitted sections are
// left untouched.
type UpdateRequest struct {
	Notifications *model.NotificationSettings `json:"notifications,omitempty"`
	Privacy       *model.PrivacySettings      `json:"privacy,omitempty"`
	Preferences   *model.PreferenceSettings   `json:"preferences,omitempty"`
	Security      *model.SecuritySettings     `json:"security,omitempty"`
}

// Update replaces the provided settings sections
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Notifications == nil && req.Privacy == nil && req.Preferences == nil && req.Security == nil {
		return response.BadRequest(c, "Nothing to update")
	}

	settings, err := h.loadOrCreate(userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load settings")
	}

	updates := map[string]interface{}{}
	if req.Notifications != nil {
		updates["notifications"] = datatypes.NewJSONType(*req.Notifications)
	}
	if req.Privacy != nil {
		switch req.Privacy.ProfileVisibility {
		case "public", "students", "private":
		default:
			return response.BadRequest(c, "Invalid profile visibility")
		}
		updates["privacy"] = datatypes.NewJSONType(*req.Privacy)
	}
	if req.Preferences != nil {
		updates["preferences"] = datatypes.NewJSONType(*req.Preferences)
	}
	if req.Security != nil {
		updates["security"] = datatypes.NewJSONType(*req.Security)
	}

	if err := h.db.Model(settings).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to save settings")
	}

	return response.Success(c, settings)
}

// Reset restores the user's settings to defaults
func (h *SettingsHandler) Reset(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	defaults := model.DefaultSettings(userID)
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.Settings{}).Error; err != nil {
			return err
		}
		return tx.Create(&defaults).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to reset settings")
	}

	return response.Success(c, defaults)
}
