package admin

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/model"
	"github.com/learnhub/api/services"
	"github.com/learnhub/api/utils/middleware"
	"github.com/learnhub/api/utils/response"
	"gorm.io/gorm"
)

// ListNotifications returns all notifications for the admin console
// GET /admin/notifications
func (h *AdminHandler) ListNotifications(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)
	notifications, total, err := h.notifications.List(c.Context(), services.ListNotificationsOptions{
		Status: c.Query("status"),
		Type:   c.Query("type"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to list notifications")
	}

	return response.Paginated(c, notifications, response.CalculatePagination(page, limit, total))
}

// GetNotification returns one notification
// GET /admin/notifications/:id
func (h *AdminHandler) GetNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	notification, err := h.notifications.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Notification not found")
		}
		return response.InternalServerError(c, "Failed to load notification")
	}

	return response.Success(c, notification)
}

// CreateNotificationRequest carries a new notification
type CreateNotificationRequest struct {
	Title        string     `json:"title" validate:"required,max=255"`
	Message      string     `json:"message" validate:"required"`
	Type         string     `json:"type,omitempty"`
	Audience     string     `json:"target_audience,omitempty"`
	TargetUsers  []uint     `json:"target_users,omitempty"`
	Priority     string     `json:"priority,omitempty"`
	Link         string     `json:"link,omitempty"`
	Icon         string     `json:"icon,omitempty"`
	Draft        bool       `json:"draft,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// CreateNotification creates a notification. Without draft or scheduled_for
// it fans out to its audience immediately.
// POST /admin/notifications
func (h *AdminHandler) CreateNotification(c *fiber.Ctx) error {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var req CreateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Title == "" || req.Message == "" {
		return response.BadRequest(c, "Title and message are required")
	}

	notification, err := h.notifications.Create(c.Context(), services.CreateNotificationRequest{
		Title:        req.Title,
		Message:      req.Message,
		Type:         model.NotificationType(req.Type),
		Audience:     model.NotificationAudience(req.Audience),
		TargetUsers:  req.TargetUsers,
		Priority:     model.NotificationPriority(req.Priority),
		Link:         req.Link,
		Icon:         req.Icon,
		SentByID:     adminID,
		Draft:        req.Draft,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAudienceEmpty):
			return response.BadRequest(c, "Audience resolved to no users")
		case errors.Is(err, services.ErrScheduleRequired):
			return response.BadRequest(c, "Scheduled time must be in the future")
		default:
			return response.InternalServerError(c, "Failed to create notification")
		}
	}

	return response.Created(c, notification)
}

// UpdateNotificationRequest carries edits to an unsent notification
type UpdateNotificationRequest struct {
	Title        string     `json:"title,omitempty"`
	Message      string     `json:"message,omitempty"`
	Priority     string     `json:"priority,omitempty"`
	Link         string     `json:"link,omitempty"`
	Icon         string     `json:"icon,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// UpdateNotification edits a draft or scheduled notification
// PUT /admin/notifications/:id
func (h *AdminHandler) UpdateNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	var req UpdateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Message != "" {
		updates["message"] = req.Message
	}
	if req.Priority != "" {
		updates["priority"] = req.Priority
	}
	if req.Link != "" {
		updates["link"] = req.Link
	}
	if req.Icon != "" {
		updates["icon"] = req.Icon
	}
	if req.ScheduledFor != nil {
		if !req.ScheduledFor.After(time.Now()) {
			return response.BadRequest(c, "Scheduled time must be in the future")
		}
		updates["scheduled_for"] = req.ScheduledFor
		updates["status"] = model.NotificationStatusScheduled
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "Nothing to update")
	}

	notification, err := h.notifications.Update(c.Context(), id, updates)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Notification not found")
		case errors.Is(err, services.ErrAlreadySent):
			return response.Conflict(c, "Sent notifications cannot be edited")
		default:
			return response.InternalServerError(c, "Failed to update notification")
		}
	}

	return response.Success(c, notification)
}

// SendNotificationRequest optionally narrows a specific audience at send time
type SendNotificationRequest struct {
	TargetUsers []uint `json:"target_users,omitempty"`
}

// SendNotification dispatches a draft or scheduled notification immediately
// POST /admin/notifications/:id/send
func (h *AdminHandler) SendNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	var req SendNotificationRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	notification, err := h.notifications.Send(c.Context(), id, req.TargetUsers)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Notification not found")
		case errors.Is(err, services.ErrAlreadySent):
			return response.Conflict(c, "Notification has already been sent")
		case errors.Is(err, services.ErrAudienceEmpty):
			return response.BadRequest(c, "Audience resolved to no users")
		default:
			return response.InternalServerError(c, "Failed to send notification")
		}
	}

	return response.Success(c, notification)
}

// DeleteNotification removes a notification
// DELETE /admin/notifications/:id
func (h *AdminHandler) DeleteNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	if err := h.notifications.Delete(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Notification not found")
		}
		return response.InternalServerError(c, "Failed to delete notification")
	}

	return response.SuccessWithMessage(c, "Notification deleted", nil)
}
