package admin

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/services"
	"gorm.io/gorm"
)

// AdminHandler handles the admin console endpoints
type AdminHandler struct {
	db            *gorm.DB
	doubts        *services.DoubtService
	thoughts      *services.ThoughtService
	notifications *services.NotificationService
	coins         *services.CoinService
	analytics     *services.AnalyticsService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	db *gorm.DB,
	doubts *services.DoubtService,
	thoughts *services.ThoughtService,
	notifications *services.NotificationService,
	coins *services.CoinService,
	analytics *services.AnalyticsService,
) *AdminHandler {
	return &AdminHandler{
		db:            db,
		doubts:        doubts,
		thoughts:      thoughts,
		notifications: notifications,
		coins:         coins,
		analytics:     analytics,
	}
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
	limit = c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}
