package thought

import (
	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/utils/middleware"
	"github.com/learnhub/api/utils/response"
)

// CoinBalance is the user's current balance
type CoinBalance struct {
	Coins int64 `json:"coins"`
}

// MyCoins returns the authenticated user's coin balance
func (h *ThoughtHandler) MyCoins(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	balance, err := h.coins.BalanceOf(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load balance")
	}
	return response.Success(c, CoinBalance{Coins: balance})
}

// MyTransactions returns a page of the user's ledger entries, newest first,
// annotated with running balances and the related doubt or thought
func (h *ThoughtHandler) MyTransactions(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	page, limit, offset := parsePagination(c)
	entries, total, err := h.coins.LedgerFor(c.Context(), userID, limit, offset)
	if err != nil {
		return response.InternalServerError(c, "Failed to load transactions")
	}

	return response.Paginated(c, entries, response.CalculatePagination(page, limit, total))
}

// Leaderboard ranks users by coin balance
func (h *ThoughtHandler) Leaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	entries, err := h.coins.Leaderboard(c.Context(), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to load leaderboard")
	}
	return response.Success(c, entries)
}
