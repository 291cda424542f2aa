package handlers

import (
	"log/slog"
	"strings"

	"swapdesk/internal/services/trade"
	"swapdesk/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	trades trade.Service
	logger *slog.Logger
}

func NewAdminHandler(trades trade.Service, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{trades: trades, logger: logger}
}

// ListTrades returns trades across all takers, newest first.
func (h *AdminHandler) ListTrades(c *fiber.Ctx) error {
	filter, err := tradeFilter(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	filter.TakerAddress = strings.TrimSpace(c.Query("takerAddress"))

	trades, err := h.trades.List(c.UserContext(), filter)
	if err != nil {
		return utils.HandleError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"trades": trades, "count": len(trades), "limit": filter.Limit})
}

// Stats returns trade counts and collected fees.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.trades.Stats(c.UserContext())
	if err != nil {
		return utils.HandleError(c, h.logger, err)
	}
	return utils.Success(c, stats)
}
