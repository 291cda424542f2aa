package handlers

import (
	"errors"

	"swapdesk/internal/models"
	"swapdesk/internal/services/trade"
	"swapdesk/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// tradeFilter reads status, chainId and limit from the query string.
func tradeFilter(c *fiber.Ctx) (models.TradeFilter, error) {
	filter := models.TradeFilter{
		Status: models.TradeStatus(c.Query("status")),
		Limit:  utils.GetLimit(c, trade.DefaultListLimit, trade.MaxListLimit),
	}
	chainID, ok, err := utils.GetInt64(c, "chainId")
	if err != nil {
		return filter, errors.New("chainId must be an integer")
	}
	if ok {
		filter.ChainID = chainID
	}
	return filter, nil
}
