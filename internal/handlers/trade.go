package handlers

import (
	"log/slog"
	"strings"

	"swapdesk/internal/models"
	"swapdesk/internal/services/allowance"
	"swapdesk/internal/services/fee"
	"swapdesk/internal/services/quote"
	"swapdesk/internal/services/trade"
	"swapdesk/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// Fee endpoint actions.
const (
	FeeActionHistory = "history"
	FeeActionConfig  = "config"
)

type TradeHandler struct {
	quotes    quote.Service
	trades    trade.Service
	allowance allowance.Service
	fees      *fee.Calculator
	logger    *slog.Logger
}

func NewTradeHandler(
	quotes quote.Service,
	trades trade.Service,
	allowanceService allowance.Service,
	fees *fee.Calculator,
	logger *slog.Logger,
) *TradeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TradeHandler{
		quotes:    quotes,
		trades:    trades,
		allowance: allowanceService,
		fees:      fees,
		logger:    logger,
	}
}

// Quote returns an indicative price with the platform fee applied.
func (h *TradeHandler) Quote(c *fiber.Ctx) error {
	var req models.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	q, err := h.quotes.GetQuote(c.UserContext(), req)
	if err != nil {
		return utils.HandleError(c, h.logger, err)
	}
	return utils.Success(c, q)
}

// Swap builds an executable transaction and records a pending trade.
func (h *TradeHandler) Swap(c *fiber.Ctx) error {
	var req models.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	swap, err := h.quotes.BuildSwap(c.UserContext(), req)
	if err != nil {
		return utils.HandleError(c, h.logger, err)
	}
	return utils.Success(c, swap)
}

// UpdateSwap records the on-chain outcome of a trade.
func (h *TradeHandler) UpdateSwap(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Query("tradeId"))
	if id == "" {
		return utils.BadRequest(c, "tradeId is required")
	}

	var upd models.TradeStatusUpdate
	if err := c.BodyParser(&upd); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	rec, err := h.trades.UpdateStatus(c.UserContext(), id, upd)
	if err != nil {
		return utils.HandleError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"trade": rec})
}

// GetSwap fetches one trade by tradeId or lists a taker's trades.
func (h *TradeHandler) GetSwap(c *fiber.Ctx) error {
	if id := strings.TrimSpace(c.Query("tradeId")); id != "" {
		rec, err := h.trades.Get(c.UserContext(), id)
		if err != nil {
			return utils.HandleError(c, h.logger, err)
		}
		return utils.Success(c, fiber.Map{"trade": rec})
	}

	taker := strings.TrimSpace(c.Query("takerAddress"))
	if taker == "" {
		return utils.BadRequest(c, "tradeId or takerAddress is required")
	}

	filter, err := tradeFilter(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	filter.TakerAddress = taker

	trades, err := h.trades.List(c.UserContext(), filter)
	if err != nil {
		return utils.HandleError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"trades": trades, "count": len(trades)})
}

// Allowance reports whether the owner must approve the aggregator first.
// Parameters come from the query string on GET and the body on POST.
func (h *TradeHandler) Allowance(c *fiber.Ctx) error {
	var req models.AllowanceRequest
	if err := parseInput(c, &req); err != nil {
		return utils.BadRequest(c, "invalid request parameters")
	}

	state, err := h.allowance.Check(c.UserContext(), req)
	if err != nil {
		return utils.HandleError(c, h.logger, err)
	}
	return utils.Success(c, state)
}

// Fees runs the offline fee calculator, or serves trade statistics
// (?action=history) and the active fee configuration (?action=config).
func (h *TradeHandler) Fees(c *fiber.Ctx) error {
	switch action := c.Query("action"); action {
	case FeeActionHistory:
		stats, err := h.trades.Stats(c.UserContext())
		if err != nil {
			return utils.HandleError(c, h.logger, err)
		}
		return utils.Success(c, stats)
	case FeeActionConfig:
		return utils.Success(c, h.fees.Config())
	case "":
	default:
		return utils.BadRequest(c, "unknown action "+action)
	}

	var req models.FeeRequest
	if err := parseInput(c, &req); err != nil {
		return utils.BadRequest(c, "invalid request parameters")
	}

	breakdown, err := h.fees.Calculate(req)
	if err != nil {
		return utils.HandleError(c, h.logger, err)
	}
	return utils.Success(c, breakdown)
}

func parseInput(c *fiber.Ctx, out interface{}) error {
	if c.Method() == fiber.MethodGet {
		return c.QueryParser(out)
	}
	return c.BodyParser(out)
}
