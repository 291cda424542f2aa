// Package routes defines the API routing configuration.
package routes

import (
	"log/slog"
	"net/http"

	"swapdesk/internal/handlers"
	"swapdesk/internal/middleware"
	"swapdesk/internal/models"
	"swapdesk/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Handlers bundles everything SetupRoutes mounts. Admin routes are mounted
// only when AdminSecret is set; /metrics only when Metrics is non-nil.
type Handlers struct {
	Trade   *handlers.TradeHandler
	Chain   *handlers.ChainHandler
	Health  *handlers.HealthHandler
	Admin   *handlers.AdminHandler
	Metrics http.Handler

	AdminSecret string
	Logger      *slog.Logger
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers) {
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("swapdesk") })

	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.Metrics))
	}

	api := app.Group("/api")
	api.Get("/health", h.Health.HealthCheck)
	api.Get("/chains", h.Chain.List)

	tradeGroup := api.Group("/trade")
	tradeGroup.Post("/quote", h.Trade.Quote)
	tradeGroup.Post("/swap", h.Trade.Swap)
	tradeGroup.Patch("/swap", h.Trade.UpdateSwap)
	tradeGroup.Get("/swap", h.Trade.GetSwap)
	tradeGroup.Get("/allowance", h.Trade.Allowance)
	tradeGroup.Post("/allowance", h.Trade.Allowance)
	tradeGroup.Get("/fees", h.Trade.Fees)
	tradeGroup.Post("/fees", h.Trade.Fees)

	if h.AdminSecret != "" && h.Admin != nil {
		auth := middleware.NewAdminAuth(h.AdminSecret, h.Logger)
		admin := api.Group("/admin", auth.Handler)
		admin.Get("/trades", middleware.HasPermission(models.PermissionTradesRead), h.Admin.ListTrades)
		admin.Get("/stats", middleware.HasPermission(models.PermissionFeesRead), h.Admin.Stats)
	}

	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFound(c, "route not found")
	})
}
