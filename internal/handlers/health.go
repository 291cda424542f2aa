package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store   Pinger
	backend string
	logger  *slog.Logger
}

func NewHealthHandler(store Pinger, backend string, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{store: store, backend: backend, logger: logger}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, code := "ok", fiber.StatusOK
	storeState := "connected"
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("trade store unreachable", "backend", h.backend, "error", err)
		status, code = "degraded", fiber.StatusServiceUnavailable
		storeState = "unreachable"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"version": Version,
		"services": fiber.Map{
			"tradeStore": fiber.Map{
				"backend": h.backend,
				"state":   storeState,
			},
		},
	})
}
