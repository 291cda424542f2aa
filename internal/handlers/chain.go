package handlers

import (
	"swapdesk/internal/services/chain"
	"swapdesk/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type ChainHandler struct {
	chains *chain.Registry
}

func NewChainHandler(chains *chain.Registry) *ChainHandler {
	return &ChainHandler{chains: chains}
}

// List returns every supported chain ordered by ID.
func (h *ChainHandler) List(c *fiber.Ctx) error {
	chains := h.chains.All()
	return utils.Success(c, fiber.Map{"chains": chains, "count": len(chains)})
}
