// Package chain holds the static registry of chains the aggregator serves.
package chain

import (
	"sort"
	"strings"

	apperrors "swapdesk/internal/errors"
	"swapdesk/internal/models"
)

// NativeTokenPlaceholder is the address the aggregator uses for a chain's native asset on EVM chains.
const NativeTokenPlaceholder = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// NativeSOLMint is wrapped SOL, used as the native token on Solana.
const NativeSOLMint = "So11111111111111111111111111111111111111112"

// SolanaChainID is the identifier the aggregator uses for Solana mainnet.
const SolanaChainID int64 = 792703809

// Registry resolves chain IDs to configuration records. It is immutable after construction.
type Registry struct {
	chains map[int64]models.ChainConfig
}

// DefaultChains returns the chains served out of the box.
func DefaultChains() []models.ChainConfig {
	evm := func(id int64, name, symbol, explorer string, gasless bool) models.ChainConfig {
		return models.ChainConfig{
			ID:          id,
			Name:        name,
			Symbol:      symbol,
			ExplorerURL: explorer,
			VM:          models.VMEVM,
			NativeToken: NativeTokenPlaceholder,
			Features:    models.ChainFeatures{Quote: true, Swap: true, Gasless: gasless},
		}
	}
	return []models.ChainConfig{
		evm(1, "Ethereum", "ETH", "https://etherscan.io", true),
		evm(10, "Optimism", "ETH", "https://optimistic.etherscan.io", false),
		evm(56, "BNB Smart Chain", "BNB", "https://bscscan.com", false),
		evm(137, "Polygon", "POL", "https://polygonscan.com", true),
		evm(8453, "Base", "ETH", "https://basescan.org", true),
		evm(42161, "Arbitrum One", "ETH", "https://arbiscan.io", true),
		evm(43114, "Avalanche", "AVAX", "https://snowtrace.io", false),
		{
			ID:          SolanaChainID,
			Name:        "Solana",
			Symbol:      "SOL",
			ExplorerURL: "https://solscan.io",
			VM:          models.VMSVM,
			NativeToken: NativeSOLMint,
			// The swap/v1 API only prices EVM chains. Solana stays listed so
			// its addresses validate, but quotes are refused locally.
			Features: models.ChainFeatures{},
		},
	}
}

// NewRegistry builds a registry from chains. Later duplicates replace earlier ones.
func NewRegistry(chains []models.ChainConfig) *Registry {
	r := &Registry{chains: make(map[int64]models.ChainConfig, len(chains))}
	for _, c := range chains {
		r.chains[c.ID] = c
	}
	return r
}

// NewDefaultRegistry builds a registry of DefaultChains.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultChains())
}

// Get returns the record for id or an UnsupportedChain error.
func (r *Registry) Get(id int64) (models.ChainConfig, error) {
	c, ok := r.chains[id]
	if !ok {
		return models.ChainConfig{}, apperrors.UnsupportedChain(id)
	}
	return c, nil
}

// All returns every chain sorted by ID.
func (r *Registry) All() []models.ChainConfig {
	out := make([]models.ChainConfig, 0, len(r.chains))
	for _, c := range r.chains {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SupportsQuote reports whether the aggregator can price trades on id.
func (r *Registry) SupportsQuote(id int64) bool {
	c, ok := r.chains[id]
	return ok && c.Features.Quote
}

func (r *Registry) SupportsSwap(id int64) bool {
	c, ok := r.chains[id]
	return ok && c.Features.Swap
}

// IsNativeToken reports whether token is the chain's native asset placeholder.
func (r *Registry) IsNativeToken(id int64, token string) bool {
	c, ok := r.chains[id]
	if !ok {
		return false
	}
	if c.VM == models.VMEVM {
		return strings.EqualFold(token, c.NativeToken)
	}
	return token == c.NativeToken
}

// ExplorerTxURL links to a transaction on the chain's block explorer, or "" for unknown chains.
func (r *Registry) ExplorerTxURL(id int64, hash string) string {
	c, ok := r.chains[id]
	if !ok || hash == "" {
		return ""
	}
	return strings.TrimRight(c.ExplorerURL, "/") + "/tx/" + hash
}
