package quote

import (
	"context"

	"swapdesk/internal/models"
	"swapdesk/internal/services/aggregator"
	"swapdesk/internal/services/trade"
)

// Aggregator fetches prices and firm quotes. *aggregator.Client satisfies it.
type Aggregator interface {
	Price(ctx context.Context, p aggregator.Params) (*models.AggregatorQuote, error)
	Quote(ctx context.Context, p aggregator.Params) (*models.AggregatorQuote, error)
}

// TradeRecorder records swaps once they are built.
type TradeRecorder interface {
	Create(ctx context.Context, in trade.CreateInput) (*models.TradeRecord, error)
}

// Service builds quotes and swaps.
type Service interface {
	GetQuote(ctx context.Context, req models.QuoteRequest) (*models.EnrichedQuote, error)
	BuildSwap(ctx context.Context, req models.QuoteRequest) (*models.SwapResponse, error)
}
