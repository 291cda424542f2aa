package quote

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "swapdesk/internal/errors"
	"swapdesk/internal/models"
	"swapdesk/internal/observability"
	"swapdesk/internal/services/aggregator"
	"swapdesk/internal/services/chain"
	"swapdesk/internal/services/fee"
	"swapdesk/internal/services/trade"
	"swapdesk/internal/validation"
)

type service struct {
	chains  *chain.Registry
	agg     Aggregator
	fees    *fee.Calculator
	trades  TradeRecorder
	metrics observability.MetricsCollector
	logger  *slog.Logger
	config  Config
	now     func() time.Time
}

// Option configures the service.
type Option func(*service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

func WithMetrics(m observability.MetricsCollector) Option {
	return func(s *service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a new quote service
func NewService(
	chains *chain.Registry,
	agg Aggregator,
	fees *fee.Calculator,
	trades TradeRecorder,
	cfg Config,
	opts ...Option,
) Service {
	if chains == nil {
		panic("chains is required")
	}
	if agg == nil {
		panic("aggregator is required")
	}
	if fees == nil {
		panic("fee calculator is required")
	}
	if trades == nil {
		panic("trade recorder is required")
	}
	if cfg.QuoteTTL <= 0 {
		cfg.QuoteTTL = DefaultQuoteTTL
	}
	s := &service{
		chains:  chains,
		agg:     agg,
		fees:    fees,
		trades:  trades,
		metrics: observability.NoopMetricsCollector{},
		logger:  slog.Default(),
		config:  cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) GetQuote(ctx context.Context, req models.QuoteRequest) (*models.EnrichedQuote, error) {
	cfg, err := s.validate(&req, false)
	if err != nil {
		return nil, err
	}

	params, bps, slippage := s.params(req)
	raw, err := s.agg.Price(ctx, params)
	if err != nil {
		return nil, err
	}

	enriched, err := s.enrich(raw, cfg, bps, slippage)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordQuote(KindPrice, cfg.ID)
	s.logger.Debug("quote served",
		"chain_id", cfg.ID,
		"sell_token", req.SellToken,
		"buy_token", req.BuyToken,
		"buy_amount", raw.BuyAmount,
		"fee_bps", bps,
	)
	return enriched, nil
}

func (s *service) BuildSwap(ctx context.Context, req models.QuoteRequest) (*models.SwapResponse, error) {
	cfg, err := s.validate(&req, true)
	if err != nil {
		return nil, err
	}

	params, bps, slippage := s.params(req)
	raw, err := s.agg.Quote(ctx, params)
	if err != nil {
		return nil, err
	}
	if raw.To == "" || raw.Data == "" {
		return nil, apperrors.Internal("aggregator quote is missing transaction data", nil)
	}

	enriched, err := s.enrich(raw, cfg, bps, slippage)
	if err != nil {
		return nil, err
	}

	tx := models.SwapTransaction{
		To:           raw.To,
		Data:         raw.Data,
		Value:        raw.Value,
		GasPrice:     raw.GasPrice,
		EstimatedGas: raw.EstimatedGas,
	}
	if tx.Value == "" {
		tx.Value = "0"
	}
	if req.GasPrice != "" {
		tx.GasPrice = req.GasPrice
	}
	if tx.EstimatedGas == "" {
		tx.EstimatedGas = raw.Gas
	}

	rec, err := s.trades.Create(ctx, trade.CreateInput{
		ChainID:           cfg.ID,
		SellToken:         req.SellToken,
		BuyToken:          req.BuyToken,
		SellAmount:        raw.SellAmount,
		BuyAmount:         raw.BuyAmount,
		TakerAddress:      req.TakerAddress,
		PlatformFeeAmount: enriched.PlatformFee.Amount,
		FeeBps:            bps,
		Metadata: models.JSON{
			"minReceived": enriched.Parameters.MinReceived,
			"slippageBps": enriched.Parameters.SlippageBps,
			"priceImpact": enriched.Parameters.PriceImpact.String(),
			"sources":     routeNames(enriched.Route),
		},
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordQuote(KindSwap, cfg.ID)
	return &models.SwapResponse{
		Transaction: tx,
		Trade:       rec,
		PlatformFee: enriched.PlatformFee,
		Parameters:  enriched.Parameters,
		Route:       enriched.Route,
		Orders:      raw.Orders,
		Metadata:    enriched.Metadata,
	}, nil
}

// validate checks the request shape, resolves the chain, then checks
// addresses against the chain's VM.
func (s *service) validate(req *models.QuoteRequest, swap bool) (models.ChainConfig, error) {
	v := validation.New()
	v.QuoteRequest(req)
	if swap {
		v.Required("takerAddress", req.TakerAddress)
	}
	if err := v.Err(); err != nil {
		return models.ChainConfig{}, err
	}

	cfg, err := s.chains.Get(req.ChainID)
	if err != nil {
		return models.ChainConfig{}, err
	}
	if swap && !cfg.Features.Swap {
		return models.ChainConfig{}, apperrors.InvalidRequest("chain %s does not support swaps", cfg.Name)
	}
	if !cfg.Features.Quote {
		return models.ChainConfig{}, apperrors.InvalidRequest("chain %s does not support quotes", cfg.Name)
	}

	v.QuoteAddresses(req, cfg.VM)
	if err := v.Err(); err != nil {
		return models.ChainConfig{}, err
	}
	return cfg, nil
}

// params builds the aggregator query and returns the fee and slippage applied.
func (s *service) params(req models.QuoteRequest) (aggregator.Params, int, int) {
	slippage := s.fees.DefaultSlippageBps()
	if req.SlippageBps != nil {
		slippage = *req.SlippageBps
	}

	bps := 0
	if req.IncludePlatformFee == nil || *req.IncludePlatformFee {
		bps = s.fees.Bps()
	}

	p := aggregator.Params{
		ChainID:            req.ChainID,
		SellToken:          req.SellToken,
		BuyToken:           req.BuyToken,
		SellAmount:         strings.TrimSpace(req.SellAmount),
		BuyAmount:          strings.TrimSpace(req.BuyAmount),
		SlippagePercentage: fee.Fraction(slippage).String(),
		TakerAddress:       req.TakerAddress,
		GasPrice:           req.GasPrice,
	}
	if bps > 0 {
		p.FeeRecipient = s.fees.Recipient()
		p.BuyTokenPercentageFee = fee.Fraction(bps).String()
	}
	return p, bps, slippage
}

func (s *service) enrich(raw *models.AggregatorQuote, cfg models.ChainConfig, bps, slippage int) (*models.EnrichedQuote, error) {
	buy, err := fee.ParseAmount("buyAmount", raw.BuyAmount)
	if err != nil {
		return nil, err
	}

	platformFee := fee.PlatformFee(buy, bps)
	net, min := fee.MinReceived(buy, platformFee, slippage)
	now := s.now()

	recipient := ""
	if bps > 0 {
		recipient = s.fees.Recipient()
	}

	return &models.EnrichedQuote{
		Quote: *raw,
		PlatformFee: models.PlatformFee{
			Bps:       bps,
			Amount:    platformFee.String(),
			Recipient: recipient,
		},
		Parameters: models.TradeParameters{
			SlippageBps:        slippage,
			SlippagePercentage: fee.Fraction(slippage),
			PriceImpact:        fee.PriceImpactPercent(raw.Price, raw.GuaranteedPrice),
			UserReceives:       net.String(),
			MinReceived:        min.String(),
		},
		Route: route(raw.Sources),
		Metadata: models.QuoteMetadata{
			ChainID:   cfg.ID,
			ChainName: cfg.Name,
			Timestamp: now,
			ExpiresAt: now.Add(s.config.QuoteTTL),
		},
	}, nil
}

var hundred = decimal.NewFromInt(100)

// route keeps sources that carry part of the order, as percentages.
func route(sources []models.LiquiditySource) []models.RouteLeg {
	legs := make([]models.RouteLeg, 0, len(sources))
	for _, src := range sources {
		p, err := decimal.NewFromString(src.Proportion)
		if err != nil || !p.IsPositive() {
			continue
		}
		legs = append(legs, models.RouteLeg{
			Exchange:   src.Name,
			Percentage: p.Mul(hundred),
		})
	}
	return legs
}

func routeNames(legs []models.RouteLeg) []string {
	names := make([]string, len(legs))
	for i, l := range legs {
		names[i] = l.Exchange
	}
	return names
}
