// Package allowance decides whether an owner must approve the aggregator's
// allowance target before selling an ERC-20 token, and builds the approval.
package allowance

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	apperrors "swapdesk/internal/errors"
	"swapdesk/internal/models"
	"swapdesk/internal/observability"
	"swapdesk/internal/services/aggregator"
	"swapdesk/internal/services/chain"
	"swapdesk/internal/validation"
)

// Default configuration values.
const (
	DefaultAuxTimeout      = 3 * time.Second
	DefaultReferenceAmount = "1000000"
)

// PriceSource supplies reference prices. *aggregator.Client satisfies it.
type PriceSource interface {
	Price(ctx context.Context, p aggregator.Params) (*models.AggregatorQuote, error)
}

// Service checks allowances.
type Service interface {
	Check(ctx context.Context, req models.AllowanceRequest) (*models.AllowanceState, error)
}

// Config holds allowance lookup settings.
type Config struct {
	AuxTimeout      time.Duration
	ReferenceAmount string
}

type service struct {
	chains  *chain.Registry
	prices  PriceSource
	reader  Reader
	metrics observability.MetricsCollector
	logger  *slog.Logger
	config  Config
}

// NewService creates a new allowance service
func NewService(
	chains *chain.Registry,
	prices PriceSource,
	reader Reader,
	metrics observability.MetricsCollector,
	logger *slog.Logger,
	cfg Config,
) Service {
	if chains == nil {
		panic("chains is required")
	}
	if prices == nil {
		panic("prices is required")
	}
	if reader == nil {
		reader = PlaceholderReader{}
	}
	if metrics == nil {
		metrics = observability.NoopMetricsCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AuxTimeout <= 0 {
		cfg.AuxTimeout = DefaultAuxTimeout
	}
	if cfg.ReferenceAmount == "" {
		cfg.ReferenceAmount = DefaultReferenceAmount
	}
	return &service{
		chains:  chains,
		prices:  prices,
		reader:  reader,
		metrics: metrics,
		logger:  logger,
		config:  cfg,
	}
}

// Check never reports "approved" without a confirmed target and reading: any
// failure to obtain either is returned as an error.
func (s *service) Check(ctx context.Context, req models.AllowanceRequest) (*models.AllowanceState, error) {
	if req.ChainID <= 0 {
		return nil, apperrors.InvalidRequest("chainId must be a positive integer")
	}
	cfg, err := s.chains.Get(req.ChainID)
	if err != nil {
		return nil, err
	}
	if cfg.VM != models.VMEVM {
		return nil, apperrors.InvalidRequest("allowances apply to EVM chains only; %s tokens need no approval", cfg.Name)
	}

	v := validation.New()
	v.Allowance(&req)
	if err := v.Err(); err != nil {
		return nil, err
	}

	threshold := MaxUint256()
	if req.Amount != "" {
		threshold, _ = validation.ParseBaseUnits(req.Amount)
	}

	if s.chains.IsNativeToken(req.ChainID, req.TokenAddress) {
		s.metrics.RecordAllowanceCheck(models.AllowanceSourceNative, false)
		return &models.AllowanceState{
			Allowance:        MaxUint256().String(),
			IsApprovalNeeded: false,
			Source:           models.AllowanceSourceNative,
		}, nil
	}

	spender, err := s.allowanceTarget(ctx, req, cfg)
	if err != nil {
		return nil, err
	}

	token := common.HexToAddress(req.TokenAddress)
	readCtx, cancel := context.WithTimeout(ctx, s.config.AuxTimeout)
	defer cancel()
	current, source, err := s.reader.Allowance(readCtx, Query{
		ChainID: req.ChainID,
		Token:   token,
		Owner:   common.HexToAddress(req.OwnerAddress),
		Spender: spender,
	})
	if err != nil {
		return nil, classifyRead(ctx, readCtx, err)
	}

	state := &models.AllowanceState{
		Allowance:        current.String(),
		IsApprovalNeeded: current.Cmp(threshold) < 0,
		AllowanceTarget:  spender.Hex(),
		Source:           source,
	}
	if state.IsApprovalNeeded {
		state.ApprovalTransaction = &models.ApprovalTransaction{
			To:    token.Hex(),
			Data:  ApproveCallData(spender, MaxUint256()),
			Value: "0",
		}
	}

	s.metrics.RecordAllowanceCheck(source, state.IsApprovalNeeded)
	s.logger.Debug("allowance checked",
		"chain_id", req.ChainID,
		"token", token.Hex(),
		"source", source,
		"approval_needed", state.IsApprovalNeeded,
	)
	return state, nil
}

// allowanceTarget asks the aggregator which contract pulls the sell token by
// pricing a small sale of it into the native asset.
func (s *service) allowanceTarget(ctx context.Context, req models.AllowanceRequest, cfg models.ChainConfig) (common.Address, error) {
	quote, err := s.prices.Price(ctx, aggregator.Params{
		ChainID:    req.ChainID,
		SellToken:  req.TokenAddress,
		BuyToken:   cfg.NativeToken,
		SellAmount: s.config.ReferenceAmount,
		Timeout:    s.config.AuxTimeout,
	})
	if err != nil {
		if stderrors.Is(err, apperrors.ErrUpstreamTimeout) ||
			stderrors.Is(err, apperrors.ErrCanceled) ||
			stderrors.Is(err, apperrors.ErrUpstreamError) {
			return common.Address{}, err
		}
		return common.Address{}, apperrors.UpstreamFailure("failed to obtain allowance target", err)
	}

	target := quote.AllowanceTarget
	if !common.IsHexAddress(target) || common.HexToAddress(target) == (common.Address{}) {
		return common.Address{}, apperrors.UpstreamFailure("aggregator returned no allowance target", nil)
	}
	return common.HexToAddress(target), nil
}

// classifyRead maps a failed allowance read. parent is the caller's context,
// readCtx the one bounded by the aux timeout.
func classifyRead(parent, readCtx context.Context, err error) error {
	if stderrors.Is(parent.Err(), context.Canceled) {
		return apperrors.Canceled(err)
	}
	if stderrors.Is(readCtx.Err(), context.DeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.UpstreamTimeout(err)
	}
	return apperrors.UpstreamFailure("failed to read allowance", err)
}
