// Package trade keeps advisory bookkeeping of swaps built by the service.
// The chain is the source of truth for whether a swap settled.
package trade

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	apperrors "swapdesk/internal/errors"
	"swapdesk/internal/models"
	"swapdesk/internal/observability"
	"swapdesk/internal/repositories"
	"swapdesk/internal/services/chain"
	"swapdesk/internal/validation"
)

// Listing limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Service manages trade records.
type Service interface {
	Create(ctx context.Context, in CreateInput) (*models.TradeRecord, error)
	Get(ctx context.Context, id string) (*models.TradeRecord, error)
	List(ctx context.Context, filter models.TradeFilter) ([]*models.TradeRecord, error)
	UpdateStatus(ctx context.Context, id string, upd models.TradeStatusUpdate) (*models.TradeRecord, error)
	Stats(ctx context.Context) (*models.TradeStats, error)
}

// CreateInput describes a swap that was just built.
type CreateInput struct {
	ChainID           int64
	SellToken         string
	BuyToken          string
	SellAmount        string
	BuyAmount         string
	TakerAddress      string
	PlatformFeeAmount string
	FeeBps            int
	Metadata          models.JSON
}

type service struct {
	repo    repositories.TradeRepository
	chains  *chain.Registry
	metrics observability.MetricsCollector
	logger  *slog.Logger
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

// NewService creates a new trade service
func NewService(
	repo repositories.TradeRepository,
	chains *chain.Registry,
	metrics observability.MetricsCollector,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if chains == nil {
		panic("chains is required")
	}
	if metrics == nil {
		metrics = observability.NoopMetricsCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &service{
		repo:    repo,
		chains:  chains,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, in CreateInput) (*models.TradeRecord, error) {
	now := s.now()
	fee := in.PlatformFeeAmount
	if fee == "" {
		fee = "0"
	}
	rec := &models.TradeRecord{
		ID:                uuid.NewString(),
		ChainID:           in.ChainID,
		SellToken:         in.SellToken,
		BuyToken:          in.BuyToken,
		SellAmount:        in.SellAmount,
		BuyAmount:         in.BuyAmount,
		TakerAddress:      in.TakerAddress,
		PlatformFeeAmount: fee,
		FeeBps:            in.FeeBps,
		Status:            models.TradeStatusPending,
		Metadata:          in.Metadata,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, apperrors.Internal("failed to record trade", err)
	}

	s.metrics.RecordTradeStatus(string(rec.Status))
	s.logger.Info("trade recorded",
		"trade_id", rec.ID,
		"chain_id", rec.ChainID,
		"taker", rec.TakerAddress,
		"fee", rec.PlatformFeeAmount,
	)
	return rec, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.TradeRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("trade %q not found", id)
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, repositories.ErrTradeNotFound) {
			return nil, apperrors.NotFound("trade %q not found", id)
		}
		return nil, apperrors.Internal("failed to load trade", err)
	}
	return rec, nil
}

func (s *service) List(ctx context.Context, filter models.TradeFilter) ([]*models.TradeRecord, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.InvalidRequest("status must be pending, completed or failed")
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	trades, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to list trades", err)
	}
	return trades, nil
}

// UpdateStatus records what the caller observed on chain. A terminal record
// keeps its status; repeating the same terminal status is accepted so clients
// can retry.
func (s *service) UpdateStatus(ctx context.Context, id string, upd models.TradeStatusUpdate) (*models.TradeRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cfg, err := s.chains.Get(rec.ChainID)
	if err != nil {
		return nil, apperrors.Internal("trade references an unknown chain", err)
	}

	v := validation.New()
	v.StatusUpdate(&upd, cfg.VM)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if rec.Status.Terminal() && upd.Status != rec.Status {
		return nil, apperrors.InvalidRequest("trade is already %s", rec.Status)
	}
	if rec.TransactionHash != "" && upd.TransactionHash != "" && upd.TransactionHash != rec.TransactionHash {
		return nil, apperrors.InvalidRequest("trade already has transaction hash %s", rec.TransactionHash)
	}

	prev := rec.Status
	rec.Status = upd.Status
	if upd.TransactionHash != "" {
		rec.TransactionHash = upd.TransactionHash
		rec.ExplorerURL = s.chains.ExplorerTxURL(rec.ChainID, upd.TransactionHash)
	}
	rec.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, rec, prev); err != nil {
		if stderrors.Is(err, repositories.ErrTradeNotFound) {
			return nil, apperrors.NotFound("trade %q not found", id)
		}
		if stderrors.Is(err, repositories.ErrTradeConflict) {
			return nil, apperrors.Conflict("trade %q changed while updating, retry", id)
		}
		return nil, apperrors.Internal("failed to update trade", err)
	}

	if prev != rec.Status {
		s.metrics.RecordTradeStatus(string(rec.Status))
	}
	s.logger.Info("trade status updated",
		"trade_id", rec.ID,
		"from", prev,
		"to", rec.Status,
		"tx_hash", rec.TransactionHash,
	)
	return rec, nil
}

// Stats counts every stored trade. Fees are summed per buy token; a malformed
// stored amount is skipped and logged rather than failing the report.
func (s *service) Stats(ctx context.Context) (*models.TradeStats, error) {
	trades, err := s.repo.List(ctx, models.TradeFilter{})
	if err != nil {
		return nil, apperrors.Internal("failed to load trades", err)
	}

	stats := &models.TradeStats{
		FeesByToken: make(map[string]string),
		GeneratedAt: s.now(),
	}
	sums := make(map[string]*big.Int)
	for _, t := range trades {
		stats.Total++
		switch t.Status {
		case models.TradeStatusPending:
			stats.Pending++
		case models.TradeStatusCompleted:
			stats.Completed++
		case models.TradeStatusFailed:
			stats.Failed++
		}

		fee, ok := validation.ParseBaseUnits(t.PlatformFeeAmount)
		if !ok {
			s.logger.Warn("skipping malformed fee amount", "trade_id", t.ID, "fee", t.PlatformFeeAmount)
			continue
		}
		key := fmt.Sprintf("%d:%s", t.ChainID, t.BuyToken)
		if sums[key] == nil {
			sums[key] = new(big.Int)
		}
		sums[key].Add(sums[key], fee)
	}
	for k, v := range sums {
		stats.FeesByToken[k] = v.String()
	}
	return stats, nil
}
