// Package repositories provides data access layer implementations.
// Trade records can live in process memory, PostgreSQL or Redis; all three
// satisfy TradeRepository.
package repositories

import (
	"context"
	"errors"

	"swapdesk/internal/models"
)

// Repository errors
var (
	ErrTradeNotFound  = errors.New("trade not found")
	ErrDuplicateTrade = errors.New("trade already exists")
	ErrInvalidTrade   = errors.New("invalid trade record")
	ErrTradeConflict  = errors.New("trade status changed concurrently")
)

// TradeRepository stores trade records.
type TradeRepository interface {
	Create(ctx context.Context, t *models.TradeRecord) error
	GetByID(ctx context.Context, id string) (*models.TradeRecord, error)
	// Update replaces the mutable fields (status, hash, explorer link, metadata,
	// updatedAt) if the stored status still equals expected. Otherwise it
	// returns ErrTradeConflict and leaves the record untouched.
	Update(ctx context.Context, t *models.TradeRecord, expected models.TradeStatus) error
	// List returns matching records newest first. A zero Limit returns all.
	List(ctx context.Context, filter models.TradeFilter) ([]*models.TradeRecord, error)
	Ping(ctx context.Context) error
}

func validTrade(t *models.TradeRecord) error {
	if t == nil || t.ID == "" {
		return ErrInvalidTrade
	}
	return nil
}
