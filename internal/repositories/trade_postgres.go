package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"swapdesk/internal/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresTradeRepository stores trades with gorm.
type PostgresTradeRepository struct {
	db *gorm.DB
}

// NewPostgresTradeRepository creates a repository on an open, migrated database.
func NewPostgresTradeRepository(db *gorm.DB) *PostgresTradeRepository {
	return &PostgresTradeRepository{db: db}
}

func (r *PostgresTradeRepository) Create(ctx context.Context, t *models.TradeRecord) error {
	if err := validTrade(t); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTrade
		}
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

func (r *PostgresTradeRepository) GetByID(ctx context.Context, id string) (*models.TradeRecord, error) {
	var t models.TradeRecord
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return &t, nil
}

func (r *PostgresTradeRepository) Update(ctx context.Context, t *models.TradeRecord, expected models.TradeStatus) error {
	if err := validTrade(t); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(&models.TradeRecord{}).
		Where("id = ? AND status = ?", t.ID, expected).
		Updates(map[string]interface{}{
			"status":           t.Status,
			"transaction_hash": t.TransactionHash,
			"explorer_url":     t.ExplorerURL,
			"metadata":         t.Metadata,
			"updated_at":       t.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update trade: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.TradeRecord{}).Where("id = ?", t.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check trade: %w", err)
		}
		if count == 0 {
			return ErrTradeNotFound
		}
		return ErrTradeConflict
	}
	return nil
}

func (r *PostgresTradeRepository) List(ctx context.Context, filter models.TradeFilter) ([]*models.TradeRecord, error) {
	q := r.db.WithContext(ctx).Model(&models.TradeRecord{})
	if filter.TakerAddress != "" {
		q = q.Where("LOWER(taker_address) = LOWER(?)", filter.TakerAddress)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ChainID != 0 {
		q = q.Where("chain_id = ?", filter.ChainID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	trades := make([]*models.TradeRecord, 0)
	if err := q.Order("created_at DESC").Order("id DESC").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

func (r *PostgresTradeRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

var _ TradeRepository = (*PostgresTradeRepository)(nil)
