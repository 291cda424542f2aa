package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"swapdesk/internal/models"
	"swapdesk/internal/repositories/cache"
)

const tradeIndexKey = "trade:index"

// RedisTradeRepository stores trades as JSON values that expire after the
// cache service's TTL. A sorted set keyed by creation time indexes them.
type RedisTradeRepository struct {
	cache *cache.CacheService
}

// NewRedisTradeRepository creates a repository on cache. The cache TTL is the trade retention.
func NewRedisTradeRepository(c *cache.CacheService) *RedisTradeRepository {
	return &RedisTradeRepository{cache: c}
}

func (r *RedisTradeRepository) key(id string) string {
	return r.cache.GenerateKey("trade", "id", id)
}

// Create writes the value and its index entry in one MULTI. Redis does not
// roll back a MULTI on a command error, so a value whose index write failed
// is deleted again.
func (r *RedisTradeRepository) Create(ctx context.Context, t *models.TradeRecord) error {
	if err := validTrade(t); err != nil {
		return err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode trade: %w", err)
	}
	var setNX *redis.BoolCmd
	_, err = r.cache.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		setNX = pipe.SetNX(ctx, r.key(t.ID), data, r.cache.TTL())
		pipe.ZAddNX(ctx, tradeIndexKey, redis.Z{
			Score:  float64(t.CreatedAt.UnixMilli()),
			Member: t.ID,
		})
		return nil
	})
	// A refused SET NX replies nil, which Exec surfaces as redis.Nil.
	if err != nil && err != redis.Nil {
		if setNX != nil && setNX.Err() == nil && setNX.Val() {
			_ = r.cache.Client().Del(ctx, r.key(t.ID)).Err()
		}
		return fmt.Errorf("failed to create trade: %w", err)
	}
	if !setNX.Val() {
		return ErrDuplicateTrade
	}
	return nil
}

func (r *RedisTradeRepository) GetByID(ctx context.Context, id string) (*models.TradeRecord, error) {
	var t models.TradeRecord
	found, err := r.cache.Get(ctx, r.key(id), &t)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	if !found {
		return nil, ErrTradeNotFound
	}
	return &t, nil
}

// Update runs a WATCH transaction on the trade key. The write uses XX with
// KEEPTTL so an expired trade is never re-created without a TTL.
func (r *RedisTradeRepository) Update(ctx context.Context, t *models.TradeRecord, expected models.TradeStatus) error {
	if err := validTrade(t); err != nil {
		return err
	}
	key := r.key(t.ID)
	err := r.cache.Client().Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrTradeNotFound
		}
		if err != nil {
			return err
		}
		var existing models.TradeRecord
		if err := json.Unmarshal(raw, &existing); err != nil {
			return fmt.Errorf("failed to decode trade %s: %w", t.ID, err)
		}
		if existing.Status != expected {
			return ErrTradeConflict
		}
		existing.Status = t.Status
		existing.TransactionHash = t.TransactionHash
		existing.ExplorerURL = t.ExplorerURL
		existing.Metadata = t.Metadata
		existing.UpdatedAt = t.UpdatedAt
		data, err := json.Marshal(&existing)
		if err != nil {
			return fmt.Errorf("failed to encode trade: %w", err)
		}

		var set *redis.StatusCmd
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			set = pipe.SetArgs(ctx, key, data, redis.SetArgs{Mode: "XX", KeepTTL: true})
			return nil
		})
		if err == redis.Nil || (err == nil && set.Val() != "OK") {
			return ErrTradeNotFound
		}
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTradeNotFound), errors.Is(err, ErrTradeConflict):
		return err
	case errors.Is(err, redis.TxFailedErr):
		return ErrTradeConflict
	default:
		return fmt.Errorf("failed to update trade: %w", err)
	}
}

// List walks the index newest first. Index entries whose value has expired are pruned.
func (r *RedisTradeRepository) List(ctx context.Context, filter models.TradeFilter) ([]*models.TradeRecord, error) {
	client := r.cache.Client()
	ids, err := client.ZRevRange(ctx, tradeIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read trade index: %w", err)
	}

	result := make([]*models.TradeRecord, 0)
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	vals, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}

	var stale []interface{}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var t models.TradeRecord
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			return nil, fmt.Errorf("failed to decode trade %s: %w", ids[i], err)
		}
		if !filter.Matches(&t) {
			continue
		}
		result = append(result, &t)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}

	if len(stale) > 0 {
		_ = client.ZRem(ctx, tradeIndexKey, stale...).Err()
	}
	return result, nil
}

func (r *RedisTradeRepository) Ping(ctx context.Context) error {
	return r.cache.HealthCheck(ctx)
}

var _ TradeRepository = (*RedisTradeRepository)(nil)
