package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"swapdesk/internal/config"
)

// NewRedisClient creates a client from configuration. It does not dial.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping verifies the connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// MonitorPool logs connection pool statistics every interval until ctx is done.
func MonitorPool(ctx context.Context, client *redis.Client, log *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := client.PoolStats()
			log.Debug("redis pool",
				"hits", stats.Hits,
				"misses", stats.Misses,
				"timeouts", stats.Timeouts,
				"totalConns", stats.TotalConns,
				"idleConns", stats.IdleConns,
				"staleConns", stats.StaleConns)
		}
	}
}
