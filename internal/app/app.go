// Package app assembles the HTTP server from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"swapdesk/internal/config"
	"swapdesk/internal/handlers"
	"swapdesk/internal/observability"
	"swapdesk/internal/repositories"
	"swapdesk/internal/repositories/cache"
	"swapdesk/internal/routes"
	"swapdesk/internal/services/aggregator"
	"swapdesk/internal/services/allowance"
	"swapdesk/internal/services/chain"
	"swapdesk/internal/services/fee"
	"swapdesk/internal/services/quote"
	"swapdesk/internal/services/trade"
	"swapdesk/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

const limiterPrefix = "limiter:"

// App is a configured server with the resources it owns.
type App struct {
	Fiber   *fiber.App
	Metrics *observability.Metrics

	cfg     *config.Config
	logger  *slog.Logger
	closers []func() error
	stop    context.CancelFunc
}

// store is the trade repository plus the optional redis client it runs on.
type store struct {
	repo    repositories.TradeRepository
	limiter fiber.Storage
	closers []func() error
}

// Build wires services, handlers and middleware. The caller must Close the
// returned App.
func Build(cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	ctx, stop := context.WithCancel(context.Background())
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		stop()
		return nil, err
	}

	metrics := observability.NewMetrics("swapdesk")
	chains := chain.NewDefaultRegistry()

	client := aggregator.NewClient(cfg.Aggregator.BaseURL,
		aggregator.WithAPIKey(cfg.Aggregator.APIKey),
		aggregator.WithTimeout(cfg.Aggregator.Timeout),
		aggregator.WithMetrics(metrics),
		aggregator.WithLogger(log.With("component", "aggregator")),
	)

	fees := fee.NewCalculator(fee.Config{
		Bps:                cfg.Fee.Bps,
		Recipient:          cfg.Fee.Recipient,
		DefaultSlippageBps: cfg.Fee.DefaultSlippageBps,
	})
	if !fees.Enabled() {
		log.Warn("platform fee disabled", "bps", cfg.Fee.Bps, "recipientSet", cfg.Fee.Recipient != "")
	}

	tradeService := trade.NewService(st.repo, chains, metrics, log.With("component", "trades"))
	quoteService := quote.NewService(chains, client, fees, tradeService,
		quote.Config{QuoteTTL: cfg.Aggregator.QuoteTTL},
		quote.WithMetrics(metrics),
		quote.WithLogger(log.With("component", "quotes")),
	)
	allowanceService := allowance.NewService(chains, client,
		allowance.NewRPCReader(cfg.RPCURLs),
		metrics, log.With("component", "allowance"),
		allowance.Config{AuxTimeout: cfg.Aggregator.AuxTimeout},
	)
	if len(cfg.RPCURLs) == 0 {
		log.Warn("no RPC_URL_<chainId> configured; allowance checks report a placeholder of 0")
	}

	f := fiber.New(fiber.Config{
		AppName:      "swapdesk",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler(log),
	})

	f.Use(recover.New())
	f.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PATCH,OPTIONS",
	}))
	f.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	if cfg.RateLimitMax > 0 {
		f.Use("/api/trade", limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: 1 * time.Minute,
			Storage:    st.limiter,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests. Please try again later.",
					"code":  "RATE_LIMITED",
				})
			},
		}))
	}

	routes.SetupRoutes(f, routes.Handlers{
		Trade:       handlers.NewTradeHandler(quoteService, tradeService, allowanceService, fees, log),
		Chain:       handlers.NewChainHandler(chains),
		Health:      handlers.NewHealthHandler(st.repo, cfg.Store.Backend, log),
		Admin:       handlers.NewAdminHandler(tradeService, log),
		Metrics:     metrics.Handler(),
		AdminSecret: cfg.AdminJWTSecret,
		Logger:      log,
	})

	return &App{
		Fiber:   f,
		Metrics: metrics,
		cfg:     cfg,
		logger:  log,
		closers: st.closers,
		stop:    stop,
	}, nil
}

// Listen blocks serving on the configured port.
func (a *App) Listen() error {
	a.logger.Info("listening", "port", a.cfg.Port, "store", a.cfg.Store.Backend, "env", a.cfg.Env)
	return a.Fiber.Listen(":" + a.cfg.Port)
}

// Close shuts the server down and releases the store.
func (a *App) Close(timeout time.Duration) error {
	a.stop()
	errs := []error{a.Fiber.ShutdownWithTimeout(timeout)}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*store, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := repositories.NewPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		go logPoolStats(ctx, db, log)
		log.Info("trade store ready", "backend", cfg.Store.Backend, "host", cfg.Postgres.Host)
		return &store{
			repo:    repositories.NewPostgresTradeRepository(db),
			closers: []func() error{sqlDB.Close},
		}, nil

	case config.StoreRedis:
		client := cache.NewRedisClient(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := cache.Ping(pingCtx, client); err != nil {
			_ = client.Close()
			return nil, err
		}
		cs := cache.NewCacheService(client, cfg.Store.Retention)
		go cache.MonitorPool(ctx, client, log, 5*time.Minute)
		log.Info("trade store ready", "backend", cfg.Store.Backend, "retention", cfg.Store.Retention)
		return &store{
			repo:    repositories.NewRedisTradeRepository(cs),
			limiter: cache.NewLimiterStorage(client, limiterPrefix),
			closers: []func() error{cs.Close},
		}, nil

	default:
		log.Info("trade store ready; records are lost on restart", "backend", config.StoreMemory)
		return &store{repo: repositories.NewMemoryTradeRepository()}, nil
	}
}

func logPoolStats(ctx context.Context, db *gorm.DB, log *slog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := sqlDB.Stats()
			log.Debug("db pool",
				"open", stats.OpenConnections,
				"idle", stats.Idle,
				"inUse", stats.InUse,
				"waitCount", stats.WaitCount,
				"waitDuration", stats.WaitDuration)
		}
	}
}

// errorHandler renders fiber errors (unknown routes, body limits) in the
// same JSON shape as domain errors.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return utils.Respond(c, fe.Code, fiber.Map{"error": fe.Message, "code": "HTTP_ERROR"})
		}
		return utils.HandleError(c, log, err)
	}
}
