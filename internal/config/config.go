// Package config loads service settings from the environment, an optional
// .env file and an optional swapdesk.yaml file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// RPCURLPrefix prefixes per-chain RPC endpoints, e.g. RPC_URL_1 for Ethereum.
const RPCURLPrefix = "RPC_URL_"

// Store backends for trade records.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all runtime settings.
type Config struct {
	Env          string
	Port         string
	LogLevel     string
	CORSOrigins  string
	RateLimitMax int

	Aggregator AggregatorConfig
	Fee        FeeConfig
	Store      StoreConfig
	Redis      RedisConfig
	Postgres   PostgresConfig

	// RPCURLs maps chain ID to a JSON-RPC endpoint used for allowance reads.
	RPCURLs map[int64]string

	AdminJWTSecret string
}

// AggregatorConfig configures the 0x API client.
type AggregatorConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	AuxTimeout time.Duration
	QuoteTTL   time.Duration
}

// FeeConfig holds the platform fee settings.
type FeeConfig struct {
	Bps                int
	Recipient          string
	DefaultSlippageBps int
}

// StoreConfig selects the trade record backend.
type StoreConfig struct {
	Backend   string
	Retention time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// PostgresConfig holds database connection and pool settings.
type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN builds a key/value connection string for the postgres driver.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode)
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", "http://localhost:3000")
	v.SetDefault("rate_limit_max", 60)

	v.SetDefault("zerox_api_url", "https://api.0x.org")
	v.SetDefault("zerox_api_key", "")
	v.SetDefault("aggregator_timeout", "5s")
	v.SetDefault("aux_timeout", "3s")
	v.SetDefault("quote_ttl", "30s")

	v.SetDefault("platform_fee_bps", 50)
	v.SetDefault("fee_recipient", "")
	v.SetDefault("default_slippage_bps", 100)

	v.SetDefault("trade_store", StoreMemory)
	v.SetDefault("trade_retention", "720h")

	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "swapdesk")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_idle_conns", 10)
	v.SetDefault("db_max_open_conns", 100)
	v.SetDefault("db_conn_max_lifetime", "1h")
	v.SetDefault("db_conn_max_idle_time", "30m")

	v.SetDefault("admin_jwt_secret", "")
}

// Load reads configuration. Environment variables win over swapdesk.yaml,
// which wins over the defaults above.
func Load() (*Config, error) {
	LoadEnv()

	v := viper.New()
	v.SetConfigName("swapdesk")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Env:          v.GetString("env"),
		Port:         v.GetString("port"),
		LogLevel:     v.GetString("log_level"),
		CORSOrigins:  v.GetString("cors_origins"),
		RateLimitMax: v.GetInt("rate_limit_max"),
		Aggregator: AggregatorConfig{
			BaseURL:    strings.TrimRight(v.GetString("zerox_api_url"), "/"),
			APIKey:     v.GetString("zerox_api_key"),
			Timeout:    v.GetDuration("aggregator_timeout"),
			AuxTimeout: v.GetDuration("aux_timeout"),
			QuoteTTL:   v.GetDuration("quote_ttl"),
		},
		Fee: FeeConfig{
			Bps:                v.GetInt("platform_fee_bps"),
			Recipient:          v.GetString("fee_recipient"),
			DefaultSlippageBps: v.GetInt("default_slippage_bps"),
		},
		Store: StoreConfig{
			Backend:   strings.ToLower(v.GetString("trade_store")),
			Retention: v.GetDuration("trade_retention"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis_host"),
			Port:     v.GetString("redis_port"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Postgres: PostgresConfig{
			Host:            v.GetString("db_host"),
			Port:            v.GetInt("db_port"),
			User:            v.GetString("db_user"),
			Password:        v.GetString("db_password"),
			Name:            v.GetString("db_name"),
			SSLMode:         v.GetString("db_sslmode"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("db_conn_max_idle_time"),
		},
		RPCURLs:        rpcURLsFromEnv(os.Environ()),
		AdminJWTSecret: v.GetString("admin_jwt_secret"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise surface as confusing runtime errors.
func (c *Config) Validate() error {
	if c.Fee.Bps < 0 || c.Fee.Bps > 10000 {
		return fmt.Errorf("PLATFORM_FEE_BPS must be between 0 and 10000, got %d", c.Fee.Bps)
	}
	if c.Fee.DefaultSlippageBps < 0 || c.Fee.DefaultSlippageBps > 10000 {
		return fmt.Errorf("DEFAULT_SLIPPAGE_BPS must be between 0 and 10000, got %d", c.Fee.DefaultSlippageBps)
	}
	if c.Aggregator.Timeout <= 0 {
		return fmt.Errorf("AGGREGATOR_TIMEOUT must be positive")
	}
	if c.Aggregator.AuxTimeout <= 0 {
		return fmt.Errorf("AUX_TIMEOUT must be positive")
	}
	switch c.Store.Backend {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("unknown TRADE_STORE %q", c.Store.Backend)
	}
	return nil
}

// IsProduction checks if the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func rpcURLsFromEnv(environ []string) map[int64]string {
	urls := make(map[int64]string)
	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || val == "" || !strings.HasPrefix(key, RPCURLPrefix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(key, RPCURLPrefix), 10, 64)
		if err != nil {
			log.Printf("ignoring %s: chain id is not an integer", key)
			continue
		}
		urls[id] = val
	}
	return urls
}
