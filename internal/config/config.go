package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	domain "refdatasync/internal/domain/entity/refdata"
	"refdatasync/internal/infrastructure/exchanges"
)

const (
	defaultEnv                = "development"
	defaultHTTPHost           = "0.0.0.0"
	defaultHTTPPort           = 8080
	defaultHTTPTimeoutSeconds = 30
	defaultRedisDB            = 0
	defaultReportTTLSeconds   = 7 * 24 * 3600
	defaultRabbitExchange     = "refdata.events"
	defaultBackend            = "procedures"
	defaultDialect            = "postgres"
)

// Config keeps the runtime configuration for the sync job and the server.
type Config struct {
	Env         string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	States      domain.StateCodes
	Exchanges   exchanges.Settings
	HTTPTimeout time.Duration
	Redis       RedisConfig
	ReportTTL   time.Duration
	RabbitMQ    RabbitMQConfig
	Pushgateway string
	Log         LogConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// DatabaseConfig selects the reference database backend.
type DatabaseConfig struct {
	DSN     string
	Backend string
	Dialect string
}

// RedisConfig stores Redis connection parameters. Empty Addr disables the
// report store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RabbitMQConfig stores the event broker settings. Empty URL disables events.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type LogConfig struct {
	Level string
	File  string
}

// Load reads .env (if present), the optional config file and the environment,
// in increasing order of precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, domain.ConfigError("read config file %s: %v", path, err)
		}
	}

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		Database: DatabaseConfig{
			DSN:     strings.TrimSpace(v.GetString("DATABASE_DSN")),
			Backend: strings.ToLower(v.GetString("REFDB_BACKEND")),
			Dialect: strings.ToLower(v.GetString("REFDB_DIALECT")),
		},
		States: domain.StateCodes{
			Live:    domain.LiveState(v.GetInt("LIVE_STATE_ACTIVE")),
			Expired: domain.LiveState(v.GetInt("LIVE_STATE_EXPIRED")),
			Removed: domain.LiveState(v.GetInt("LIVE_STATE_REMOVED")),
		},
		Exchanges: exchanges.Settings{
			BinanceSpotURL:      v.GetString("BINANCE_SPOT_URL"),
			BinanceFuturesURL:   v.GetString("BINANCE_FUTURES_URL"),
			BinanceDEXURL:       v.GetString("BINANCE_DEX_URL"),
			FTXMarketsURL:       v.GetString("FTX_MARKETS_URL"),
			FTXFuturesURL:       v.GetString("FTX_FUTURES_URL"),
			FTXCoinsURL:         v.GetString("FTX_COINS_URL"),
			KrakenAssetPairsURL: v.GetString("KRAKEN_ASSET_PAIRS_URL"),
			BinanceID:           v.GetString("BINANCE_EXCHANGE_ID"),
			BinanceFuturesID:    v.GetString("BINANCE_FUTURES_EXCHANGE_ID"),
			BinanceDEXID:        v.GetString("BINANCE_DEX_EXCHANGE_ID"),
			FTXID:               v.GetString("FTX_EXCHANGE_ID"),
			KrakenID:            v.GetString("KRAKEN_EXCHANGE_ID"),
		},
		HTTPTimeout: time.Duration(v.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		ReportTTL: time.Duration(v.GetInt("REPORT_TTL_SECONDS")) * time.Second,
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		Pushgateway: v.GetString("PUSHGATEWAY_URL"),
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks everything that does not need the database. A missing DSN
// is reported by RequireDatabase so that read-only commands still work.
func (c *Config) Validate() error {
	if err := c.States.Validate(); err != nil {
		return domain.ConfigError("live states: %v", err)
	}
	switch c.Database.Backend {
	case "procedures", "tables":
	default:
		return domain.ConfigError("REFDB_BACKEND must be procedures or tables, got %q", c.Database.Backend)
	}
	switch c.Database.Dialect {
	case "postgres", "mysql", "sqlite":
	default:
		return domain.ConfigError("REFDB_DIALECT must be postgres, mysql or sqlite, got %q", c.Database.Dialect)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return domain.ConfigError("invalid HTTP_PORT: %d", c.HTTP.Port)
	}
	if c.HTTPTimeout <= 0 {
		return domain.ConfigError("HTTP_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

func (c *Config) RequireDatabase() error {
	if c.Database.DSN == "" {
		return domain.ConfigError("DATABASE_DSN is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	ex := exchanges.DefaultSettings()
	codes := domain.DefaultStateCodes()

	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("HTTP_HOST", defaultHTTPHost)
	v.SetDefault("HTTP_PORT", defaultHTTPPort)
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("REFDB_BACKEND", defaultBackend)
	v.SetDefault("REFDB_DIALECT", defaultDialect)

	v.SetDefault("LIVE_STATE_ACTIVE", int(codes.Live))
	v.SetDefault("LIVE_STATE_EXPIRED", int(codes.Expired))
	v.SetDefault("LIVE_STATE_REMOVED", int(codes.Removed))

	v.SetDefault("BINANCE_SPOT_URL", ex.BinanceSpotURL)
	v.SetDefault("BINANCE_FUTURES_URL", ex.BinanceFuturesURL)
	v.SetDefault("BINANCE_DEX_URL", ex.BinanceDEXURL)
	v.SetDefault("FTX_MARKETS_URL", ex.FTXMarketsURL)
	v.SetDefault("FTX_FUTURES_URL", ex.FTXFuturesURL)
	v.SetDefault("FTX_COINS_URL", ex.FTXCoinsURL)
	v.SetDefault("KRAKEN_ASSET_PAIRS_URL", ex.KrakenAssetPairsURL)
	v.SetDefault("BINANCE_EXCHANGE_ID", ex.BinanceID)
	v.SetDefault("BINANCE_FUTURES_EXCHANGE_ID", ex.BinanceFuturesID)
	v.SetDefault("BINANCE_DEX_EXCHANGE_ID", ex.BinanceDEXID)
	v.SetDefault("FTX_EXCHANGE_ID", ex.FTXID)
	v.SetDefault("KRAKEN_EXCHANGE_ID", ex.KrakenID)
	v.SetDefault("HTTP_TIMEOUT_SECONDS", defaultHTTPTimeoutSeconds)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", defaultRedisDB)
	v.SetDefault("REPORT_TTL_SECONDS", defaultReportTTLSeconds)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", defaultRabbitExchange)
	v.SetDefault("PUSHGATEWAY_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
}
