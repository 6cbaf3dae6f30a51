package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adichannnnnhere64/brtcle-wallet/internal/money"
	"github.com/adichannnnnhere64/brtcle-wallet/internal/wallet"
)

const (
	defaultAppName       = "BrtcleWallet"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultCacheTTL      = time.Hour
	defaultCachePrefix   = "wallet_"
)

// Config captures application runtime configuration loaded from environment
// variables, including the wallet engine settings recognized by the package:
// currency, balance precision, balance bounds, rounding mode and the balance
// cache knobs.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration

	Wallet       wallet.Settings
	CacheEnabled bool
	CacheTTL     time.Duration
	CachePrefix  string
}

// Load reads configuration from the environment. DATABASE_URL and REDIS_URL
// are required outside of development; without them the service falls back
// to the in-memory store and no cache.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		Wallet:         wallet.DefaultSettings(),
		CacheEnabled:   true,
		CacheTTL:       defaultCacheTTL,
		CachePrefix:    getEnv("WALLET_CACHE_PREFIX", defaultCachePrefix),
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownPeriod = d
	}

	cfg.Wallet.Currency = getEnv("WALLET_CURRENCY", cfg.Wallet.Currency)

	if v := os.Getenv("WALLET_PRECISION"); v != "" {
		p, err := strconv.ParseInt(v, 10, 32)
		if err != nil || p < 0 {
			return Config{}, fmt.Errorf("invalid WALLET_PRECISION %q", v)
		}
		cfg.Wallet.Precision = int32(p)
	}

	if v := os.Getenv("WALLET_MINIMUM_BALANCE"); v != "" {
		min, err := money.Parse(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WALLET_MINIMUM_BALANCE: %w", err)
		}
		cfg.Wallet.MinimumBalance = min
	}

	if v := os.Getenv("WALLET_MAXIMUM_BALANCE"); v != "" {
		max, err := money.Parse(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WALLET_MAXIMUM_BALANCE: %w", err)
		}
		cfg.Wallet.MaximumBalance = max
	}

	if v := os.Getenv("WALLET_ROUNDING_MODE"); v != "" {
		mode, err := money.ParseRoundingMode(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WALLET_ROUNDING_MODE: %w", err)
		}
		cfg.Wallet.Rounding = mode
	}

	if v := os.Getenv("WALLET_CACHE_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WALLET_CACHE_ENABLED %q", v)
		}
		cfg.CacheEnabled = enabled
	}

	if v := os.Getenv("WALLET_CACHE_TTL"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WALLET_CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = time.Duration(seconds) * time.Second
	}

	if err := cfg.Wallet.Validate(); err != nil {
		return Config{}, err
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" && cfg.CacheEnabled {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s and the balance cache is enabled", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a development-like environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
