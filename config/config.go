// Package config reads application settings from the environment, after
// loading an optional .env file from the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"sitewizard/services"
)

// Wizard persistence backends.
const (
	StoreRecords = "records"
	StoreRedis   = "redis"
	StoreMemory  = "memory"
)

type Config struct {
	Store            string
	RedisAddr        string
	RedisPrefix      string
	SessionTTL       time.Duration
	Currency         string
	TaxRate          decimal.Decimal
	MarketMultiplier decimal.Decimal
	RequireValidStep bool
	SecureCookies    bool
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Config {
	return Config{
		Store:            StoreRecords,
		RedisAddr:        "localhost:6379",
		RedisPrefix:      "sitewizard:",
		SessionTTL:       30 * 24 * time.Hour,
		Currency:         "USD",
		TaxRate:          decimal.Zero,
		MarketMultiplier: decimal.NewFromInt(2),
	}
}

// Load applies .env (if present) and SITEWIZARD_* variables over Defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()

	get := func(name string) (string, bool) {
		v, ok := lookup("SITEWIZARD_" + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("STORE"); ok {
		switch v {
		case StoreRecords, StoreRedis, StoreMemory:
			cfg.Store = v
		default:
			return Config{}, fmt.Errorf("config: SITEWIZARD_STORE must be records, redis or memory, got %q", v)
		}
	}
	if v, ok := get("REDIS_ADDR"); ok {
		cfg.RedisAddr = v
	}
	if v, ok := get("REDIS_PREFIX"); ok {
		cfg.RedisPrefix = v
	}
	if v, ok := get("SESSION_TTL"); ok {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: SITEWIZARD_SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}
	if v, ok := get("CURRENCY"); ok {
		c, err := services.ParseCurrency(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: SITEWIZARD_CURRENCY: %w", err)
		}
		cfg.Currency = string(c)
	}
	if v, ok := get("TAX_RATE"); ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: SITEWIZARD_TAX_RATE: %w", err)
		}
		if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
			return Config{}, fmt.Errorf("config: SITEWIZARD_TAX_RATE must be between 0 and 1, got %s", v)
		}
		cfg.TaxRate = d
	}
	if v, ok := get("MARKET_MULTIPLIER"); ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: SITEWIZARD_MARKET_MULTIPLIER: %w", err)
		}
		cfg.MarketMultiplier = d
	}
	if v, ok := get("REQUIRE_VALID_STEP"); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: SITEWIZARD_REQUIRE_VALID_STEP: %w", err)
		}
		cfg.RequireValidStep = b
	}
	if v, ok := get("SECURE_COOKIES"); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: SITEWIZARD_SECURE_COOKIES: %w", err)
		}
		cfg.SecureCookies = b
	}
	return cfg, nil
}
