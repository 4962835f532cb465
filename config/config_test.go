package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	if err != nil {
		t.Fatalf("FromLookup() error: %v", err)
	}
	want := Defaults()
	if cfg.Store != StoreRecords {
		t.Errorf("Store = %q, want %q", cfg.Store, StoreRecords)
	}
	if cfg.SessionTTL != want.SessionTTL {
		t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, want.SessionTTL)
	}
	if cfg.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", cfg.Currency)
	}
	if !cfg.TaxRate.IsZero() {
		t.Errorf("TaxRate = %s, want 0", cfg.TaxRate)
	}
	if !cfg.MarketMultiplier.Equal(decimal.NewFromInt(2)) {
		t.Errorf("MarketMultiplier = %s, want 2", cfg.MarketMultiplier)
	}
	if cfg.RequireValidStep || cfg.SecureCookies {
		t.Error("expected boolean settings to default to false")
	}
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"SITEWIZARD_STORE":              "redis",
		"SITEWIZARD_REDIS_ADDR":         "cache:6380",
		"SITEWIZARD_REDIS_PREFIX":       "sw:",
		"SITEWIZARD_SESSION_TTL":        "48h",
		"SITEWIZARD_CURRENCY":           "eur",
		"SITEWIZARD_TAX_RATE":           "0.2",
		"SITEWIZARD_MARKET_MULTIPLIER":  "2.5",
		"SITEWIZARD_REQUIRE_VALID_STEP": "true",
		"SITEWIZARD_SECURE_COOKIES":     "1",
	}))
	if err != nil {
		t.Fatalf("FromLookup() error: %v", err)
	}
	if cfg.Store != StoreRedis || cfg.RedisAddr != "cache:6380" || cfg.RedisPrefix != "sw:" {
		t.Errorf("unexpected redis settings %+v", cfg)
	}
	if cfg.SessionTTL != 48*time.Hour {
		t.Errorf("SessionTTL = %v, want 48h", cfg.SessionTTL)
	}
	if cfg.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", cfg.Currency)
	}
	if !cfg.TaxRate.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("TaxRate = %s, want 0.2", cfg.TaxRate)
	}
	if !cfg.MarketMultiplier.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("MarketMultiplier = %s, want 2.5", cfg.MarketMultiplier)
	}
	if !cfg.RequireValidStep || !cfg.SecureCookies {
		t.Error("expected boolean overrides to apply")
	}
}

func TestFromLookup_BlankValuesKeepDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"SITEWIZARD_STORE":    "  ",
		"SITEWIZARD_CURRENCY": "",
	}))
	if err != nil {
		t.Fatalf("FromLookup() error: %v", err)
	}
	if cfg.Store != StoreRecords || cfg.Currency != "USD" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown store", "SITEWIZARD_STORE", "postgres"},
		{"bad ttl", "SITEWIZARD_SESSION_TTL", "soon"},
		{"tax rate not a number", "SITEWIZARD_TAX_RATE", "ten"},
		{"tax rate above one", "SITEWIZARD_TAX_RATE", "1.5"},
		{"negative tax rate", "SITEWIZARD_TAX_RATE", "-0.1"},
		{"bad multiplier", "SITEWIZARD_MARKET_MULTIPLIER", "x2"},
		{"unknown currency", "SITEWIZARD_CURRENCY", "XYZ"},
		{"currency symbol", "SITEWIZARD_CURRENCY", "$"},
		{"bad bool", "SITEWIZARD_REQUIRE_VALID_STEP", "maybe"},
		{"bad secure cookies", "SITEWIZARD_SECURE_COOKIES", "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromLookup(lookupFrom(map[string]string{tt.key: tt.val})); err == nil {
				t.Errorf("expected an error for %s=%q", tt.key, tt.val)
			}
		})
	}
}
