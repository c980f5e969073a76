// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// This file defines the Config struct (all the knobs the bot uses) and a
// helper to populate it from environment variables. The .env file is read
// by loadBotEnv() (see env.go), so you can tune behavior without exports.
//
// Typical flow (see main.go):
//   loadBotEnv()
//   cfg, err := loadConfigFromEnv()
//
// Config is a one-shot snapshot: nothing mutates it after load (the only
// exception is the -dry-run / -live flag override applied in main before
// the bot is constructed).

package main

import (
	"fmt"
	"strings"
)

// TradingMode selects whether orders are simulated or sent with real funds.
type TradingMode string

const (
	ModeDryRun TradingMode = "dry_run"
	ModeLive   TradingMode = "live"
)

// Config holds all runtime knobs.
type Config struct {
	// Credentials (Coinbase Advanced Trade / CDP key name + private key PEM)
	APIKey    string
	APISecret string

	// Trading target & safety
	Mode        TradingMode
	ProductID   string  // e.g. "BTC-USD"
	MaxOrderUSD float64 // hard ceiling on any single order, quote currency

	// Ops
	APIBase string
	Port    int // metrics listener; 0 disables
}

// ConfigError reports missing or invalid configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// loadConfigFromEnv reads the process env (already hydrated by loadBotEnv())
// and returns a Config with sane defaults for the optional keys. Credentials
// are required; placeholder values from .env.example count as missing.
func loadConfigFromEnv() (Config, error) {
	key := getEnv("COINBASE_API_KEY", "")
	secret := getEnv("COINBASE_API_SECRET", "")

	if key == "" || key == "your_api_key_here" {
		return Config{}, &ConfigError{Field: "COINBASE_API_KEY", Reason: "not set or still has placeholder value"}
	}
	if secret == "" || secret == "your_api_secret_here" {
		return Config{}, &ConfigError{Field: "COINBASE_API_SECRET", Reason: "not set or still has placeholder value"}
	}

	cfg := Config{
		APIKey:    key,
		APISecret: secret,

		Mode:        parseTradingMode(getEnv("TRADING_MODE", string(ModeDryRun))),
		ProductID:   getEnv("TRADING_PAIR", "BTC-USD"),
		MaxOrderUSD: getEnvFloat("MAX_ORDER_USD", 50.0),

		APIBase: strings.TrimRight(getEnv("COINBASE_API_BASE", "https://api.coinbase.com"), "/"),
		Port:    getEnvInt("PORT", 0),
	}

	if cfg.MaxOrderUSD > 100 {
		logWarnf("MAX_ORDER_USD is set to $%.2f; higher than recommended for testing", cfg.MaxOrderUSD)
	}

	return cfg, nil
}

// parseTradingMode treats anything that is not explicitly "live" as dry run.
func parseTradingMode(s string) TradingMode {
	if strings.ToLower(strings.TrimSpace(s)) == string(ModeLive) {
		return ModeLive
	}
	return ModeDryRun
}

func (c Config) IsDryRun() bool { return c.Mode != ModeLive }

// BaseCurrency returns the left half of the product ("BTC" for "BTC-USD").
func (c Config) BaseCurrency() string {
	base, _ := parseProductSymbols(c.ProductID)
	return base
}

// QuoteCurrency returns the right half of the product ("USD" for "BTC-USD").
func (c Config) QuoteCurrency() string {
	_, quote := parseProductSymbols(c.ProductID)
	return quote
}

// MaskedKey renders the API key safe for logs (first/last 4 chars only).
func (c Config) MaskedKey() string {
	if len(c.APIKey) <= 8 {
		return "****"
	}
	return c.APIKey[:4] + "..." + c.APIKey[len(c.APIKey)-4:]
}

// logSummary prints the effective configuration without exposing secrets.
func (c Config) logSummary() {
	logInfof("==================================================")
	logInfof("CONFIGURATION SUMMARY")
	logInfof("==================================================")
	logInfof("API Key:       %s", c.MaskedKey())
	logInfof("Trading Mode:  %s", strings.ToUpper(string(c.Mode)))
	logInfof("Trading Pair:  %s", c.ProductID)
	logInfof("Max Order:     $%.2f", c.MaxOrderUSD)
	if c.IsDryRun() {
		logInfof("[DRY RUN MODE] no real trades will be executed")
	} else {
		logWarnf("[LIVE MODE] real trades WILL be executed!")
	}
	logInfof("==================================================")
}

// parseProductSymbols splits a product like "BTC-USD" into ("BTC", "USD").
func parseProductSymbols(product string) (base string, quote string) {
	parts := strings.Split(strings.TrimSpace(product), "-")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	// unknown format
	return "", ""
}
