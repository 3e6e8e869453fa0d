package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tradingJournal/internal/analytics"
	"tradingJournal/internal/risk"
)

// Price sources accepted by PRICE_SOURCE.
const (
	PriceSourceYahoo   = "yahoo"
	PriceSourceBinance = "binance"
)

// Config holds all application configuration.
type Config struct {
	// Database
	DBPath string

	// Logging
	LogLevel    string // DEBUG, INFO, WARN, ERROR
	LogEncoding string // console or json

	// Default trade plan applied to imported trades
	DefaultStopLossPct float64 // e.g. 0.05 for 5%
	DefaultTargetPct   float64 // e.g. 0.10 for 10%

	// Dashboard
	TopTickers int

	// Price history
	PriceSource   string
	PriceCacheTTL time.Duration
	HTTPTimeout   time.Duration

	// Binance API (optional, klines are public)
	BinanceAPIKey    string
	BinanceSecretKey string

	// Zone used for the calendar dates of brokerage dumps
	ImportLocation *time.Location
}

// RiskDefaults returns the default stop/target heuristic from the config.
func (c *Config) RiskDefaults() risk.Defaults {
	return risk.Defaults{
		StopLossPercent:   c.DefaultStopLossPct,
		TakeProfitPercent: c.DefaultTargetPct,
	}
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/trading_journal.db")

	// Logging
	cfg.LogLevel = strings.ToUpper(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogEncoding = strings.ToLower(getEnv("LOG_ENCODING", "console"))
	if cfg.LogEncoding != "console" && cfg.LogEncoding != "json" {
		errs = append(errs, "LOG_ENCODING must be console or json")
	}

	// Default trade plan
	cfg.DefaultStopLossPct, err = getEnvAsFloatRequired("DEFAULT_STOP_LOSS_PCT", risk.DefaultStopLossPercent)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_STOP_LOSS_PCT: %v", err))
	}
	cfg.DefaultTargetPct, err = getEnvAsFloatRequired("DEFAULT_TARGET_PCT", risk.DefaultTakeProfitPercent)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_TARGET_PCT: %v", err))
	}
	if err := cfg.RiskDefaults().Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	// Dashboard
	cfg.TopTickers, err = getEnvAsIntRequired("TOP_TICKERS", analytics.DefaultTopTickers)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TOP_TICKERS: %v", err))
	} else if cfg.TopTickers <= 0 {
		errs = append(errs, "TOP_TICKERS must be positive")
	}

	// Price history
	cfg.PriceSource = strings.ToLower(getEnv("PRICE_SOURCE", PriceSourceYahoo))
	if cfg.PriceSource != PriceSourceYahoo && cfg.PriceSource != PriceSourceBinance {
		errs = append(errs, fmt.Sprintf("PRICE_SOURCE must be %s or %s", PriceSourceYahoo, PriceSourceBinance))
	}

	cacheTTLSeconds := getEnvAsInt("PRICE_CACHE_TTL_SECONDS", 60)
	if cacheTTLSeconds < 0 {
		errs = append(errs, "PRICE_CACHE_TTL_SECONDS cannot be negative")
	}
	cfg.PriceCacheTTL = time.Duration(cacheTTLSeconds) * time.Second

	httpTimeoutSeconds := getEnvAsInt("HTTP_TIMEOUT_SECONDS", 10)
	if httpTimeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(httpTimeoutSeconds) * time.Second

	// Binance API
	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")

	// Import
	tz := getEnv("IMPORT_TIMEZONE", "Local")
	cfg.ImportLocation, err = time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid IMPORT_TIMEZONE '%s': %v", tz, err))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
