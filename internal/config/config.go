// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for the database and cache snapshot
	LogLevel     string
	Port         int
	DevMode      bool
	MarketData   MarketDataConfig
	Analytics    AnalyticsConfig
	Indicators   IndicatorConfig
	CacheEntries int // Max entries held by each fetch cache before LRU eviction
}

// MarketDataConfig controls the upstream fetch layer: TTLs per call-site
// group, request pacing, and retry behavior.
type MarketDataConfig struct {
	BaseURL        string        // Upstream market data API base URL
	QuoteTTL       time.Duration // Quote/info cache lifetime (default 2 minutes)
	HistoryTTL     time.Duration // Price history and sector cache lifetime (default 5 minutes)
	QuoteDelay     time.Duration // Min spacing between quote calls per ticker (default 0.5s)
	AnalyticsDelay time.Duration // Min spacing between history calls per ticker (default 2s)
	MaxRetries     int           // Fetch attempts before giving up (default 3)
}

// AnalyticsConfig holds portfolio metric parameters.
type AnalyticsConfig struct {
	RiskFreeRate    float64 // Annual risk-free rate as a fraction (default 0.02)
	BenchmarkTicker string  // Market proxy for beta and benchmark comparison (default SPY)
	HistoryRange    string  // Lookback window for metric calculations (default 1y)
}

// IndicatorConfig holds technical indicator parameters.
type IndicatorConfig struct {
	SMAPeriods []int // Simple moving average windows (default 20, 50, 200)
	RSIPeriod  int   // RSI lookback (default 14)
	MACDFast   int   // MACD fast EMA period (default 12)
	MACDSlow   int   // MACD slow EMA period (default 26)
	MACDSignal int   // MACD signal window (default 9)
}

// SnapshotPath returns the location of the price-history snapshot file.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "marketdata.snapshot")
}

// DatabasePath returns the location of the portfolio database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "portfolio.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("QUANTFOLIO_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		Port:         getEnvAsInt("PORT", 8000),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CacheEntries: getEnvAsInt("CACHE_MAX_ENTRIES", 1024),
		MarketData: MarketDataConfig{
			BaseURL:        getEnv("MARKET_DATA_URL", "https://query1.finance.yahoo.com"),
			QuoteTTL:       getEnvAsSeconds("QUOTE_CACHE_TTL", 120),
			HistoryTTL:     getEnvAsSeconds("HISTORY_CACHE_TTL", 300),
			QuoteDelay:     getEnvAsMillis("QUOTE_RATE_DELAY_MS", 500),
			AnalyticsDelay: getEnvAsMillis("ANALYTICS_RATE_DELAY_MS", 2000),
			MaxRetries:     getEnvAsInt("FETCH_MAX_RETRIES", 3),
		},
		Analytics: AnalyticsConfig{
			RiskFreeRate:    getEnvAsFloat("RISK_FREE_RATE", 0.02),
			BenchmarkTicker: getEnv("BENCHMARK_TICKER", "SPY"),
			HistoryRange:    getEnv("ANALYTICS_HISTORY_RANGE", "1y"),
		},
		Indicators: IndicatorConfig{
			SMAPeriods: getEnvAsIntSlice("SMA_PERIODS", []int{20, 50, 200}),
			RSIPeriod:  getEnvAsInt("RSI_PERIOD", 14),
			MACDFast:   getEnvAsInt("MACD_FAST", 12),
			MACDSlow:   getEnvAsInt("MACD_SLOW", 26),
			MACDSignal: getEnvAsInt("MACD_SIGNAL", 9),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.MarketData.MaxRetries < 1 {
		return fmt.Errorf("FETCH_MAX_RETRIES must be at least 1, got %d", c.MarketData.MaxRetries)
	}
	if c.CacheEntries < 1 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be at least 1, got %d", c.CacheEntries)
	}
	if c.Indicators.MACDSlow <= c.Indicators.MACDFast {
		return fmt.Errorf("MACD_SLOW (%d) must exceed MACD_FAST (%d)", c.Indicators.MACDSlow, c.Indicators.MACDFast)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsIntSlice parses a comma-separated list of integers, e.g.
// "20,50,200". The default is kept when the variable is unset or any
// element fails to parse.
func getEnvAsIntSlice(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		intVal, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		out = append(out, intVal)
	}
	return out
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

func getEnvAsMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultMillis)) * time.Millisecond
}
