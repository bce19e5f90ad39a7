package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QUANTFOLIO_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1024, cfg.CacheEntries)

	assert.Equal(t, 2*time.Minute, cfg.MarketData.QuoteTTL)
	assert.Equal(t, 5*time.Minute, cfg.MarketData.HistoryTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.MarketData.QuoteDelay)
	assert.Equal(t, 2*time.Second, cfg.MarketData.AnalyticsDelay)
	assert.Equal(t, 3, cfg.MarketData.MaxRetries)

	assert.Equal(t, 0.02, cfg.Analytics.RiskFreeRate)
	assert.Equal(t, "SPY", cfg.Analytics.BenchmarkTicker)

	assert.Equal(t, []int{20, 50, 200}, cfg.Indicators.SMAPeriods)
	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
	assert.Equal(t, 12, cfg.Indicators.MACDFast)
	assert.Equal(t, 26, cfg.Indicators.MACDSlow)
	assert.Equal(t, 9, cfg.Indicators.MACDSignal)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("QUANTFOLIO_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9001")
	t.Setenv("QUOTE_CACHE_TTL", "60")
	t.Setenv("ANALYTICS_RATE_DELAY_MS", "1500")
	t.Setenv("RISK_FREE_RATE", "0.03")
	t.Setenv("BENCHMARK_TICKER", "VTI")
	t.Setenv("SMA_PERIODS", "10, 30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, time.Minute, cfg.MarketData.QuoteTTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.MarketData.AnalyticsDelay)
	assert.Equal(t, 0.03, cfg.Analytics.RiskFreeRate)
	assert.Equal(t, "VTI", cfg.Analytics.BenchmarkTicker)
	assert.Equal(t, []int{10, 30}, cfg.Indicators.SMAPeriods)
}

func TestLoadMalformedSMAPeriodsKeepsDefault(t *testing.T) {
	t.Setenv("QUANTFOLIO_DATA_DIR", t.TempDir())
	t.Setenv("SMA_PERIODS", "20,fifty")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int{20, 50, 200}, cfg.Indicators.SMAPeriods)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("QUANTFOLIO_DATA_DIR", t.TempDir())
	t.Setenv("FETCH_MAX_RETRIES", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_MAX_RETRIES")
}
