// Package main is the entry point for the Quantfolio portfolio analytics
// service. It wires the rate-limited market data fetch layer, the portfolio
// store and the analytics/indicator engines into an HTTP API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quantfolio/quantfolio/internal/analytics"
	analyticshandlers "github.com/quantfolio/quantfolio/internal/analytics/handlers"
	"github.com/quantfolio/quantfolio/internal/clients/yahoo"
	stockhandlers "github.com/quantfolio/quantfolio/internal/clients/yahoo/handlers"
	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/database"
	"github.com/quantfolio/quantfolio/internal/indicators"
	indicatorhandlers "github.com/quantfolio/quantfolio/internal/indicators/handlers"
	"github.com/quantfolio/quantfolio/internal/marketdata"
	"github.com/quantfolio/quantfolio/internal/portfolio"
	portfoliohandlers "github.com/quantfolio/quantfolio/internal/portfolio/handlers"
	"github.com/quantfolio/quantfolio/internal/server"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Quantfolio")

	// Portfolio store.
	db, err := database.New(cfg.DatabasePath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	portfolioRepo := portfolio.NewRepository(db.Conn(), log)
	if err := portfolioRepo.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize portfolio schema")
	}

	// Fetch layer: two coordinators with independent caches and pacing.
	// Quotes are cheap and fresh-sensitive; history calls are heavier and
	// spaced further apart.
	quoteCache := marketdata.NewTTLCache(cfg.CacheEntries)
	dataCache := marketdata.NewTTLCache(cfg.CacheEntries)
	quoteCoordinator := marketdata.NewCoordinator(
		quoteCache,
		marketdata.NewRateLimiter(cfg.MarketData.QuoteDelay),
		marketdata.NewRetryPolicy(cfg.MarketData.MaxRetries, log),
		log,
	)
	dataCoordinator := marketdata.NewCoordinator(
		dataCache,
		marketdata.NewRateLimiter(cfg.MarketData.AnalyticsDelay),
		marketdata.NewRetryPolicy(cfg.MarketData.MaxRetries, log),
		log,
	)

	marketClient := yahoo.NewClient(yahoo.Config{
		BaseURL:    cfg.MarketData.BaseURL,
		QuoteTTL:   cfg.MarketData.QuoteTTL,
		HistoryTTL: cfg.MarketData.HistoryTTL,
	}, quoteCoordinator, dataCoordinator, log)

	// Warm the stale-fallback path from the last snapshot.
	snapshotter := yahoo.NewSnapshotter(cfg.SnapshotPath(), quoteCache, dataCache, log)
	if err := snapshotter.Load(); err != nil {
		log.Warn().Err(err).Msg("Failed to load cache snapshot, starting cold")
	}

	// Services.
	portfolioService := portfolio.NewService(portfolioRepo, marketClient, log)
	analyticsService := analytics.NewService(marketClient, analytics.Config{
		RiskFreeRate:    cfg.Analytics.RiskFreeRate,
		BenchmarkTicker: cfg.Analytics.BenchmarkTicker,
		HistoryRange:    cfg.Analytics.HistoryRange,
	}, log)
	indicatorService := indicators.NewService(marketClient, indicators.Config{
		SMAPeriods:   cfg.Indicators.SMAPeriods,
		RSIPeriod:    cfg.Indicators.RSIPeriod,
		MACDFast:     cfg.Indicators.MACDFast,
		MACDSlow:     cfg.Indicators.MACDSlow,
		MACDSignal:   cfg.Indicators.MACDSignal,
		HistoryRange: cfg.Analytics.HistoryRange,
	}, log)

	// Scheduled cache maintenance: purge long-expired entries and persist a
	// snapshot every hour.
	maintenance := yahoo.NewMaintenanceJob(snapshotter, quoteCache, dataCache, log)
	scheduler := cron.New()
	if _, err := scheduler.AddJob("@every 1h", maintenance); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule cache maintenance")
	}
	scheduler.Start()

	srv := server.New(server.Config{
		Log:     log,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Modules: []server.RouteRegistrar{
			stockhandlers.NewHandler(marketClient, log),
			portfoliohandlers.NewHandler(portfolioService, log),
			analyticshandlers.NewHandler(analyticsService, portfolioRepo, log),
			indicatorhandlers.NewHandler(indicatorService, log),
		},
		SystemHandlers: server.NewSystemHandlers(log, db, quoteCache, dataCache),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// One final snapshot so the next boot can serve stale data immediately.
	if err := snapshotter.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save final cache snapshot")
	}

	log.Info().Msg("Server stopped")
}
