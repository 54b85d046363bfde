// Package main is the entry point for the folio portfolio dashboard server.
// It wires the static holdings store, the vendor client, the file-backed
// caches and the aggregator, then serves the dashboard API over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/devashishj/folio/internal/aggregator"
	"github.com/devashishj/folio/internal/cachestore"
	"github.com/devashishj/folio/internal/clients/bse"
	"github.com/devashishj/folio/internal/config"
	"github.com/devashishj/folio/internal/portfolio"
	"github.com/devashishj/folio/internal/refresher"
	"github.com/devashishj/folio/internal/resolver"
	"github.com/devashishj/folio/internal/server"
	"github.com/devashishj/folio/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting folio")

	// Static holdings are loaded exactly once; a broken holdings file is the
	// only fatal condition besides a dead listener.
	holdings, err := portfolio.NewStore(cfg.HoldingsPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load holdings")
	}

	client := bse.NewClient(time.Duration(cfg.VendorTimeout)*time.Second, log)

	agg := aggregator.New(aggregator.Config{
		Holdings: holdings,
		Resolver: resolver.New(client, log),
		Client:   client,
		Scrips:   cachestore.NewScripStore(filepath.Join(cfg.DataDir, cachestore.FileScripCodes), log),
		Prices:   cachestore.NewTTLStore[bse.PriceQuote](filepath.Join(cfg.DataDir, cachestore.FilePrices), cachestore.TTLPrice, log),
		Funds:    cachestore.NewTTLStore[bse.FundamentalsRecord](filepath.Join(cfg.DataDir, cachestore.FileFundamentals), cachestore.TTLFundamentals, log),
		Log:      log,
	})

	srv := server.New(server.Config{
		Port:       cfg.Port,
		Log:        log,
		Aggregator: agg,
		DevMode:    cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Optional background cache warm-up
	var refreshSvc *refresher.Service
	if cfg.RefreshSchedule != "" {
		refreshSvc, err = refresher.New(cfg.RefreshSchedule, agg, len(holdings.Holdings()), log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure cache refresher")
		}
		refreshSvc.Start()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if refreshSvc != nil {
		refreshSvc.Stop()
	}

	// Graceful shutdown with a bounded window for in-flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
