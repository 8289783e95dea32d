// Package main provides the discovery crawler entry point. It scans recent
// blocks on an interval, qualifies low-cost energy payment addresses, and
// feeds every discovered pair through the reputation engine.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lookoupai/Low-price-tron-energy/internal/config"
	"github.com/lookoupai/Low-price-tron-energy/internal/finder"
	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
	"github.com/lookoupai/Low-price-tron-energy/internal/reputation"
	"github.com/lookoupai/Low-price-tron-energy/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "run a single scan and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	// the crawler caches are optional; scanning just gets slower without them
	var cache *storage.RedisCache
	if cache, err = storage.NewRedisCache(&cfg.Database.Redis); err != nil {
		logger.WithError(err).Warn("Redis unavailable, running without crawler caches")
		cache = nil
	} else {
		defer cache.Close()
	}

	blacklistRepo := storage.NewBlacklistRepository(postgres)
	whitelistRepo := storage.NewWhitelistRepository(postgres)
	settingsRepo := storage.NewSettingsRepository(postgres)

	blacklist := reputation.NewBlacklistStore(blacklistRepo, cfg.Reputation.BlacklistCacheSize, cfg.Reputation.CacheTTL, logger)
	whitelist := reputation.NewWhitelistStore(whitelistRepo, cfg.Reputation.WhitelistCacheSize, cfg.Reputation.CacheTTL, logger)
	settings := reputation.NewSettingsStore(settingsRepo, logger)
	propagator := reputation.NewPropagator(blacklist, settings, logger)

	client := finder.NewTronScanClient(cfg.Finder.TronScanAPIURL, cfg.Finder.TronScanAPIKey, logger)
	crawler := finder.NewFinder(client, cache, whitelist, propagator, &cfg.Finder, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runScan := func() {
		scanCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()

		found, err := crawler.Scan(scanCtx)
		if err != nil {
			logger.WithError(err).Error("Scan failed")
			return
		}
		logger.WithField("candidates", len(found)).Info("Scan complete")
	}

	runScan()
	if *once {
		return
	}

	ticker := time.NewTicker(cfg.Finder.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Finder exiting")
			os.Exit(0)
		case <-ticker.C:
			runScan()
		}
	}
}
