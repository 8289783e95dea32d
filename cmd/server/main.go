// Package main provides the API server entry point for the reputation service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lookoupai/Low-price-tron-energy/internal/api"
	"github.com/lookoupai/Low-price-tron-energy/internal/config"
	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
	"github.com/lookoupai/Low-price-tron-energy/internal/reputation"
	"github.com/lookoupai/Low-price-tron-energy/internal/storage"
)

func main() {
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
	logger.Info("Database connection established")

	blacklistRepo := storage.NewBlacklistRepository(postgres)
	whitelistRepo := storage.NewWhitelistRepository(postgres)
	settingsRepo := storage.NewSettingsRepository(postgres)

	blacklist := reputation.NewBlacklistStore(blacklistRepo, cfg.Reputation.BlacklistCacheSize, cfg.Reputation.CacheTTL, logger)
	whitelist := reputation.NewWhitelistStore(whitelistRepo, cfg.Reputation.WhitelistCacheSize, cfg.Reputation.CacheTTL, logger)
	settings := reputation.NewSettingsStore(settingsRepo, logger)
	propagator := reputation.NewPropagator(blacklist, settings, logger)
	stats := reputation.NewStatsReporter(blacklist, whitelist, settings)

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}

	server := api.NewServer(serverConfig, blacklist, whitelist, propagator, settings, stats, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}
	logger.Info("Server exited")
}
