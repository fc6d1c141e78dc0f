package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/logging"
	"github.com/maestrohq/maestro/internal/obs"
	"github.com/maestrohq/maestro/internal/registry"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.WithComponent("registry")
	logger.Info("Starting Maestro registry", "version", version)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	sink, closeSink := obs.NewSinkFromConfig(cfg, logger)
	defer closeSink()
	emitter := obs.NewEmitter(sink, "registry", logger)

	store := registry.NewStore()

	var prober *registry.Prober
	if cfg.Registry.Liveness.Enabled {
		prober, err = registry.NewProber(store, cfg.Registry.Liveness.Schedule, logger)
		if err != nil {
			logger.Error("Failed to create liveness prober", "error", err)
			os.Exit(1)
		}
		prober.Start()
		logger.Info("Liveness prober started")
	}

	srv := registry.NewServer(cfg, store, prober, emitter, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down registry")
	if prober != nil {
		prober.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Shutdown complete")
}
