package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/executor"
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
	logger := logging.WithComponent("executor")
	logger.Info("Starting Maestro executor", "version", version)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	sink, closeSink := obs.NewSinkFromConfig(cfg, logger)
	defer closeSink()
	emitter := obs.NewEmitter(sink, "executor", logger)

	registryClient := registry.NewClient(&cfg.Registry)
	stats := executor.NewStats()
	engine := executor.NewEngine(registryClient, cfg.Executor.GetStepTimeout(), emitter, stats, logger)

	srv := executor.NewServer(cfg, engine, stats, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down executor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Shutdown complete")
}
