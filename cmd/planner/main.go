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
	"github.com/maestrohq/maestro/internal/oracle"
	"github.com/maestrohq/maestro/internal/planner"
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
	logger := logging.WithComponent("planner")
	logger.Info("Starting Maestro planner", "version", version)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateOracle(); err != nil {
		logger.Error("Invalid oracle config", "error", err)
		os.Exit(1)
	}

	oracleClient, err := oracle.New(&cfg.Oracle)
	if err != nil {
		logger.Error("Failed to create oracle client", "error", err)
		os.Exit(1)
	}
	if err := oracleClient.Health(); err != nil {
		logger.Warn("Oracle health check failed", "error", err)
	}

	sink, closeSink := obs.NewSinkFromConfig(cfg, logger)
	defer closeSink()
	emitter := obs.NewEmitter(sink, "planner", logger)

	registryClient := registry.NewClient(&cfg.Registry)
	generator := planner.NewGenerator(oracleClient, registryClient, cfg.Planner.Attempts, logger)

	srv := planner.NewServer(cfg, generator, emitter, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down planner")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Shutdown complete")
}
