package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/eventbus"
	"github.com/maestrohq/maestro/internal/logging"
	"github.com/maestrohq/maestro/internal/obs"
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
	logger := logging.WithComponent("observatory")
	logger.Info("Starting Maestro observatory", "version", version)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	collector := obs.NewCollector(cfg.Observatory.MaxTraces, cfg.Observatory.MaxEvents)

	var subscriber *eventbus.Subscriber
	if cfg.Redis.Enabled {
		hostname, _ := os.Hostname()
		subscriber, err = eventbus.NewSubscriber(eventbus.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, hostname, logger)
		if err != nil {
			logger.Warn("Redis event stream unavailable, HTTP ingest only", "error", err)
			subscriber = nil
		} else {
			logger.Info("Consuming Redis event stream", "stream", eventbus.EventStream)
			defer subscriber.Close()
		}
	}

	srv := obs.NewServer(cfg, collector, subscriber, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down observatory")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Shutdown complete")
}
