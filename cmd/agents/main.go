package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maestrohq/maestro/internal/agentstub"
	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/logging"
	"github.com/maestrohq/maestro/internal/registry"
)

const version = "1.0.0"

type stubFactory func(addr, endpoint string, logger *slog.Logger) *agentstub.Stub

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.WithComponent("agents")
	logger.Info("Starting Maestro demo agents", "version", version)

	factories := []stubFactory{
		agentstub.NewSalesDataAgent,
		agentstub.NewNewsSearchAgent,
		agentstub.NewTextAnalysisAgent,
		agentstub.NewDataVisualizationAgent,
	}

	registryClient := registry.NewClient(&cfg.Registry)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stubs := make([]*agentstub.Stub, 0, len(factories))
	for i, factory := range factories {
		port := cfg.Agents.BasePort + i
		addr := fmt.Sprintf("%s:%d", cfg.Agents.Host, port)
		endpoint := fmt.Sprintf("http://%s:%d/execute", cfg.Agents.Host, port)
		stub := factory(addr, endpoint, logger)
		stubs = append(stubs, stub)

		go func() {
			if err := stub.Start(); err != nil {
				logger.Error("Agent server error", "agent", stub.Card().Name, "error", err)
				os.Exit(1)
			}
		}()
		go func() {
			if err := stub.SelfRegister(ctx, registryClient); err != nil {
				logger.Error("Agent registration abandoned", "agent", stub.Card().Name, "error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down agents")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	for _, stub := range stubs {
		if err := stub.Shutdown(shutdownCtx); err != nil {
			logger.Error("Agent shutdown error", "agent", stub.Card().Name, "error", err)
		}
	}
	logger.Info("Shutdown complete")
}
