package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soltixdb/cets/internal/compression"
	"github.com/soltixdb/cets/internal/config"
	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/metrics"
	"github.com/soltixdb/cets/internal/queue"
	"github.com/soltixdb/cets/internal/router"
	"github.com/soltixdb/cets/internal/services"
	"github.com/soltixdb/cets/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Router service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	codec, err := compression.NewCodec(mustAlgorithm(logger, cfg.Worker.Compression))
	if err != nil {
		logger.Fatal("Failed to create payload codec", "error", err)
	}

	// Connect to Queue (configurable backend)
	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	queueClient, err := queue.NewQueue(cfg.Queue, cfg.Worker.JobTimeout)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	defer func() { _ = queueClient.Close() }()
	logger.Info("Queue connection established")

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	reg := metrics.NewRegistry()
	correlationService := services.NewCorrelationService(logger, services.AnalysisConfig(cfg), reg)
	jobService := services.NewJobService(logger, queueClient, codec, services.NewJobStore(0),
		correlationService, reg, cfg.Queue.JobSubject, cfg.Queue.ResultSubject)
	if err := jobService.Start(); err != nil {
		logger.Fatal("Failed to consume job results", "error", err)
	}

	// Initialize router
	app := router.New(logger, router.Dependencies{
		Correlation: correlationService,
		Jobs:        jobService,
		Metrics:     reg,
	}, *cfg)

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if err := jobService.Stop(); err != nil {
		logger.Warn("Failed to stop result consumer", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

func mustAlgorithm(logger *logging.Logger, name string) compression.Algorithm {
	algo, err := compression.ParseAlgorithm(name)
	if err != nil {
		logger.Fatal("Invalid payload compression", "error", err)
	}
	return algo
}
