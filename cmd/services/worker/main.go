package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/soltixdb/cets/internal/compression"
	"github.com/soltixdb/cets/internal/config"
	"github.com/soltixdb/cets/internal/handlers"
	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/metrics"
	"github.com/soltixdb/cets/internal/queue"
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

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	logger.Info("Worker service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// 3. Payload codec
	algo, err := compression.ParseAlgorithm(cfg.Worker.Compression)
	if err != nil {
		logger.Fatal("Invalid payload compression", "error", err)
	}
	codec, err := compression.NewCodec(algo)
	if err != nil {
		logger.Fatal("Failed to create payload codec", "error", err)
	}

	// 4. Connect to the queue; redelivery waits at least one job timeout
	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	queueClient, err := queue.NewQueue(cfg.Queue, cfg.Worker.JobTimeout)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	defer func() { _ = queueClient.Close() }()

	// 5. Start the worker
	reg := metrics.NewRegistry()
	correlationService := services.NewCorrelationService(logger, services.AnalysisConfig(cfg), reg)
	worker := services.NewJobWorker(logger, queueClient, codec, correlationService, reg, services.WorkerOptions{
		JobSubject:    cfg.Queue.JobSubject,
		ResultSubject: cfg.Queue.ResultSubject,
		Concurrency:   cfg.Worker.Concurrency,
		JobTimeout:    cfg.Worker.JobTimeout,
	})
	if err := worker.Start(); err != nil {
		logger.Fatal("Failed to start worker", "error", err)
	}

	// 6. Probe endpoints
	var probes *fiber.App
	if cfg.Worker.MetricsPort > 0 {
		probes = newProbeApp(logger, correlationService, reg)
		addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Worker.MetricsPort))
		go func() {
			logger.Info("Probe endpoints listening", "address", addr)
			if err := probes.Listen(addr); err != nil {
				logger.Error("Probe server stopped", "error", err)
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")

	ctx, cancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer cancel()

	if err := worker.Stop(ctx); err != nil {
		logger.Warn("Running jobs were cancelled", "error", err)
	}
	if probes != nil {
		_ = probes.ShutdownWithContext(ctx)
	}

	logger.Info("Worker exited")
}

func newProbeApp(logger *logging.Logger, correlation *services.CorrelationService, reg *metrics.Registry) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "CETS Worker",
		DisableStartupMessage: true,
	})
	h := handlers.New(logger, correlation, nil)
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(reg.Handler()))
	app.Use(h.NotFound)
	return app
}
