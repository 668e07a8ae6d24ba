package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soltixdb/homedash/internal/config"
	"github.com/soltixdb/homedash/internal/handlers"
	"github.com/soltixdb/homedash/internal/loader"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/queue"
	"github.com/soltixdb/homedash/internal/report"
	"github.com/soltixdb/homedash/internal/router"
	"github.com/soltixdb/homedash/internal/scheduler"
	"github.com/soltixdb/homedash/internal/utils"
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
	logger.Info("Dashboard service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Load the dataset once; every request reads this snapshot
	opts, err := loader.OptionsFromConfig(cfg.Data, logger)
	if err != nil {
		logger.Fatal("Invalid data config", "error", err)
	}
	dataLoc := opts.Location

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	store, err := loader.Load(loadCtx, cfg.Data.Path, opts)
	loadCancel()
	if err != nil {
		logger.Fatal("Failed to load dataset", "path", cfg.Data.Path, "error", err)
	}

	builder := report.NewBuilder(store, cfg.Report.Location(dataLoc), cfg.Report.Room)

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	// Initialize router
	handlers.Version = Version
	h := handlers.New(logger, store, builder, dataLoc)
	app := router.New(logger, h, *cfg)

	// Daily report publisher
	var (
		sched     *scheduler.Scheduler
		publisher queue.Publisher
	)
	if cfg.Report.Enabled {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		publisher, err = queue.NewPublisher(cfg.Queue, cfg.Breaker, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		logger.Info("Queue connection established")

		sched = scheduler.New(cfg.Report.At, cfg.Queue.Subject, builder, publisher, logger)
		if err := sched.Start(); err != nil {
			logger.Fatal("Failed to start report scheduler", "error", err)
		}
	} else {
		logger.Info("Daily report disabled")
	}

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

	if sched != nil {
		sched.Stop()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close queue", "error", err)
		}
	}

	logger.Info("Server exited")
}
