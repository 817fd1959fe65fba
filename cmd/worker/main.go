// Command worker renders queued similarity map jobs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sj-huang/rdkit-m/internal/bootstrap"
	"github.com/sj-huang/rdkit-m/internal/config"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: SIMMAP_* environment)")
	grpcPort := flag.Int("grpc-port", 0, "health server port (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *grpcPort > 0 {
		cfg.GRPC.Port = *grpcPort
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.RunWorker(ctx, cfg, logger); err != nil {
		logger.Error("Worker failed", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}

//Personal.AI order the ending
