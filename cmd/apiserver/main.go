// Command apiserver serves the similarity map HTTP API.
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

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: SIMMAP_* environment)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
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

	logger.Info("Starting API server", logging.String("version", version), logging.Int("port", cfg.Server.Port))
	if err := bootstrap.RunAPIServer(ctx, cfg, *configPath, version, logger); err != nil {
		logger.Error("API server failed", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("API server stopped")
}

//Personal.AI order the ending
