package bootstrap

import (
	"context"
	"fmt"

	"github.com/sj-huang/rdkit-m/internal/config"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/messaging/kafka"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/sj-huang/rdkit-m/internal/interfaces/grpc"
	"github.com/sj-huang/rdkit-m/internal/interfaces/worker"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// RunWorker consumes map jobs until ctx is cancelled. It also serves the
// gRPC health endpoint, reporting NOT_SERVING for the worker service once
// the consumer stops.
func RunWorker(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	if !cfg.Kafka.Enabled {
		return errors.New(errors.ErrCodeFeatureDisabled, "worker requires kafka.enabled")
	}

	infra, err := Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	handler := worker.NewJobHandler(infra.Service(), logger)
	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.ConsumerOptions{
		MaxAttempts: cfg.Kafka.MaxAttempts,
		OnExhausted: handler.Exhausted,
	}, logger.Named("consumer"))
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}

	health, err := grpcserver.NewServer(cfg.GRPC,
		grpcserver.WithLogger(logger),
		grpcserver.WithMetrics(infra.Metrics))
	if err != nil {
		_ = consumer.Close()
		return fmt.Errorf("grpc: %w", err)
	}
	go func() {
		if err := health.Start(); err != nil {
			logger.Error("gRPC health server failed", logging.Err(err))
		}
	}()

	checkers := make([]grpcserver.HealthChecker, 0, len(infra.HealthCheckers()))
	for _, c := range infra.HealthCheckers() {
		checkers = append(checkers, c)
	}
	go health.WatchHealth(ctx, 0, checkers...)

	if err := consumer.Start(ctx, handler.Handle); err != nil {
		_ = health.Stop(context.Background())
		_ = consumer.Close()
		return fmt.Errorf("kafka consumer: %w", err)
	}
	health.SetServing(grpcserver.ServiceWorker, true)
	logger.Info("Worker started", logging.String("topic", kafka.TopicsFromConfig(cfg.Kafka).Jobs))

	<-ctx.Done()
	logger.Info("Worker stopping")
	health.SetServing(grpcserver.ServiceWorker, false)

	var errs []error
	if err := consumer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("kafka consumer: %w", err))
	}
	if err := health.Stop(context.Background()); err != nil {
		errs = append(errs, fmt.Errorf("grpc: %w", err))
	}
	processed, failed, retried, dlq := consumer.Metrics()
	logger.Info("Worker stopped",
		logging.Int64("processed", processed),
		logging.Int64("failed", failed),
		logging.Int64("retried", retried),
		logging.Int64("dead_lettered", dlq))
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

//Personal.AI order the ending
