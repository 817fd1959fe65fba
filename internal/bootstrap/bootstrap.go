// Package bootstrap opens the infrastructure enabled in the configuration and
// assembles the similarity map service on top of it. The API server, the
// worker and the CLI share it.
package bootstrap

import (
	"context"
	"fmt"

	appsimmap "github.com/sj-huang/rdkit-m/internal/application/simmap"
	"github.com/sj-huang/rdkit-m/internal/config"
	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/database/postgres"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/database/postgres/repositories"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/database/redis"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/messaging/kafka"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/prometheus"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/rendering/plot"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/search/milvus"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/search/opensearch"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/storage/minio"
)

// Infrastructure holds the clients opened for one process. Nil fields are
// disabled components.
type Infrastructure struct {
	Postgres   *postgres.Connection
	Redis      *redis.Client
	MinIO      *minio.Client
	Producer   *kafka.Producer
	Milvus     *milvus.Client
	OpenSearch *opensearch.Client

	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	cfg    *config.Config
	deps   appsimmap.Deps
	logger logging.Logger
}

// Open connects every enabled component of cfg. On failure the components
// opened so far are closed.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{cfg: cfg, logger: logger}
	if err := infra.open(ctx); err != nil {
		infra.Close()
		return nil, err
	}
	logger.Info("Infrastructure initialized", logging.Strings("components", infra.components()))
	return infra, nil
}

func (i *Infrastructure) open(ctx context.Context) error {
	cfg, logger := i.cfg, i.logger

	i.deps = appsimmap.Deps{
		Renderer:      plot.NewRenderer(logger),
		Fingerprinter: domain.NewFingerprinter(cfg.Simmap.InfoCache, cfg.Simmap.CacheTTL),
		Defaults:      cfg.Simmap,
		Logger:        logger,
	}

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
			EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
		}, logger)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		i.Collector = collector
		i.Metrics = prometheus.NewAppMetrics(collector)
		i.deps.Metrics = i.Metrics
	}

	if cfg.Postgres.Enabled {
		conn, err := postgres.NewConnection(cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		i.Postgres = conn
		if cfg.Postgres.AutoMigrate {
			if err := i.Migrate(); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
		}
		i.deps.Maps = repositories.NewPostgresMapRepo(conn, logger)
		i.deps.Jobs = repositories.NewPostgresJobRepo(conn, logger)
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		i.Redis = client
		i.deps.Cache = redis.NewWeightsCache(client, logger, redis.WithDefaultTTL(cfg.Simmap.CacheTTL))
		i.deps.Locker = redis.NewLockFactory(client, logger)
	}

	if cfg.MinIO.Enabled {
		client, err := minio.NewClient(cfg.MinIO, logger)
		if err != nil {
			return fmt.Errorf("minio: %w", err)
		}
		i.MinIO = client
		if err := client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("minio: %w", err)
		}
		i.deps.Images = minio.NewImageStore(client, logger)
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
		i.Producer = producer
		i.deps.Publisher = producer
	}

	if cfg.Milvus.Enabled {
		client, err := milvus.NewClient(cfg.Milvus, logger)
		if err != nil {
			return fmt.Errorf("milvus: %w", err)
		}
		i.Milvus = client
		if err := client.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("milvus: %w", err)
		}
		i.deps.References = milvus.NewReferenceLibrary(client, logger)
	}

	if cfg.OpenSearch.Enabled {
		client, err := opensearch.NewClient(cfg.OpenSearch, logger)
		if err != nil {
			return fmt.Errorf("opensearch: %w", err)
		}
		i.OpenSearch = client
		index := opensearch.NewMapIndex(client, logger)
		if err := index.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("opensearch: %w", err)
		}
		i.deps.Index = index
	}
	return nil
}

// Migrate applies the embedded schema migrations.
func (i *Infrastructure) Migrate() error {
	if i.Postgres == nil {
		return fmt.Errorf("postgres is not enabled")
	}
	m, err := postgres.NewMigrator(i.Postgres, i.logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// Deps returns the service dependencies backed by the opened components.
func (i *Infrastructure) Deps() appsimmap.Deps {
	return i.deps
}

// Service builds the application service over the opened components.
func (i *Infrastructure) Service() appsimmap.Service {
	return appsimmap.NewService(i.deps)
}

func (i *Infrastructure) components() []string {
	var names []string
	for _, c := range i.HealthCheckers() {
		names = append(names, c.Name())
	}
	if i.Producer != nil {
		names = append(names, "kafka")
	}
	if i.Collector != nil {
		names = append(names, "metrics")
	}
	return names
}

// Close releases every opened component in reverse order of opening.
func (i *Infrastructure) Close() {
	closers := []struct {
		name string
		fn   func() error
	}{
		{"opensearch", closerOf(i.OpenSearch != nil, func() error { return i.OpenSearch.Close() })},
		{"milvus", closerOf(i.Milvus != nil, func() error { return i.Milvus.Close() })},
		{"kafka", closerOf(i.Producer != nil, func() error { return i.Producer.Close() })},
		{"minio", closerOf(i.MinIO != nil, func() error { return i.MinIO.Close() })},
		{"redis", closerOf(i.Redis != nil, func() error { return i.Redis.Close() })},
		{"postgres", closerOf(i.Postgres != nil, func() error { return i.Postgres.Close() })},
	}
	for _, c := range closers {
		if c.fn == nil {
			continue
		}
		if err := c.fn(); err != nil {
			i.logger.Warn("Failed to close component", logging.String("component", c.name), logging.Err(err))
		}
	}
}

func closerOf(open bool, fn func() error) func() error {
	if !open {
		return nil
	}
	return fn
}

//Personal.AI order the ending
