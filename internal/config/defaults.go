package config

import (
	"runtime"
	"time"
)

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"
	DefaultGRPCPort   = 9090

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultAuthAlgorithm = "HS256"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "simmap:"

	DefaultPostgresHost = "localhost"
	DefaultPostgresPort = 5432
	DefaultPostgresDB   = "simmap"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "simmap-images"

	DefaultKafkaBroker     = "localhost:9092"
	DefaultKafkaGroupID    = "simmap-worker"
	DefaultJobTopic        = "simmap.jobs"
	DefaultResultTopic     = "simmap.results"
	DefaultDeadLetterTopic = "simmap.jobs.dlq"

	DefaultMilvusAddr       = "localhost:19530"
	DefaultMilvusCollection = "simmap_references"
	DefaultMilvusDim        = 2048

	DefaultOpenSearchAddr  = "http://localhost:9200"
	DefaultOpenSearchIndex = "simmap-maps"

	DefaultMetricsNamespace = "simmap"
	DefaultMetricsPath      = "/metrics"

	DefaultFingerprint = "morgan"
	DefaultFPType      = "bv"
	DefaultMetric      = "dice"
	DefaultMapSize     = 250
	DefaultContours    = 10
	DefaultRenderFmt   = "png"
	DefaultCacheTTL    = time.Hour
	DefaultInfoCache   = 256
)

// ApplyDefaults fills every zero-value field in cfg. Explicit values win.
// Enabled flags are never touched.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 1 << 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = 20
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	// ── gRPC ──────────────────────────────────────────────────────────────────
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}
	if cfg.GRPC.KeepaliveTime == 0 {
		cfg.GRPC.KeepaliveTime = 2 * time.Hour
	}
	if cfg.GRPC.KeepaliveTimeout == 0 {
		cfg.GRPC.KeepaliveTimeout = 20 * time.Second
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Auth ──────────────────────────────────────────────────────────────────
	if cfg.Auth.Algorithm == "" {
		cfg.Auth.Algorithm = DefaultAuthAlgorithm
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10 * runtime.GOMAXPROCS(0)
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = DefaultPostgresHost
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.DBName == "" {
		cfg.Postgres.DBName = DefaultPostgresDB
	}
	if cfg.Postgres.User == "" {
		cfg.Postgres.User = "postgres"
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = 25
	}
	if cfg.Postgres.MaxIdleConns == 0 {
		cfg.Postgres.MaxIdleConns = 10
	}
	if cfg.Postgres.ConnMaxLifetime == 0 {
		cfg.Postgres.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Postgres.ConnMaxIdleTime == 0 {
		cfg.Postgres.ConnMaxIdleTime = 5 * time.Minute
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = 15 * time.Minute
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.JobTopic == "" {
		cfg.Kafka.JobTopic = DefaultJobTopic
	}
	if cfg.Kafka.ResultTopic == "" {
		cfg.Kafka.ResultTopic = DefaultResultTopic
	}
	if cfg.Kafka.DeadLetterTopic == "" {
		cfg.Kafka.DeadLetterTopic = DefaultDeadLetterTopic
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 50 * time.Millisecond
	}
	if cfg.Kafka.MaxAttempts == 0 {
		cfg.Kafka.MaxAttempts = 3
	}

	// ── Milvus ────────────────────────────────────────────────────────────────
	if cfg.Milvus.Addr == "" {
		cfg.Milvus.Addr = DefaultMilvusAddr
	}
	if cfg.Milvus.Collection == "" {
		cfg.Milvus.Collection = DefaultMilvusCollection
	}
	if cfg.Milvus.Dim == 0 {
		cfg.Milvus.Dim = DefaultMilvusDim
	}
	if cfg.Milvus.NList == 0 {
		cfg.Milvus.NList = 128
	}
	if cfg.Milvus.NProbe == 0 {
		cfg.Milvus.NProbe = 16
	}
	if cfg.Milvus.ConnectTimeout == 0 {
		cfg.Milvus.ConnectTimeout = 10 * time.Second
	}

	// ── OpenSearch ────────────────────────────────────────────────────────────
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddr}
	}
	if cfg.OpenSearch.Index == "" {
		cfg.OpenSearch.Index = DefaultOpenSearchIndex
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Simmap ────────────────────────────────────────────────────────────────
	if cfg.Simmap.Fingerprint == "" {
		cfg.Simmap.Fingerprint = DefaultFingerprint
	}
	if cfg.Simmap.FPType == "" {
		cfg.Simmap.FPType = DefaultFPType
	}
	if cfg.Simmap.Metric == "" {
		cfg.Simmap.Metric = DefaultMetric
	}
	if cfg.Simmap.Concurrency == 0 {
		cfg.Simmap.Concurrency = runtime.GOMAXPROCS(0)
	}
	if cfg.Simmap.Size == 0 {
		cfg.Simmap.Size = DefaultMapSize
	}
	if cfg.Simmap.Contours == 0 {
		cfg.Simmap.Contours = DefaultContours
	}
	if cfg.Simmap.RenderFmt == "" {
		cfg.Simmap.RenderFmt = DefaultRenderFmt
	}
	if cfg.Simmap.CacheTTL == 0 {
		cfg.Simmap.CacheTTL = DefaultCacheTTL
	}
	if cfg.Simmap.InfoCache == 0 {
		cfg.Simmap.InfoCache = DefaultInfoCache
	}
}

// Defaults returns a Config populated only with defaults.
func Defaults() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
