// Package config defines the configuration structures of the similarity-map
// service. Only plain data types and validation live here; loading is in
// loader.go and defaults in defaults.go.
package config

import (
	"fmt"
	"time"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RateLimitRPS is the per-client request rate; 0 disables limiting.
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
}

// GRPCConfig holds the worker's health endpoint settings.
type GRPCConfig struct {
	Port             int           `mapstructure:"port"`
	EnableReflection bool          `mapstructure:"enable_reflection"`
	KeepaliveTime    time.Duration `mapstructure:"keepalive_time"`
	KeepaliveTimeout time.Duration `mapstructure:"keepalive_timeout"`
}

// AuthConfig controls bearer-token verification on the HTTP API.
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Algorithm is "HS256" or "RS256".
	Algorithm     string `mapstructure:"algorithm"`
	Secret        string `mapstructure:"secret"`
	PublicKeyPath string `mapstructure:"public_key_path"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
}

// RedisConfig holds Redis connection parameters for the weights cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// PostgresConfig holds the map record store connection parameters.
type PostgresConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// MinIOConfig holds object storage parameters for rendered images.
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// KafkaConfig holds job topic parameters.
type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	JobTopic        string        `mapstructure:"job_topic"`
	ResultTopic     string        `mapstructure:"result_topic"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
	GroupID         string        `mapstructure:"group_id"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

// MilvusConfig holds the reference library connection parameters.
type MilvusConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"db_name"`
	Collection     string        `mapstructure:"collection"`
	Dim            int           `mapstructure:"dim"`
	NList          int           `mapstructure:"nlist"`
	NProbe         int           `mapstructure:"nprobe"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// OpenSearchConfig holds the map index connection parameters.
type OpenSearchConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	Addresses          []string `mapstructure:"addresses"`
	Username           string   `mapstructure:"username"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	Index              string   `mapstructure:"index"`
}

// MetricsConfig controls the Prometheus registry.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Namespace            string `mapstructure:"namespace"`
	Path                 string `mapstructure:"path"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// SimmapConfig holds defaults for weight computation and rendering.
type SimmapConfig struct {
	// Fingerprint is one of morgan, ap, tt, rdk.
	Fingerprint string `mapstructure:"fingerprint"`
	// FPType is the default fingerprint representation, e.g. "bv", "count", "normal".
	FPType      string        `mapstructure:"fp_type"`
	Metric      string        `mapstructure:"metric"`
	Concurrency int           `mapstructure:"concurrency"`
	Size        int           `mapstructure:"size"`
	Contours    int           `mapstructure:"contours"`
	Sigma       float64       `mapstructure:"sigma"`
	RenderFmt   string        `mapstructure:"render_format"` // "png" | "svg"
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	InfoCache   int           `mapstructure:"info_cache_size"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration of every binary in this module.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	GRPC       GRPCConfig        `mapstructure:"grpc"`
	Log        logging.LogConfig `mapstructure:"log"`
	Auth       AuthConfig        `mapstructure:"auth"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Postgres   PostgresConfig    `mapstructure:"postgres"`
	MinIO      MinIOConfig       `mapstructure:"minio"`
	Kafka      KafkaConfig       `mapstructure:"kafka"`
	Milvus     MilvusConfig      `mapstructure:"milvus"`
	OpenSearch OpenSearchConfig  `mapstructure:"opensearch"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Simmap     SimmapConfig      `mapstructure:"simmap"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

func validPort(p int) bool { return p >= 1 && p <= 65535 }

// Validate checks the fully-defaulted Config and returns the first problem.
// Sections whose Enabled flag is false are not checked.
func (c *Config) Validate() error {
	if !validPort(c.Server.Port) {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must be >= 0, got %g", c.Server.RateLimitRPS)
	}
	if !validPort(c.GRPC.Port) {
		return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
	}

	switch c.Log.Level {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if c.Auth.Enabled {
		switch c.Auth.Algorithm {
		case "HS256":
			if c.Auth.Secret == "" {
				return fmt.Errorf("config: auth.secret is required for HS256")
			}
		case "RS256":
			if c.Auth.PublicKeyPath == "" {
				return fmt.Errorf("config: auth.public_key_path is required for RS256")
			}
		default:
			return fmt.Errorf("config: auth.algorithm %q is invalid; expected HS256|RS256", c.Auth.Algorithm)
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
		}
	}

	if c.Postgres.Enabled {
		if c.Postgres.Host == "" {
			return fmt.Errorf("config: postgres.host is required")
		}
		if !validPort(c.Postgres.Port) {
			return fmt.Errorf("config: postgres.port %d is out of range [1, 65535]", c.Postgres.Port)
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("config: postgres.user is required")
		}
		if c.Postgres.DBName == "" {
			return fmt.Errorf("config: postgres.db_name is required")
		}
	}

	if c.MinIO.Enabled && (c.MinIO.Endpoint == "" || c.MinIO.Bucket == "") {
		return fmt.Errorf("config: minio.endpoint and minio.bucket are required")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
	}

	if c.Milvus.Enabled {
		if c.Milvus.Addr == "" {
			return fmt.Errorf("config: milvus.addr is required")
		}
		if c.Milvus.Dim <= 0 || c.Milvus.Dim%8 != 0 {
			return fmt.Errorf("config: milvus.dim must be a positive multiple of 8, got %d", c.Milvus.Dim)
		}
	}

	if c.OpenSearch.Enabled && len(c.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: opensearch.addresses must not be empty")
	}

	switch c.Simmap.Fingerprint {
	case "morgan", "ap", "tt", "rdk":
	default:
		return fmt.Errorf("config: simmap.fingerprint %q is invalid; expected morgan|ap|tt|rdk", c.Simmap.Fingerprint)
	}
	switch c.Simmap.RenderFmt {
	case "png", "svg":
	default:
		return fmt.Errorf("config: simmap.render_format %q is invalid; expected png|svg", c.Simmap.RenderFmt)
	}
	if c.Simmap.Concurrency < 1 {
		return fmt.Errorf("config: simmap.concurrency must be >= 1, got %d", c.Simmap.Concurrency)
	}

	return nil
}

//Personal.AI order the ending
