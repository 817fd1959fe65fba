package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SIMMAP"

// envKeys lists every leaf key so AutomaticEnv can resolve overrides for keys
// that are absent from the YAML file. viper.Unmarshal only consults env vars
// for keys it already knows about.
var envKeys = []string{
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
	"server.max_body_size", "server.shutdown_timeout",
	"grpc.port", "grpc.enable_reflection",
	"log.level", "log.format",
	"auth.enabled", "auth.algorithm", "auth.secret", "auth.public_key_path", "auth.issuer", "auth.audience",
	"redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.key_prefix",
	"postgres.enabled", "postgres.host", "postgres.port", "postgres.user", "postgres.password",
	"postgres.db_name", "postgres.ssl_mode", "postgres.auto_migrate",
	"minio.enabled", "minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket", "minio.use_ssl",
	"kafka.enabled", "kafka.brokers", "kafka.group_id", "kafka.job_topic", "kafka.result_topic", "kafka.dead_letter_topic",
	"milvus.enabled", "milvus.addr", "milvus.username", "milvus.password", "milvus.collection", "milvus.dim",
	"opensearch.enabled", "opensearch.addresses", "opensearch.username", "opensearch.password", "opensearch.index",
	"metrics.enabled", "metrics.namespace",
	"simmap.fingerprint", "simmap.fp_type", "simmap.metric", "simmap.concurrency", "simmap.render_format",
	"simmap.cache_ttl",
}

// newViper returns a Viper with YAML type, SIMMAP_ env prefix and "." → "_"
// key replacement, so "postgres.host" resolves to SIMMAP_POSTGRES_HOST.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at path, merges SIMMAP_* overrides, applies
// defaults and validates.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from SIMMAP_* variables and defaults only.
//
//	SIMMAP_<SECTION>_<FIELD>   e.g.  SIMMAP_REDIS_ADDR, SIMMAP_SIMMAP_METRIC
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadOrDefault loads path when it is non-empty and falls back to LoadFromEnv.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return LoadFromEnv()
	}
	return Load(path)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Watch re-reads path whenever it changes on disk and passes the new Config to
// onChange. Changes that fail to parse or validate go to onError when it is
// non-nil and are otherwise dropped. Watch does not block.
func Watch(path string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", path, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad is Load that panics on error. main() only.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
