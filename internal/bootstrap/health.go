package bootstrap

import (
	"context"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/prometheus"
)

// HealthChecker is one probed dependency.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

type checkFunc struct {
	name    string
	check   func(ctx context.Context) error
	metrics *prometheus.AppMetrics
}

func (c checkFunc) Name() string { return c.name }

func (c checkFunc) Check(ctx context.Context) error {
	err := c.check(ctx)
	prometheus.SetHealth(c.metrics, c.name, err == nil)
	return err
}

// NewHealthChecker wraps check under name.
func NewHealthChecker(name string, check func(ctx context.Context) error) HealthChecker {
	return checkFunc{name: name, check: check}
}

// HealthCheckers returns a checker per opened component that can be probed.
// Each probe also updates the component health gauge.
func (i *Infrastructure) HealthCheckers() []HealthChecker {
	var out []HealthChecker
	add := func(name string, fn func(ctx context.Context) error) {
		out = append(out, checkFunc{name: name, check: fn, metrics: i.Metrics})
	}
	if i.Postgres != nil {
		add("postgres", i.Postgres.HealthCheck)
	}
	if i.Redis != nil {
		add("redis", i.Redis.Ping)
	}
	if i.MinIO != nil {
		add("minio", i.MinIO.HealthCheck)
	}
	if i.Milvus != nil {
		add("milvus", i.Milvus.CheckHealth)
	}
	if i.OpenSearch != nil {
		add("opensearch", i.OpenSearch.Ping)
	}
	return out
}

//Personal.AI order the ending
