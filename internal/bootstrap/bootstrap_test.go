package bootstrap

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsimmap "github.com/sj-huang/rdkit-m/internal/application/simmap"
	"github.com/sj-huang/rdkit-m/internal/config"
	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

func localConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Metrics.Enabled = true
	cfg.Simmap.Concurrency = 2
	return cfg
}

func TestOpen_LocalOnly(t *testing.T) {
	infra, err := Open(context.Background(), localConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	defer infra.Close()

	assert.Nil(t, infra.Postgres)
	assert.Nil(t, infra.Redis)
	assert.NotNil(t, infra.Collector)
	assert.NotNil(t, infra.Metrics)
	assert.Empty(t, infra.HealthCheckers())

	deps := infra.Deps()
	assert.NotNil(t, deps.Renderer)
	assert.NotNil(t, deps.Fingerprinter)
	assert.Nil(t, deps.Maps)
	assert.Nil(t, deps.Publisher)
	assert.Equal(t, "dice", deps.Defaults.Metric)
}

func TestOpen_ServiceComputesWithoutInfrastructure(t *testing.T) {
	infra, err := Open(context.Background(), localConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	defer infra.Close()
	svc := infra.Service()

	res, err := svc.ComputeWeights(context.Background(), &appsimmap.WeightsInput{Reference: "CCO", Probe: "CCN"})
	require.NoError(t, err)
	assert.Len(t, res.Weights, 3)

	mres, err := svc.GenerateMap(context.Background(), &domain.MapRequest{Reference: "CCO", Probe: "CCN"})
	require.NoError(t, err)
	assert.False(t, mres.Persisted)
	assert.NotEmpty(t, mres.Image)

	_, err = svc.SubmitJob(context.Background(), &domain.MapRequest{Reference: "CCO", Probe: "CCN"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))
}

func TestOpen_MetricsError(t *testing.T) {
	cfg := localConfig()
	cfg.Metrics.Namespace = ""
	_, err := Open(context.Background(), cfg, logging.NewNopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics")
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	infra, err := Open(context.Background(), localConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	defer infra.Close()
	assert.Error(t, infra.Migrate())
}

func TestNewHealthChecker(t *testing.T) {
	c := NewHealthChecker("broker", func(ctx context.Context) error { return fmt.Errorf("down") })
	assert.Equal(t, "broker", c.Name())
	assert.EqualError(t, c.Check(context.Background()), "down")
}

//Personal.AI order the ending
