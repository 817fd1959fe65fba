package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppMetrics_AllFamiliesSet(t *testing.T) {
	m := NewAppMetrics(newTestCollector(t))
	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.WeightsComputeDuration)
	assert.NotNil(t, m.RenderBytes)
	assert.NotNil(t, m.JobsTotal)
	assert.NotNil(t, m.HealthCheckStatus)
}

func TestRecordHelpers(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	RecordHTTPRequest(m, "POST", "/api/v1/weights", 200, 20*time.Millisecond)
	RecordWeights(m, "fingerprint", 6, 3*time.Millisecond)
	RecordRender(m, "png", 4096, 50*time.Millisecond)
	RecordJob(m, "succeeded", time.Second)
	RecordCacheAccess(m, "weights", true)
	RecordCacheAccess(m, "weights", false)
	RecordCacheAccess(m, "weights", false)
	RecordDBQuery(m, "insert_map", time.Millisecond, errors.New("boom"))
	RecordError(m, "renderer", "SIMMAP_003")
	SetHealth(m, "redis", true)
	SetHealth(m, "kafka", false)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_http_requests_total{method="POST",path="/api/v1/weights",status_code="200"} 1`)
	assert.Contains(t, out, `test_unit_weights_atom_count_sum{source="fingerprint"} 6`)
	assert.Contains(t, out, `test_unit_render_bytes_sum{format="png"} 4096`)
	assert.Contains(t, out, `test_unit_jobs_total{status="succeeded"} 1`)
	assert.Contains(t, out, `test_unit_cache_hits_total{cache="weights"} 1`)
	assert.Contains(t, out, `test_unit_cache_misses_total{cache="weights"} 2`)
	assert.Contains(t, out, `test_unit_errors_total{code="query_error",component="postgres"} 1`)
	assert.Contains(t, out, `test_unit_errors_total{code="SIMMAP_003",component="renderer"} 1`)
	assert.Contains(t, out, `test_unit_health_check_status{component="redis"} 1`)
	assert.Contains(t, out, `test_unit_health_check_status{component="kafka"} 0`)
}

func TestGatherer_CountsFamilies(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	m.FingerprintsTotal.WithLabelValues("morgan").Inc()
	m.MapsStoredTotal.WithLabelValues("ok").Inc()

	n, err := testutil.GatherAndCount(c.Gatherer(), "test_unit_fingerprints_total", "test_unit_maps_stored_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordHTTPRequest(nil, "GET", "/", 200, 0)
		RecordWeights(nil, "model", 1, 0)
		RecordRender(nil, "svg", 1, 0)
		RecordJob(nil, "failed", 0)
		RecordCacheAccess(nil, "x", true)
		RecordDBQuery(nil, "x", 0, nil)
		RecordError(nil, "x", "y")
		SetHealth(nil, "x", true)
	})
}

//Personal.AI order the ending
