package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{Subsystem: "unit"}, nil)
	assert.Error(t, err)
}

func TestNewMetricsCollector_ProcessMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", EnableProcessMetrics: true, EnableGoMetrics: true}, nil)
	require.NoError(t, err)
	out := scrape(t, c)
	assert.Contains(t, out, "go_goroutines")
}

func TestRegisterCounter_Idempotent(t *testing.T) {
	c := newTestCollector(t)
	a := c.RegisterCounter("hits_total", "hits", "kind")
	b := c.RegisterCounter("hits_total", "hits", "kind")
	a.WithLabelValues("x").Inc()
	b.WithLabelValues("x").Add(2)

	assert.Contains(t, scrape(t, c), `test_unit_hits_total{kind="x"} 3`)
}

func TestRegister_TypeMismatchFallsBackToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dual", "dual")
	g := c.RegisterGauge("dual", "dual")
	assert.IsType(t, noopGaugeVec{}, g)
	g.WithLabelValues().Set(5)
}

func TestRegister_InvalidNameFallsBackToNoop(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("bad name", "bad", nil)
	assert.IsType(t, noopHistogramVec{}, h)
}

func TestRegisterGaugeAndHistogram(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("queue_depth", "depth", "queue")
	g.WithLabelValues("jobs").Set(4)
	g.WithLabelValues("jobs").Inc()
	g.WithLabelValues("jobs").Dec()

	h := c.RegisterHistogram("latency_seconds", "latency", []float64{0.1, 1}, "op")
	h.WithLabelValues("render").Observe(0.5)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_queue_depth{queue="jobs"} 4`)
	assert.Contains(t, out, `test_unit_latency_seconds_count{op="render"} 1`)
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("op_seconds", "op", nil, "op")
	timer := NewTimer(h.WithLabelValues("x"))
	time.Sleep(time.Millisecond)
	d := timer.ObserveDuration()
	assert.Greater(t, d, time.Duration(0))
	assert.Contains(t, scrape(t, c), `test_unit_op_seconds_count{op="x"} 1`)

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

//Personal.AI order the ending
