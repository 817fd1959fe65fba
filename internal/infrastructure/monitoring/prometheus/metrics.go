package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric family exported by the service.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// gRPC
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	// Similarity maps
	FingerprintsTotal       CounterVec
	WeightsComputeDuration  HistogramVec
	WeightsAtomCount        HistogramVec
	RenderDuration          HistogramVec
	RenderBytes             HistogramVec
	MapsStoredTotal         CounterVec
	ReferenceSearchDuration HistogramVec

	// Jobs
	JobsTotal       CounterVec
	JobDuration     HistogramVec
	JobRetriesTotal CounterVec
	JobsInFlight    GaugeVec

	// Infrastructure
	DBQueryDuration   HistogramVec
	CacheHitsTotal    CounterVec
	CacheMissesTotal  CounterVec
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Bucket layouts.
var (
	HTTPDurationBuckets    = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	ComputeDurationBuckets = []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30}
	AtomCountBuckets       = []float64{5, 10, 20, 40, 80, 160, 320}
	ImageSizeBuckets       = []float64{1 << 10, 8 << 10, 32 << 10, 128 << 10, 512 << 10, 2 << 20}
	DBDurationBuckets      = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all families on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", HTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "method", "code")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", HTTPDurationBuckets, "method")

	m.FingerprintsTotal = collector.RegisterCounter("fingerprints_total", "Fingerprints generated", "kind")
	m.WeightsComputeDuration = collector.RegisterHistogram("weights_compute_duration_seconds", "Atomic weight computation time", ComputeDurationBuckets, "source")
	m.WeightsAtomCount = collector.RegisterHistogram("weights_atom_count", "Heavy atoms per weight computation", AtomCountBuckets, "source")
	m.RenderDuration = collector.RegisterHistogram("render_duration_seconds", "Similarity map render time", ComputeDurationBuckets, "format")
	m.RenderBytes = collector.RegisterHistogram("render_bytes", "Rendered image size", ImageSizeBuckets, "format")
	m.MapsStoredTotal = collector.RegisterCounter("maps_stored_total", "Similarity maps persisted", "status")
	m.ReferenceSearchDuration = collector.RegisterHistogram("reference_search_duration_seconds", "Reference library nearest-neighbour search time", DBDurationBuckets, "backend")

	m.JobsTotal = collector.RegisterCounter("jobs_total", "Similarity map jobs processed", "status")
	m.JobDuration = collector.RegisterHistogram("job_duration_seconds", "Similarity map job duration", ComputeDurationBuckets, "status")
	m.JobRetriesTotal = collector.RegisterCounter("job_retries_total", "Similarity map job retries", "reason")
	m.JobsInFlight = collector.RegisterGauge("jobs_in_flight", "Jobs currently being processed", "worker")

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DBDurationBuckets, "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Dependency health (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// RecordHTTPRequest records a finished request.
func RecordHTTPRequest(m *AppMetrics, method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordGRPCRequest records a finished unary or stream call.
func RecordGRPCRequest(m *AppMetrics, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordWeights records one weight computation. source is "fingerprint" or "model".
func RecordWeights(m *AppMetrics, source string, atoms int, d time.Duration) {
	if m == nil {
		return
	}
	m.WeightsComputeDuration.WithLabelValues(source).Observe(d.Seconds())
	m.WeightsAtomCount.WithLabelValues(source).Observe(float64(atoms))
}

// RecordRender records one rendered image.
func RecordRender(m *AppMetrics, format string, size int, d time.Duration) {
	if m == nil {
		return
	}
	m.RenderDuration.WithLabelValues(format).Observe(d.Seconds())
	m.RenderBytes.WithLabelValues(format).Observe(float64(size))
}

// RecordJob records a completed or failed job.
func RecordJob(m *AppMetrics, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(status).Inc()
	m.JobDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordCacheAccess records a hit or a miss on the named cache.
func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordDBQuery observes a query and counts it as an error when err is non-nil.
func RecordDBQuery(m *AppMetrics, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		m.ErrorsTotal.WithLabelValues("postgres", "query_error").Inc()
	}
}

// RecordError counts an error for component.
func RecordError(m *AppMetrics, component, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

// SetHealth sets the health gauge of component.
func SetHealth(m *AppMetrics, component string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

//Personal.AI order the ending
