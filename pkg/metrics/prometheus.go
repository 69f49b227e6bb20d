package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Breaker states as exported by the circuit breaker gauge.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// Manager manages all Prometheus metrics of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Pipeline
	pipelineRuns      *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
	playersEngineered prometheus.Gauge
	metricCount       prometheus.Gauge
	lastSuccessUnix   prometheus.Gauge

	// Clustering
	clusterSize      *prometheus.GaugeVec
	kmeansIterations prometheus.Gauge
	kmeansInertia    prometheus.Gauge

	// Provider
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	breakerState     prometheus.Gauge
	fetchInFlight    prometheus.Gauge

	// Cache
	cacheRequests *prometheus.CounterVec

	// Sink
	sinkWrites *prometheus.CounterVec

	// Snapshot
	snapshotPlayers prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "defscout",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) opts(name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histOpts(name, help string) prometheus.HistogramOpts {
	o := m.opts(name, help)
	return prometheus.HistogramOpts{
		Namespace:   o.Namespace,
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		ConstLabels: o.ConstLabels,
		Buckets:     m.histogramBuckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.pipelineRuns = auto.NewCounterVec(prometheus.CounterOpts(m.opts(
		"runs_total", "Pipeline runs by final status")), []string{"status"})
	m.stageDuration = auto.NewHistogramVec(m.histOpts(
		"stage_duration_seconds", "Duration of each pipeline stage"), []string{"stage"})
	m.playersEngineered = auto.NewGauge(prometheus.GaugeOpts(m.opts(
		"players_engineered", "Players with a feature record in the last run")))
	m.metricCount = auto.NewGauge(prometheus.GaugeOpts(m.opts(
		"metric_count", "Defensive metrics discovered in the last run")))
	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts(m.opts(
		"last_success_unix", "Unix time of the last successful run")))

	m.clusterSize = auto.NewGaugeVec(prometheus.GaugeOpts(m.opts(
		"cluster_size", "Players per cluster label in the last run")), []string{"label"})
	m.kmeansIterations = auto.NewGauge(prometheus.GaugeOpts(m.opts(
		"kmeans_iterations", "Lloyd iterations of the winning k-means run")))
	m.kmeansInertia = auto.NewGauge(prometheus.GaugeOpts(m.opts(
		"kmeans_inertia", "Within-cluster sum of squares of the winning k-means run")))

	m.providerRequests = auto.NewCounterVec(prometheus.CounterOpts(m.opts(
		"provider_requests_total", "Stats provider requests by endpoint and status")), []string{"endpoint", "status"})
	m.providerLatency = auto.NewHistogramVec(m.histOpts(
		"provider_request_duration_seconds", "Stats provider request latency"), []string{"endpoint"})
	m.breakerState = auto.NewGauge(prometheus.GaugeOpts(m.opts(
		"provider_breaker_state", "Circuit breaker state: 0 closed, 1 half-open, 2 open")))
	m.fetchInFlight = auto.NewGauge(prometheus.GaugeOpts(m.opts(
		"fetch_seasons_in_flight", "Seasons currently being fetched")))

	m.cacheRequests = auto.NewCounterVec(prometheus.CounterOpts(m.opts(
		"cache_requests_total", "Provider cache lookups by backend and result")), []string{"backend", "result"})

	m.sinkWrites = auto.NewCounterVec(prometheus.CounterOpts(m.opts(
		"sink_writes_total", "Result table writes by sink kind and status")), []string{"kind", "status"})

	m.snapshotPlayers = auto.NewGauge(prometheus.GaugeOpts(m.opts(
		"snapshot_players", "Players in the served snapshot")))

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts(m.opts(
		"http_requests_total", "HTTP requests by endpoint and method")), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts(m.opts(
		"errors_total", "Errors by component and kind")), []string{"component", "kind"})
}

// RecordPipelineRun increments the run counter for status ("success" or "failure").
func RecordPipelineRun(status string) {
	globalManager.pipelineRuns.WithLabelValues(status).Inc()
}

// RecordStageDuration observes the duration of one stage in seconds.
func RecordStageDuration(stage string, seconds float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// UpdatePlayersEngineered sets the engineered player count.
func UpdatePlayersEngineered(n int) {
	globalManager.playersEngineered.Set(float64(n))
}

// UpdateMetricCount sets the discovered metric count.
func UpdateMetricCount(n int) {
	globalManager.metricCount.Set(float64(n))
}

// UpdateLastSuccess sets the time of the last successful run.
func UpdateLastSuccess(unix int64) {
	globalManager.lastSuccessUnix.Set(float64(unix))
}

// UpdateClusterSizes replaces the per-label cluster size gauges.
func UpdateClusterSizes(sizes []int) {
	globalManager.clusterSize.Reset()
	for label, n := range sizes {
		globalManager.clusterSize.WithLabelValues(strconv.Itoa(label)).Set(float64(n))
	}
}

// UpdateKMeans records the iterations and inertia of the winning k-means run.
func UpdateKMeans(iterations int, inertia float64) {
	globalManager.kmeansIterations.Set(float64(iterations))
	globalManager.kmeansInertia.Set(inertia)
}

// RecordProviderRequest counts one provider request and its latency.
func RecordProviderRequest(endpoint, status string, seconds float64) {
	globalManager.providerRequests.WithLabelValues(endpoint, status).Inc()
	globalManager.providerLatency.WithLabelValues(endpoint).Observe(seconds)
}

// UpdateBreakerState sets the circuit breaker gauge.
func UpdateBreakerState(state int) error {
	switch state {
	case BreakerClosed, BreakerHalfOpen, BreakerOpen:
		globalManager.breakerState.Set(float64(state))
		return nil
	default:
		return ErrUnknownBreakerState
	}
}

// AddFetchInFlight adjusts the in-flight season gauge by delta.
func AddFetchInFlight(delta int) {
	globalManager.fetchInFlight.Add(float64(delta))
}

// RecordCacheHit counts a cache hit on backend.
func RecordCacheHit(backend string) {
	globalManager.cacheRequests.WithLabelValues(backend, "hit").Inc()
}

// RecordCacheMiss counts a cache miss on backend.
func RecordCacheMiss(backend string) {
	globalManager.cacheRequests.WithLabelValues(backend, "miss").Inc()
}

// RecordSinkWrite counts one result table write.
func RecordSinkWrite(kind, status string) {
	globalManager.sinkWrites.WithLabelValues(kind, status).Inc()
}

// UpdateSnapshotPlayers sets the served snapshot size.
func UpdateSnapshotPlayers(n int) {
	globalManager.snapshotPlayers.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordError counts an error of kind in component.
func RecordError(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// RegisterRuntimeCollectors adds Go runtime and process metrics to the
// custom registry. Registering twice is a no-op.
func RegisterRuntimeCollectors() error {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: "defscout"}),
	} {
		if err := customRegistry.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
