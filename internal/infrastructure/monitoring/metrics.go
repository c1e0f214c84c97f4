package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Analysis metrics
	AnalysisTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	NormalizeTotal   *prometheus.CounterVec

	// Provider metrics
	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec

	// Surface metrics
	FieldsTracked    prometheus.Gauge
	MarkersRendered  prometheus.Counter
	SuggestionsShown prometheus.Counter
	CorrectionsTotal prometheus.Counter

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	registry prometheus.Gatherer

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	Analyses       int64   `json:"analyses"`
	CacheHits      int64   `json:"cache_hits"`
	Fallbacks      int64   `json:"fallbacks"`
	Corrections    int64   `json:"corrections"`
	TotalDuration  float64 `json:"total_duration_seconds"` // sum of all request durations
	RequestCount   int64   `json:"request_count"`          // count for averaging
	UptimeSeconds  float64 `json:"uptime_seconds"`
	AverageLatency float64 `json:"average_latency_seconds"`
}

// NewMetrics creates a metrics collector registered on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewMetricsWithRegistry creates a metrics collector on a custom registry.
// Tests use a fresh prometheus.NewRegistry() per collector.
func NewMetricsWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),
		registry:  gatherer,

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textwarden_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "textwarden_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "textwarden_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "textwarden_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Analysis metrics
		AnalysisTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textwarden_analysis_total",
				Help: "Total number of analysis requests by outcome",
			},
			[]string{"outcome"},
		),
		AnalysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "textwarden_analysis_duration_seconds",
				Help:    "Analysis duration in seconds",
				Buckets: []float64{.001, .01, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"cached"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textwarden_cache_lookups_total",
				Help: "Suggestion cache lookups by result",
			},
			[]string{"result"},
		),
		NormalizeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textwarden_normalize_total",
				Help: "Model responses normalized by winning strategy",
			},
			[]string{"strategy"},
		),

		// Provider metrics
		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textwarden_provider_calls_total",
				Help: "Total number of analysis provider calls",
			},
			[]string{"provider", "status"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "textwarden_provider_duration_seconds",
				Help:    "Analysis provider call duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),

		// Surface metrics
		FieldsTracked: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "textwarden_fields_tracked",
				Help: "Number of text surfaces currently tracked",
			},
		),
		MarkersRendered: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "textwarden_markers_rendered_total",
				Help: "Total number of highlight markers rendered",
			},
		),
		SuggestionsShown: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "textwarden_suggestions_shown_total",
				Help: "Total number of suggestions delivered to surfaces",
			},
		),
		CorrectionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "textwarden_corrections_total",
				Help: "Total number of suggestions applied",
			},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "textwarden_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	return m
}

// StartUptime updates the uptime gauge every second until stop is closed
func (m *Metrics) StartUptime(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		case <-stop:
			return
		}
	}
}

// Gatherer returns the registry backing these metrics
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordAnalysis records one orchestrator call
func (m *Metrics) RecordAnalysis(outcome string, cached bool, duration time.Duration) {
	if m == nil {
		return
	}
	cachedLabel := "false"
	if cached {
		cachedLabel = "true"
	}
	m.AnalysisTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.WithLabelValues(cachedLabel).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Analyses++
	m.mu.Unlock()
}

// RecordCacheLookup records a suggestion cache lookup
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		m.mu.Lock()
		m.snapshot.CacheHits++
		m.mu.Unlock()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// RecordNormalize records the strategy that parsed a model response
func (m *Metrics) RecordNormalize(strategy string) {
	if m == nil {
		return
	}
	m.NormalizeTotal.WithLabelValues(strategy).Inc()
	if strategy == "fallback" {
		m.mu.Lock()
		m.snapshot.Fallbacks++
		m.mu.Unlock()
	}
}

// RecordProviderCall records an outbound provider call
func (m *Metrics) RecordProviderCall(provider, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(provider, status).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// SetFieldsTracked sets the number of tracked surfaces
func (m *Metrics) SetFieldsTracked(count int) {
	if m == nil {
		return
	}
	m.FieldsTracked.Set(float64(count))
}

// AddMarkers records rendered markers
func (m *Metrics) AddMarkers(count int) {
	if m == nil {
		return
	}
	m.MarkersRendered.Add(float64(count))
}

// AddSuggestionsShown records suggestions delivered to a surface
func (m *Metrics) AddSuggestionsShown(count int) {
	if m == nil {
		return
	}
	m.SuggestionsShown.Add(float64(count))
}

// AddCorrections records applied suggestions
func (m *Metrics) AddCorrections(count int) {
	if m == nil {
		return
	}
	m.CorrectionsTotal.Add(float64(count))
	m.mu.Lock()
	m.snapshot.Corrections += int64(count)
	m.mu.Unlock()
}

// Snapshot returns current values for the JSON metrics endpoint
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	if s.RequestCount > 0 {
		s.AverageLatency = s.TotalDuration / float64(s.RequestCount)
	}
	return s
}
