package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Platform metrics.
	PlatformRequests *prometheus.CounterVec   // labels: op={create_map,list_scenes,compute_ndvi,asset_info}, outcome={success,error}
	PlatformDuration *prometheus.HistogramVec // labels: op
	PlatformCache    *prometheus.CounterVec   // labels: kind={map,series}, result={hit,miss}
	LayerFailures    *prometheus.CounterVec   // labels: layer

	// Series assembly metrics.
	SeriesScenes   prometheus.Histogram
	SeriesAssembly prometheus.Histogram

	// HTTP metrics.
	HTTPRequests *prometheus.CounterVec   // labels: route, code
	HTTPDuration *prometheus.HistogramVec // labels: route

	// Ready is 1 once the auth probe and asset probe have passed.
	Ready prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PlatformRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paddy_dash",
			Name:      "platform_requests_total",
			Help:      "Imagery platform requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		PlatformDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "paddy_dash",
			Name:      "platform_request_duration_seconds",
			Help:      "Imagery platform request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
		PlatformCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paddy_dash",
			Name:      "platform_cache_total",
			Help:      "Map-session and series cache lookups by result.",
		}, []string{"kind", "result"}),
		LayerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paddy_dash",
			Name:      "layer_failures_total",
			Help:      "Layer map creations that failed and rendered as placeholders.",
		}, []string{"layer"}),
		SeriesScenes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "paddy_dash",
			Name:      "series_scenes",
			Help:      "Number of scenes reduced per series assembly.",
			Buckets:   []float64{1, 5, 10, 20, 30, 45, 60, 90, 120},
		}),
		SeriesAssembly: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "paddy_dash",
			Name:      "series_assembly_duration_seconds",
			Help:      "Duration of a complete list-compute-sort series assembly.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paddy_dash",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "paddy_dash",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"route"}),
		Ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "paddy_dash",
			Name:      "ready",
			Help:      "1 once the platform auth and asset probes have passed.",
		}),
	}

	prometheus.MustRegister(
		m.PlatformRequests,
		m.PlatformDuration,
		m.PlatformCache,
		m.LayerFailures,
		m.SeriesScenes,
		m.SeriesAssembly,
		m.HTTPRequests,
		m.HTTPDuration,
		m.Ready,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PlatformRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "paddy_dash", Name: "platform_requests_total"}, []string{"op", "outcome"}),
		PlatformDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "paddy_dash", Name: "platform_request_duration_seconds"}, []string{"op"}),
		PlatformCache:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "paddy_dash", Name: "platform_cache_total"}, []string{"kind", "result"}),
		LayerFailures:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "paddy_dash", Name: "layer_failures_total"}, []string{"layer"}),
		SeriesScenes:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "paddy_dash", Name: "series_scenes"}),
		SeriesAssembly:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "paddy_dash", Name: "series_assembly_duration_seconds"}),
		HTTPRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "paddy_dash", Name: "http_requests_total"}, []string{"route", "code"}),
		HTTPDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "paddy_dash", Name: "http_request_duration_seconds"}, []string{"route"}),
		Ready:            prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "paddy_dash", Name: "ready"}),
	}
}
