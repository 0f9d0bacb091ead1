package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raaihank/pii-scanner/internal/discovery"
)

const namespace = "piiscan"

// Metrics holds the collectors exported on /metrics
type Metrics struct {
	registry *prometheus.Registry

	scans         *prometheus.CounterVec
	scanDuration  *prometheus.HistogramVec
	tablesScanned *prometheus.CounterVec
	matches       *prometheus.CounterVec
	activeScans   prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Scan requests by dialect and outcome.",
		}, []string{"dialect", "outcome"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of scan requests.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"dialect", "outcome"}),
		tablesScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_scanned_total",
			Help:      "Tables sampled by dialect.",
		}, []string{"dialect"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Pattern matches found by dialect.",
		}, []string{"dialect"}),
		activeScans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_scans",
			Help:      "Scans currently running.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.scans,
		m.scanDuration,
		m.tablesScanned,
		m.matches,
		m.activeScans,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Notify records scan lifecycle events
func (m *Metrics) Notify(ev discovery.Event) {
	dialect := ev.Dialect
	if dialect == "" {
		dialect = "unknown"
	}

	switch ev.Type {
	case discovery.EventScanStarted:
		m.activeScans.Inc()
	case discovery.EventTableScanned:
		m.tablesScanned.WithLabelValues(dialect).Inc()
		m.matches.WithLabelValues(dialect).Add(float64(ev.Matches))
	case discovery.EventScanCompleted:
		m.activeScans.Dec()
		m.observeScan(dialect, "success", ev.Duration)
	case discovery.EventScanFailed:
		// failures before connecting never reported a start
		if ev.Dialect != "" {
			m.activeScans.Dec()
		}
		m.observeScan(dialect, ev.ErrorKind, ev.Duration)
	}
}

func (m *Metrics) observeScan(dialect, outcome string, d time.Duration) {
	m.scans.WithLabelValues(dialect, outcome).Inc()
	m.scanDuration.WithLabelValues(dialect, outcome).Observe(d.Seconds())
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
