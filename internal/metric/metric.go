// Package metric exposes Prometheus metrics for the scene engine and its
// HTTP surface.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "schematic"

// Metrics holds every collector the server records to
type Metrics struct {
	LoadsTotal         *prometheus.CounterVec
	LoadDuration       prometheus.Histogram
	SceneNodes         prometheus.Gauge
	SceneConnections   prometheus.Gauge
	RecordsSkipped     prometheus.Counter
	DuplicatesRejected prometheus.Counter
	Refreshed          prometheus.Counter
	FramesPublished    prometheus.Counter
	SSEClients         prometheus.Gauge
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewMetrics creates the collectors without registering them
func NewMetrics() *Metrics {
	return &Metrics{
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scene",
				Name:      "loads_total",
				Help:      "Scene loads by outcome (started, finished, failed, superseded)",
			},
			[]string{"outcome"},
		),
		LoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scene",
				Name:      "load_duration_seconds",
				Help:      "Duration of completed scene loads",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SceneNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "scene",
				Name:      "nodes",
				Help:      "Nodes built by the last completed load",
			},
		),
		SceneConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "scene",
				Name:      "connections",
				Help:      "Connections built by the last completed load",
			},
		),
		RecordsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scene",
				Name:      "records_skipped_total",
				Help:      "Node and connection records skipped during loads",
			},
		),
		DuplicatesRejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scene",
				Name:      "duplicate_connections_total",
				Help:      "Connection creations rejected because the identity already existed",
			},
		),
		Refreshed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scene",
				Name:      "connections_refreshed_total",
				Help:      "Connection repositionings",
			},
		),
		FramesPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "surface",
				Name:      "frames_published_total",
				Help:      "Render frames published to clients",
			},
		),
		SSEClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "hub",
				Name:      "clients",
				Help:      "Connected SSE clients",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method and status",
			},
			[]string{"method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.LoadsTotal, m.LoadDuration, m.SceneNodes, m.SceneConnections,
		m.RecordsSkipped, m.DuplicatesRejected, m.Refreshed,
		m.FramesPublished, m.SSEClients, m.HTTPRequests, m.HTTPDuration,
	}
}

// LoadStarted counts a load that began
func (m *Metrics) LoadStarted() {
	m.LoadsTotal.WithLabelValues("started").Inc()
}

// LoadFinished records a completed load
func (m *Metrics) LoadFinished(nodes, connections, skipped int, elapsed time.Duration) {
	m.LoadsTotal.WithLabelValues("finished").Inc()
	m.LoadDuration.Observe(elapsed.Seconds())
	m.SceneNodes.Set(float64(nodes))
	m.SceneConnections.Set(float64(connections))
	m.RecordsSkipped.Add(float64(skipped))
}

// LoadFailed counts a load aborted by a lookup failure
func (m *Metrics) LoadFailed() {
	m.LoadsTotal.WithLabelValues("failed").Inc()
}

// LoadSuperseded counts a load discarded for a newer one
func (m *Metrics) LoadSuperseded() {
	m.LoadsTotal.WithLabelValues("superseded").Inc()
}

// DuplicateRejected counts a rejected connection creation
func (m *Metrics) DuplicateRejected() {
	m.DuplicatesRejected.Inc()
}

// ConnectionsRefreshed adds n repositioned connections
func (m *Metrics) ConnectionsRefreshed(n int) {
	if n > 0 {
		m.Refreshed.Add(float64(n))
	}
}

// FramePublished counts one published render frame
func (m *Metrics) FramePublished() {
	m.FramesPublished.Inc()
}

// ClientsChanged sets the number of connected SSE clients
func (m *Metrics) ClientsChanged(n int) {
	m.SSEClients.Set(float64(n))
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, http.StatusText(status)).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Registry owns a Prometheus registry holding the server metrics and the Go
// runtime collectors
type Registry struct {
	registry *prometheus.Registry
	Metrics  *Metrics
}

// NewRegistry creates a registry with all metrics registered
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		Metrics:  NewMetrics(),
	}
	r.registry.MustRegister(r.Metrics.collectors()...)
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Prometheus returns the underlying registry
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
