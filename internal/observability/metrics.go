package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "langqc"

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing, so services and tests can run without a registry.
type Metrics struct {
	registry     *prometheus.Registry
	claims       *prometheus.CounterVec
	assignments  *prometheus.CounterVec
	anomalies    prometheus.Counter
	wellsLatency *prometheus.HistogramVec
	httpRequests *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. A nil reg gets a fresh
// registry with the Go and process collectors.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := &Metrics{
		registry: reg,
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "qc_state",
			Name:      "claims_total",
			Help:      "QC state claims by result.",
		}, []string{"result"}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "qc_state",
			Name:      "assignments_total",
			Help:      "QC state assignments by result.",
		}, []string{"result"}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wells",
			Name:      "anomalies_total",
			Help:      "QC states whose product has no tracking store row.",
		}),
		wellsLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "wells",
			Name:      "query_seconds",
			Help:      "Latency of flow status and run listings.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Ops server request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.claims, m.assignments, m.anomalies, m.wellsLatency, m.httpRequests)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) IncClaim(result string) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(result).Inc()
}

func (m *Metrics) IncAssignment(result string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(result).Inc()
}

func (m *Metrics) IncAnomaly() {
	if m == nil {
		return
	}
	m.anomalies.Inc()
}

func (m *Metrics) ObserveWellsQuery(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.wellsLatency.WithLabelValues(status).Observe(dur.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

// ResultLabel reduces an error to a low cardinality label value.
func ResultLabel(err error, kind string) string {
	if err == nil {
		return "ok"
	}
	if kind == "" {
		return "error"
	}
	return kind
}
