// Package metrics exposes Prometheus counters for ingestion, analysis runs,
// and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rwtz"

// Metrics holds every collector, registered on a single registry.
type Metrics struct {
	registry *prometheus.Registry

	eventsIn       prometheus.Counter
	eventsParsed   prometheus.Counter
	eventsDropped  prometheus.Counter
	groupsAnalyzed prometheus.Gauge
	runs           prometheus.Counter

	fetchFailures prometheus.Counter
	storedInserts prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry. Go runtime and process
// collectors are included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		eventsIn: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "events_in_total",
			Help:      "Raw events handed to the analysis engine",
		}),
		eventsParsed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "events_parsed_total",
			Help:      "Events whose timestamp parsed",
		}),
		eventsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "events_dropped_total",
			Help:      "Events dropped for a malformed timestamp",
		}),
		groupsAnalyzed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "groups",
			Help:      "Groups in the most recent analysis run",
		}),
		runs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Completed analysis runs",
		}),
		fetchFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "fetch_failures_total",
			Help:      "Failed fetches from the victims API",
		}),
		storedInserts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "stored_inserts_total",
			Help:      "New events written to the store",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "handler", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"method", "handler"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRun records one analysis run.
func (m *Metrics) RecordRun(eventsIn, eventsParsed, eventsDropped, groups int) {
	m.eventsIn.Add(float64(eventsIn))
	m.eventsParsed.Add(float64(eventsParsed))
	m.eventsDropped.Add(float64(eventsDropped))
	m.groupsAnalyzed.Set(float64(groups))
	m.runs.Inc()
}

// FetchFailed counts a failed upstream fetch.
func (m *Metrics) FetchFailed() {
	m.fetchFailures.Inc()
}

// Stored counts events newly written to the store.
func (m *Metrics) Stored(n int) {
	m.storedInserts.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument wraps next, counting requests and observing latency under name.
func (m *Metrics) Instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.httpDuration.WithLabelValues(r.Method, name).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(r.Method, name, strconv.Itoa(rec.status)).Inc()
	})
}
