// Package metrics defines the Prometheus collectors for the tutor and exposes
// an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	AnswersTotal        *prometheus.CounterVec
	GenerationDuration  prometheus.Histogram
	ContextDocuments    prometheus.Histogram
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		AnswersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutor_answers_total",
				Help: "Answers produced by mode and status (ok, error).",
			},
			[]string{"mode", "status"},
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tutor_generation_duration_seconds",
				Help:    "Latency of text-generation calls in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		ContextDocuments: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tutor_context_documents",
				Help:    "Number of documents selected as context per question.",
				Buckets: []float64{0, 1, 2, 3},
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AnswersTotal,
		m.GenerationDuration,
		m.ContextDocuments,
	)

	return m
}

// Handler returns the Prometheus scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAnswer(mode string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.AnswersTotal.WithLabelValues(mode, status).Inc()
}

func (m *Metrics) ObserveGeneration(d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveContext(selected int) {
	if m == nil {
		return
	}
	m.ContextDocuments.Observe(float64(selected))
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := normalizePath(r.URL.Path)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// OtherPath labels requests outside the served routes.
const OtherPath = "other"

var routes = map[string]bool{
	"/":             true,
	"/healthz":      true,
	"/v1/ask":       true,
	"/v1/documents": true,
	"/metrics":      true,
}

// normalizePath keeps the path label set bounded to the served routes.
func normalizePath(path string) string {
	if routes[path] {
		return path
	}
	return OtherPath
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}
