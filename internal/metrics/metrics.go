// Package metrics provides Prometheus collectors for the HTTP API and
// alignment runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slidealign"

// Run outcomes.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds every collector of the process.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	AlignmentRunsTotal    *prometheus.CounterVec
	AlignmentDuration     prometheus.Histogram
	AlignmentMatched      prometheus.Histogram
	AlignmentMatchedRatio prometheus.Histogram
}

// New registers the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),
		AlignmentRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "alignment",
				Name:      "runs_total",
				Help:      "Total number of alignment runs",
			},
			[]string{"status"},
		),
		AlignmentDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "alignment",
				Name:      "duration_seconds",
				Help:      "Alignment run duration in seconds, embedding included",
				Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 120, 300},
			},
		),
		AlignmentMatched: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "alignment",
				Name:      "matched_sentences",
				Help:      "Transcript sentences attributed to a slide per run",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		AlignmentMatchedRatio: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "alignment",
				Name:      "matched_ratio",
				Help:      "Share of transcript sentences attributed to a slide per run",
				Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
	}
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, path, status string, elapsed time.Duration, reqSize, respSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
	if reqSize > 0 {
		m.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	}
	if respSize > 0 {
		m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
	}
}

// ObserveRun records one alignment run. matched and total are ignored for
// failed runs.
func (m *Metrics) ObserveRun(status string, elapsed time.Duration, matched, total int) {
	m.AlignmentRunsTotal.WithLabelValues(status).Inc()
	m.AlignmentDuration.Observe(elapsed.Seconds())
	if status != StatusOK {
		return
	}
	m.AlignmentMatched.Observe(float64(matched))
	if total > 0 {
		m.AlignmentMatchedRatio.Observe(float64(matched) / float64(total))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
