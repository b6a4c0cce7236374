// Package metrics exposes Prometheus collectors for conversions,
// parts validation and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	PipelineRuns  *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	// Validation metrics
	PartsValidated *prometheus.CounterVec
	LookupErrors   prometheus.Counter

	// Session metrics
	SessionsActive prometheus.Gauge
	Versions       *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates a metrics collector on its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brickify_pipeline_runs_total",
				Help: "Total number of generation pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brickify_pipeline_stage_duration_seconds",
				Help:    "Generation stage duration in seconds",
				Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"stage"},
		),
		PartsValidated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brickify_parts_validated_total",
				Help: "Total number of validated parts by availability",
			},
			[]string{"availability", "substituted"},
		),
		LookupErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "brickify_pricing_lookup_errors_total",
				Help: "Total number of failed pricing authority lookups",
			},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "brickify_sessions_active",
				Help: "Number of live conversion sessions",
			},
		),
		Versions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brickify_build_versions_total",
				Help: "Total number of build versions appended by size",
			},
			[]string{"size"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brickify_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brickify_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordPipeline records a finished pipeline run
func (m *Metrics) RecordPipeline(outcome string) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(outcome).Inc()
}

// RecordStage records how long a generation stage took
func (m *Metrics) RecordStage(stage string, duration time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordPart records one validated part
func (m *Metrics) RecordPart(availability string, substituted bool) {
	if m == nil {
		return
	}
	sub := "false"
	if substituted {
		sub = "true"
	}
	m.PartsValidated.WithLabelValues(availability, sub).Inc()
}

// RecordLookupError records a failed authority call
func (m *Metrics) RecordLookupError() {
	if m == nil {
		return
	}
	m.LookupErrors.Inc()
}

// SetSessionsActive sets the number of live sessions
func (m *Metrics) SetSessionsActive(count int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(count))
}

// RecordVersion records a build version appended to a session
func (m *Metrics) RecordVersion(size string) {
	if m == nil {
		return
	}
	m.Versions.WithLabelValues(size).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
