package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	stageTotal      *prometheus.CounterVec
	llmSeconds      *prometheus.HistogramVec
	pipelineSeconds prometheus.Histogram
	jobsTotal       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newslens_stage_total",
			Help: "Pipeline stage executions by outcome.",
		}, []string{"stage", "outcome"}),
		llmSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newslens_llm_request_seconds",
			Help:    "Completion request latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"model", "outcome"}),
		pipelineSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newslens_pipeline_seconds",
			Help:    "End-to-end analysis latency.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newslens_jobs_total",
			Help: "Async analysis jobs by final status.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.stageTotal,
		m.llmSeconds,
		m.pipelineSeconds,
		m.jobsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Stage(stage, outcome string) {
	if m == nil {
		return
	}
	m.stageTotal.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) LLMRequest(model, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmSeconds.WithLabelValues(model, outcome).Observe(d.Seconds())
}

func (m *Metrics) Pipeline(d time.Duration) {
	if m == nil {
		return
	}
	m.pipelineSeconds.Observe(d.Seconds())
}

func (m *Metrics) Job(status string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
