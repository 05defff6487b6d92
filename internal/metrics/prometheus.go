package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry       *prom.Registry
	runsStarted    *prom.CounterVec
	runsCompleted  *prom.CounterVec
	runDuration    prom.Histogram
	stageDuration  *prom.HistogramVec
	publishOutcome *prom.CounterVec
}

// NewPrometheusRecorder creates a recorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prom.NewRegistry()

	r := &PrometheusRecorder{
		registry: registry,
		runsStarted: prom.NewCounterVec(prom.CounterOpts{
			Name: "docpipe_runs_started_total",
			Help: "Number of pipeline runs started, by trigger branch.",
		}, []string{"branch"}),
		runsCompleted: prom.NewCounterVec(prom.CounterOpts{
			Name: "docpipe_runs_completed_total",
			Help: "Number of pipeline runs completed, by result.",
		}, []string{"result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Name:    "docpipe_run_duration_seconds",
			Help:    "Wall-clock duration of full pipeline runs.",
			Buckets: prom.ExponentialBuckets(1, 2, 12),
		}),
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "docpipe_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages, by stage and outcome.",
			Buckets: prom.ExponentialBuckets(0.01, 4, 10),
		}, []string{"stage", "outcome"}),
		publishOutcome: prom.NewCounterVec(prom.CounterOpts{
			Name: "docpipe_publish_outcomes_total",
			Help: "Publish stage outcomes (committed, no_changes).",
		}, []string{"outcome"}),
	}

	registry.MustRegister(r.runsStarted, r.runsCompleted, r.runDuration, r.stageDuration, r.publishOutcome)
	return r
}

func (r *PrometheusRecorder) RunStarted(branch string) {
	r.runsStarted.WithLabelValues(branch).Inc()
}

func (r *PrometheusRecorder) RunCompleted(result string, duration time.Duration) {
	r.runsCompleted.WithLabelValues(result).Inc()
	r.runDuration.Observe(duration.Seconds())
}

func (r *PrometheusRecorder) StageCompleted(stage, outcome string, duration time.Duration) {
	r.stageDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) PublishOutcome(outcome string) {
	r.publishOutcome.WithLabelValues(outcome).Inc()
}

// Handler returns an http.Handler serving the recorder's registry.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
