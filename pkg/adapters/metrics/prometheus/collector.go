package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	submissionsStarted   *prometheus.CounterVec
	submissionsCompleted *prometheus.CounterVec
	submissionDuration   *prometheus.HistogramVec
	stepDuration         *prometheus.HistogramVec
	activeAttempts       prometheus.Gauge
	workerPoolIdle       prometheus.Gauge
	workerPoolBusy       prometheus.Gauge
	workerPoolStopped    prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector registered on reg.
// Pass prometheus.DefaultRegisterer to expose metrics through promhttp.Handler.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		submissionsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lazymint_submissions_started_total",
				Help: "Total number of submission attempts started",
			},
			[]string{"status"},
		),
		submissionsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lazymint_submissions_completed_total",
				Help: "Total number of submission attempts that reached a terminal status",
			},
			[]string{"status"},
		),
		submissionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lazymint_submission_duration_seconds",
				Help:    "Submission attempt duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lazymint_step_duration_seconds",
				Help:    "Submission step duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"step", "outcome"},
		),
		activeAttempts: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lazymint_active_attempts",
				Help: "Number of submission attempts in flight",
			},
		),
		workerPoolIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lazymint_worker_pool_idle",
				Help: "Number of idle workers",
			},
		),
		workerPoolBusy: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lazymint_worker_pool_busy",
				Help: "Number of busy workers",
			},
		),
		workerPoolStopped: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lazymint_worker_pool_stopped",
				Help: "Number of stopped workers",
			},
		),
	}
}

// RecordSubmissionStarted records a submission attempt entering the given status
func (c *Collector) RecordSubmissionStarted(status string) {
	c.submissionsStarted.WithLabelValues(status).Inc()
}

// RecordSubmissionCompleted records a terminal outcome and its duration
func (c *Collector) RecordSubmissionCompleted(status string, duration time.Duration) {
	c.submissionsCompleted.WithLabelValues(status).Inc()
	c.submissionDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordStep records the duration of one orchestration step
func (c *Collector) RecordStep(step, outcome string, duration time.Duration) {
	c.stepDuration.WithLabelValues(step, outcome).Observe(duration.Seconds())
}

// SetActiveAttempts sets the number of attempts in flight
func (c *Collector) SetActiveAttempts(count int) {
	c.activeAttempts.Set(float64(count))
}

// RecordWorkerPoolStatus records worker pool status
func (c *Collector) RecordWorkerPoolStatus(idle, busy, stopped int) {
	c.workerPoolIdle.Set(float64(idle))
	c.workerPoolBusy.Set(float64(busy))
	c.workerPoolStopped.Set(float64(stopped))
}
