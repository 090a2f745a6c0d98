package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TasksQueued is the current size of each identifier's queued
	// collection.
	TasksQueued = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_tasks_queued",
			Help: "Current number of queued tasks by task type",
		},
		[]string{"namespace", "name"},
	)

	// TasksProcessing is the current size of each identifier's
	// processing collection.
	TasksProcessing = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_tasks_processing",
			Help: "Current number of processing tasks by task type",
		},
		[]string{"namespace", "name"},
	)

	// TasksSolved is the current size of each identifier's solved
	// collection.
	TasksSolved = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_tasks_solved",
			Help: "Current number of solved tasks by task type",
		},
		[]string{"namespace", "name"},
	)

	TasksCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_tasks_created_total",
			Help: "Total number of tasks created by task type",
		},
		[]string{"namespace", "name"},
	)

	TasksAcquiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_tasks_acquired_total",
			Help: "Total number of tasks acquired by task type",
		},
		[]string{"namespace", "name"},
	)

	TasksPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_tasks_published_total",
			Help: "Total number of tasks published by task type",
		},
		[]string{"namespace", "name"},
	)

	TasksReclaimedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_tasks_reclaimed_total",
			Help: "Total number of tasks moved from processing back to queued",
		},
		[]string{"namespace", "name"},
	)

	// DispatchRequestDuration times each RPC method end to end, including
	// the auth preamble and persistence.
	DispatchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_request_duration_seconds",
			Help:    "Dispatch RPC handler duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ReclaimCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_reclaim_cycle_duration_seconds",
			Help:    "Time taken by one reclaim cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ModulesLoadedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_modules_loaded_total",
			Help: "Total number of modules successfully loaded",
		},
	)

	ModulesRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_modules_rejected_total",
			Help: "Total number of modules rejected (ABI mismatch or load failure)",
		},
	)
)

func init() {
	prometheus.MustRegister(TasksQueued)
	prometheus.MustRegister(TasksProcessing)
	prometheus.MustRegister(TasksSolved)
	prometheus.MustRegister(TasksCreatedTotal)
	prometheus.MustRegister(TasksAcquiredTotal)
	prometheus.MustRegister(TasksPublishedTotal)
	prometheus.MustRegister(TasksReclaimedTotal)
	prometheus.MustRegister(DispatchRequestDuration)
	prometheus.MustRegister(ReclaimCycleDuration)
	prometheus.MustRegister(ModulesLoadedTotal)
	prometheus.MustRegister(ModulesRejectedTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
