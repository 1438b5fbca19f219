package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	QueueTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pmfit_queue_tasks_total",
			Help: "Total number of queued tasks by final outcome.",
		},
		[]string{"outcome"}, // succeeded, failed
	)

	QueueRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pmfit_queue_retries_total",
			Help: "Total number of task retries by failure reason.",
		},
		[]string{"reason"}, // e.g. http_5xx, http_429, timeout, network, panic, other
	)

	QueueDedupHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pmfit_queue_dedup_hits_total",
			Help: "Total number of enqueues short-circuited by deduplication.",
		},
	)

	QueueActiveWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pmfit_queue_active_workers",
			Help: "Number of operations currently executing.",
		},
	)

	QueuePendingTasks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pmfit_queue_pending_tasks",
			Help: "Number of tasks waiting for a worker slot.",
		},
	)

	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pmfit_upstream_requests_total",
			Help: "Total number of upstream HTTP requests by source and status class.",
		},
		[]string{"source", "status"},
	)

	UpstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pmfit_upstream_latency_seconds",
			Help:    "Latency of upstream HTTP requests by source.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	AnalysesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pmfit_analyses_total",
			Help: "Total number of market-fit analyses assembled.",
		},
	)

	SourceFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pmfit_source_fallbacks_total",
			Help: "Total number of synthetic fallbacks served by source.",
		},
		[]string{"source"},
	)
)

func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(
		QueueTasksTotal,
		QueueRetriesTotal,
		QueueDedupHitsTotal,
		QueueActiveWorkers,
		QueuePendingTasks,
		UpstreamRequestsTotal,
		UpstreamLatencySeconds,
		AnalysesTotal,
		SourceFallbacksTotal,
	)
}

// RecordTask records the final outcome of a queued task.
func RecordTask(outcome string) {
	QueueTasksTotal.WithLabelValues(outcome).Inc()
}

// RecordRetry records a scheduled retry with its failure reason.
func RecordRetry(reason string) {
	QueueRetriesTotal.WithLabelValues(reason).Inc()
}

// RecordDedupHit records an enqueue answered from an in-flight or cached task.
func RecordDedupHit() {
	QueueDedupHitsTotal.Inc()
}

// SetQueueDepth updates the active-worker and pending-task gauges.
func SetQueueDepth(active, pending int) {
	QueueActiveWorkers.Set(float64(active))
	QueuePendingTasks.Set(float64(pending))
}

// RecordUpstream records one upstream HTTP round trip.
func RecordUpstream(source, status string, latency time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(source, status).Inc()
	UpstreamLatencySeconds.WithLabelValues(source).Observe(latency.Seconds())
}

// RecordAnalysis records one assembled report.
func RecordAnalysis() {
	AnalysesTotal.Inc()
}

// RecordFallback records a synthetic section served for a source.
func RecordFallback(source string) {
	SourceFallbacksTotal.WithLabelValues(source).Inc()
}
