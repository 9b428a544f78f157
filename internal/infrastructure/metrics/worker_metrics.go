// Package metrics exposes Prometheus metrics for workers and the saga.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics contains Prometheus metrics for command and saga workers.
type WorkerMetrics struct {
	CommandsProcessed *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec
	CommandsRequeued  *prometheus.CounterVec
	EventsConsumed    *prometheus.CounterVec
	SagasCompleted    prometheus.Counter
	SagasFailed       *prometheus.CounterVec
	SagaStepDuration  *prometheus.HistogramVec
	DuplicatesSkipped *prometheus.CounterVec
}

// NewWorkerMetrics creates and registers worker metrics with the given registerer.
func NewWorkerMetrics(registerer prometheus.Registerer) *WorkerMetrics {
	metrics := &WorkerMetrics{
		CommandsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderflow_commands_processed_total",
				Help: "Total number of processed commands",
			},
			[]string{"command_name", "status"}, // status: success/failed
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orderflow_command_duration_seconds",
				Help:    "Time spent handling one command",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command_name"},
		),
		CommandsRequeued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderflow_commands_requeued_total",
				Help: "Total number of commands returned to the queue after a handler error",
			},
			[]string{"command_name"},
		),
		EventsConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderflow_saga_events_consumed_total",
				Help: "Total number of context events consumed by the saga worker",
			},
			[]string{"event_type"},
		),
		SagasCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderflow_sagas_completed_total",
			Help: "Total number of checkouts that reached the completed state",
		}),
		SagasFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderflow_sagas_failed_total",
				Help: "Total number of checkouts that reached the failed state",
			},
			[]string{"stage"},
		),
		SagaStepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orderflow_saga_step_duration_seconds",
				Help:    "Time spent advancing the saga by one inbound event",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"event_type"},
		),
		DuplicatesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderflow_duplicates_skipped_total",
				Help: "Total number of redelivered messages skipped by idempotency checks",
			},
			[]string{"handler"},
		),
	}

	registerer.MustRegister(
		metrics.CommandsProcessed,
		metrics.CommandDuration,
		metrics.CommandsRequeued,
		metrics.EventsConsumed,
		metrics.SagasCompleted,
		metrics.SagasFailed,
		metrics.SagaStepDuration,
		metrics.DuplicatesSkipped,
	)

	return metrics
}
