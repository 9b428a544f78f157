// Package worker runs the broker-facing consumer loops: one command worker
// per bounded context and one saga worker for the checkout workflow.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/config"
	"github.com/lllypuk/orderflow/internal/infrastructure/broker"
	"github.com/lllypuk/orderflow/internal/infrastructure/metrics"
)

// retryBackoff is the pause before reprocessing a failed message. Redelivery
// is unbounded; there is no dead-letter queue.
const retryBackoff = time.Second

// MessageSource is the consumed slice of kafka.Reader, extracted so the
// processing loop can be tested without a broker.
type MessageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewCommandReader creates the consumer-group reader for one context's
// durable command queue.
func NewCommandReader(cfg config.KafkaConfig, contextName string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  contextName + "-commands",
		Topic:    broker.QueueName(contextName),
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		MaxWait:  cfg.MaxWait,
	})
}

// CommandWorker consumes one bounded context's command queue and dispatches
// each command to its registered handler. Processing is serial: one message
// in flight per instance, so per-partition order is preserved. Throughput
// scales by running more instances.
type CommandWorker struct {
	contextName string
	source      MessageSource
	registry    *broker.CommandRegistry
	router      *appcore.Router
	metrics     *metrics.WorkerMetrics
	logger      *slog.Logger
}

// NewCommandWorker creates a CommandWorker.
func NewCommandWorker(
	contextName string,
	source MessageSource,
	registry *broker.CommandRegistry,
	router *appcore.Router,
	workerMetrics *metrics.WorkerMetrics,
	logger *slog.Logger,
) *CommandWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandWorker{
		contextName: contextName,
		source:      source,
		registry:    registry,
		router:      router,
		metrics:     workerMetrics,
		logger:      logger,
	}
}

// Run consumes until the context is cancelled.
func (w *CommandWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "starting command worker",
		slog.String("context", w.contextName),
		slog.String("queue", broker.QueueName(w.contextName)),
	)
	defer w.source.Close()

	for {
		msg, err := w.source.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				w.logger.InfoContext(ctx, "command worker stopped",
					slog.String("context", w.contextName))
				return nil
			}
			w.logger.ErrorContext(ctx, "failed to fetch message",
				slog.String("context", w.contextName),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := w.processUntilDone(ctx, msg); err != nil {
			return err
		}

		if err := w.source.CommitMessages(ctx, msg); err != nil {
			w.logger.ErrorContext(ctx, "failed to commit message",
				slog.String("context", w.contextName),
				slog.String("error", err.Error()),
			)
		}
	}
}

// processUntilDone retries a failed message in place until it succeeds or the
// context is cancelled. The offset is never committed past an unprocessed
// command.
func (w *CommandWorker) processUntilDone(ctx context.Context, msg kafka.Message) error {
	for {
		name, err := w.ProcessMessage(ctx, msg.Value)
		if err != nil {
			if w.metrics != nil {
				w.metrics.CommandsRequeued.With(prometheus.Labels{"command_name": name}).Inc()
			}
			w.logger.ErrorContext(ctx, "failed to process command, retrying",
				slog.String("context", w.contextName),
				slog.String("error", err.Error()),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryBackoff):
			}
			continue
		}
		return nil
	}
}

// ProcessMessage decodes and dispatches one command message, returning the
// command name for labeling. A message that cannot be decoded is a wiring
// bug: it is logged and dropped, because no amount of redelivery fixes its
// bytes.
func (w *CommandWorker) ProcessMessage(ctx context.Context, value []byte) (string, error) {
	var envelope broker.CommandEnvelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		w.logger.ErrorContext(ctx, "dropping malformed command message",
			slog.String("context", w.contextName),
			slog.String("error", err.Error()),
		)
		return "", nil
	}

	cmd, err := w.registry.Decode(&envelope)
	if err != nil {
		w.logger.ErrorContext(ctx, "dropping undecodable command",
			slog.String("context", w.contextName),
			slog.String("command_name", envelope.CommandName),
			slog.String("error", err.Error()),
		)
		return envelope.CommandName, nil
	}

	start := time.Now()
	_, err = w.router.Dispatch(ctx, cmd)
	status := "success"
	if err != nil {
		status = "failed"
	}
	if w.metrics != nil {
		w.metrics.CommandsProcessed.With(prometheus.Labels{
			"command_name": envelope.CommandName,
			"status":       status,
		}).Inc()
		w.metrics.CommandDuration.With(prometheus.Labels{
			"command_name": envelope.CommandName,
		}).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if errors.Is(err, appcore.ErrHandlerNotFound) {
			// Routed to the wrong queue or missing registration; redelivery
			// cannot help.
			w.logger.ErrorContext(ctx, "dropping command with no handler",
				slog.String("context", w.contextName),
				slog.String("command_name", envelope.CommandName),
			)
			return envelope.CommandName, nil
		}
		return envelope.CommandName, err
	}

	w.logger.DebugContext(ctx, "command processed",
		slog.String("context", w.contextName),
		slog.String("command_name", envelope.CommandName),
		slog.String("correlation_id", envelope.CorrelationID),
	)
	return envelope.CommandName, nil
}
