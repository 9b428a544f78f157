package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/command"
)

var _ appcore.CommandEnqueuer = (*KafkaEnqueuer)(nil)

// KafkaEnqueuer puts commands on the durable queue of their destination
// context. The queue outlives consumers; delivery is at-least-once and the
// handlers deduplicate by command ID.
type KafkaEnqueuer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// EnqueuerOption configures KafkaEnqueuer.
type EnqueuerOption func(*KafkaEnqueuer)

// WithEnqueuerLogger sets the logger for the enqueuer.
func WithEnqueuerLogger(logger *slog.Logger) EnqueuerOption {
	return func(e *KafkaEnqueuer) {
		e.logger = logger
	}
}

// NewKafkaEnqueuer creates an enqueuer over the given brokers.
func NewKafkaEnqueuer(brokers []string, opts ...EnqueuerOption) *KafkaEnqueuer {
	e := &KafkaEnqueuer{
		writer: newWriter(brokers),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Enqueue writes the command to "{destination}.commands". The message key is
// the correlation ID so one checkout's commands stay in partition order.
func (e *KafkaEnqueuer) Enqueue(ctx context.Context, cmd command.Command) error {
	envelope, err := NewCommandEnvelope(cmd)
	if err != nil {
		return err
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal command envelope: %w", err)
	}

	message := kafka.Message{
		Topic: QueueName(cmd.Destination()),
		Key:   []byte(cmd.CorrelationID()),
		Value: value,
	}

	if err = e.writer.WriteMessages(ctx, message); err != nil {
		e.logger.ErrorContext(ctx, "failed to enqueue command",
			slog.String("command_name", cmd.CommandName()),
			slog.String("command_id", cmd.CommandID()),
			slog.String("destination", cmd.Destination()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to enqueue command %s: %w", cmd.CommandName(), err)
	}

	e.logger.DebugContext(ctx, "command enqueued",
		slog.String("command_name", cmd.CommandName()),
		slog.String("command_id", cmd.CommandID()),
		slog.String("destination", cmd.Destination()),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (e *KafkaEnqueuer) Close() error {
	return e.writer.Close()
}
