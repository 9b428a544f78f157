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
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
	"github.com/lllypuk/orderflow/internal/infrastructure/broker"
	"github.com/lllypuk/orderflow/internal/infrastructure/metrics"
)

// SagaGroupID is the saga worker's consumer group.
const SagaGroupID = "checkout-saga"

// NewSagaReader creates the consumer-group reader spanning the broadcast
// topics of every context the saga listens to.
func NewSagaReader(cfg config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: SagaGroupID,
		GroupTopics: []string{
			broker.TopicName(cart.Context),
			broker.TopicName(catalog.Context),
			broker.TopicName(inventory.Context),
			broker.TopicName(order.Context),
		},
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		MaxWait:  cfg.MaxWait,
	})
}

// SagaWorker subscribes to the contexts' broadcast topics, filters events by
// checkout correlation and forwards each as an advance command into the saga.
// Events without a checkout correlation are other consumers' business and
// are skipped silently.
type SagaWorker struct {
	source  MessageSource
	router  *appcore.Router
	metrics *metrics.WorkerMetrics
	logger  *slog.Logger
}

// NewSagaWorker creates a SagaWorker.
func NewSagaWorker(
	source MessageSource,
	router *appcore.Router,
	workerMetrics *metrics.WorkerMetrics,
	logger *slog.Logger,
) *SagaWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SagaWorker{
		source:  source,
		router:  router,
		metrics: workerMetrics,
		logger:  logger,
	}
}

// Run consumes until the context is cancelled.
func (w *SagaWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "starting saga worker", slog.String("group", SagaGroupID))
	defer w.source.Close()

	for {
		msg, err := w.source.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				w.logger.InfoContext(ctx, "saga worker stopped")
				return nil
			}
			w.logger.ErrorContext(ctx, "failed to fetch event",
				slog.String("error", err.Error()))
			continue
		}

		for {
			err := w.ProcessMessage(ctx, msg.Value)
			if err == nil {
				break
			}
			w.logger.ErrorContext(ctx, "failed to advance saga, retrying",
				slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryBackoff):
			}
		}

		if err := w.source.CommitMessages(ctx, msg); err != nil {
			w.logger.ErrorContext(ctx, "failed to commit event",
				slog.String("error", err.Error()))
		}
	}
}

// ProcessMessage handles one broadcast event message. A nil return means the
// message can be committed.
func (w *SagaWorker) ProcessMessage(ctx context.Context, value []byte) error {
	var envelope broker.EventEnvelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		w.logger.ErrorContext(ctx, "dropping malformed event message",
			slog.String("error", err.Error()))
		return nil
	}

	checkoutID, ok := checkoutCorrelation(&envelope)
	if !ok {
		// Not checkout-related; other projections may still consume it.
		return nil
	}

	if w.metrics != nil {
		w.metrics.EventsConsumed.With(prometheus.Labels{"event_type": envelope.EventType}).Inc()
	}

	cmd := checkout.NewAdvanceCommand(checkoutID, envelope.EventID, envelope.EventType, envelope.Payload)

	start := time.Now()
	if _, err := w.router.Dispatch(ctx, &cmd); err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.SagaStepDuration.With(prometheus.Labels{
			"event_type": envelope.EventType,
		}).Observe(time.Since(start).Seconds())
		w.observeOutcome(&envelope)
	}

	w.logger.DebugContext(ctx, "saga advanced",
		slog.String("checkout_id", checkoutID.String()),
		slog.String("event_type", envelope.EventType),
	)
	return nil
}

// observeOutcome counts terminal transitions. order.finalized is the last
// success event; a step failure carries its stage in the payload.
func (w *SagaWorker) observeOutcome(envelope *broker.EventEnvelope) {
	switch {
	case envelope.EventType == order.EventTypeFinalized:
		w.metrics.SagasCompleted.Inc()
	case checkout.IsStepFailed(envelope.EventType):
		var payload struct {
			Stage string `json:"stage"`
		}
		_ = json.Unmarshal(envelope.Payload, &payload)
		w.metrics.SagasFailed.With(prometheus.Labels{"stage": payload.Stage}).Inc()
	}
}

// checkoutCorrelation extracts the checkout ID an event belongs to: the
// payload's checkout_id field when present, the envelope correlation
// otherwise.
func checkoutCorrelation(envelope *broker.EventEnvelope) (uuid.UUID, bool) {
	var payload struct {
		CheckoutID string `json:"checkout_id"`
	}
	if err := json.Unmarshal(envelope.Payload, &payload); err == nil && payload.CheckoutID != "" {
		if id, parseErr := uuid.ParseUUID(payload.CheckoutID); parseErr == nil {
			return id, true
		}
	}

	if envelope.CorrelationID != "" {
		if id, err := uuid.ParseUUID(envelope.CorrelationID); err == nil {
			return id, true
		}
	}

	return "", false
}
