package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lllypuk/orderflow/internal/domain/event"
)

var _ event.Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher publishes committed events to their context's broadcast
// topic. Publishing happens after the event log append has succeeded and is
// not coupled to it; a publish failure is logged and the events stay
// unbroadcast until something re-drives the flow.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// PublisherOption configures KafkaPublisher.
type PublisherOption func(*KafkaPublisher)

// WithPublisherLogger sets the logger for the publisher.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *KafkaPublisher) {
		p.logger = logger
	}
}

// NewKafkaPublisher creates a publisher over the given brokers. The topic is
// chosen per message from the event's aggregate type.
func NewKafkaPublisher(brokers []string, opts ...PublisherOption) *KafkaPublisher {
	p := &KafkaPublisher{
		writer: newWriter(brokers),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Publish writes one message per event to the event's context topic. The
// message key is the aggregate ID so one stream's events stay in partition
// order.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		envelope, err := NewEventEnvelope(evt)
		if err != nil {
			return err
		}

		value, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("failed to marshal event envelope: %w", err)
		}

		messages = append(messages, kafka.Message{
			Topic: TopicName(evt.AggregateType()),
			Key:   []byte(evt.AggregateID()),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish events",
			slog.Int("events_count", len(events)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to publish events: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// newWriter builds a synchronous writer with per-message topics.
func newWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		Async:        false,
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},
	}
}
