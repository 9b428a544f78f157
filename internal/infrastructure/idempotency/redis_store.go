// Package idempotency stores processed-command and processed-event markers in
// Redis. Expiry is server-side TTL on the keys, so no sweeper process exists.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/orderflow/internal/application/appcore"
)

// Default retention windows. Command records are kept long enough to absorb
// client retries; event markers long enough to outlive broker redelivery.
const (
	DefaultCommandTTL = 24 * time.Hour
	DefaultEventTTL   = 7 * 24 * time.Hour
)

const (
	commandKeyPrefix = "idempotency:command:"
	eventKeyPrefix   = "idempotency:event:"
)

var _ appcore.IdempotencyStore = (*RedisStore)(nil)

// RedisStore implements appcore.IdempotencyStore on Redis.
type RedisStore struct {
	client     *redis.Client
	commandTTL time.Duration
	eventTTL   time.Duration
}

// RedisStoreConfig contains configuration for RedisStore.
type RedisStoreConfig struct {
	Client     *redis.Client
	CommandTTL time.Duration
	EventTTL   time.Duration
}

// NewRedisStore creates a Redis-based idempotency store.
func NewRedisStore(cfg RedisStoreConfig) *RedisStore {
	commandTTL := cfg.CommandTTL
	if commandTTL <= 0 {
		commandTTL = DefaultCommandTTL
	}
	eventTTL := cfg.EventTTL
	if eventTTL <= 0 {
		eventTTL = DefaultEventTTL
	}

	return &RedisStore{
		client:     cfg.Client,
		commandTTL: commandTTL,
		eventTTL:   eventTTL,
	}
}

func commandKey(key string) string {
	return commandKeyPrefix + key
}

func eventKey(eventID, handlerName string) string {
	return fmt.Sprintf("%s%s:%s", eventKeyPrefix, eventID, handlerName)
}

// CheckCommand returns the stored record for an idempotency key, nil when the
// key is unknown or already expired.
func (s *RedisStore) CheckCommand(ctx context.Context, key string) (*appcore.CommandRecord, error) {
	if key == "" {
		return nil, errors.New("idempotency key is required")
	}

	data, err := s.client.Get(ctx, commandKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil //nolint:nilnil // absence of a record is the expected miss case
		}
		return nil, fmt.Errorf("failed to check command key: %w", err)
	}

	var record appcore.CommandRecord
	if err = json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode command record: %w", err)
	}

	return &record, nil
}

// MarkCommandProcessed stores the command outcome under its idempotency key
// with the command TTL.
func (s *RedisStore) MarkCommandProcessed(
	ctx context.Context,
	key, aggregateID string,
	result json.RawMessage,
) error {
	if key == "" {
		return errors.New("idempotency key is required")
	}

	record := appcore.CommandRecord{
		AggregateID: aggregateID,
		Result:      result,
		ProcessedAt: time.Now(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode command record: %w", err)
	}

	if err = s.client.Set(ctx, commandKey(key), data, s.commandTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark command processed: %w", err)
	}

	return nil
}

// IsEventProcessed reports whether the (event, handler) pair has a marker.
func (s *RedisStore) IsEventProcessed(ctx context.Context, eventID, handlerName string) (bool, error) {
	if eventID == "" || handlerName == "" {
		return false, errors.New("event ID and handler name are required")
	}

	exists, err := s.client.Exists(ctx, eventKey(eventID, handlerName)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check event marker: %w", err)
	}

	return exists > 0, nil
}

// MarkEventProcessed records handler completion for an event with the event
// TTL.
func (s *RedisStore) MarkEventProcessed(ctx context.Context, eventID, handlerName string) error {
	if eventID == "" || handlerName == "" {
		return errors.New("event ID and handler name are required")
	}

	if err := s.client.Set(ctx, eventKey(eventID, handlerName), "1", s.eventTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	return nil
}
