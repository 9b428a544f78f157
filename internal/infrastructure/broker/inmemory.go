package broker

import (
	"context"
	"sync"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/command"
	"github.com/lllypuk/orderflow/internal/domain/event"
)

var (
	_ appcore.CommandEnqueuer = (*InMemoryEnqueuer)(nil)
	_ event.Publisher         = (*InMemoryPublisher)(nil)
)

// InMemoryEnqueuer records enqueued commands for tests.
type InMemoryEnqueuer struct {
	mu       sync.Mutex
	commands []command.Command
}

// NewInMemoryEnqueuer creates an in-memory enqueuer.
func NewInMemoryEnqueuer() *InMemoryEnqueuer {
	return &InMemoryEnqueuer{}
}

// Enqueue records the command.
func (e *InMemoryEnqueuer) Enqueue(_ context.Context, cmd command.Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.commands = append(e.commands, cmd)
	return nil
}

// Commands returns the recorded commands in enqueue order.
func (e *InMemoryEnqueuer) Commands() []command.Command {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]command.Command, len(e.commands))
	copy(result, e.commands)
	return result
}

// Last returns the most recently enqueued command, nil when empty.
func (e *InMemoryEnqueuer) Last() command.Command {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.commands) == 0 {
		return nil
	}
	return e.commands[len(e.commands)-1]
}

// InMemoryPublisher records published events for tests.
type InMemoryPublisher struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

// NewInMemoryPublisher creates an in-memory publisher.
func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

// Publish records the events.
func (p *InMemoryPublisher) Publish(_ context.Context, events ...event.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, events...)
	return nil
}

// Events returns the recorded events in publish order.
func (p *InMemoryPublisher) Events() []event.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make([]event.DomainEvent, len(p.events))
	copy(result, p.events)
	return result
}
