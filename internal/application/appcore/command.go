package appcore

import (
	"context"

	"github.com/lllypuk/orderflow/internal/domain/command"
)

// Command is the application-layer view of a queue command.
type Command = command.Command

// CommandEnqueuer places a command on the durable queue of its destination
// context. Fire-and-forget from the caller's perspective; there is no
// transactional coupling with the event log.
type CommandEnqueuer interface {
	Enqueue(ctx context.Context, cmd Command) error
}
