// Package command provides the command contract and the shared base embedded
// by all queue commands.
package command

// Command is a request to mutate exactly one bounded context. Commands travel
// over the context's durable queue and are routed by their static name.
type Command interface {
	// CommandName returns the command's type tag (e.g. "cart.take_snapshot").
	CommandName() string

	// CommandID returns the identifier of this logical command instance. A
	// redelivered or re-enqueued command keeps its ID so handlers can
	// deduplicate.
	CommandID() string

	// Destination returns the bounded context that consumes the command. The
	// queue name is derived from it ("{context}.commands").
	Destination() string

	// CorrelationID ties the command back to the originating checkout.
	CorrelationID() string
}

// Base carries the identity and correlation fields common to all commands.
// The command ID is derived from the command name and the correlation ID, so
// a re-derived or re-enqueued command keeps the same logical identity and
// deduplicates at the handler.
type Base struct {
	ID          string `json:"command_id"`
	Correlation string `json:"correlation_id"`
}

// NewBase creates a command base for one logical operation of a checkout.
func NewBase(name, correlationID string) Base {
	return Base{
		ID:          name + ":" + correlationID,
		Correlation: correlationID,
	}
}

// CommandID returns the logical command identifier.
func (b Base) CommandID() string { return b.ID }

// CorrelationID returns the checkout correlation identifier.
func (b Base) CorrelationID() string { return b.Correlation }
