package broker

import (
	"encoding/json"
	"fmt"

	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/command"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/order"
)

// CommandFactory returns an empty typed command instance for JSON decoding.
type CommandFactory func() command.Command

// CommandRegistry maps command names to their typed factories. The mapping is
// explicit; an unregistered name is a decode error, never a silent skip.
type CommandRegistry struct {
	factories map[string]CommandFactory
}

// NewCommandRegistry creates an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		factories: make(map[string]CommandFactory),
	}
}

// Register binds a command name to its factory. Registering the same name
// twice is a programming error.
func (r *CommandRegistry) Register(name string, factory CommandFactory) error {
	if name == "" {
		return fmt.Errorf("command name is required")
	}
	if factory == nil {
		return fmt.Errorf("factory for command %q is nil", name)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("command %q is already registered", name)
	}

	r.factories[name] = factory
	return nil
}

// Decode turns a wire envelope back into its typed command.
func (r *CommandRegistry) Decode(envelope *CommandEnvelope) (command.Command, error) {
	factory, ok := r.factories[envelope.CommandName]
	if !ok {
		return nil, fmt.Errorf("unknown command name: %s", envelope.CommandName)
	}

	cmd := factory()
	if err := json.Unmarshal(envelope.Payload, cmd); err != nil {
		return nil, fmt.Errorf("failed to decode %s command: %w", envelope.CommandName, err)
	}

	return cmd, nil
}

// Known reports whether a command name has a factory.
func (r *CommandRegistry) Known(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// NewDefaultRegistry returns a registry with every command of the checkout
// workflow bound.
func NewDefaultRegistry() *CommandRegistry {
	r := NewCommandRegistry()

	bindings := map[string]CommandFactory{
		checkout.CommandNameInitiate:            func() command.Command { return &checkout.InitiateCommand{} },
		checkout.CommandNameAdvance:             func() command.Command { return &checkout.AdvanceCommand{} },
		cart.CommandNameTakeSnapshot:            func() command.Command { return &cart.TakeSnapshot{} },
		cart.CommandNameClear:                   func() command.Command { return &cart.Clear{} },
		catalog.CommandNameTakeProductSnapshots: func() command.Command { return &catalog.TakeProductSnapshots{} },
		inventory.CommandNameValidateStock:      func() command.Command { return &inventory.ValidateStock{} },
		inventory.CommandNameDeductStock:        func() command.Command { return &inventory.DeductStock{} },
		order.CommandNamePlace:                  func() command.Command { return &order.Place{} },
		order.CommandNameFinalize:               func() command.Command { return &order.Finalize{} },
	}

	for name, factory := range bindings {
		if err := r.Register(name, factory); err != nil {
			// Bindings are static; a clash here is a build-time mistake.
			panic(err)
		}
	}

	return r
}
