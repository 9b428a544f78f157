package appcore

import (
	"context"
	"fmt"
)

// HandlerFunc processes a single command and returns a typed result. Handlers
// are expected to be idempotent at the business level; the router does not
// deduplicate.
type HandlerFunc func(ctx context.Context, cmd Command) (any, error)

// Router maps a command's static name to exactly one handler. The registry is
// populated at startup; dispatching an unknown name is a wiring defect.
type Router struct {
	handlers map[string]HandlerFunc
}

// NewRouter creates an empty command router.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register binds a command name to a handler. Registering the same name twice
// is a configuration error.
func (r *Router) Register(commandName string, handler HandlerFunc) error {
	if commandName == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler for %q cannot be nil", commandName)
	}
	if _, exists := r.handlers[commandName]; exists {
		return fmt.Errorf("handler already registered for command %q", commandName)
	}
	r.handlers[commandName] = handler
	return nil
}

// Dispatch routes a command to its registered handler.
func (r *Router) Dispatch(ctx context.Context, cmd Command) (any, error) {
	handler, ok := r.handlers[cmd.CommandName()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.CommandName())
	}
	return handler(ctx, cmd)
}

// Handles reports whether a handler is registered for commandName. Used for
// startup wiring checks.
func (r *Router) Handles(commandName string) bool {
	_, ok := r.handlers[commandName]
	return ok
}

// NewHandler adapts a statically-typed handler function to HandlerFunc. The
// command type is checked once at dispatch; no runtime type construction is
// involved.
func NewHandler[T Command](handle func(ctx context.Context, cmd T) (any, error)) HandlerFunc {
	return func(ctx context.Context, cmd Command) (any, error) {
		typed, ok := cmd.(T)
		if !ok {
			return nil, fmt.Errorf("command %q has unexpected type %T", cmd.CommandName(), cmd)
		}
		return handle(ctx, typed)
	}
}
