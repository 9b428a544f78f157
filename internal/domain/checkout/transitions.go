package checkout

import (
	"strings"

	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/event"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/domain/uuid"
)

// Transition is one row of the workflow table: the inbound context event is
// accepted only in From and moves the saga to To.
type Transition struct {
	From Status
	To   Status
}

// transitions is the single source of truth for legal moves. The saga's
// state machine, not message arrival order, decides what happens next.
var transitions = map[string]Transition{
	cart.EventTypeSnapshotTaken:                 {From: StatusInitiated, To: StatusCartSnapshotReceived},
	catalog.EventTypeProductSnapshotsTaken:      {From: StatusCartSnapshotReceived, To: StatusProductSnapshotsReceived},
	inventory.EventTypeStockValidationCompleted: {From: StatusProductSnapshotsReceived, To: StatusStockValidated},
	inventory.EventTypeStockDeducted:            {From: StatusStockValidated, To: StatusStockDeducted},
	order.EventTypePlaced:                       {From: StatusStockDeducted, To: StatusOrderCreated},
	cart.EventTypeCleared:                       {From: StatusOrderCreated, To: StatusCartCleared},
	order.EventTypeFinalized:                    {From: StatusCartCleared, To: StatusCompleted},
}

// TransitionFor returns the workflow row for an inbound event type.
func TransitionFor(eventType string) (Transition, bool) {
	t, ok := transitions[eventType]
	return t, ok
}

// stepFailedSuffix tags the explicit failure event each context may publish.
const stepFailedSuffix = ".step_failed"

// StepFailed is the explicit failure fact a bounded context publishes when a
// checkout step cannot complete. Accepted from any non-terminal state.
type StepFailed struct {
	event.BaseEvent

	CheckoutID uuid.UUID `json:"checkout_id"`
	Stage      string    `json:"stage"`
	Reason     string    `json:"reason"`
}

// NewStepFailed creates a StepFailed event on the given context's topic.
func NewStepFailed(contextName string, checkoutID uuid.UUID, stage, reason string, meta event.Metadata) *StepFailed {
	return &StepFailed{
		BaseEvent:  event.NewBaseEvent(contextName+stepFailedSuffix, checkoutID.String(), contextName, 0, meta),
		CheckoutID: checkoutID,
		Stage:      stage,
		Reason:     reason,
	}
}

// IsStepFailed reports whether an event type is a context step failure.
func IsStepFailed(eventType string) bool {
	return strings.HasSuffix(eventType, stepFailedSuffix)
}
