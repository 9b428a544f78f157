package checkout

// Status is the saga's workflow state. Transitions are legal only along the
// table in transitions.go; Completed and Failed are terminal.
type Status string

// Workflow states, in order.
const (
	StatusInitiated                Status = "initiated"
	StatusCartSnapshotReceived     Status = "cart_snapshot_received"
	StatusProductSnapshotsReceived Status = "product_snapshots_received"
	StatusStockValidated           Status = "stock_validated"
	StatusStockDeducted            Status = "stock_deducted"
	StatusOrderCreated             Status = "order_created"
	StatusCartCleared              Status = "cart_cleared"
	StatusCompleted                Status = "completed"
	StatusFailed                   Status = "failed"
)

// statusRank orders the happy-path states so a handler can tell a stale
// duplicate apart from an out-of-order event. Failed sorts last: once failed,
// every progress event is stale.
var statusRank = map[Status]int{
	StatusInitiated:                0,
	StatusCartSnapshotReceived:     1,
	StatusProductSnapshotsReceived: 2,
	StatusStockValidated:           3,
	StatusStockDeducted:            4,
	StatusOrderCreated:             5,
	StatusCartCleared:              6,
	StatusCompleted:                7,
	StatusFailed:                   8,
}

// Terminal reports whether the saga is immutable in this state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// After reports whether s comes after other in workflow order.
func (s Status) After(other Status) bool {
	return statusRank[s] > statusRank[other]
}
