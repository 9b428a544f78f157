package event

import "time"

// Metadata carries the identifiers that tie a chain of related commands and
// events back to the originating request and their immediate trigger.
type Metadata struct {
	CorrelationID string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CausationID   string    `json:"causation_id,omitempty"   bson:"causation_id,omitempty"`
	TenantID      string    `json:"tenant_id,omitempty"      bson:"tenant_id,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitempty"      bson:"timestamp,omitempty"`
}

// NewMetadata creates metadata for a new event.
func NewMetadata(correlationID, causationID string) Metadata {
	return Metadata{
		CorrelationID: correlationID,
		CausationID:   causationID,
		Timestamp:     time.Now(),
	}
}

// WithTenant adds a tenant identifier.
func (m Metadata) WithTenant(tenantID string) Metadata {
	m.TenantID = tenantID
	return m
}
