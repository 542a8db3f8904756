package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers changes to who may vote. These are kept for
	// the lifetime of the voting and never sampled.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers read-side activity such as exports.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key census actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Category  EventCategory
	Timestamp time.Time
	Action    string
	VotingID  int64
	// SourceVotingID is set for roll reuse only.
	SourceVotingID int64
	// Count is the number of census entries affected.
	Count  int
	Failed int
	Format string
	Reason string
	// ActorID is the staff user that performed the action.
	ActorID   int64
	RequestID string
	ClientIP  string
}

type AuditEvent string

const (
	EventVotersAdded   AuditEvent = "census_voters_added"
	EventVotersRemoved AuditEvent = "census_voters_removed"
	EventRollReused    AuditEvent = "census_roll_reused"
	EventImported      AuditEvent = "census_imported"
	EventExported      AuditEvent = "census_exported"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVotersAdded:   CategoryCompliance,
	EventVotersRemoved: CategoryCompliance,
	EventRollReused:    CategoryCompliance,
	EventImported:      CategoryCompliance,
	EventExported:      CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store is an append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
