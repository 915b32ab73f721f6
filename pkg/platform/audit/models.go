package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events that make the experiment reproducible
	// and the adjudication explainable: arm assignment, case creation, operator
	// dispositions and PII pruning. Persistence is fail-closed.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers abuse signals such as submission velocity breaches.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers recoverable failures and routine activity.
	CategoryOperations EventCategory = "operations"
)

// AuditEvent names an action recorded in the audit trail.
type AuditEvent string

const (
	EventArmAssigned      AuditEvent = "arm_assigned"
	EventCaseCreated      AuditEvent = "case_created"
	EventCaseDisposed     AuditEvent = "op_disposition"
	EventProfilesPruned   AuditEvent = "pii_pruned"
	EventVelocityExceeded AuditEvent = "velocity_exceeded"
	EventFailureLogged    AuditEvent = "failure_logged"
	EventCasesExported    AuditEvent = "cases_exported"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventArmAssigned:    CategoryCompliance,
	EventCaseCreated:    CategoryCompliance,
	EventCaseDisposed:   CategoryCompliance,
	EventProfilesPruned: CategoryCompliance,

	EventVelocityExceeded: CategorySecurity,
	EventCasesExported:    CategorySecurity,

	EventFailureLogged: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// SubjectHash is a one-way digest of the citizen identifier; raw identifiers
// and profile fields never enter the audit trail.
type Event struct {
	ID          string
	Category    EventCategory
	Timestamp   time.Time
	CaseID      string
	SubjectHash string
	Action      string
	Decision    string
	Reason      string
	RequestID   string
	ActorID     string
	Payload     map[string]string
}

// Store persists audit events and serves the recent-events feed.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink receives a copy of every persisted event (e.g. a Kafka topic).
type Sink interface {
	Append(ctx context.Context, event Event) error
}
