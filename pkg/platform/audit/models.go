package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can route and retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers screening outcomes with regulatory significance.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers detections of regulated biological agents.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine per-match and per-search activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Subject is the entity acted on: an analysis ID or a registry entry ID.
	Subject  string
	Action   string
	Decision string
	Reason   string
	// SequenceHash is a SHA-256 of the screened sequence. Raw sequences are
	// never written to the audit trail.
	SequenceHash string
	Jurisdiction string
	RequestID    string
	ClientIP     string
}

type AuditEvent string

const (
	EventRegistryMatch          AuditEvent = "registry_match"
	EventSearchCompleted        AuditEvent = "search_completed"
	EventAnalysisCompleted      AuditEvent = "analysis_completed"
	EventAnalysisFailed         AuditEvent = "analysis_failed"
	EventComplianceEvaluated    AuditEvent = "compliance_evaluated"
	EventRegulatedAgentDetected AuditEvent = "regulated_agent_detected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAnalysisCompleted:   CategoryCompliance,
	EventComplianceEvaluated: CategoryCompliance,

	EventRegulatedAgentDetected: CategorySecurity,
	EventAnalysisFailed:         CategorySecurity,

	EventRegistryMatch:   CategoryOperations,
	EventSearchCompleted: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is the narrow interface domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
