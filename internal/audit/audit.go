// Package audit captures domain events emitted by the assignment and dose
// services. Events are transport-agnostic so sinks can fan out: tests and
// memory mode record in process, production publishes to Kafka.
package audit

import (
	"context"
	"time"
)

type EventType string

const (
	EventAssignmentCreated     EventType = "assignment_created"
	EventAssignmentActivated   EventType = "assignment_activated"
	EventAssignmentDeactivated EventType = "assignment_deactivated"
	EventAssignmentUpdated     EventType = "assignment_updated"
	EventAssignmentDeleted     EventType = "assignment_deleted"

	EventDoseCompleted   EventType = "dose_completed"
	EventDoseCancelled   EventType = "dose_cancelled"
	EventDoseRescheduled EventType = "dose_rescheduled"
	EventDoseUpdated     EventType = "dose_updated"
	EventDoseToggled     EventType = "dose_toggled"
	EventDoseAdded       EventType = "dose_added"
)

// Event records one domain action. IDs are carried as strings so the wire
// form stays readable regardless of sink. AssignmentID is always set;
// DoseID only for dose-level events.
type Event struct {
	Type         EventType `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	OrgID        string    `json:"org_id"`
	Actor        string    `json:"actor,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	AssignmentID string    `json:"assignment_id"`
	PatientID    string    `json:"patient_id"`
	ProtocolID   string    `json:"protocol_id"`
	DoseID       string    `json:"dose_id,omitempty"`
	Detail       string    `json:"detail,omitempty"`
}

// Publisher is the sink contract. Publish failures must not fail the domain
// operation that emitted the event; callers log and continue.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}
