// Package models holds the PlanAssignment aggregate.
package models

import (
	"time"

	dosemodels "vetcore/internal/dose/models"
	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
)

// Status is the assignment activation state.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// PlanAssignment binds one vaccination protocol to one patient.
//
// Invariants:
//   - At most one active assignment exists per (org, patient, protocol);
//     soft-deleted rows do not count
//   - Status transitions: active ↔ inactive only
//   - Activation state is independent of individual dose lifecycles:
//     deactivating never cascades to doses
//   - Rows are never hard-deleted; DeletedAt hides them from every read
type PlanAssignment struct {
	ID         id.AssignmentID `json:"id"`
	OrgID      id.OrgID        `json:"org_id"`
	PatientID  id.PatientID    `json:"patient_id"`
	ProtocolID id.ProtocolID   `json:"protocol_id"`
	Status     Status          `json:"status"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	// Doses are attached on creation and on reads that request them.
	// After provisioning each dose has an independent lifecycle.
	Doses []dosemodels.Dose `json:"doses,omitempty"`
}

// New constructs an assignment in the given (defaulting to active) status.
func New(orgID id.OrgID, patientID id.PatientID, protocolID id.ProtocolID, status Status, now time.Time) (*PlanAssignment, error) {
	if status == "" {
		status = StatusActive
	}
	if !status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid assignment status %q", status)
	}
	return &PlanAssignment{
		ID:         id.NewAssignmentID(),
		OrgID:      orgID,
		PatientID:  patientID,
		ProtocolID: protocolID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (a *PlanAssignment) IsActive() bool {
	return a.Status == StatusActive && a.DeletedAt == nil
}

// CanActivate checks the idempotency guard for activation.
// Use with ApplyActivate in Execute callbacks.
func (a *PlanAssignment) CanActivate() error {
	if a.Status == StatusActive {
		return dErrors.New(dErrors.CodeAlreadyInState, "assignment is already active")
	}
	return nil
}

// ApplyActivate flips the assignment to active.
func (a *PlanAssignment) ApplyActivate(now time.Time) {
	a.Status = StatusActive
	a.UpdatedAt = now
}

// CanDeactivate checks the idempotency guard for deactivation.
func (a *PlanAssignment) CanDeactivate() error {
	if a.Status == StatusInactive {
		return dErrors.New(dErrors.CodeAlreadyInState, "assignment is already inactive")
	}
	return nil
}

// ApplyDeactivate flips the assignment to inactive. Existing doses keep
// their own lifecycles.
func (a *PlanAssignment) ApplyDeactivate(now time.Time) {
	a.Status = StatusInactive
	a.UpdatedAt = now
}

// ApplySoftDelete marks the assignment deleted, hiding it from reads and
// releasing the one-active-assignment slot.
func (a *PlanAssignment) ApplySoftDelete(now time.Time) {
	a.DeletedAt = &now
	a.UpdatedAt = now
}
