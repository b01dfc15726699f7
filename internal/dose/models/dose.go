// Package models holds the Dose aggregate and its lifecycle rules.
package models

import (
	"fmt"
	"strings"
	"time"

	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
)

// Status is the dose lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Dose is one patient-specific instance of a protocol entry.
//
// Invariants:
//   - Status transitions: pending → completed, pending → cancelled; both
//     terminal and irreversible
//   - AdministeredDate is set if and only if Status is completed
//   - Enabled may be toggled only while Status is not completed
//   - Notes is an append-only log; mutations add timestamped lines and
//     never replace prior content
//
// Entry fields (VaccineName, ApplicationAge, ValidityMonths, Mandatory) are
// snapshotted from the catalog entry at provisioning time. Editing the
// catalog later does not rewrite history; EntryID keeps the reference for
// traceability.
type Dose struct {
	ID           id.DoseID       `json:"id"`
	OrgID        id.OrgID        `json:"org_id"`
	AssignmentID id.AssignmentID `json:"assignment_id"`
	// PatientID and ProtocolID are copied from the owning assignment so
	// dose listings filter without joins.
	PatientID  id.PatientID  `json:"patient_id"`
	ProtocolID id.ProtocolID `json:"protocol_id"`

	EntryID        id.EntryID `json:"entry_id"`
	VaccineName    string     `json:"vaccine_name"`
	ApplicationAge int        `json:"application_age"`
	ValidityMonths int        `json:"validity"`
	Mandatory      bool       `json:"is_mandatory"`

	Enabled          bool       `json:"enabled"`
	ScheduledDate    *time.Time `json:"scheduled_date"`
	AdministeredDate *time.Time `json:"administered_date"`
	Status           Status     `json:"status"`
	Notes            string     `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanToggleEnabled checks the orthogonal-flag guard: the flag is frozen
// once the dose is completed.
func (d *Dose) CanToggleEnabled() error {
	if d.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeImmutableState, "completed dose cannot be enabled or disabled")
	}
	return nil
}

// ApplyToggleEnabled sets the flag and records the change in the note log.
// Call CanToggleEnabled first; use with the store Execute callback.
func (d *Dose) ApplyToggleEnabled(enabled bool, now time.Time, actor string) {
	d.Enabled = enabled
	d.AppendNote(now, fmt.Sprintf("enabled set to %t%s", enabled, byActor(actor)))
	d.UpdatedAt = now
}

// CanComplete checks the apply guards: the dose must be enabled and not in
// a terminal state.
func (d *Dose) CanComplete() error {
	if d.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeAlreadyCompleted, "dose is already completed")
	}
	if d.Status == StatusCancelled {
		return dErrors.New(dErrors.CodeAlreadyCancelled, "dose is cancelled")
	}
	if !d.Enabled {
		return dErrors.New(dErrors.CodeDoseDisabled, "dose is disabled and cannot be applied")
	}
	return nil
}

// ApplyComplete transitions into the completed terminal state. This is the
// only way in and it is irreversible.
func (d *Dose) ApplyComplete(administeredAt time.Time, now time.Time, actor string) {
	d.Status = StatusCompleted
	d.AdministeredDate = &administeredAt
	d.AppendNote(now, fmt.Sprintf("completed, administered %s%s", administeredAt.Format(time.RFC3339), byActor(actor)))
	d.UpdatedAt = now
}

// CanCancel checks the cancellation guards. A completed dose can never be
// cancelled and cancellation itself is not repeatable.
func (d *Dose) CanCancel() error {
	if d.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeAlreadyCompleted, "completed dose cannot be cancelled")
	}
	if d.Status == StatusCancelled {
		return dErrors.New(dErrors.CodeAlreadyCancelled, "dose is already cancelled")
	}
	return nil
}

// ApplyCancel transitions into the cancelled terminal state.
func (d *Dose) ApplyCancel(now time.Time, actor string) {
	d.Status = StatusCancelled
	d.AppendNote(now, "cancelled"+byActor(actor))
	d.UpdatedAt = now
}

// CanReschedule rejects date changes on terminal doses.
func (d *Dose) CanReschedule() error {
	if d.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeAlreadyCompleted, "completed dose cannot be rescheduled")
	}
	if d.Status == StatusCancelled {
		return dErrors.New(dErrors.CodeAlreadyCancelled, "cancelled dose cannot be rescheduled")
	}
	return nil
}

// ApplyReschedule overwrites the scheduled date.
func (d *Dose) ApplyReschedule(newDate time.Time, now time.Time, actor string) {
	d.ScheduledDate = &newDate
	d.AppendNote(now, fmt.Sprintf("rescheduled to %s%s", newDate.Format("2006-01-02"), byActor(actor)))
	d.UpdatedAt = now
}

// AppendNote adds one timestamped line to the append-only note log.
func (d *Dose) AppendNote(now time.Time, line string) {
	entry := fmt.Sprintf("[%s] %s", now.UTC().Format(time.RFC3339), strings.TrimSpace(line))
	if d.Notes == "" {
		d.Notes = entry
		return
	}
	d.Notes = d.Notes + "\n" + entry
}

func byActor(actor string) string {
	if actor == "" {
		return ""
	}
	return " by " + actor
}
