// Package store persists Doses. Stores are pure I/O; lifecycle guard
// decisions live in the dose model and service.
package store

import (
	"context"
	"time"

	"vetcore/internal/dose/models"
	id "vetcore/pkg/domain"
)

// Filter narrows List results. Nil/empty fields match everything.
// Date ranges are inclusive.
type Filter struct {
	AssignmentID *id.AssignmentID
	PatientID    *id.PatientID
	ProtocolID   *id.ProtocolID
	Status       *models.Status
	Enabled      *bool

	ScheduledFrom *time.Time
	ScheduledTo   *time.Time

	AdministeredFrom *time.Time
	AdministeredTo   *time.Time

	// VaccineNameContains and NotesContain are case-insensitive substring
	// matches.
	VaccineNameContains string
	NotesContain        string
}

// Store is the persistence contract for doses.
//
// Implementations return sentinel errors: ErrNotFound for missing rows,
// ErrConflict when another pending dose already references the same entry
// within the same assignment.
type Store interface {
	// Create persists one manually added dose.
	Create(ctx context.Context, d *models.Dose) error

	// CreateBatch persists the doses provisioned for a new assignment.
	// Callers provide atomicity (the assignment store wraps this in its
	// creation transaction or lock).
	CreateBatch(ctx context.Context, doses []models.Dose) error

	FindByID(ctx context.Context, orgID id.OrgID, doseID id.DoseID) (*models.Dose, error)

	// ListByAssignment returns every dose of one assignment, unpaged.
	ListByAssignment(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) ([]models.Dose, error)

	// List returns one page of doses plus the total match count.
	List(ctx context.Context, orgID id.OrgID, f Filter, offset, limit int) ([]*models.Dose, int, error)

	// Execute atomically runs validate then mutate against a freshly read
	// row, holding the row lock (mutex or SELECT ... FOR UPDATE) across
	// both. The second of two racing completions therefore observes the
	// first one's terminal state, not a cached row.
	Execute(ctx context.Context, orgID id.OrgID, doseID id.DoseID,
		validate func(*models.Dose) error,
		mutate func(*models.Dose)) (*models.Dose, error)
}
