// Package store persists PlanAssignments. Stores are pure I/O: guard
// decisions live in the models and services; stores only guarantee
// atomicity, freshness, and the uniqueness invariants.
package store

import (
	"context"

	"vetcore/internal/assignment/models"
	id "vetcore/pkg/domain"
)

// Filter narrows List results. Nil fields match everything.
type Filter struct {
	PatientID  *id.PatientID
	ProtocolID *id.ProtocolID
	Status     *models.Status
}

// Store is the persistence contract for assignments.
//
// Implementations return sentinel errors: ErrNotFound for missing rows,
// ErrConflict when the one-active-assignment-per-(patient, protocol)
// invariant would be violated.
type Store interface {
	// Create persists the assignment together with its provisioned doses
	// in one atomic write: either everything lands or nothing does.
	Create(ctx context.Context, a *models.PlanAssignment) error

	// FindByID returns the assignment with its doses attached.
	// Soft-deleted assignments are not found.
	FindByID(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) (*models.PlanAssignment, error)

	// List returns one page of assignments (without doses) plus the total
	// match count.
	List(ctx context.Context, orgID id.OrgID, f Filter, offset, limit int) ([]*models.PlanAssignment, int, error)

	// Execute atomically runs validate then mutate against a freshly read
	// row, holding the row lock (mutex or SELECT ... FOR UPDATE) across
	// both so racing mutations serialize. A validate failure aborts
	// without writing. The mutated row is re-checked against the active
	// uniqueness invariant before commit.
	Execute(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID,
		validate func(*models.PlanAssignment) error,
		mutate func(*models.PlanAssignment)) (*models.PlanAssignment, error)
}
