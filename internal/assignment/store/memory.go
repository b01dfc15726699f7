package store

import (
	"context"
	"sort"
	"sync"

	"vetcore/internal/assignment/models"
	dosestore "vetcore/internal/dose/store"
	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/sentinel"
)

// InMemory keeps assignments in a map and delegates dose rows to the dose
// store, mirroring the two-table layout of the Postgres store.
type InMemory struct {
	mu          sync.RWMutex
	assignments map[id.AssignmentID]*models.PlanAssignment
	doses       *dosestore.InMemory
}

func NewInMemory(doses *dosestore.InMemory) *InMemory {
	return &InMemory{
		assignments: make(map[id.AssignmentID]*models.PlanAssignment),
		doses:       doses,
	}
}

func (s *InMemory) Create(ctx context.Context, a *models.PlanAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.IsActive() && s.hasActiveLocked(a.OrgID, a.PatientID, a.ProtocolID, a.ID) {
		return sentinel.ErrConflict
	}

	// CreateBatch rolls back its own inserts on failure, so an assignment
	// is never stored with a partial dose set.
	if err := s.doses.CreateBatch(ctx, a.Doses); err != nil {
		return err
	}

	stored := *a
	stored.Doses = nil
	s.assignments[a.ID] = &stored
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) (*models.PlanAssignment, error) {
	s.mu.RLock()
	a, err := s.findLocked(orgID, assignmentID)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	doses, err := s.doses.ListByAssignment(ctx, orgID, assignmentID)
	if err != nil {
		return nil, err
	}
	a.Doses = doses
	return a, nil
}

func (s *InMemory) List(_ context.Context, orgID id.OrgID, f Filter, offset, limit int) ([]*models.PlanAssignment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.PlanAssignment
	for _, a := range s.assignments {
		if a.OrgID != orgID || a.DeletedAt != nil {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.ProtocolID != nil && a.ProtocolID != *f.ProtocolID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		cp := *a
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	if offset >= total {
		return []*models.PlanAssignment{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *InMemory) Execute(_ context.Context, orgID id.OrgID, assignmentID id.AssignmentID,
	validate func(*models.PlanAssignment) error,
	mutate func(*models.PlanAssignment)) (*models.PlanAssignment, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	live, err := s.findLocked(orgID, assignmentID)
	if err != nil {
		return nil, err
	}

	if err := validate(live); err != nil {
		return nil, err
	}
	mutate(live)

	if live.IsActive() && live.DeletedAt == nil &&
		s.hasActiveLocked(live.OrgID, live.PatientID, live.ProtocolID, live.ID) {
		return nil, sentinel.ErrConflict
	}

	s.assignments[assignmentID] = live
	cp := *live
	return &cp, nil
}

// findLocked returns a copy so guard mutations never leak into the map
// before Execute commits. Soft-deleted rows read as not found.
func (s *InMemory) findLocked(orgID id.OrgID, assignmentID id.AssignmentID) (*models.PlanAssignment, error) {
	a, ok := s.assignments[assignmentID]
	if !ok || a.OrgID != orgID || a.DeletedAt != nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemory) hasActiveLocked(orgID id.OrgID, patientID id.PatientID, protocolID id.ProtocolID, exclude id.AssignmentID) bool {
	for _, other := range s.assignments {
		if other.ID == exclude {
			continue
		}
		if other.OrgID == orgID && other.PatientID == patientID &&
			other.ProtocolID == protocolID && other.IsActive() && other.DeletedAt == nil {
			return true
		}
	}
	return false
}
