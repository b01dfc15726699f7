package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vetcore/internal/dose/models"
	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/sentinel"
)

// InMemory keeps doses in a mutex-guarded map. Execute holds the write
// lock across validate and mutate, giving the same serialization the
// postgres store gets from row locks.
type InMemory struct {
	mu    sync.RWMutex
	doses map[id.DoseID]*models.Dose
}

func NewInMemory() *InMemory {
	return &InMemory{doses: make(map[id.DoseID]*models.Dose)}
}

func (s *InMemory) Create(ctx context.Context, d *models.Dose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(d)
}

func (s *InMemory) CreateBatch(_ context.Context, doses []models.Dose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := make([]id.DoseID, 0, len(doses))
	for i := range doses {
		d := doses[i]
		if err := s.createLocked(&d); err != nil {
			for _, undo := range inserted {
				delete(s.doses, undo)
			}
			return err
		}
		inserted = append(inserted, d.ID)
	}
	return nil
}

// createLocked enforces the pending-dose uniqueness the postgres store gets
// from its partial unique index.
func (s *InMemory) createLocked(d *models.Dose) error {
	if d.Status == models.StatusPending {
		for _, existing := range s.doses {
			if existing.AssignmentID == d.AssignmentID &&
				existing.EntryID == d.EntryID &&
				existing.Status == models.StatusPending {
				return sentinel.ErrConflict
			}
		}
	}
	clone := *d
	s.doses[d.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, orgID id.OrgID, doseID id.DoseID) (*models.Dose, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doses[doseID]
	if !ok || d.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	clone := *d
	return &clone, nil
}

func (s *InMemory) ListByAssignment(_ context.Context, orgID id.OrgID, assignmentID id.AssignmentID) ([]models.Dose, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Dose
	for _, d := range s.doses {
		if d.OrgID == orgID && d.AssignmentID == assignmentID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) List(_ context.Context, orgID id.OrgID, f Filter, offset, limit int) ([]*models.Dose, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*models.Dose
	for _, d := range s.doses {
		if d.OrgID != orgID || !matchesFilter(d, f) {
			continue
		}
		clone := *d
		matches = append(matches, &clone)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID.String() < matches[j].ID.String()
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})

	total := len(matches)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matches[offset:end], total, nil
}

func matchesFilter(d *models.Dose, f Filter) bool {
	if f.AssignmentID != nil && d.AssignmentID != *f.AssignmentID {
		return false
	}
	if f.PatientID != nil && d.PatientID != *f.PatientID {
		return false
	}
	if f.ProtocolID != nil && d.ProtocolID != *f.ProtocolID {
		return false
	}
	if f.Status != nil && d.Status != *f.Status {
		return false
	}
	if f.Enabled != nil && d.Enabled != *f.Enabled {
		return false
	}
	if f.ScheduledFrom != nil && (d.ScheduledDate == nil || d.ScheduledDate.Before(*f.ScheduledFrom)) {
		return false
	}
	if f.ScheduledTo != nil && (d.ScheduledDate == nil || d.ScheduledDate.After(*f.ScheduledTo)) {
		return false
	}
	if f.AdministeredFrom != nil && (d.AdministeredDate == nil || d.AdministeredDate.Before(*f.AdministeredFrom)) {
		return false
	}
	if f.AdministeredTo != nil && (d.AdministeredDate == nil || d.AdministeredDate.After(*f.AdministeredTo)) {
		return false
	}
	if f.VaccineNameContains != "" &&
		!strings.Contains(strings.ToLower(d.VaccineName), strings.ToLower(f.VaccineNameContains)) {
		return false
	}
	if f.NotesContain != "" &&
		!strings.Contains(strings.ToLower(d.Notes), strings.ToLower(f.NotesContain)) {
		return false
	}
	return true
}

func (s *InMemory) Execute(_ context.Context, orgID id.OrgID, doseID id.DoseID,
	validate func(*models.Dose) error,
	mutate func(*models.Dose)) (*models.Dose, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.doses[doseID]
	if !ok || d.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}

	// Validate against the live row while holding the lock; the second of
	// two racing mutations sees the first one's result.
	if err := validate(d); err != nil {
		return nil, err
	}

	working := *d
	mutate(&working)
	s.doses[doseID] = &working

	clone := working
	return &clone, nil
}
