package directory

import (
	"context"
	"sync"

	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/sentinel"
)

// InMemory is a seedable directory for the memory deployment mode and tests.
type InMemory struct {
	mu       sync.RWMutex
	patients map[id.PatientID]*PatientRecord
}

func NewInMemory() *InMemory {
	return &InMemory{patients: make(map[id.PatientID]*PatientRecord)}
}

func (d *InMemory) Seed(p PatientRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.patients[p.ID] = &p
}

func (d *InMemory) GetPatient(_ context.Context, orgID id.OrgID, patientID id.PatientID) (*PatientRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.patients[patientID]
	if !ok || p.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	out := *p
	return &out, nil
}
