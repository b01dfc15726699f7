package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vetcore/internal/assignment/models"
	dosemodels "vetcore/internal/dose/models"
	dosestore "vetcore/internal/dose/store"
	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/sentinel"
)

type AssignmentStoreSuite struct {
	suite.Suite
	doses *dosestore.InMemory
	store *InMemory
	orgID id.OrgID
}

func (s *AssignmentStoreSuite) SetupTest() {
	s.doses = dosestore.NewInMemory()
	s.store = NewInMemory(s.doses)
	s.orgID = id.OrgID(uuid.New())
}

func (s *AssignmentStoreSuite) SetupSubTest() {
	s.SetupTest()
}

func TestAssignmentStoreSuite(t *testing.T) {
	suite.Run(t, new(AssignmentStoreSuite))
}

func (s *AssignmentStoreSuite) newAssignment(patientID id.PatientID, protocolID id.ProtocolID, status models.Status) *models.PlanAssignment {
	a, err := models.New(s.orgID, patientID, protocolID, status, time.Now().UTC())
	s.Require().NoError(err)
	return a
}

func (s *AssignmentStoreSuite) newDose(a *models.PlanAssignment) dosemodels.Dose {
	now := time.Now().UTC()
	return dosemodels.Dose{
		ID:             id.NewDoseID(),
		OrgID:          a.OrgID,
		AssignmentID:   a.ID,
		PatientID:      a.PatientID,
		ProtocolID:     a.ProtocolID,
		EntryID:        id.EntryID(uuid.New()),
		VaccineName:    "Parvovirus",
		ApplicationAge: 2,
		ValidityMonths: 12,
		Mandatory:      true,
		Enabled:        true,
		Status:         dosemodels.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *AssignmentStoreSuite) TestCreate() {
	s.Run("persists the assignment with its doses", func() {
		a := s.newAssignment(id.PatientID(uuid.New()), id.ProtocolID(uuid.New()), models.StatusActive)
		a.Doses = []dosemodels.Dose{s.newDose(a), s.newDose(a)}

		s.Require().NoError(s.store.Create(context.Background(), a))

		found, err := s.store.FindByID(context.Background(), s.orgID, a.ID)
		s.Require().NoError(err)
		s.Equal(a.ID, found.ID)
		s.Len(found.Doses, 2)
	})

	s.Run("rejects a second active assignment for the same patient and protocol", func() {
		patientID := id.PatientID(uuid.New())
		protocolID := id.ProtocolID(uuid.New())

		first := s.newAssignment(patientID, protocolID, models.StatusActive)
		s.Require().NoError(s.store.Create(context.Background(), first))

		second := s.newAssignment(patientID, protocolID, models.StatusActive)
		err := s.store.Create(context.Background(), second)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("allows an inactive assignment alongside an active one", func() {
		patientID := id.PatientID(uuid.New())
		protocolID := id.ProtocolID(uuid.New())

		active := s.newAssignment(patientID, protocolID, models.StatusActive)
		s.Require().NoError(s.store.Create(context.Background(), active))

		inactive := s.newAssignment(patientID, protocolID, models.StatusInactive)
		s.Require().NoError(s.store.Create(context.Background(), inactive))
	})

	s.Run("leaves no doses behind when creation conflicts", func() {
		patientID := id.PatientID(uuid.New())
		protocolID := id.ProtocolID(uuid.New())

		first := s.newAssignment(patientID, protocolID, models.StatusActive)
		s.Require().NoError(s.store.Create(context.Background(), first))

		second := s.newAssignment(patientID, protocolID, models.StatusActive)
		d := s.newDose(second)
		second.Doses = []dosemodels.Dose{d}
		s.Require().ErrorIs(s.store.Create(context.Background(), second), sentinel.ErrConflict)

		_, err := s.doses.FindByID(context.Background(), s.orgID, d.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AssignmentStoreSuite) TestLookup() {
	s.Run("returns ErrNotFound for unknown assignment", func() {
		_, err := s.store.FindByID(context.Background(), s.orgID, id.NewAssignmentID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("hides soft-deleted assignments", func() {
		a := s.newAssignment(id.PatientID(uuid.New()), id.ProtocolID(uuid.New()), models.StatusActive)
		s.Require().NoError(s.store.Create(context.Background(), a))

		_, err := s.store.Execute(context.Background(), s.orgID, a.ID,
			func(*models.PlanAssignment) error { return nil },
			func(live *models.PlanAssignment) { live.ApplySoftDelete(time.Now().UTC()) },
		)
		s.Require().NoError(err)

		_, err = s.store.FindByID(context.Background(), s.orgID, a.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("does not leak assignments across organizations", func() {
		a := s.newAssignment(id.PatientID(uuid.New()), id.ProtocolID(uuid.New()), models.StatusActive)
		s.Require().NoError(s.store.Create(context.Background(), a))

		_, err := s.store.FindByID(context.Background(), id.OrgID(uuid.New()), a.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AssignmentStoreSuite) TestList() {
	s.Run("filters by patient and status", func() {
		patientID := id.PatientID(uuid.New())

		active := s.newAssignment(patientID, id.ProtocolID(uuid.New()), models.StatusActive)
		s.Require().NoError(s.store.Create(context.Background(), active))

		inactive := s.newAssignment(patientID, id.ProtocolID(uuid.New()), models.StatusInactive)
		s.Require().NoError(s.store.Create(context.Background(), inactive))

		other := s.newAssignment(id.PatientID(uuid.New()), id.ProtocolID(uuid.New()), models.StatusActive)
		s.Require().NoError(s.store.Create(context.Background(), other))

		status := models.StatusActive
		got, total, err := s.store.List(context.Background(), s.orgID, Filter{
			PatientID: &patientID,
			Status:    &status,
		}, 0, 10)
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Require().Len(got, 1)
		s.Equal(active.ID, got[0].ID)
	})

	s.Run("list pages do not carry doses", func() {
		a := s.newAssignment(id.PatientID(uuid.New()), id.ProtocolID(uuid.New()), models.StatusActive)
		a.Doses = []dosemodels.Dose{s.newDose(a)}
		s.Require().NoError(s.store.Create(context.Background(), a))

		got, _, err := s.store.List(context.Background(), s.orgID, Filter{}, 0, 10)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Empty(got[0].Doses)
	})
}

func (s *AssignmentStoreSuite) TestExecute() {
	s.Run("commits the mutation", func() {
		a := s.newAssignment(id.PatientID(uuid.New()), id.ProtocolID(uuid.New()), models.StatusActive)
		s.Require().NoError(s.store.Create(context.Background(), a))

		updated, err := s.store.Execute(context.Background(), s.orgID, a.ID,
			func(live *models.PlanAssignment) error { return live.CanDeactivate() },
			func(live *models.PlanAssignment) { live.ApplyDeactivate(time.Now().UTC()) },
		)
		s.Require().NoError(err)
		s.Equal(models.StatusInactive, updated.Status)

		found, err := s.store.FindByID(context.Background(), s.orgID, a.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInactive, found.Status)
	})

	s.Run("re-activation conflicts when another active assignment exists", func() {
		patientID := id.PatientID(uuid.New())
		protocolID := id.ProtocolID(uuid.New())

		dormant := s.newAssignment(patientID, protocolID, models.StatusInactive)
		s.Require().NoError(s.store.Create(context.Background(), dormant))

		active := s.newAssignment(patientID, protocolID, models.StatusActive)
		s.Require().NoError(s.store.Create(context.Background(), active))

		_, err := s.store.Execute(context.Background(), s.orgID, dormant.ID,
			func(live *models.PlanAssignment) error { return live.CanActivate() },
			func(live *models.PlanAssignment) { live.ApplyActivate(time.Now().UTC()) },
		)
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		found, err := s.store.FindByID(context.Background(), s.orgID, dormant.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInactive, found.Status)
	})

	s.Run("racing activations let exactly one through", func() {
		patientID := id.PatientID(uuid.New())
		protocolID := id.ProtocolID(uuid.New())

		a := s.newAssignment(patientID, protocolID, models.StatusInactive)
		b := s.newAssignment(patientID, protocolID, models.StatusInactive)
		s.Require().NoError(s.store.Create(context.Background(), a))
		s.Require().NoError(s.store.Create(context.Background(), b))

		activate := func(assignmentID id.AssignmentID) error {
			_, err := s.store.Execute(context.Background(), s.orgID, assignmentID,
				func(live *models.PlanAssignment) error { return live.CanActivate() },
				func(live *models.PlanAssignment) { live.ApplyActivate(time.Now().UTC()) },
			)
			return err
		}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		ids := []id.AssignmentID{a.ID, b.ID}
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = activate(ids[i])
			}(i)
		}
		wg.Wait()

		var wins, conflicts int
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, sentinel.ErrConflict):
				conflicts++
			}
		}
		s.Equal(1, wins)
		s.Equal(1, conflicts)
	})
}
