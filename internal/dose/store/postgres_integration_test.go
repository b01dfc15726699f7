//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vetcore/internal/dose/models"
	"vetcore/internal/dose/store"
	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/sentinel"
	"vetcore/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	orgID    id.OrgID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "doses", "plan_assignments"))
	s.orgID = id.OrgID(uuid.New())
}

// seedAssignment inserts the parent row the doses foreign key requires.
func (s *PostgresStoreSuite) seedAssignment() id.AssignmentID {
	ctx := context.Background()
	assignmentID := id.NewAssignmentID()
	_, err := s.postgres.Exec(ctx, `
		INSERT INTO plan_assignments (id, org_id, patient_id, protocol_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'active', now(), now())
	`, uuid.UUID(assignmentID), uuid.UUID(s.orgID), uuid.New(), uuid.New())
	s.Require().NoError(err)
	return assignmentID
}

func (s *PostgresStoreSuite) newDose(assignmentID id.AssignmentID, entryID id.EntryID) *models.Dose {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Dose{
		ID:             id.NewDoseID(),
		OrgID:          s.orgID,
		AssignmentID:   assignmentID,
		PatientID:      id.PatientID(uuid.New()),
		ProtocolID:     id.ProtocolID(uuid.New()),
		EntryID:        entryID,
		VaccineName:    "Rabies",
		ApplicationAge: 3,
		ValidityMonths: 12,
		Mandatory:      true,
		Enabled:        true,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *PostgresStoreSuite) TestPendingUniqueness() {
	ctx := context.Background()

	s.Run("rejects a second pending dose for the same entry", func() {
		assignmentID := s.seedAssignment()
		entryID := id.EntryID(uuid.New())

		s.Require().NoError(s.store.Create(ctx, s.newDose(assignmentID, entryID)))
		err := s.store.Create(ctx, s.newDose(assignmentID, entryID))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("frees the slot once the pending dose completes", func() {
		assignmentID := s.seedAssignment()
		entryID := id.EntryID(uuid.New())

		first := s.newDose(assignmentID, entryID)
		s.Require().NoError(s.store.Create(ctx, first))

		_, err := s.store.Execute(ctx, s.orgID, first.ID,
			func(live *models.Dose) error { return live.CanComplete() },
			func(live *models.Dose) {
				live.ApplyComplete(time.Now().UTC(), time.Now().UTC(), "dr.lane")
			})
		s.Require().NoError(err)

		s.Require().NoError(s.store.Create(ctx, s.newDose(assignmentID, entryID)))
	})

	s.Run("allows the same entry on another assignment", func() {
		entryID := id.EntryID(uuid.New())
		s.Require().NoError(s.store.Create(ctx, s.newDose(s.seedAssignment(), entryID)))
		s.Require().NoError(s.store.Create(ctx, s.newDose(s.seedAssignment(), entryID)))
	})
}

func (s *PostgresStoreSuite) TestList() {
	ctx := context.Background()

	s.Run("filters by status and scheduled window", func() {
		assignmentID := s.seedAssignment()

		due := s.newDose(assignmentID, id.EntryID(uuid.New()))
		scheduled := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		due.ScheduledDate = &scheduled
		s.Require().NoError(s.store.Create(ctx, due))

		later := s.newDose(assignmentID, id.EntryID(uuid.New()))
		far := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		later.ScheduledDate = &far
		s.Require().NoError(s.store.Create(ctx, later))

		pending := models.StatusPending
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		page, total, err := s.store.List(ctx, s.orgID, store.Filter{
			AssignmentID:  &assignmentID,
			Status:        &pending,
			ScheduledFrom: &from,
			ScheduledTo:   &to,
		}, 0, 10)
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Require().Len(page, 1)
		s.Equal(due.ID, page[0].ID)
	})

	s.Run("matches vaccine names case-insensitively", func() {
		assignmentID := s.seedAssignment()
		s.Require().NoError(s.store.Create(ctx, s.newDose(assignmentID, id.EntryID(uuid.New()))))

		_, total, err := s.store.List(ctx, s.orgID, store.Filter{
			AssignmentID:        &assignmentID,
			VaccineNameContains: "rab",
		}, 0, 10)
		s.Require().NoError(err)
		s.Equal(1, total)
	})
}

func (s *PostgresStoreSuite) TestExecute() {
	ctx := context.Background()

	s.Run("a failed validate leaves the row untouched", func() {
		d := s.newDose(s.seedAssignment(), id.EntryID(uuid.New()))
		s.Require().NoError(s.store.Create(ctx, d))

		boom := dErrors.New(dErrors.CodeInvalidInput, "nope")
		_, err := s.store.Execute(ctx, s.orgID, d.ID,
			func(*models.Dose) error { return boom },
			func(live *models.Dose) { live.Enabled = false })
		s.Require().ErrorIs(err, boom)

		found, err := s.store.FindByID(ctx, s.orgID, d.ID)
		s.Require().NoError(err)
		s.True(found.Enabled)
	})

	s.Run("racing completions serialize so exactly one wins", func() {
		d := s.newDose(s.seedAssignment(), id.EntryID(uuid.New()))
		s.Require().NoError(s.store.Create(ctx, d))

		const racers = 4
		errs := make([]error, racers)
		var wg sync.WaitGroup
		for i := range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = s.store.Execute(ctx, s.orgID, d.ID,
					func(live *models.Dose) error { return live.CanComplete() },
					func(live *models.Dose) {
						live.ApplyComplete(time.Now().UTC(), time.Now().UTC(), "dr.lane")
					})
			}()
		}
		wg.Wait()

		var wins, rejections int
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			case dErrors.HasCode(err, dErrors.CodeAlreadyCompleted):
				rejections++
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}
		s.Equal(1, wins)
		s.Equal(racers-1, rejections)
	})
}
