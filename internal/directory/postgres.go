package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/sentinel"
)

// Postgres reads the directory collaborator's patients table. Age in months
// is derived from the stored birth date at read time so the directory never
// has to maintain a counter.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) GetPatient(ctx context.Context, orgID id.OrgID, patientID id.PatientID) (*PatientRecord, error) {
	const query = `
		SELECT id, org_id, species_id,
		       (EXTRACT(YEAR FROM age(now(), birth_date)) * 12 +
		        EXTRACT(MONTH FROM age(now(), birth_date)))::int AS age_months
		FROM patients
		WHERE id = $1 AND org_id = $2 AND deleted_at IS NULL
	`
	var (
		p                    PatientRecord
		rawID, rawOrg, rawSp uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(patientID), uuid.UUID(orgID)).
		Scan(&rawID, &rawOrg, &rawSp, &p.AgeMonths)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	p.ID = id.PatientID(rawID)
	p.OrgID = id.OrgID(rawOrg)
	p.SpeciesID = id.SpeciesID(rawSp)
	return &p, nil
}
