// Package directory is the engine's read-only view of the patient
// directory collaborator. It supplies the two facts provisioning needs:
// the patient's species and current age in months.
package directory

import (
	"context"

	id "vetcore/pkg/domain"
)

// PatientRecord is the directory's contract for one patient.
type PatientRecord struct {
	ID        id.PatientID `json:"id"`
	OrgID     id.OrgID     `json:"org_id"`
	SpeciesID id.SpeciesID `json:"species_id"`
	// AgeMonths is the patient's current age at read time. Provisioning
	// captures it once; later birthdays do not rewrite provisioned doses.
	AgeMonths int `json:"age_months"`
}

//go:generate mockgen -source=directory.go -destination=mocks/directory_mock.go -package=mocks Directory

// Directory resolves patients. Implementations return sentinel.ErrNotFound
// (possibly wrapped) when the patient does not exist.
type Directory interface {
	GetPatient(ctx context.Context, orgID id.OrgID, patientID id.PatientID) (*PatientRecord, error)
}
