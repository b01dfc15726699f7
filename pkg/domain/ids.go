// Package domain defines the typed identifiers shared across the engine.
//
// Each entity gets its own UUID-backed type so the compiler rejects
// cross-entity mixups (passing a DoseID where an AssignmentID is expected
// fails to compile). Parse helpers enforce the invariant that identifiers
// are valid, non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "vetcore/pkg/domain-errors"
)

type (
	// OrgID identifies the owning clinic organization. Every record and
	// every operation is scoped by one.
	OrgID uuid.UUID

	// PatientID identifies a patient in the external patient directory.
	PatientID uuid.UUID

	// SpeciesID identifies a species; protocols and patients must agree on it.
	SpeciesID uuid.UUID

	// ProtocolID identifies a species-level vaccination protocol in the catalog.
	ProtocolID uuid.UUID

	// EntryID identifies one vaccine definition within a protocol.
	EntryID uuid.UUID

	// AssignmentID identifies the binding of a protocol to a patient.
	AssignmentID uuid.UUID

	// DoseID identifies one patient-specific, independently-lifecycled dose.
	DoseID uuid.UUID
)

func (id OrgID) String() string        { return uuid.UUID(id).String() }
func (id PatientID) String() string    { return uuid.UUID(id).String() }
func (id SpeciesID) String() string    { return uuid.UUID(id).String() }
func (id ProtocolID) String() string   { return uuid.UUID(id).String() }
func (id EntryID) String() string      { return uuid.UUID(id).String() }
func (id AssignmentID) String() string { return uuid.UUID(id).String() }
func (id DoseID) String() string       { return uuid.UUID(id).String() }

func (id OrgID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id PatientID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SpeciesID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ProtocolID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id AssignmentID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id DoseID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }

func parse(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "identifier is required")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "identifier is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "identifier must not be the nil UUID")
	}
	return u, nil
}

func ParseOrgID(raw string) (OrgID, error) {
	u, err := parse(raw)
	return OrgID(u), err
}

func ParsePatientID(raw string) (PatientID, error) {
	u, err := parse(raw)
	return PatientID(u), err
}

func ParseSpeciesID(raw string) (SpeciesID, error) {
	u, err := parse(raw)
	return SpeciesID(u), err
}

func ParseProtocolID(raw string) (ProtocolID, error) {
	u, err := parse(raw)
	return ProtocolID(u), err
}

func ParseEntryID(raw string) (EntryID, error) {
	u, err := parse(raw)
	return EntryID(u), err
}

func ParseAssignmentID(raw string) (AssignmentID, error) {
	u, err := parse(raw)
	return AssignmentID(u), err
}

func ParseDoseID(raw string) (DoseID, error) {
	u, err := parse(raw)
	return DoseID(u), err
}

// NewAssignmentID mints a fresh assignment identifier.
func NewAssignmentID() AssignmentID { return AssignmentID(uuid.New()) }

// NewDoseID mints a fresh dose identifier.
func NewDoseID() DoseID { return DoseID(uuid.New()) }
