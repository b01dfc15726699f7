// Package catalog is the engine's read-only view of the protocol catalog
// collaborator: species-level vaccination protocols and their entries.
// The catalog is owned and mutated elsewhere; nothing here writes.
package catalog

import (
	"context"

	id "vetcore/pkg/domain"
)

// ProtocolEntry is one vaccine definition within a protocol.
type ProtocolEntry struct {
	ID         id.EntryID    `json:"id"`
	ProtocolID id.ProtocolID `json:"protocol_id"`
	Name       string        `json:"name"`
	// ApplicationAge is the patient age in months at which the dose
	// becomes due.
	ApplicationAge int `json:"application_age"`
	// ValidityMonths is how long one application protects for.
	ValidityMonths int  `json:"validity"`
	Mandatory      bool `json:"is_mandatory"`
}

// Protocol is a named, species-level set of vaccination requirements.
type Protocol struct {
	ID        id.ProtocolID   `json:"id"`
	OrgID     id.OrgID        `json:"org_id"`
	SpeciesID id.SpeciesID    `json:"species_id"`
	Name      string          `json:"name"`
	Entries   []ProtocolEntry `json:"entries"`
}

//go:generate mockgen -source=catalog.go -destination=mocks/catalog_mock.go -package=mocks Catalog

// Catalog resolves protocols and entries. Implementations return
// sentinel.ErrNotFound (possibly wrapped) when a record does not exist.
type Catalog interface {
	// GetProtocol returns the protocol with its entries attached.
	GetProtocol(ctx context.Context, orgID id.OrgID, protocolID id.ProtocolID) (*Protocol, error)
	// GetEntry returns a single protocol entry.
	GetEntry(ctx context.Context, orgID id.OrgID, entryID id.EntryID) (*ProtocolEntry, error)
}
