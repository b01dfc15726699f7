package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/sentinel"
)

// Postgres reads the catalog collaborator's tables directly. The engine
// holds read-only access to protocols and protocol_entries; all writes to
// them happen in the catalog service.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) GetProtocol(ctx context.Context, orgID id.OrgID, protocolID id.ProtocolID) (*Protocol, error) {
	const protocolQuery = `
		SELECT id, org_id, species_id, name
		FROM protocols
		WHERE id = $1 AND org_id = $2 AND deleted_at IS NULL
	`
	var (
		p                    Protocol
		rawID, rawOrg, rawSp uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, protocolQuery, uuid.UUID(protocolID), uuid.UUID(orgID)).
		Scan(&rawID, &rawOrg, &rawSp, &p.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get protocol: %w", err)
	}
	p.ID = id.ProtocolID(rawID)
	p.OrgID = id.OrgID(rawOrg)
	p.SpeciesID = id.SpeciesID(rawSp)

	const entriesQuery = `
		SELECT id, protocol_id, name, application_age, validity, is_mandatory
		FROM protocol_entries
		WHERE protocol_id = $1 AND deleted_at IS NULL
		ORDER BY application_age, name
	`
	rows, err := s.db.QueryContext(ctx, entriesQuery, uuid.UUID(protocolID))
	if err != nil {
		return nil, fmt.Errorf("list protocol entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan protocol entry: %w", err)
		}
		p.Entries = append(p.Entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate protocol entries: %w", err)
	}
	return &p, nil
}

func (s *Postgres) GetEntry(ctx context.Context, orgID id.OrgID, entryID id.EntryID) (*ProtocolEntry, error) {
	const query = `
		SELECT e.id, e.protocol_id, e.name, e.application_age, e.validity, e.is_mandatory
		FROM protocol_entries e
		JOIN protocols p ON p.id = e.protocol_id
		WHERE e.id = $1 AND p.org_id = $2 AND e.deleted_at IS NULL AND p.deleted_at IS NULL
	`
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, uuid.UUID(entryID), uuid.UUID(orgID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get protocol entry: %w", err)
	}
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*ProtocolEntry, error) {
	var (
		e              ProtocolEntry
		rawID, rawProt uuid.UUID
	)
	if err := row.Scan(&rawID, &rawProt, &e.Name, &e.ApplicationAge, &e.ValidityMonths, &e.Mandatory); err != nil {
		return nil, err
	}
	e.ID = id.EntryID(rawID)
	e.ProtocolID = id.ProtocolID(rawProt)
	return &e, nil
}
