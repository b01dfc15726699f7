package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"vetcore/internal/assignment/models"
	dosestore "vetcore/internal/dose/store"
	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/sentinel"
)

// Postgres persists assignments over raw SQL. A partial unique index on
// (org_id, patient_id, protocol_id) WHERE status = 'active' AND
// deleted_at IS NULL backs the one-active-assignment invariant, so the
// database rejects duplicates even under concurrent writers.
type Postgres struct {
	db    *sql.DB
	doses *dosestore.Postgres
}

func NewPostgres(db *sql.DB, doses *dosestore.Postgres) *Postgres {
	return &Postgres{db: db, doses: doses}
}

const assignmentColumns = `
	id, org_id, patient_id, protocol_id, status,
	created_at, updated_at, deleted_at
`

func (s *Postgres) Create(ctx context.Context, a *models.PlanAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `
		INSERT INTO plan_assignments (
			id, org_id, patient_id, protocol_id, status,
			created_at, updated_at, deleted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, insert,
		uuid.UUID(a.ID), uuid.UUID(a.OrgID), uuid.UUID(a.PatientID),
		uuid.UUID(a.ProtocolID), string(a.Status),
		a.CreatedAt, a.UpdatedAt, a.DeletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create assignment: %w", err)
	}

	if err := dosestore.CreateBatchTx(ctx, tx, a.Doses); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment tx: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) (*models.PlanAssignment, error) {
	query := `SELECT ` + assignmentColumns + `
		FROM plan_assignments
		WHERE id = $1 AND org_id = $2 AND deleted_at IS NULL`
	a, err := scanAssignment(s.db.QueryRowContext(ctx, query, uuid.UUID(assignmentID), uuid.UUID(orgID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}

	doses, err := s.doses.ListByAssignment(ctx, orgID, assignmentID)
	if err != nil {
		return nil, err
	}
	a.Doses = doses
	return a, nil
}

func (s *Postgres) List(ctx context.Context, orgID id.OrgID, f Filter, offset, limit int) ([]*models.PlanAssignment, int, error) {
	conds := []string{"org_id = $1", "deleted_at IS NULL"}
	args := []any{uuid.UUID(orgID)}

	if f.PatientID != nil {
		args = append(args, uuid.UUID(*f.PatientID))
		conds = append(conds, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.ProtocolID != nil {
		args = append(args, uuid.UUID(*f.ProtocolID))
		conds = append(conds, fmt.Sprintf("protocol_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM plan_assignments `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}

	pageQuery := fmt.Sprintf(`SELECT %s FROM plan_assignments %s ORDER BY created_at, id OFFSET $%d LIMIT $%d`,
		assignmentColumns, where, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, pageQuery, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.PlanAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate assignments: %w", err)
	}
	return out, total, nil
}

func (s *Postgres) Execute(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID,
	validate func(*models.PlanAssignment) error,
	mutate func(*models.PlanAssignment)) (*models.PlanAssignment, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assignment tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + assignmentColumns + `
		FROM plan_assignments
		WHERE id = $1 AND org_id = $2 AND deleted_at IS NULL
		FOR UPDATE`
	a, err := scanAssignment(tx.QueryRowContext(ctx, query, uuid.UUID(assignmentID), uuid.UUID(orgID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock assignment: %w", err)
	}

	if err := validate(a); err != nil {
		return nil, err
	}
	mutate(a)

	const update = `
		UPDATE plan_assignments SET
			patient_id = $2, protocol_id = $3, status = $4,
			updated_at = $5, deleted_at = $6
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		uuid.UUID(a.ID), uuid.UUID(a.PatientID), uuid.UUID(a.ProtocolID),
		string(a.Status), a.UpdatedAt, a.DeletedAt,
	)
	if err != nil {
		// The partial unique index fires when a mutation re-activates an
		// assignment whose (patient, protocol) already has an active one.
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("update assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assignment tx: %w", err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (*models.PlanAssignment, error) {
	var (
		a                                 models.PlanAssignment
		rawID, rawOrg, rawPatient, rawProt uuid.UUID
		status                            string
	)
	err := row.Scan(
		&rawID, &rawOrg, &rawPatient, &rawProt, &status,
		&a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ID = id.AssignmentID(rawID)
	a.OrgID = id.OrgID(rawOrg)
	a.PatientID = id.PatientID(rawPatient)
	a.ProtocolID = id.ProtocolID(rawProt)
	a.Status = models.Status(status)
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
