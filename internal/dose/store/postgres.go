package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"vetcore/internal/dose/models"
	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/sentinel"
)

// Postgres persists doses. Uniqueness of pending doses per (assignment,
// entry) is enforced by a partial unique index, so concurrent AddDose
// calls cannot slip past the application-level check.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const doseColumns = `
	id, org_id, assignment_id, patient_id, protocol_id, entry_id,
	vaccine_name, application_age, validity, is_mandatory,
	enabled, scheduled_date, administered_date, status, notes,
	created_at, updated_at
`

const insertDose = `
	INSERT INTO doses (
		id, org_id, assignment_id, patient_id, protocol_id, entry_id,
		vaccine_name, application_age, validity, is_mandatory,
		enabled, scheduled_date, administered_date, status, notes,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
`

func (s *Postgres) Create(ctx context.Context, d *models.Dose) error {
	if _, err := s.db.ExecContext(ctx, insertDose, doseArgs(d)...); err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create dose: %w", err)
	}
	return nil
}

// CreateBatch inserts provisioned doses. When ctx carries no transaction
// the inserts run individually; the assignment store's creation transaction
// is the intended caller and provides atomicity via CreateBatchTx.
func (s *Postgres) CreateBatch(ctx context.Context, doses []models.Dose) error {
	for i := range doses {
		if err := s.Create(ctx, &doses[i]); err != nil {
			return err
		}
	}
	return nil
}

// CreateBatchTx inserts doses inside an existing transaction. The
// assignment store calls this so an assignment and its doses commit or
// roll back together.
func CreateBatchTx(ctx context.Context, tx *sql.Tx, doses []models.Dose) error {
	for i := range doses {
		if _, err := tx.ExecContext(ctx, insertDose, doseArgs(&doses[i])...); err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("create dose: %w", err)
		}
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, orgID id.OrgID, doseID id.DoseID) (*models.Dose, error) {
	query := `SELECT ` + doseColumns + ` FROM doses WHERE id = $1 AND org_id = $2`
	d, err := scanDose(s.db.QueryRowContext(ctx, query, uuid.UUID(doseID), uuid.UUID(orgID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find dose: %w", err)
	}
	return d, nil
}

func (s *Postgres) ListByAssignment(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) ([]models.Dose, error) {
	query := `SELECT ` + doseColumns + `
		FROM doses
		WHERE org_id = $1 AND assignment_id = $2
		ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(orgID), uuid.UUID(assignmentID))
	if err != nil {
		return nil, fmt.Errorf("list doses by assignment: %w", err)
	}
	defer rows.Close()

	var out []models.Dose
	for rows.Next() {
		d, err := scanDose(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dose: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doses: %w", err)
	}
	return out, nil
}

func (s *Postgres) List(ctx context.Context, orgID id.OrgID, f Filter, offset, limit int) ([]*models.Dose, int, error) {
	where, args := buildDoseWhere(orgID, f)

	var total int
	countQuery := `SELECT count(*) FROM doses ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doses: %w", err)
	}

	pageQuery := fmt.Sprintf(`SELECT %s FROM doses %s ORDER BY created_at, id OFFSET $%d LIMIT $%d`,
		doseColumns, where, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, pageQuery, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list doses: %w", err)
	}
	defer rows.Close()

	var out []*models.Dose
	for rows.Next() {
		d, err := scanDose(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan dose: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate doses: %w", err)
	}
	return out, total, nil
}

func buildDoseWhere(orgID id.OrgID, f Filter) (string, []any) {
	conds := []string{"org_id = $1"}
	args := []any{uuid.UUID(orgID)}

	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.AssignmentID != nil {
		add("assignment_id = $%d", uuid.UUID(*f.AssignmentID))
	}
	if f.PatientID != nil {
		add("patient_id = $%d", uuid.UUID(*f.PatientID))
	}
	if f.ProtocolID != nil {
		add("protocol_id = $%d", uuid.UUID(*f.ProtocolID))
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.Enabled != nil {
		add("enabled = $%d", *f.Enabled)
	}
	if f.ScheduledFrom != nil {
		add("scheduled_date >= $%d", *f.ScheduledFrom)
	}
	if f.ScheduledTo != nil {
		add("scheduled_date <= $%d", *f.ScheduledTo)
	}
	if f.AdministeredFrom != nil {
		add("administered_date >= $%d", *f.AdministeredFrom)
	}
	if f.AdministeredTo != nil {
		add("administered_date <= $%d", *f.AdministeredTo)
	}
	if f.VaccineNameContains != "" {
		add("vaccine_name ILIKE $%d", "%"+f.VaccineNameContains+"%")
	}
	if f.NotesContain != "" {
		add("notes ILIKE $%d", "%"+f.NotesContain+"%")
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// Execute loads the row under FOR UPDATE, runs the guards against that
// fresh copy, applies the mutation, and commits. Two racing transitions on
// the same dose serialize on the row lock, so the loser's validate sees
// the winner's terminal state.
func (s *Postgres) Execute(ctx context.Context, orgID id.OrgID, doseID id.DoseID,
	validate func(*models.Dose) error,
	mutate func(*models.Dose)) (*models.Dose, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin dose tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + doseColumns + ` FROM doses WHERE id = $1 AND org_id = $2 FOR UPDATE`
	d, err := scanDose(tx.QueryRowContext(ctx, query, uuid.UUID(doseID), uuid.UUID(orgID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock dose: %w", err)
	}

	if err := validate(d); err != nil {
		return nil, err
	}
	mutate(d)

	const update = `
		UPDATE doses SET
			entry_id = $2, vaccine_name = $3, application_age = $4,
			validity = $5, is_mandatory = $6, enabled = $7,
			scheduled_date = $8, administered_date = $9, status = $10,
			notes = $11, updated_at = $12
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		uuid.UUID(d.ID), uuid.UUID(d.EntryID), d.VaccineName, d.ApplicationAge,
		d.ValidityMonths, d.Mandatory, d.Enabled,
		d.ScheduledDate, d.AdministeredDate, string(d.Status),
		d.Notes, d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("update dose: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit dose tx: %w", err)
	}
	return d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDose(row rowScanner) (*models.Dose, error) {
	var (
		d                                            models.Dose
		rawID, rawOrg, rawAssign, rawPatient, rawProt, rawEntry uuid.UUID
		status                                       string
	)
	err := row.Scan(
		&rawID, &rawOrg, &rawAssign, &rawPatient, &rawProt, &rawEntry,
		&d.VaccineName, &d.ApplicationAge, &d.ValidityMonths, &d.Mandatory,
		&d.Enabled, &d.ScheduledDate, &d.AdministeredDate, &status, &d.Notes,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.ID = id.DoseID(rawID)
	d.OrgID = id.OrgID(rawOrg)
	d.AssignmentID = id.AssignmentID(rawAssign)
	d.PatientID = id.PatientID(rawPatient)
	d.ProtocolID = id.ProtocolID(rawProt)
	d.EntryID = id.EntryID(rawEntry)
	d.Status = models.Status(status)
	return &d, nil
}

func doseArgs(d *models.Dose) []any {
	return []any{
		uuid.UUID(d.ID), uuid.UUID(d.OrgID), uuid.UUID(d.AssignmentID),
		uuid.UUID(d.PatientID), uuid.UUID(d.ProtocolID), uuid.UUID(d.EntryID),
		d.VaccineName, d.ApplicationAge, d.ValidityMonths, d.Mandatory,
		d.Enabled, d.ScheduledDate, d.AdministeredDate, string(d.Status), d.Notes,
		d.CreatedAt, d.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
