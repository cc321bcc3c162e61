package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"dlms/internal/platform/postgres"
	"dlms/internal/procedure/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
	txcontext "dlms/pkg/platform/tx"
)

const oneActiveConstraint = "uq_procedures_one_active"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const (
	procedureColumns = `id, applicant_id, type, class, status,
		documentation_validated, medical_fitness_valid, theory_exam_passed, practical_exam_passed, payment_confirmed,
		theory_attempts, practical_attempts, requested_address, license_id, agent, notes, rejection_reason,
		created_at, updated_at`
	selectProcedures = `SELECT ` + procedureColumns + ` FROM procedures `
)

func (s *PostgresStore) Create(ctx context.Context, p *models.Procedure) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO procedures (`+procedureColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		uuid.UUID(p.ID),
		uuid.UUID(p.ApplicantID),
		string(p.Type),
		string(p.Class),
		string(p.Status),
		p.DocumentationValidated,
		p.MedicalFitnessValid,
		p.TheoryExamPassed,
		p.PracticalExamPassed,
		p.PaymentConfirmed,
		p.TheoryAttempts,
		p.PracticalAttempts,
		p.RequestedAddress,
		nullableLicenseID(p.LicenseID),
		p.Agent,
		p.Notes,
		p.RejectionReason,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, oneActiveConstraint) {
			return sentinel.ErrConflict
		}
		if postgres.IsUniqueViolation(err, "") {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert procedure: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Procedure) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE procedures SET
			status = $2,
			documentation_validated = $3,
			medical_fitness_valid = $4,
			theory_exam_passed = $5,
			practical_exam_passed = $6,
			payment_confirmed = $7,
			theory_attempts = $8,
			practical_attempts = $9,
			license_id = $10,
			agent = $11,
			notes = $12,
			rejection_reason = $13,
			updated_at = $14
		WHERE id = $1
	`,
		uuid.UUID(p.ID),
		string(p.Status),
		p.DocumentationValidated,
		p.MedicalFitnessValid,
		p.TheoryExamPassed,
		p.PracticalExamPassed,
		p.PaymentConfirmed,
		p.TheoryAttempts,
		p.PracticalAttempts,
		nullableLicenseID(p.LicenseID),
		p.Agent,
		p.Notes,
		p.RejectionReason,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update procedure: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error) {
	return s.findOne(ctx, `WHERE id = $1`, uuid.UUID(procedureID))
}

func (s *PostgresStore) FindActiveByApplicant(ctx context.Context, applicantID id.ApplicantID) (*models.Procedure, error) {
	return s.findOne(ctx, `WHERE applicant_id = $1 AND status = ANY($2) LIMIT 1`,
		uuid.UUID(applicantID), pq.Array(statusStrings(models.ActiveStatuses())))
}

func (s *PostgresStore) ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Procedure, error) {
	return s.list(ctx, selectProcedures+`WHERE applicant_id = $1 ORDER BY created_at DESC`, uuid.UUID(applicantID))
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.Procedure, error) {
	return s.list(ctx, selectProcedures+`WHERE status = $1 ORDER BY created_at DESC`, string(status))
}

func (s *PostgresStore) findOne(ctx context.Context, where string, args ...any) (*models.Procedure, error) {
	row := s.execer(ctx).QueryRowContext(ctx, selectProcedures+where, args...)
	p, err := scanProcedure(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find procedure: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Procedure, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query procedures: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Procedure, 0)
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, fmt.Errorf("scan procedure: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate procedures: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProcedure(row scanner) (*models.Procedure, error) {
	var (
		p          models.Procedure
		procedureU uuid.UUID
		applicantU uuid.UUID
		licenseID  uuid.NullUUID
		typ        string
		class      string
		status     string
	)
	if err := row.Scan(
		&procedureU,
		&applicantU,
		&typ,
		&class,
		&status,
		&p.DocumentationValidated,
		&p.MedicalFitnessValid,
		&p.TheoryExamPassed,
		&p.PracticalExamPassed,
		&p.PaymentConfirmed,
		&p.TheoryAttempts,
		&p.PracticalAttempts,
		&p.RequestedAddress,
		&licenseID,
		&p.Agent,
		&p.Notes,
		&p.RejectionReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.ID = id.ProcedureID(procedureU)
	p.ApplicantID = id.ApplicantID(applicantU)
	p.Type = id.ProcedureType(typ)
	p.Class = id.LicenseClass(class)
	p.Status = models.Status(status)
	if licenseID.Valid {
		l := id.LicenseID(licenseID.UUID)
		p.LicenseID = &l
	}
	return &p, nil
}

func nullableLicenseID(l *id.LicenseID) uuid.NullUUID {
	if l == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*l), Valid: true}
}

func statusStrings(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
