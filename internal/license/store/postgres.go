package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dlms/internal/license/models"
	"dlms/internal/platform/postgres"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
	txcontext "dlms/pkg/platform/tx"
)

const oneValidConstraint = "uq_licenses_one_valid"

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
	licenseColumns = `id, applicant_id, class, number, issued_at, expires_at, status, procedure_id, superseded_by, notes, created_at, updated_at`
	selectLicenses = `SELECT ` + licenseColumns + ` FROM licenses `
)

// Create skips the row on a number collision instead of raising, so the
// surrounding transaction stays usable for the next candidate number.
func (s *PostgresStore) Create(ctx context.Context, l *models.License) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO licenses (`+licenseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (number) DO NOTHING
	`,
		uuid.UUID(l.ID),
		uuid.UUID(l.ApplicantID),
		string(l.Class),
		l.Number,
		l.IssuedAt,
		l.ExpiresAt,
		string(l.Status),
		uuid.UUID(l.ProcedureID),
		nullableLicenseID(l.SupersededBy),
		l.Notes,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, oneValidConstraint) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert license: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, l *models.License) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE licenses
		SET status = $2, superseded_by = $3, notes = $4, updated_at = $5
		WHERE id = $1
	`, uuid.UUID(l.ID), string(l.Status), nullableLicenseID(l.SupersededBy), l.Notes, l.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, oneValidConstraint) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update license: %w", err)
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

func (s *PostgresStore) FindByID(ctx context.Context, licenseID id.LicenseID) (*models.License, error) {
	return s.findOne(ctx, `WHERE id = $1`, uuid.UUID(licenseID))
}

func (s *PostgresStore) FindByNumber(ctx context.Context, number string) (*models.License, error) {
	return s.findOne(ctx, `WHERE number = $1`, number)
}

func (s *PostgresStore) ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.License, error) {
	return s.list(ctx, selectLicenses+`WHERE applicant_id = $1 ORDER BY issued_at DESC, created_at DESC`, uuid.UUID(applicantID))
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.License, error) {
	return s.list(ctx, selectLicenses+`WHERE status = $1 ORDER BY issued_at DESC, created_at DESC`, string(status))
}

func (s *PostgresStore) ListValidExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.License, error) {
	return s.list(ctx, selectLicenses+`
		WHERE status = 'valid' AND expires_at >= $1 AND expires_at <= $2
		ORDER BY expires_at ASC
	`, from, to)
}

func (s *PostgresStore) ExpireBefore(ctx context.Context, day, now time.Time) ([]*models.License, error) {
	return s.list(ctx, `
		UPDATE licenses SET status = 'expired', updated_at = $2
		WHERE status = 'valid' AND expires_at < $1
		RETURNING `+licenseColumns, day, now)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.License, error) {
	row := s.execer(ctx).QueryRowContext(ctx, selectLicenses+where, arg)
	l, err := scanLicense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find license: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.License, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query licenses: %w", err)
	}
	defer rows.Close()

	out := make([]*models.License, 0)
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan license: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate licenses: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLicense(row scanner) (*models.License, error) {
	var (
		l            models.License
		licenseU     uuid.UUID
		applicantU   uuid.UUID
		procedureU   uuid.UUID
		supersededBy uuid.NullUUID
		class        string
		status       string
	)
	if err := row.Scan(
		&licenseU,
		&applicantU,
		&class,
		&l.Number,
		&l.IssuedAt,
		&l.ExpiresAt,
		&status,
		&procedureU,
		&supersededBy,
		&l.Notes,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.ID = id.LicenseID(licenseU)
	l.ApplicantID = id.ApplicantID(applicantU)
	l.ProcedureID = id.ProcedureID(procedureU)
	l.Class = id.LicenseClass(class)
	l.Status = models.Status(status)
	if supersededBy.Valid {
		by := id.LicenseID(supersededBy.UUID)
		l.SupersededBy = &by
	}
	return &l, nil
}

func nullableLicenseID(v *id.LicenseID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}
