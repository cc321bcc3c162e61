package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dlms/internal/applicant/models"
	"dlms/internal/platform/postgres"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
	txcontext "dlms/pkg/platform/tx"
	"dlms/pkg/requestcontext"
)

// PostgresStore persists applicants and their disqualifications.
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

func (s *PostgresStore) Create(ctx context.Context, a *models.Applicant) error {
	query := `
		INSERT INTO applicants (
			id, national_id, first_name, last_name, birth_date, address, email, phone, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID),
		a.NationalID,
		a.FirstName,
		a.LastName,
		a.BirthDate,
		a.Address,
		a.Email,
		a.Phone,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert applicant: %w", err)
	}
	for _, d := range a.Disqualifications {
		if err := s.AddDisqualification(ctx, a.ID, d); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, applicantID id.ApplicantID) (*models.Applicant, error) {
	return s.findOne(ctx, `WHERE id = $1`, uuid.UUID(applicantID))
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID string) (*models.Applicant, error) {
	return s.findOne(ctx, `WHERE national_id = $1`, nationalID)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.Applicant, error) {
	query := `
		SELECT id, national_id, first_name, last_name, birth_date, address, email, phone, created_at, updated_at
		FROM applicants ` + where
	var (
		a          models.Applicant
		applicantU uuid.UUID
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, arg).Scan(
		&applicantU,
		&a.NationalID,
		&a.FirstName,
		&a.LastName,
		&a.BirthDate,
		&a.Address,
		&a.Email,
		&a.Phone,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find applicant: %w", err)
	}
	a.ID = id.ApplicantID(applicantU)

	disqualifications, err := s.disqualifications(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Disqualifications = disqualifications
	return &a, nil
}

func (s *PostgresStore) disqualifications(ctx context.Context, applicantID id.ApplicantID) ([]models.Disqualification, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT reason, starts_at, ends_at
		FROM applicant_disqualifications
		WHERE applicant_id = $1
		ORDER BY starts_at ASC
	`, uuid.UUID(applicantID))
	if err != nil {
		return nil, fmt.Errorf("query disqualifications: %w", err)
	}
	defer rows.Close()

	var out []models.Disqualification
	for rows.Next() {
		var (
			d     models.Disqualification
			until sql.NullTime
		)
		if err := rows.Scan(&d.Reason, &d.From, &until); err != nil {
			return nil, fmt.Errorf("scan disqualification: %w", err)
		}
		if until.Valid {
			t := until.Time
			d.Until = &t
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate disqualifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateAddress(ctx context.Context, applicantID id.ApplicantID, address string) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE applicants SET address = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(applicantID), address, requestcontext.Now(ctx),
	)
	if err != nil {
		return fmt.Errorf("update applicant address: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) AddDisqualification(ctx context.Context, applicantID id.ApplicantID, d models.Disqualification) error {
	var until sql.NullTime
	if d.Until != nil {
		until = sql.NullTime{Time: *d.Until, Valid: true}
	}
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO applicant_disqualifications (applicant_id, reason, starts_at, ends_at)
		SELECT id, $2, $3, $4 FROM applicants WHERE id = $1
	`, uuid.UUID(applicantID), d.Reason, d.From, until)
	if err != nil {
		return fmt.Errorf("insert disqualification: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
