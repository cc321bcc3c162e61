package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"dlms/internal/appointment/models"
	resourcemodels "dlms/internal/resource/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
	txcontext "dlms/pkg/platform/tx"
)

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
	appointmentColumns = `id, applicant_id, type, starts_at, ends_at, resource_id, resource_type, status,
		professional, procedure_id, notes, cancellation_reason, created_at, confirmed_at, completed_at, cancelled_at`
	selectAppointments = `SELECT ` + appointmentColumns + ` FROM appointments `
	// closed-interval overlap against $2/$3
	overlapClause = ` starts_at <= $3 AND ends_at >= $2 `
)

func (s *PostgresStore) Create(ctx context.Context, a *models.Appointment) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		uuid.UUID(a.ID),
		uuid.UUID(a.ApplicantID),
		string(a.Type),
		a.StartsAt,
		a.EndsAt,
		uuid.UUID(a.ResourceID),
		string(a.ResourceType),
		string(a.Status),
		a.Professional,
		nullableProcedureID(a.ProcedureID),
		a.Notes,
		a.CancellationReason,
		a.CreatedAt,
		a.ConfirmedAt,
		a.CompletedAt,
		a.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, a *models.Appointment) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE appointments SET
			status = $2,
			professional = $3,
			notes = $4,
			cancellation_reason = $5,
			confirmed_at = $6,
			completed_at = $7,
			cancelled_at = $8
		WHERE id = $1
	`,
		uuid.UUID(a.ID),
		string(a.Status),
		a.Professional,
		a.Notes,
		a.CancellationReason,
		a.ConfirmedAt,
		a.CompletedAt,
		a.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
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

func (s *PostgresStore) FindByID(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	row := s.execer(ctx).QueryRowContext(ctx, selectAppointments+`WHERE id = $1`, uuid.UUID(appointmentID))
	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Appointment, error) {
	return s.list(ctx, selectAppointments+`WHERE applicant_id = $1 ORDER BY starts_at`, uuid.UUID(applicantID))
}

func (s *PostgresStore) ListByResource(ctx context.Context, resourceID id.ResourceID) ([]*models.Appointment, error) {
	return s.list(ctx, selectAppointments+`WHERE resource_id = $1 ORDER BY starts_at`, uuid.UUID(resourceID))
}

func (s *PostgresStore) ListInPeriod(ctx context.Context, from, to time.Time) ([]*models.Appointment, error) {
	return s.list(ctx, selectAppointments+`WHERE starts_at <= $2 AND ends_at >= $1 ORDER BY starts_at`, from, to)
}

func (s *PostgresStore) ListBlockingForResource(ctx context.Context, resourceID id.ResourceID, start, end time.Time) ([]*models.Appointment, error) {
	return s.list(ctx, selectAppointments+`WHERE resource_id = $1 AND`+overlapClause+`AND status = ANY($4) ORDER BY starts_at`,
		uuid.UUID(resourceID), start, end, blockingStatuses())
}

func (s *PostgresStore) ListBlockingForApplicant(ctx context.Context, applicantID id.ApplicantID, typ models.Type, start, end time.Time) ([]*models.Appointment, error) {
	return s.list(ctx, selectAppointments+`WHERE applicant_id = $1 AND`+overlapClause+`AND status = ANY($4) AND type = $5 ORDER BY starts_at`,
		uuid.UUID(applicantID), start, end, blockingStatuses(), string(typ))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Appointment, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner) (*models.Appointment, error) {
	var (
		a            models.Appointment
		appointmentU uuid.UUID
		applicantU   uuid.UUID
		resourceU    uuid.UUID
		procedureID  uuid.NullUUID
		typ          string
		resourceType string
		status       string
		confirmedAt  sql.NullTime
		completedAt  sql.NullTime
		cancelledAt  sql.NullTime
	)
	if err := row.Scan(
		&appointmentU,
		&applicantU,
		&typ,
		&a.StartsAt,
		&a.EndsAt,
		&resourceU,
		&resourceType,
		&status,
		&a.Professional,
		&procedureID,
		&a.Notes,
		&a.CancellationReason,
		&a.CreatedAt,
		&confirmedAt,
		&completedAt,
		&cancelledAt,
	); err != nil {
		return nil, err
	}
	a.ID = id.AppointmentID(appointmentU)
	a.ApplicantID = id.ApplicantID(applicantU)
	a.ResourceID = id.ResourceID(resourceU)
	a.Type = models.Type(typ)
	a.ResourceType = resourcemodels.ResourceType(resourceType)
	a.Status = models.Status(status)
	if procedureID.Valid {
		p := id.ProcedureID(procedureID.UUID)
		a.ProcedureID = &p
	}
	a.ConfirmedAt = nullTime(confirmedAt)
	a.CompletedAt = nullTime(completedAt)
	a.CancelledAt = nullTime(cancelledAt)
	return &a, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func nullableProcedureID(p *id.ProcedureID) uuid.NullUUID {
	if p == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*p), Valid: true}
}

func blockingStatuses() any {
	statuses := models.BlockingStatuses()
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return pq.Array(out)
}
