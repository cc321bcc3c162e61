package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "dlms/pkg/domain"
	audit "dlms/pkg/platform/audit"
	txcontext "dlms/pkg/platform/tx"
)

// Store persists domain events in the domain_events table. When called inside
// a unit of work it joins that transaction.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes an event row.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO domain_events (
			id, category, occurred_at, applicant_id, subject, action, reason, agent, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var applicantID *uuid.UUID
	if !event.ApplicantID.IsNil() {
		u := uuid.UUID(event.ApplicantID)
		applicantID = &u
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		string(event.Category),
		event.Timestamp,
		applicantID,
		event.Subject,
		event.Action,
		event.Reason,
		event.Agent,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert domain event: %w", err)
	}
	return nil
}

// Emit implements audit.Publisher.
func (s *Store) Emit(ctx context.Context, event audit.Event) error {
	return s.Append(ctx, event)
}

// ListByApplicant returns events for an applicant, oldest first.
func (s *Store) ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]audit.Event, error) {
	query := `
		SELECT category, occurred_at, applicant_id, subject, action, reason, agent, request_id
		FROM domain_events
		WHERE applicant_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(applicantID))
	if err != nil {
		return nil, fmt.Errorf("query domain events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			category    string
			event       audit.Event
			applicantID *uuid.UUID
		)
		if err := rows.Scan(
			&category,
			&event.Timestamp,
			&applicantID,
			&event.Subject,
			&event.Action,
			&event.Reason,
			&event.Agent,
			&event.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan domain event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if applicantID != nil {
			event.ApplicantID = id.ApplicantID(*applicantID)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate domain events: %w", err)
	}
	return events, nil
}
