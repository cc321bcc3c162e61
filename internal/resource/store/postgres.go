package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dlms/internal/platform/postgres"
	"dlms/internal/resource/models"
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

const resourceColumns = `id, name, type, active, capacity, opens_at, closes_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Resource) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO resources (`+resourceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(r.ID), r.Name, string(r.Type), r.Active, r.Capacity, int(r.OpensAt), int(r.ClosesAt))
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1`, uuid.UUID(resourceID))
	r, err := scanResource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find resource: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListActiveByType(ctx context.Context, typ models.ResourceType) ([]*models.Resource, error) {
	return s.list(ctx, `WHERE active AND type = $1 ORDER BY name`, string(typ))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Resource, error) {
	return s.list(ctx, `ORDER BY name`)
}

func (s *PostgresStore) SetActive(ctx context.Context, resourceID id.ResourceID, active bool) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE resources SET active = $2 WHERE id = $1`, uuid.UUID(resourceID), active)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
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

func (s *PostgresStore) list(ctx context.Context, tail string, args ...any) ([]*models.Resource, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT `+resourceColumns+` FROM resources `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Resource, 0)
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResource(row scanner) (*models.Resource, error) {
	var (
		r        models.Resource
		u        uuid.UUID
		typ      string
		opensAt  int
		closesAt int
	)
	if err := row.Scan(&u, &r.Name, &typ, &r.Active, &r.Capacity, &opensAt, &closesAt); err != nil {
		return nil, err
	}
	r.ID = id.ResourceID(u)
	r.Type = models.ResourceType(typ)
	r.OpensAt = models.TimeOfDay(opensAt)
	r.ClosesAt = models.TimeOfDay(closesAt)
	return &r, nil
}
