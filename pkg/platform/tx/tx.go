// Package tx defines the unit of work used by every check-then-write sequence.
//
// A Runner serializes work per key ("applicant:<id>", "resource:<id>") so that
// two callers targeting the same applicant or resource never interleave their
// read-decide-write steps, while callers on unrelated keys proceed in parallel.
package tx

import (
	"context"
	"database/sql"
	"slices"
	"time"
)

type ctxKey struct{}

var txKey = ctxKey{}

// defaultTimeout bounds a unit of work when the caller set no deadline.
const defaultTimeout = 5 * time.Second

// Runner executes fn while holding exclusive access to every key.
// fn receives a derived context; stores must use that context so a Postgres
// transaction, when present, is picked up.
type Runner interface {
	RunInTx(ctx context.Context, keys []string, fn func(ctx context.Context) error) error
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// ApplicantKey and ResourceKey build the lock keys shared by every module.
func ApplicantKey(id string) string { return "applicant:" + id }
func ResourceKey(id string) string  { return "resource:" + id }

// normalizeKeys sorts and dedupes keys so every caller acquires locks in the
// same order.
func normalizeKeys(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
