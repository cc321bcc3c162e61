// Package audit carries domain events from services to sinks: an in-memory
// store for tests and single-process deployments, a Postgres event table, and
// a Kafka topic.
package audit

import (
	"context"
	"log/slog"

	id "dlms/pkg/domain"
	"dlms/pkg/requestcontext"
)

// Publisher accepts events for delivery.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists events and serves them back per applicant.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]Event, error)
}

// Emitter logs an event and forwards it to the publisher. Publish failures are
// logged at warn level and returned so callers can decide; services treat them
// as non-fatal because the unit of work has already committed.
type Emitter struct {
	logger    *slog.Logger
	publisher Publisher
}

func NewEmitter(logger *slog.Logger, publisher Publisher) *Emitter {
	return &Emitter{logger: logger, publisher: publisher}
}

// Emit fills timestamp, category and request correlation from ctx, logs the
// event with attrs and publishes it. A nil Emitter is a no-op.
func (e *Emitter) Emit(ctx context.Context, event Event, attrs ...any) error {
	if e == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = Action(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Agent == "" {
		event.Agent = requestcontext.Agent(ctx)
	}

	if e.logger != nil {
		args := append(attrs,
			"event", event.Action,
			"subject", event.Subject,
			"log_type", "audit",
		)
		if !event.ApplicantID.IsNil() {
			args = append(args, "applicant_id", event.ApplicantID.String())
		}
		if event.RequestID != "" {
			args = append(args, "request_id", event.RequestID)
		}
		e.logger.InfoContext(ctx, event.Action, args...)
	}

	if e.publisher == nil {
		return nil
	}
	if err := e.publisher.Emit(ctx, event); err != nil {
		if e.logger != nil {
			e.logger.WarnContext(ctx, "failed to publish audit event",
				"event", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
		return err
	}
	return nil
}
