// Package service is the appointment scheduler. Booking runs under both the
// applicant and the resource key, so neither overlap rule can be raced.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	applicantmodels "dlms/internal/applicant/models"
	"dlms/internal/appointment/metrics"
	"dlms/internal/appointment/models"
	"dlms/internal/platform/tracing"
	proceduremodels "dlms/internal/procedure/models"
	resourcemodels "dlms/internal/resource/models"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/audit"
	"dlms/pkg/platform/sentinel"
	"dlms/pkg/platform/tx"
	"dlms/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, a *models.Appointment) error
	Update(ctx context.Context, a *models.Appointment) error
	FindByID(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error)
	ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Appointment, error)
	ListByResource(ctx context.Context, resourceID id.ResourceID) ([]*models.Appointment, error)
	ListInPeriod(ctx context.Context, from, to time.Time) ([]*models.Appointment, error)
	ListBlockingForResource(ctx context.Context, resourceID id.ResourceID, start, end time.Time) ([]*models.Appointment, error)
	ListBlockingForApplicant(ctx context.Context, applicantID id.ApplicantID, typ models.Type, start, end time.Time) ([]*models.Appointment, error)
}

type ApplicantRegistry interface {
	FindByID(ctx context.Context, applicantID id.ApplicantID) (*applicantmodels.Applicant, error)
}

type ResourceRegistry interface {
	FindByID(ctx context.Context, resourceID id.ResourceID) (*resourcemodels.Resource, error)
}

// ProcedureFinder resolves the optional procedure a booking refers to.
type ProcedureFinder interface {
	Get(ctx context.Context, procedureID id.ProcedureID) (*proceduremodels.Procedure, error)
}

type Service struct {
	store      Store
	applicants ApplicantRegistry
	resources  ResourceRegistry
	procedures ProcedureFinder
	tx         tx.Runner
	logger     *slog.Logger
	emitter    *audit.Emitter
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditEmitter(e *audit.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

// WithProcedureFinder enables the check that a referenced procedure belongs
// to the booking applicant.
func WithProcedureFinder(p ProcedureFinder) Option {
	return func(s *Service) { s.procedures = p }
}

func New(store Store, applicants ApplicantRegistry, resources ResourceRegistry, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:      store,
		applicants: applicants,
		resources:  resources,
		tx:         runner,
		tracer:     tracing.Tracer("dlms/appointment"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book reserves a slot. After input validation the checks run in order:
// resource active, applicant overlap for the same type, resource overlap,
// operating hours.
func (s *Service) Book(ctx context.Context, req models.BookRequest) (_ *models.Appointment, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "appointment.Book",
		attribute.String("resource_id", req.ResourceID.String()),
		attribute.String("type", req.Type),
	)
	defer func() { end(err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveBook(time.Now())
	}

	typ, err := req.Validate()
	if err != nil {
		return nil, err
	}

	keys := []string{tx.ApplicantKey(req.ApplicantID.String()), tx.ResourceKey(req.ResourceID.String())}
	var booked *models.Appointment
	err = s.tx.RunInTx(ctx, keys, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		applicant, err := s.applicants.FindByID(ctx, req.ApplicantID)
		if err != nil {
			return translate(err, "applicant")
		}
		if applicant.HasActiveDisqualification(now) {
			return dErrors.New(dErrors.CodeEligibility, "applicant has an active disqualification")
		}
		if req.ProcedureID != nil && s.procedures != nil {
			p, err := s.procedures.Get(ctx, *req.ProcedureID)
			if err != nil {
				return err
			}
			if p.ApplicantID != req.ApplicantID {
				return dErrors.New(dErrors.CodeInvalidInput, "procedure belongs to another applicant")
			}
		}

		resource, err := s.resources.FindByID(ctx, req.ResourceID)
		if err != nil {
			return translate(err, "resource")
		}
		if !resource.Active {
			return s.refuse("inactive", dErrors.Newf(dErrors.CodeInvalidState, "resource %s is inactive", resource.Name))
		}

		clashes, err := s.store.ListBlockingForApplicant(ctx, req.ApplicantID, typ, req.StartsAt, req.EndsAt)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check applicant schedule")
		}
		if len(clashes) > 0 {
			return s.refuse("applicant_overlap", dErrors.Newf(dErrors.CodeConflict, "applicant already has a %s appointment at %s", typ, clashes[0].StartsAt.Format(time.RFC3339)))
		}
		clashes, err = s.store.ListBlockingForResource(ctx, req.ResourceID, req.StartsAt, req.EndsAt)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check resource schedule")
		}
		if len(clashes) > 0 {
			return s.refuse("resource_overlap", dErrors.Newf(dErrors.CodeConflict, "resource %s is booked at %s", resource.Name, clashes[0].StartsAt.Format(time.RFC3339)))
		}
		if !resource.WithinHours(req.StartsAt, req.EndsAt) {
			return s.refuse("outside_hours", dErrors.Newf(dErrors.CodeInvalidInput, "resource %s operates %s-%s", resource.Name, resource.OpensAt, resource.ClosesAt))
		}

		a := &models.Appointment{
			ID:           id.NewAppointmentID(),
			ApplicantID:  req.ApplicantID,
			Type:         typ,
			StartsAt:     req.StartsAt,
			EndsAt:       req.EndsAt,
			ResourceID:   req.ResourceID,
			ResourceType: resource.Type,
			Status:       models.StatusReserved,
			ProcedureID:  req.ProcedureID,
			Notes:        strings.TrimSpace(req.Notes),
			CreatedAt:    now,
		}
		if err := s.store.Create(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create appointment")
		}
		booked = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementBooked(string(typ))
	}
	s.emit(ctx, booked, audit.EventAppointmentBooked, booked.StartsAt.Format(time.RFC3339))
	return booked, nil
}

func (s *Service) refuse(reason string, err error) error {
	if s.metrics != nil {
		s.metrics.IncrementConflict(reason)
	}
	return err
}

// Confirm is only possible for a reserved appointment that has not started.
func (s *Service) Confirm(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	return s.transition(ctx, appointmentID, audit.EventAppointmentConfirmed, "", func(a *models.Appointment, now time.Time) error {
		if err := a.CanConfirm(now); err != nil {
			return err
		}
		a.ApplyConfirm(now)
		return nil
	})
}

func (s *Service) Complete(ctx context.Context, appointmentID id.AppointmentID, notes string) (*models.Appointment, error) {
	return s.transition(ctx, appointmentID, audit.EventAppointmentCompleted, "", func(a *models.Appointment, now time.Time) error {
		if err := a.CanComplete(); err != nil {
			return err
		}
		a.ApplyComplete(notes, now)
		return nil
	})
}

func (s *Service) Cancel(ctx context.Context, appointmentID id.AppointmentID, reason string) (*models.Appointment, error) {
	return s.transition(ctx, appointmentID, audit.EventAppointmentCancelled, reason, func(a *models.Appointment, now time.Time) error {
		if err := a.CanCancel(); err != nil {
			return err
		}
		a.ApplyCancel(reason, now)
		return nil
	})
}

func (s *Service) MarkAbsent(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	return s.transition(ctx, appointmentID, audit.EventAppointmentAbsent, "", func(a *models.Appointment, _ time.Time) error {
		if err := a.CanMarkAbsent(); err != nil {
			return err
		}
		a.ApplyAbsent()
		return nil
	})
}

func (s *Service) AssignProfessional(ctx context.Context, appointmentID id.AppointmentID, name string) (*models.Appointment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "professional name is required")
	}
	return s.transition(ctx, appointmentID, audit.EventProfessionalAssigned, name, func(a *models.Appointment, _ time.Time) error {
		if err := a.CanAssignProfessional(); err != nil {
			return err
		}
		a.ApplyAssignProfessional(name)
		return nil
	})
}

func (s *Service) transition(ctx context.Context, appointmentID id.AppointmentID, action audit.Action, reason string, apply func(*models.Appointment, time.Time) error) (*models.Appointment, error) {
	existing, err := s.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	keys := []string{tx.ApplicantKey(existing.ApplicantID.String()), tx.ResourceKey(existing.ResourceID.String())}

	var updated *models.Appointment
	err = s.tx.RunInTx(ctx, keys, func(ctx context.Context) error {
		a, err := s.Get(ctx, appointmentID)
		if err != nil {
			return err
		}
		if err := apply(a, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.store.Update(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update appointment")
		}
		updated = a
		return nil
	})
	if err != nil {
		if s.logger != nil && dErrors.CodeOf(err) == dErrors.CodeInternal {
			s.logger.ErrorContext(ctx, "appointment transition failed",
				"appointment_id", appointmentID.String(),
				"action", string(action),
				"error", err,
			)
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(updated.Status))
	}
	s.emit(ctx, updated, action, strings.TrimSpace(reason))
	return updated, nil
}

func (s *Service) Get(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	a, err := s.store.FindByID(ctx, appointmentID)
	if err != nil {
		return nil, translate(err, "appointment")
	}
	return a, nil
}

func (s *Service) ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Appointment, error) {
	out, err := s.store.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list appointments")
	}
	return out, nil
}

func (s *Service) ListByResource(ctx context.Context, resourceID id.ResourceID) ([]*models.Appointment, error) {
	out, err := s.store.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list appointments")
	}
	return out, nil
}

// ListInPeriod returns appointments overlapping [from, to].
func (s *Service) ListInPeriod(ctx context.Context, from, to time.Time) ([]*models.Appointment, error) {
	if to.Before(from) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "from must not be after to")
	}
	out, err := s.store.ListInPeriod(ctx, from, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list appointments")
	}
	return out, nil
}

func (s *Service) emit(ctx context.Context, a *models.Appointment, action audit.Action, reason string) {
	_ = s.emitter.Emit(ctx, audit.Event{
		ApplicantID: a.ApplicantID,
		Subject:     a.ID.String(),
		Action:      string(action),
		Reason:      reason,
	}, "appointment_id", a.ID.String(), "resource_id", a.ResourceID.String())
}

func translate(err error, entity string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", entity)
	}
	if dErrors.IsCoded(err) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+entity)
}
