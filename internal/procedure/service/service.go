// Package service is the procedure workflow engine. Every check-then-write
// runs in a unit of work keyed by the applicant so the one-active-procedure
// rule and gate transitions hold under concurrent callers.
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
	licensemodels "dlms/internal/license/models"
	licenseservice "dlms/internal/license/service"
	"dlms/internal/platform/tracing"
	"dlms/internal/procedure/metrics"
	"dlms/internal/procedure/models"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/audit"
	"dlms/pkg/platform/sentinel"
	"dlms/pkg/platform/tx"
	"dlms/pkg/requestcontext"
)

// RenewalGraceYears is how long after expiry a license can still be renewed
// instead of requiring a first issuance.
const RenewalGraceYears = 2

type Store interface {
	Create(ctx context.Context, p *models.Procedure) error
	Update(ctx context.Context, p *models.Procedure) error
	FindByID(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error)
	FindActiveByApplicant(ctx context.Context, applicantID id.ApplicantID) (*models.Procedure, error)
	ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Procedure, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Procedure, error)
}

type ApplicantRegistry interface {
	FindByID(ctx context.Context, applicantID id.ApplicantID) (*applicantmodels.Applicant, error)
}

// LicenseIssuer is the license engine as seen from the workflow.
type LicenseIssuer interface {
	Issue(ctx context.Context, req licenseservice.IssueRequest) (*licensemodels.License, error)
	ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*licensemodels.License, error)
}

type Service struct {
	store      Store
	applicants ApplicantRegistry
	licenses   LicenseIssuer
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

func New(store Store, applicants ApplicantRegistry, licenses LicenseIssuer, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:      store,
		applicants: applicants,
		licenses:   licenses,
		tx:         runner,
		tracer:     tracing.Tracer("dlms/procedure"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a procedure after the eligibility checks, in this order:
// applicant exists, type and class valid, address present for address
// changes, no active disqualification, no active procedure, minimum age,
// type-specific license history.
func (s *Service) Start(ctx context.Context, req models.StartRequest) (_ *models.Procedure, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "procedure.Start",
		attribute.String("type", req.Type),
		attribute.String("class", req.Class),
	)
	defer func() { end(err) }()
	defer s.observe("start", time.Now())

	var created *models.Procedure
	err = s.tx.RunInTx(ctx, []string{tx.ApplicantKey(req.ApplicantID.String())}, func(ctx context.Context) error {
		applicant, err := s.applicants.FindByID(ctx, req.ApplicantID)
		if err != nil {
			return translateApplicant(err)
		}
		typ, err := id.ParseProcedureType(req.Type)
		if err != nil {
			return err
		}
		class, err := id.ParseLicenseClass(req.Class)
		if err != nil {
			return err
		}
		address := strings.TrimSpace(req.RequestedAddress)
		if typ == id.ProcedureAddressChange && address == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "requested_address is required for an address change")
		}

		now := requestcontext.Now(ctx)
		if applicant.HasActiveDisqualification(now) {
			return dErrors.New(dErrors.CodeEligibility, "applicant has an active disqualification")
		}
		active, err := s.store.FindActiveByApplicant(ctx, req.ApplicantID)
		switch {
		case err == nil:
			return dErrors.Newf(dErrors.CodeEligibility, "applicant already has an active procedure %s", active.ID)
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up active procedure")
		}
		if age := applicant.AgeAt(now); age < class.MinimumAge() {
			return dErrors.Newf(dErrors.CodeEligibility, "class %s requires age %d, applicant is %d", class, class.MinimumAge(), age)
		}
		if err := s.checkHistory(ctx, req.ApplicantID, typ, class, now); err != nil {
			return err
		}

		p := models.NewProcedure(id.NewProcedureID(), req.ApplicantID, typ, class, now)
		p.RequestedAddress = address
		p.Agent = strings.TrimSpace(req.Agent)
		if p.Agent == "" {
			p.Agent = requestcontext.Agent(ctx)
		}
		p.Notes = strings.TrimSpace(req.Notes)
		if err := s.store.Create(ctx, p); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeEligibility, "applicant already has an active procedure")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create procedure")
		}
		created = p
		return nil
	})
	if err != nil {
		if s.metrics != nil && dErrors.IsCoded(err) {
			s.metrics.IncrementStartRefusal(string(dErrors.CodeOf(err)))
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementStarted(string(created.Type))
	}
	s.emit(ctx, created, audit.EventProcedureStarted, string(created.Type))
	return created, nil
}

// checkHistory applies the license-history rule for the procedure type.
func (s *Service) checkHistory(ctx context.Context, applicantID id.ApplicantID, typ id.ProcedureType, class id.LicenseClass, now time.Time) error {
	all, err := s.licenses.ListByApplicant(ctx, applicantID)
	if err != nil {
		return err
	}
	var (
		current *licensemodels.License
		latest  *licensemodels.License
	)
	for _, l := range all {
		if l.Class != class {
			continue
		}
		if l.IsCurrentlyValid(now) {
			current = l
		}
		if latest == nil || l.ExpiresAt.After(latest.ExpiresAt) {
			latest = l
		}
	}

	switch typ {
	case id.ProcedureFirstIssuance:
		if current != nil {
			return dErrors.Newf(dErrors.CodeEligibility, "applicant already holds a valid class %s license", class)
		}
	case id.ProcedureRenewal:
		if latest == nil {
			return dErrors.Newf(dErrors.CodeEligibility, "no class %s license to renew; request a first issuance", class)
		}
		cutoff := licensemodels.StartOfDay(now).AddDate(-RenewalGraceYears, 0, 0)
		if latest.ExpiresAt.Before(cutoff) {
			return dErrors.Newf(dErrors.CodeEligibility, "class %s license expired more than %d years ago; request a first issuance", class, RenewalGraceYears)
		}
	case id.ProcedureDuplicate, id.ProcedureAddressChange:
		if current == nil {
			return dErrors.Newf(dErrors.CodeEligibility, "%s requires a currently valid class %s license", typ, class)
		}
	}
	return nil
}

func (s *Service) ValidateDocumentation(ctx context.Context, procedureID id.ProcedureID, agent string) (*models.Procedure, error) {
	if strings.TrimSpace(agent) == "" {
		agent = requestcontext.Agent(ctx)
	}
	return s.mutate(ctx, "validate_documentation", procedureID, func(ctx context.Context, p *models.Procedure, now time.Time) (audit.Action, string, error) {
		if err := p.CanValidateDocumentation(); err != nil {
			return "", "", err
		}
		p.ApplyValidateDocumentation(agent, now)
		return audit.EventDocumentationValidated, "", nil
	})
}

func (s *Service) RegisterMedicalFitness(ctx context.Context, procedureID id.ProcedureID, passed bool) (*models.Procedure, error) {
	return s.registerGate(ctx, procedureID, models.GateMedical, passed, audit.EventMedicalFitnessRecorded)
}

func (s *Service) RegisterTheoryExam(ctx context.Context, procedureID id.ProcedureID, passed bool) (*models.Procedure, error) {
	return s.registerGate(ctx, procedureID, models.GateTheory, passed, audit.EventTheoryExamRecorded)
}

func (s *Service) RegisterPracticalExam(ctx context.Context, procedureID id.ProcedureID, passed bool) (*models.Procedure, error) {
	return s.registerGate(ctx, procedureID, models.GatePractical, passed, audit.EventPracticalExamRecorded)
}

// RegisterPayment sets the payment flag when confirmed. An unconfirmed
// payment passes the same checks and leaves the procedure unchanged.
func (s *Service) RegisterPayment(ctx context.Context, procedureID id.ProcedureID, confirmed bool) (*models.Procedure, error) {
	if !confirmed {
		p, err := s.Get(ctx, procedureID)
		if err != nil {
			return nil, err
		}
		if err := p.CanRegister(models.GatePayment); err != nil {
			return nil, err
		}
		return p, nil
	}
	return s.registerGate(ctx, procedureID, models.GatePayment, true, audit.EventPaymentRecorded)
}

func (s *Service) registerGate(ctx context.Context, procedureID id.ProcedureID, gate models.Gate, passed bool, action audit.Action) (*models.Procedure, error) {
	return s.mutate(ctx, "register_"+string(gate), procedureID, func(ctx context.Context, p *models.Procedure, now time.Time) (audit.Action, string, error) {
		if err := p.CanRegister(gate); err != nil {
			return "", "", err
		}
		p.ApplyResult(gate, passed, now)
		if !passed {
			if s.metrics != nil {
				s.metrics.IncrementRejection(string(gate))
			}
			return audit.EventProcedureGateRejected, string(gate), nil
		}
		return action, "passed", nil
	})
}

// AllowRetry leaves a recoverable rejection, clearing the failed gate only.
func (s *Service) AllowRetry(ctx context.Context, procedureID id.ProcedureID, reason string) (*models.Procedure, error) {
	return s.mutate(ctx, "allow_retry", procedureID, func(ctx context.Context, p *models.Procedure, now time.Time) (audit.Action, string, error) {
		if err := p.CanAllowRetry(); err != nil {
			return "", "", err
		}
		p.ApplyRetry(reason, now)
		return audit.EventProcedureRetryAllowed, strings.TrimSpace(reason), nil
	})
}

// IssueLicense hands a ready procedure to the license engine inside the same
// unit of work and marks it issued.
func (s *Service) IssueLicense(ctx context.Context, procedureID id.ProcedureID) (_ *models.Procedure, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "procedure.IssueLicense",
		attribute.String("procedure_id", procedureID.String()),
	)
	defer func() { end(err) }()

	p, err := s.mutate(ctx, "issue_license", procedureID, func(ctx context.Context, p *models.Procedure, now time.Time) (audit.Action, string, error) {
		if err := p.CanIssue(); err != nil {
			return "", "", err
		}
		l, err := s.licenses.Issue(ctx, licenseservice.IssueRequest{
			ProcedureID:      p.ID,
			ApplicantID:      p.ApplicantID,
			ProcedureType:    p.Type,
			Class:            p.Class,
			RequestedAddress: p.RequestedAddress,
			Notes:            p.Notes,
		})
		if err != nil {
			return "", "", err
		}
		p.ApplyIssued(l.ID, now)
		return audit.EventProcedureIssued, l.Number, nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementIssued(string(p.Type))
	}
	return p, nil
}

// Cancel closes a non-terminal procedure so the applicant can start another.
func (s *Service) Cancel(ctx context.Context, procedureID id.ProcedureID, reason string) (*models.Procedure, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	p, err := s.mutate(ctx, "cancel", procedureID, func(ctx context.Context, p *models.Procedure, now time.Time) (audit.Action, string, error) {
		if err := p.CanCancel(); err != nil {
			return "", "", err
		}
		p.ApplyCancel(reason, now)
		return audit.EventProcedureCancelled, reason, nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementCancelled()
	}
	return p, nil
}

// mutate reloads the procedure under its applicant key, applies fn with the
// unit-of-work context and persists the result. fn returns the event to emit
// after commit.
func (s *Service) mutate(ctx context.Context, op string, procedureID id.ProcedureID, fn func(context.Context, *models.Procedure, time.Time) (audit.Action, string, error)) (*models.Procedure, error) {
	defer s.observe(op, time.Now())

	existing, err := s.Get(ctx, procedureID)
	if err != nil {
		return nil, err
	}

	var (
		updated *models.Procedure
		action  audit.Action
		reason  string
	)
	err = s.tx.RunInTx(ctx, []string{tx.ApplicantKey(existing.ApplicantID.String())}, func(ctx context.Context) error {
		p, err := s.Get(ctx, procedureID)
		if err != nil {
			return err
		}
		action, reason, err = fn(ctx, p, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := s.store.Update(ctx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update procedure")
		}
		updated = p
		return nil
	})
	if err != nil {
		if s.logger != nil && dErrors.CodeOf(err) == dErrors.CodeInternal {
			s.logger.ErrorContext(ctx, "procedure operation failed",
				"operation", op,
				"procedure_id", procedureID.String(),
				"error", err,
			)
		}
		return nil, err
	}
	s.emit(ctx, updated, action, reason)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error) {
	p, err := s.store.FindByID(ctx, procedureID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "procedure not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load procedure")
	}
	return p, nil
}

func (s *Service) ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Procedure, error) {
	out, err := s.store.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list procedures")
	}
	return out, nil
}

func (s *Service) ListByStatus(ctx context.Context, status string) ([]*models.Procedure, error) {
	st := models.Status(strings.TrimSpace(status))
	if !st.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown procedure status %q", status)
	}
	out, err := s.store.ListByStatus(ctx, st)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list procedures")
	}
	return out, nil
}

func (s *Service) emit(ctx context.Context, p *models.Procedure, action audit.Action, reason string) {
	_ = s.emitter.Emit(ctx, audit.Event{
		ApplicantID: p.ApplicantID,
		Subject:     p.ID.String(),
		Action:      string(action),
		Reason:      reason,
	}, "procedure_id", p.ID.String(), "status", string(p.Status))
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

func translateApplicant(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "applicant not found")
	}
	if dErrors.IsCoded(err) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applicant")
}
