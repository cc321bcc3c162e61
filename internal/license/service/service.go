// Package service is the license issuance engine. It picks validity periods,
// expiry preservation and supersession per procedure type, and owns the
// suspend, disqualify, reinstate and expiry transitions.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	applicantmodels "dlms/internal/applicant/models"
	"dlms/internal/license/metrics"
	"dlms/internal/license/models"
	"dlms/internal/platform/tracing"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/audit"
	"dlms/pkg/platform/sentinel"
	"dlms/pkg/platform/tx"
	"dlms/pkg/requestcontext"
)

// DefaultMaxNumberAttempts bounds license-number regeneration on collision.
const DefaultMaxNumberAttempts = 20

type Store interface {
	Create(ctx context.Context, l *models.License) error
	Update(ctx context.Context, l *models.License) error
	FindByID(ctx context.Context, licenseID id.LicenseID) (*models.License, error)
	FindByNumber(ctx context.Context, number string) (*models.License, error)
	ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.License, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.License, error)
	ListValidExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.License, error)
	ExpireBefore(ctx context.Context, day, now time.Time) ([]*models.License, error)
}

type ApplicantRegistry interface {
	FindByID(ctx context.Context, applicantID id.ApplicantID) (*applicantmodels.Applicant, error)
	UpdateAddress(ctx context.Context, applicantID id.ApplicantID, address string) error
}

// IssueRequest carries what the workflow engine knows about a completed
// procedure.
type IssueRequest struct {
	ProcedureID      id.ProcedureID
	ApplicantID      id.ApplicantID
	ProcedureType    id.ProcedureType
	Class            id.LicenseClass
	RequestedAddress string
	Notes            string
}

type Service struct {
	store       Store
	applicants  ApplicantRegistry
	tx          tx.Runner
	logger      *slog.Logger
	emitter     *audit.Emitter
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	maxAttempts int
	serial      func() int
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

// WithNumberSource replaces the random six-digit serial generator.
func WithNumberSource(serial func() int) Option {
	return func(s *Service) { s.serial = serial }
}

func WithMaxNumberAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func New(store Store, applicants ApplicantRegistry, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:       store,
		applicants:  applicants,
		tx:          runner,
		tracer:      tracing.Tracer("dlms/license"),
		maxAttempts: DefaultMaxNumberAttempts,
		serial:      func() int { return rand.IntN(1_000_000) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates the license for a completed procedure. The caller is the
// workflow engine, normally from inside its own unit of work on the same
// applicant key; the nested RunInTx joins it.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (_ *models.License, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "license.Issue",
		attribute.String("procedure_type", string(req.ProcedureType)),
		attribute.String("class", string(req.Class)),
	)
	defer func() { end(err) }()
	start := time.Now()

	if !req.ProcedureType.IsValid() || !req.Class.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "procedure type and license class are required")
	}
	if req.ProcedureID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "procedure id is required")
	}
	address := strings.TrimSpace(req.RequestedAddress)
	if req.ProcedureType == id.ProcedureAddressChange && address == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "address change requires a requested address")
	}

	var (
		issued *models.License
		events []audit.Event
	)
	err = s.tx.RunInTx(ctx, []string{tx.ApplicantKey(req.ApplicantID.String())}, func(ctx context.Context) (err error) {
		applicant, err := s.applicants.FindByID(ctx, req.ApplicantID)
		if err != nil {
			return translateApplicant(err)
		}
		now := requestcontext.Now(ctx)
		issueDate := models.StartOfDay(now)

		ofClass, stale, err := s.licensesOfClass(ctx, req.ApplicantID, req.Class, issueDate)
		if err != nil {
			return err
		}

		current := currentlyValid(ofClass, issueDate)
		var replaced *models.License
		switch req.ProcedureType {
		case id.ProcedureFirstIssuance:
			if current != nil {
				return dErrors.Newf(dErrors.CodeConflict, "applicant already holds a valid class %s license", req.Class)
			}
		case id.ProcedureRenewal:
			replaced = mostRecent(ofClass, models.StatusValid, models.StatusExpired)
		case id.ProcedureDuplicate, id.ProcedureAddressChange:
			if current == nil {
				return dErrors.Newf(dErrors.CodeInvalidState, "no valid class %s license to replace", req.Class)
			}
			replaced = current
		}

		years := models.ValidityYears(applicant.AgeAt(issueDate), len(ofClass) == 0)
		expiresAt := issueDate.AddDate(years, 0, 0)
		if req.ProcedureType.PreservesExpiry() {
			expiresAt = replaced.ExpiresAt
		}

		l := &models.License{
			ID:          id.NewLicenseID(),
			ApplicantID: req.ApplicantID,
			Class:       req.Class,
			IssuedAt:    issueDate,
			ExpiresAt:   expiresAt,
			Status:      models.StatusValid,
			ProcedureID: req.ProcedureID,
			Notes:       strings.TrimSpace(req.Notes),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		// Writes start here. Without a SQL transaction nothing rolls back,
		// so each write registers the step that reverts it.
		var undo compensation
		defer func() {
			if err != nil {
				undo.run(ctx, s.logger)
			}
		}()

		for _, e := range stale {
			if err := s.store.Update(ctx, e.license); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire overdue license")
			}
			undo.add(s.restoreLicense(e.before))
			events = append(events, licenseEvent(e.license, audit.EventLicenseExpired, "expired at issuance"))
		}

		// The replaced license stops being valid before the new one is
		// written so the one-valid-per-class index never sees two.
		if replaced != nil {
			before := *replaced
			replaced.ApplySupersede(l.ID, now)
			if err := s.store.Update(ctx, replaced); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to supersede license")
			}
			undo.add(s.restoreLicense(before))
		}

		if req.ProcedureType == id.ProcedureAddressChange {
			if err := s.applicants.UpdateAddress(ctx, req.ApplicantID, address); err != nil {
				return translateApplicant(err)
			}
			previous := applicant.Address
			undo.add(func(ctx context.Context) error {
				return s.applicants.UpdateAddress(ctx, req.ApplicantID, previous)
			})
		}

		if err := s.createWithFreshNumber(ctx, l, issueDate); err != nil {
			return err
		}

		if replaced != nil {
			events = append(events, licenseEvent(replaced, audit.EventLicenseSuperseded, "superseded by "+l.ID.String()))
		}
		events = append(events, licenseEvent(l, audit.EventLicenseIssued, string(req.ProcedureType)))
		if req.ProcedureType == id.ProcedureAddressChange {
			events = append(events, audit.Event{
				ApplicantID: req.ApplicantID,
				Subject:     req.ApplicantID.String(),
				Action:      string(audit.EventApplicantRelocated),
			})
		}
		issued = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementIssued(string(req.ProcedureType), string(req.Class))
		s.metrics.ObserveIssue(start)
	}
	s.emit(ctx, events...)
	return issued, nil
}

// overdue is a license still flagged valid past its expiry, already flipped
// to expired in memory, plus the stored state it replaces.
type overdue struct {
	license *models.License
	before  models.License
}

// licensesOfClass lists the applicant's licenses of one class. Licenses still
// flagged valid past their expiry are reported expired so they cannot shadow
// or collide with the license being issued; nothing is written here.
func (s *Service) licensesOfClass(ctx context.Context, applicantID id.ApplicantID, class id.LicenseClass, day time.Time) (ofClass []*models.License, stale []overdue, err error) {
	all, err := s.store.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list licenses")
	}
	now := requestcontext.Now(ctx)
	for _, l := range all {
		if l.Class != class {
			continue
		}
		if l.Status == models.StatusValid && l.ExpiresAt.Before(day) {
			before := *l
			l.Status = models.StatusExpired
			l.UpdatedAt = now
			stale = append(stale, overdue{license: l, before: before})
		}
		ofClass = append(ofClass, l)
	}
	return ofClass, stale, nil
}

func (s *Service) restoreLicense(before models.License) func(context.Context) error {
	return func(ctx context.Context) error {
		return s.store.Update(ctx, &before)
	}
}

// compensation reverts the writes of a failed in-memory unit of work, newest
// first. Under a SQL transaction the rollback does this instead.
type compensation []func(context.Context) error

func (c *compensation) add(step func(context.Context) error) {
	*c = append(*c, step)
}

func (c compensation) run(ctx context.Context, logger *slog.Logger) {
	if _, inSQL := tx.From(ctx); inSQL {
		return
	}
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil && logger != nil {
			logger.ErrorContext(ctx, "failed to revert license issuance step", "error", err)
		}
	}
}

func (s *Service) createWithFreshNumber(ctx context.Context, l *models.License, issueDate time.Time) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		l.Number = models.FormatNumber(issueDate, s.serial())
		err := s.store.Create(ctx, l)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			if s.metrics != nil {
				s.metrics.IncrementCollision()
			}
			continue
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.Newf(dErrors.CodeConflict, "applicant already holds a valid class %s license", l.Class)
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create license")
		}
	}
	if s.metrics != nil {
		s.metrics.IncrementExhausted()
	}
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "license number generation exhausted",
			"applicant_id", l.ApplicantID.String(),
			"procedure_id", l.ProcedureID.String(),
			"attempts", s.maxAttempts,
		)
	}
	return dErrors.Newf(dErrors.CodeGenerationExhausted, "no free license number after %d attempts", s.maxAttempts)
}

// Suspend moves a valid license to suspended.
func (s *Service) Suspend(ctx context.Context, licenseID id.LicenseID, reason string) (*models.License, error) {
	return s.transition(ctx, licenseID, audit.EventLicenseSuspended, reason, func(l *models.License, now time.Time) error {
		if err := l.CanSuspend(); err != nil {
			return err
		}
		l.ApplySuspend(reason, now)
		return nil
	})
}

// Disqualify is accepted from every status except disqualified.
func (s *Service) Disqualify(ctx context.Context, licenseID id.LicenseID, reason string) (*models.License, error) {
	return s.transition(ctx, licenseID, audit.EventLicenseDisqualified, reason, func(l *models.License, now time.Time) error {
		if err := l.CanDisqualify(); err != nil {
			return err
		}
		l.ApplyDisqualify(reason, now)
		return nil
	})
}

// Reinstate returns a suspended license to valid when it has not expired and
// no other license of the class became valid meanwhile.
func (s *Service) Reinstate(ctx context.Context, licenseID id.LicenseID) (*models.License, error) {
	return s.transition(ctx, licenseID, audit.EventLicenseReinstated, "", func(l *models.License, now time.Time) error {
		if err := l.CanReinstate(now); err != nil {
			return err
		}
		l.ApplyReinstate(now)
		return nil
	})
}

func (s *Service) transition(ctx context.Context, licenseID id.LicenseID, action audit.Action, reason string, apply func(*models.License, time.Time) error) (*models.License, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" && action != audit.EventLicenseReinstated {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	l, err := s.Get(ctx, licenseID)
	if err != nil {
		return nil, err
	}

	var updated *models.License
	err = s.tx.RunInTx(ctx, []string{tx.ApplicantKey(l.ApplicantID.String())}, func(ctx context.Context) error {
		l, err := s.Get(ctx, licenseID)
		if err != nil {
			return err
		}
		if err := apply(l, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.store.Update(ctx, l); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Newf(dErrors.CodeConflict, "another class %s license is already valid", l.Class)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update license")
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, licenseEvent(updated, action, reason))
	return updated, nil
}

// ExpireOverdue flips every valid license whose expiry is before today to
// expired and returns how many changed. It touches licenses only and takes no
// applicant keys.
func (s *Service) ExpireOverdue(ctx context.Context, today time.Time) (_ int, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "license.ExpireOverdue")
	defer func() { end(err) }()

	expired, err := s.store.ExpireBefore(ctx, models.StartOfDay(today), requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire licenses")
	}
	if s.metrics != nil {
		s.metrics.AddExpired(len(expired))
	}
	events := make([]audit.Event, 0, len(expired))
	for _, l := range expired {
		events = append(events, licenseEvent(l, audit.EventLicenseExpired, "expiry sweep"))
	}
	s.emit(ctx, events...)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "license expiry sweep finished", "expired", len(expired), "day", today.Format(time.DateOnly))
	}
	return len(expired), nil
}

func (s *Service) Get(ctx context.Context, licenseID id.LicenseID) (*models.License, error) {
	l, err := s.store.FindByID(ctx, licenseID)
	if err != nil {
		return nil, translateLicense(err)
	}
	return l, nil
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*models.License, error) {
	l, err := s.store.FindByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return nil, translateLicense(err)
	}
	return l, nil
}

func (s *Service) ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.License, error) {
	out, err := s.store.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list licenses")
	}
	return out, nil
}

// ListExpiringWithin returns valid licenses expiring between today and
// today+days, both inclusive.
func (s *Service) ListExpiringWithin(ctx context.Context, days int) ([]*models.License, error) {
	if days < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "days must not be negative")
	}
	today := models.StartOfDay(requestcontext.Now(ctx))
	out, err := s.store.ListValidExpiringBetween(ctx, today, today.AddDate(0, 0, days))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expiring licenses")
	}
	return out, nil
}

func (s *Service) ListExpired(ctx context.Context) ([]*models.License, error) {
	out, err := s.store.ListByStatus(ctx, models.StatusExpired)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expired licenses")
	}
	return out, nil
}

func currentlyValid(ls []*models.License, day time.Time) *models.License {
	for _, l := range ls {
		if l.IsCurrentlyValid(day) {
			return l
		}
	}
	return nil
}

// mostRecent returns the license with the latest expiry among the given
// statuses, or nil.
func mostRecent(ls []*models.License, statuses ...models.Status) *models.License {
	var best *models.License
	for _, l := range ls {
		match := false
		for _, st := range statuses {
			if l.Status == st {
				match = true
				break
			}
		}
		if match && (best == nil || l.ExpiresAt.After(best.ExpiresAt)) {
			best = l
		}
	}
	return best
}

func licenseEvent(l *models.License, action audit.Action, reason string) audit.Event {
	return audit.Event{
		ApplicantID: l.ApplicantID,
		Subject:     l.ID.String(),
		Action:      string(action),
		Reason:      reason,
	}
}

func (s *Service) emit(ctx context.Context, events ...audit.Event) {
	for _, e := range events {
		_ = s.emitter.Emit(ctx, e)
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

func translateLicense(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "license not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load license")
}
