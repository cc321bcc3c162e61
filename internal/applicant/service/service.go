// Package service is the applicant registry: the collaborator the workflow,
// license and appointment engines query for identity, age and bans.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"dlms/internal/applicant/models"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/audit"
	"dlms/pkg/platform/sentinel"
	"dlms/pkg/platform/tx"
	"dlms/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, a *models.Applicant) error
	FindByID(ctx context.Context, applicantID id.ApplicantID) (*models.Applicant, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Applicant, error)
	UpdateAddress(ctx context.Context, applicantID id.ApplicantID, address string) error
	AddDisqualification(ctx context.Context, applicantID id.ApplicantID, d models.Disqualification) error
}

type Service struct {
	store   Store
	tx      tx.Runner
	logger  *slog.Logger
	emitter *audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditEmitter(e *audit.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

func New(store Store, runner tx.Runner, opts ...Option) *Service {
	s := &Service{store: store, tx: runner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an applicant. The national ID must be unused.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Applicant, error) {
	birthDate, err := req.ParseBirthDate()
	if err != nil {
		return nil, err
	}
	a, err := models.NewApplicant(id.NewApplicantID(), req.NationalID, req.FirstName, req.LastName, birthDate, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	a.Address = strings.TrimSpace(req.Address)
	a.Email = strings.TrimSpace(req.Email)
	a.Phone = strings.TrimSpace(req.Phone)

	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "an applicant with this national_id already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register applicant")
	}
	s.emit(ctx, audit.Event{ApplicantID: a.ID, Subject: a.ID.String(), Action: string(audit.EventApplicantRegistered)})
	return a, nil
}

func (s *Service) Get(ctx context.Context, applicantID id.ApplicantID) (*models.Applicant, error) {
	a, err := s.store.FindByID(ctx, applicantID)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

func (s *Service) GetByNationalID(ctx context.Context, nationalID string) (*models.Applicant, error) {
	a, err := s.store.FindByNationalID(ctx, strings.TrimSpace(nationalID))
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

// Disqualify records a ban. It runs under the applicant key so a concurrent
// procedure start observes either the old or the new ban list, never half.
func (s *Service) Disqualify(ctx context.Context, applicantID id.ApplicantID, req models.DisqualifyRequest) (*models.Applicant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var updated *models.Applicant
	err := s.tx.RunInTx(ctx, []string{tx.ApplicantKey(applicantID.String())}, func(ctx context.Context) error {
		if _, err := s.store.FindByID(ctx, applicantID); err != nil {
			return translate(err)
		}
		d := models.Disqualification{Reason: strings.TrimSpace(req.Reason), From: req.From, Until: req.Until}
		if err := s.store.AddDisqualification(ctx, applicantID, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record disqualification")
		}
		a, err := s.store.FindByID(ctx, applicantID)
		if err != nil {
			return translate(err)
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.Event{
		ApplicantID: applicantID,
		Subject:     applicantID.String(),
		Action:      string(audit.EventApplicantDisqualified),
		Reason:      req.Reason,
	})
	return updated, nil
}

func translate(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "applicant not found")
	}
	if dErrors.IsCoded(err) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applicant")
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	_ = s.emitter.Emit(ctx, event)
}
