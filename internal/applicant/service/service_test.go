package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dlms/internal/applicant/models"
	"dlms/internal/applicant/store"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/audit"
	auditmemory "dlms/pkg/platform/audit/store/memory"
	"dlms/pkg/platform/tx"
	"dlms/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx    context.Context
	events *auditmemory.InMemoryStore
	svc    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	s.events = auditmemory.NewInMemoryStore()
	s.svc = New(store.NewInMemoryStore(), tx.NewShardedRunner(0),
		WithAuditEmitter(audit.NewEmitter(nil, s.events)))
}

func (s *ServiceSuite) register(nationalID string) *models.Applicant {
	a, err := s.svc.Register(s.ctx, models.RegisterRequest{
		NationalID: nationalID,
		FirstName:  "Marta",
		LastName:   "Lopez",
		BirthDate:  "1995-07-20",
		Address:    " Calle 3 ",
	})
	s.Require().NoError(err)
	return a
}

func (s *ServiceSuite) TestRegister() {
	s.Run("creates applicant and emits event", func() {
		a := s.register("20333444")
		s.Equal("Calle 3", a.Address)
		s.Equal([]string{string(audit.EventApplicantRegistered)}, s.events.Actions(a.ID))
	})

	s.Run("duplicate national id is a conflict", func() {
		_, err := s.svc.Register(s.ctx, models.RegisterRequest{
			NationalID: "20333444", FirstName: "X", LastName: "Y", BirthDate: "1990-01-01",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("malformed birth date is invalid input", func() {
		_, err := s.svc.Register(s.ctx, models.RegisterRequest{
			NationalID: "1", FirstName: "X", LastName: "Y", BirthDate: "20/01/1990",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestGet() {
	a := s.register("20333445")

	found, err := s.svc.GetByNationalID(s.ctx, " 20333445 ")
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)

	_, err = s.svc.Get(s.ctx, id.NewApplicantID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDisqualify() {
	a := s.register("20333446")
	now := requestcontext.Now(s.ctx)

	updated, err := s.svc.Disqualify(s.ctx, a.ID, models.DisqualifyRequest{Reason: "reckless driving", From: now})
	s.Require().NoError(err)
	s.True(updated.HasActiveDisqualification(now))
	s.Contains(s.events.Actions(a.ID), string(audit.EventApplicantDisqualified))

	_, err = s.svc.Disqualify(s.ctx, id.NewApplicantID(), models.DisqualifyRequest{Reason: "x", From: now})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.Disqualify(s.ctx, a.ID, models.DisqualifyRequest{From: now})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
