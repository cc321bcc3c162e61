package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dlms/internal/procedure/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
)

type ProcedureStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestProcedureStoreSuite(t *testing.T) {
	suite.Run(t, new(ProcedureStoreSuite))
}

func (s *ProcedureStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func newProcedure(applicantID id.ApplicantID, created time.Time) *models.Procedure {
	return models.NewProcedure(id.NewProcedureID(), applicantID, id.ProcedureFirstIssuance, id.ClassB, created)
}

func (s *ProcedureStoreSuite) TestOneActivePerApplicant() {
	applicant := id.NewApplicantID()
	first := newProcedure(applicant, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.ErrorIs(s.store.Create(s.ctx, newProcedure(applicant, time.Now())), sentinel.ErrConflict)

	active, err := s.store.FindActiveByApplicant(s.ctx, applicant)
	s.Require().NoError(err)
	s.Equal(first.ID, active.ID)

	first.ApplyCancel("withdrawn", time.Now())
	s.Require().NoError(s.store.Update(s.ctx, first))
	_, err = s.store.FindActiveByApplicant(s.ctx, applicant)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.NoError(s.store.Create(s.ctx, newProcedure(applicant, time.Now())))
}

func (s *ProcedureStoreSuite) TestRecoverableRejectionStaysActive() {
	applicant := id.NewApplicantID()
	p := newProcedure(applicant, time.Now())
	p.Status = models.StatusTheoryRejected
	s.Require().NoError(s.store.Create(s.ctx, p))

	active, err := s.store.FindActiveByApplicant(s.ctx, applicant)
	s.Require().NoError(err)
	s.Equal(p.ID, active.ID)
}

func (s *ProcedureStoreSuite) TestListings() {
	applicant := id.NewApplicantID()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	older := newProcedure(applicant, base)
	older.Status = models.StatusIssued
	licenseID := id.NewLicenseID()
	older.LicenseID = &licenseID
	newer := newProcedure(applicant, base.Add(time.Hour))
	s.Require().NoError(s.store.Create(s.ctx, older))
	s.Require().NoError(s.store.Create(s.ctx, newer))

	list, err := s.store.ListByApplicant(s.ctx, applicant)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(newer.ID, list[0].ID)

	issued, err := s.store.ListByStatus(s.ctx, models.StatusIssued)
	s.Require().NoError(err)
	s.Require().Len(issued, 1)
	s.Equal(licenseID, *issued[0].LicenseID)

	*issued[0].LicenseID = id.NewLicenseID()
	again, err := s.store.FindByID(s.ctx, older.ID)
	s.Require().NoError(err)
	s.Equal(licenseID, *again.LicenseID)
}
