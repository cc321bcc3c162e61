//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	applicantmodels "dlms/internal/applicant/models"
	applicantstore "dlms/internal/applicant/store"
	"dlms/internal/procedure/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
	"dlms/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	store      *PostgresStore
	applicants *applicantstore.PostgresStore
	ctx        context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.postgres.DB)
	s.applicants = applicantstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.postgres.TruncateTables(s.ctx))
}

func (s *PostgresStoreSuite) applicant(nationalID string) id.ApplicantID {
	now := time.Now().UTC()
	a, err := applicantmodels.NewApplicant(id.NewApplicantID(), nationalID, "Ana", "Ruiz", now.AddDate(-30, 0, 0), now)
	s.Require().NoError(err)
	s.Require().NoError(s.applicants.Create(s.ctx, a))
	return a.ID
}

func (s *PostgresStoreSuite) TestRoundTripAndActiveIndex() {
	applicant := s.applicant("proc-1")
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := newProcedure(applicant, now)
	p.RequestedAddress = "Calle 5"
	s.Require().NoError(s.store.Create(s.ctx, p))
	s.ErrorIs(s.store.Create(s.ctx, newProcedure(applicant, now)), sentinel.ErrConflict)

	p.ApplyValidateDocumentation("clerk-2", now)
	p.ApplyResult(models.GateMedical, true, now)
	s.Require().NoError(s.store.Update(s.ctx, p))

	found, err := s.store.FindActiveByApplicant(s.ctx, applicant)
	s.Require().NoError(err)
	s.Equal(models.StatusMedicalOK, found.Status)
	s.True(found.DocumentationValidated)
	s.Equal("clerk-2", found.Agent)
	s.Equal("Calle 5", found.RequestedAddress)
	s.Nil(found.LicenseID)

	p.ApplyIssued(id.NewLicenseID(), now)
	s.Require().NoError(s.store.Update(s.ctx, p))
	_, err = s.store.FindActiveByApplicant(s.ctx, applicant)
	s.ErrorIs(err, sentinel.ErrNotFound)

	issued, err := s.store.ListByStatus(s.ctx, models.StatusIssued)
	s.Require().NoError(err)
	s.Require().Len(issued, 1)
	s.Equal(*p.LicenseID, *issued[0].LicenseID)
}

func (s *PostgresStoreSuite) TestUpdateMissing() {
	s.ErrorIs(s.store.Update(s.ctx, newProcedure(id.NewApplicantID(), time.Now())), sentinel.ErrNotFound)
}
