//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	applicantmodels "dlms/internal/applicant/models"
	applicantstore "dlms/internal/applicant/store"
	"dlms/internal/appointment/models"
	resourcemodels "dlms/internal/resource/models"
	resourcestore "dlms/internal/resource/store"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
	"dlms/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	store      *PostgresStore
	applicants *applicantstore.PostgresStore
	resources  *resourcestore.PostgresStore
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
	s.resources = resourcestore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.postgres.TruncateTables(s.ctx))
}

func (s *PostgresStoreSuite) fixtures(nationalID string) (id.ApplicantID, id.ResourceID) {
	a, err := applicantmodels.NewApplicant(id.NewApplicantID(), nationalID, "Ana", "Ruiz", day.AddDate(-30, 0, 0), day)
	s.Require().NoError(err)
	s.Require().NoError(s.applicants.Create(s.ctx, a))

	r, err := resourcemodels.NewResource(id.NewResourceID(), "Track "+nationalID, resourcemodels.ResourceTypeExamTrack, 1, 8*60, 18*60)
	s.Require().NoError(err)
	s.Require().NoError(s.resources.Create(s.ctx, r))
	return a.ID, r.ID
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	applicant, resource := s.fixtures("appt-1")
	a := newAppointment(applicant, resource, models.TypePracticalExam, 10, 11)
	a.ResourceType = resourcemodels.ResourceTypeExamTrack
	procedureID := id.NewProcedureID()
	a.ProcedureID = &procedureID
	s.Require().NoError(s.store.Create(s.ctx, a))

	now := day.Add(8 * time.Hour)
	a.ApplyConfirm(now)
	a.ApplyAssignProfessional("Examiner Soto")
	s.Require().NoError(s.store.Update(s.ctx, a))

	found, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, found.Status)
	s.Equal("Examiner Soto", found.Professional)
	s.Require().NotNil(found.ProcedureID)
	s.Equal(procedureID, *found.ProcedureID)
	s.Require().NotNil(found.ConfirmedAt)
	s.True(found.ConfirmedAt.Equal(now))
	s.True(found.StartsAt.Equal(a.StartsAt))

	_, err = s.store.FindByID(s.ctx, id.NewAppointmentID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestBlockingQueries() {
	applicant, resource := s.fixtures("appt-2")
	held := newAppointment(applicant, resource, models.TypePracticalExam, 10, 11)
	released := newAppointment(applicant, resource, models.TypePracticalExam, 13, 14)
	released.Status = models.StatusCancelled
	s.Require().NoError(s.store.Create(s.ctx, held))
	s.Require().NoError(s.store.Create(s.ctx, released))

	touching, err := s.store.ListBlockingForResource(s.ctx, resource, day.Add(11*time.Hour), day.Add(12*time.Hour))
	s.Require().NoError(err)
	s.Len(touching, 1)

	free, err := s.store.ListBlockingForResource(s.ctx, resource, day.Add(13*time.Hour), day.Add(14*time.Hour))
	s.Require().NoError(err)
	s.Empty(free)

	sameType, err := s.store.ListBlockingForApplicant(s.ctx, applicant, models.TypePracticalExam, day.Add(9*time.Hour), day.Add(10*time.Hour))
	s.Require().NoError(err)
	s.Len(sameType, 1)

	inPeriod, err := s.store.ListInPeriod(s.ctx, day, day.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Len(inPeriod, 2)
}
