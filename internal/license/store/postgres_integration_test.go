//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	applicantmodels "dlms/internal/applicant/models"
	applicantstore "dlms/internal/applicant/store"
	"dlms/internal/license/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
	"dlms/pkg/platform/tx"
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
	a, err := applicantmodels.NewApplicant(id.NewApplicantID(), nationalID, "Ana", "Ruiz", time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), day)
	s.Require().NoError(err)
	s.Require().NoError(s.applicants.Create(s.ctx, a))
	return a.ID
}

func (s *PostgresStoreSuite) TestCreateUniqueness() {
	applicant := s.applicant("p-1")
	first := newLicense(applicant, "20250301-000001", models.StatusValid, day.AddDate(5, 0, 0))
	s.Require().NoError(s.store.Create(s.ctx, first))

	s.ErrorIs(s.store.Create(s.ctx, newLicense(s.applicant("p-2"), first.Number, models.StatusValid, day)), sentinel.ErrAlreadyUsed)
	s.ErrorIs(s.store.Create(s.ctx, newLicense(applicant, "20250301-000002", models.StatusValid, day)), sentinel.ErrConflict)

	found, err := s.store.FindByNumber(s.ctx, first.Number)
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)
	s.True(first.ExpiresAt.Equal(found.ExpiresAt))
}

func (s *PostgresStoreSuite) TestCollisionKeepsTransactionUsable() {
	runner := tx.NewPostgresRunner(s.postgres.DB, 0)
	applicant := s.applicant("p-3")
	s.Require().NoError(s.store.Create(s.ctx, newLicense(s.applicant("p-4"), "20250301-000005", models.StatusValid, day)))

	err := runner.RunInTx(s.ctx, []string{tx.ApplicantKey(applicant.String())}, func(ctx context.Context) error {
		l := newLicense(applicant, "20250301-000005", models.StatusValid, day.AddDate(5, 0, 0))
		s.Require().ErrorIs(s.store.Create(ctx, l), sentinel.ErrAlreadyUsed)
		l.Number = "20250301-000006"
		return s.store.Create(ctx, l)
	})
	s.Require().NoError(err)

	list, err := s.store.ListByApplicant(s.ctx, applicant)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("20250301-000006", list[0].Number)
}

func (s *PostgresStoreSuite) TestSupersedeAndExpire() {
	applicant := s.applicant("p-5")
	old := newLicense(applicant, "20200301-000001", models.StatusValid, day.AddDate(0, 0, -1))
	s.Require().NoError(s.store.Create(s.ctx, old))

	replacement := newLicense(applicant, "20250301-000001", models.StatusValid, day.AddDate(5, 0, 0))
	old.ApplySupersede(replacement.ID, day)
	s.Require().NoError(s.store.Update(s.ctx, old))
	s.Require().NoError(s.store.Create(s.ctx, replacement))

	found, err := s.store.FindByID(s.ctx, old.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.SupersededBy)
	s.Equal(replacement.ID, *found.SupersededBy)

	stale := newLicense(s.applicant("p-6"), "20200101-000009", models.StatusValid, day.AddDate(0, 0, -2))
	s.Require().NoError(s.store.Create(s.ctx, stale))
	flipped, err := s.store.ExpireBefore(s.ctx, day, day)
	s.Require().NoError(err)
	s.Require().Len(flipped, 1)
	s.Equal(stale.ID, flipped[0].ID)
	s.Equal(models.StatusExpired, flipped[0].Status)
}
