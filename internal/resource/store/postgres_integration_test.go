//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"dlms/internal/resource/models"
	"dlms/pkg/platform/sentinel"
	"dlms/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
	ctx      context.Context
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
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.postgres.TruncateTables(s.ctx))
}

func (s *PostgresStoreSuite) TestRoundTripAndUniqueness() {
	office := newResource(s.T(), "Office 7", models.ResourceTypeMedicalOffice)
	s.Require().NoError(s.store.Create(s.ctx, office))
	s.ErrorIs(s.store.Create(s.ctx, newResource(s.T(), "OFFICE 7", models.ResourceTypeMedicalOffice)), sentinel.ErrAlreadyUsed)

	found, err := s.store.FindByID(s.ctx, office.ID)
	s.Require().NoError(err)
	s.Equal(office.OpensAt, found.OpensAt)
	s.Equal(office.ClosesAt, found.ClosesAt)

	s.Require().NoError(s.store.SetActive(s.ctx, office.ID, false))
	active, err := s.store.ListActiveByType(s.ctx, models.ResourceTypeMedicalOffice)
	s.Require().NoError(err)
	s.Empty(active)
}
