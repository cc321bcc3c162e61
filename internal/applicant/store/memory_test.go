package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dlms/internal/applicant/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
)

type ApplicantStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *ApplicantStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestApplicantStoreSuite(t *testing.T) {
	suite.Run(t, new(ApplicantStoreSuite))
}

func newApplicant(nationalID string) *models.Applicant {
	now := time.Now()
	return &models.Applicant{
		ID:         id.NewApplicantID(),
		NationalID: nationalID,
		FirstName:  "Lucia",
		LastName:   "Gomez",
		BirthDate:  time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC),
		Address:    "Calle 1",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *ApplicantStoreSuite) TestCreateAndLookups() {
	a := newApplicant("30111222")
	s.Require().NoError(s.store.Create(s.ctx, a))

	s.Run("finds by id", func() {
		found, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal("30111222", found.NationalID)
	})

	s.Run("finds by national id", func() {
		found, err := s.store.FindByNationalID(s.ctx, "30111222")
		s.Require().NoError(err)
		s.Equal(a.ID, found.ID)
	})

	s.Run("rejects duplicate national id", func() {
		err := s.store.Create(s.ctx, newApplicant("30111222"))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("unknown id is ErrNotFound", func() {
		_, err := s.store.FindByID(s.ctx, id.NewApplicantID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ApplicantStoreSuite) TestReturnedRecordsAreCopies() {
	a := newApplicant("1")
	s.Require().NoError(s.store.Create(s.ctx, a))

	found, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	found.Address = "mutated"
	found.Disqualifications = append(found.Disqualifications, models.Disqualification{Reason: "x"})

	again, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("Calle 1", again.Address)
	s.Empty(again.Disqualifications)
}

func (s *ApplicantStoreSuite) TestUpdateAddressAndDisqualify() {
	a := newApplicant("2")
	s.Require().NoError(s.store.Create(s.ctx, a))

	s.Require().NoError(s.store.UpdateAddress(s.ctx, a.ID, "Avenida 9"))
	s.Require().NoError(s.store.AddDisqualification(s.ctx, a.ID, models.Disqualification{Reason: "dui", From: time.Now()}))

	found, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("Avenida 9", found.Address)
	s.Len(found.Disqualifications, 1)

	s.ErrorIs(s.store.UpdateAddress(s.ctx, id.NewApplicantID(), "x"), sentinel.ErrNotFound)
}
