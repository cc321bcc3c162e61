package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dlms/internal/resource/models"
	"dlms/internal/resource/store"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/tx"
)

type ServiceSuite struct {
	suite.Suite
	ctx context.Context
	svc *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.svc = New(store.NewInMemoryStore(), tx.NewShardedRunner(time.Second))
}

func (s *ServiceSuite) create(name, typ string) *models.Resource {
	r, err := s.svc.Create(s.ctx, models.CreateRequest{Name: name, Type: typ, OpensAt: 8 * 60, ClosesAt: 17 * 60})
	s.Require().NoError(err)
	return r
}

func (s *ServiceSuite) TestCreate() {
	r := s.create("Office 1", "medical_office")
	s.True(r.Active)
	s.Equal(1, r.Capacity)

	_, err := s.svc.Create(s.ctx, models.CreateRequest{Name: "Office 1", Type: "medical_office", OpensAt: 8 * 60, ClosesAt: 17 * 60})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.svc.Create(s.ctx, models.CreateRequest{Name: "Pool", Type: "swimming_pool", OpensAt: 8 * 60, ClosesAt: 17 * 60})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.svc.Create(s.ctx, models.CreateRequest{Name: "Night track", Type: "exam_track", OpensAt: 20 * 60, ClosesAt: 6 * 60})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestSetActiveFiltersListing() {
	track := s.create("Track A", "exam_track")
	s.create("Track B", "exam_track")
	s.create("Room 1", "theory_room")

	off, err := s.svc.SetActive(s.ctx, track.ID, false)
	s.Require().NoError(err)
	s.False(off.Active)

	active, err := s.svc.ListActiveByType(s.ctx, "exam_track")
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal("Track B", active[0].Name)

	all, err := s.svc.ListActiveByType(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 3)

	_, err = s.svc.SetActive(s.ctx, id.NewResourceID(), true)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.Get(s.ctx, id.NewResourceID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
