// Package service is the resource registry consulted by the scheduler.
package service

import (
	"context"
	"errors"
	"log/slog"

	"dlms/internal/resource/models"
	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
	"dlms/pkg/platform/sentinel"
	"dlms/pkg/platform/tx"
)

type Store interface {
	Create(ctx context.Context, r *models.Resource) error
	FindByID(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error)
	ListActiveByType(ctx context.Context, typ models.ResourceType) ([]*models.Resource, error)
	List(ctx context.Context) ([]*models.Resource, error)
	SetActive(ctx context.Context, resourceID id.ResourceID, active bool) error
}

type Service struct {
	store  Store
	tx     tx.Runner
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, runner tx.Runner, opts ...Option) *Service {
	s := &Service{store: store, tx: runner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, req models.CreateRequest) (*models.Resource, error) {
	typ, err := models.ParseResourceType(req.Type)
	if err != nil {
		return nil, err
	}
	r, err := models.NewResource(id.NewResourceID(), req.Name, typ, req.Capacity, req.OpensAt, req.ClosesAt)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "resource name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create resource")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "resource created", "resource_id", r.ID.String(), "type", string(r.Type))
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	r, err := s.store.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resource")
	}
	return r, nil
}

// ListActiveByType returns bookable resources of a type; an empty type lists
// every resource regardless of state.
func (s *Service) ListActiveByType(ctx context.Context, typ string) ([]*models.Resource, error) {
	if typ == "" {
		out, err := s.store.List(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list resources")
		}
		return out, nil
	}
	t, err := models.ParseResourceType(typ)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListActiveByType(ctx, t)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list resources")
	}
	return out, nil
}

// SetActive toggles bookability. It holds the resource key so it never
// interleaves with a booking's active check.
func (s *Service) SetActive(ctx context.Context, resourceID id.ResourceID, active bool) (*models.Resource, error) {
	var out *models.Resource
	err := s.tx.RunInTx(ctx, []string{tx.ResourceKey(resourceID.String())}, func(ctx context.Context) error {
		if err := s.store.SetActive(ctx, resourceID, active); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "resource not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update resource")
		}
		r, err := s.Get(ctx, resourceID)
		out = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
