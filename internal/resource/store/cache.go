package store

import (
	"context"
	"log/slog"

	platformredis "dlms/internal/platform/redis"
	"dlms/internal/resource/models"
	id "dlms/pkg/domain"
	txcontext "dlms/pkg/platform/tx"
)

// Registry is the persistence contract both backing stores satisfy.
type Registry interface {
	Create(ctx context.Context, r *models.Resource) error
	FindByID(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error)
	ListActiveByType(ctx context.Context, typ models.ResourceType) ([]*models.Resource, error)
	List(ctx context.Context) ([]*models.Resource, error)
	SetActive(ctx context.Context, resourceID id.ResourceID, active bool) error
}

type resourceList struct {
	Items []*models.Resource `json:"items"`
}

// CachedStore fronts a Registry with Redis. Resources change rarely, so both
// single lookups and per-type active lists are cached and dropped once a write
// commits. Reads inside a unit of work skip the cache.
type CachedStore struct {
	next   Registry
	byID   *platformredis.JSONCache[models.Resource]
	byType *platformredis.JSONCache[resourceList]
	logger *slog.Logger
}

func NewCachedStore(next Registry, client platformredis.Cmdable, cfg platformredis.CacheConfig, logger *slog.Logger) *CachedStore {
	return &CachedStore{
		next:   next,
		byID:   platformredis.NewJSONCache[models.Resource](client, "resource", cfg.TTL, cfg.Metrics),
		byType: platformredis.NewJSONCache[resourceList](client, "resource-type", cfg.TTL, cfg.Metrics),
		logger: logger,
	}
}

func (s *CachedStore) Create(ctx context.Context, r *models.Resource) error {
	if err := s.next.Create(ctx, r); err != nil {
		return err
	}
	typ := string(r.Type)
	txcontext.AfterCommit(ctx, func(ctx context.Context) {
		s.drop(ctx, s.byType.Delete(ctx, typ))
	})
	return nil
}

func (s *CachedStore) FindByID(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	if _, inTx := txcontext.From(ctx); inTx {
		return s.next.FindByID(ctx, resourceID)
	}
	if r, ok, err := s.byID.Get(ctx, resourceID.String()); err != nil {
		s.drop(ctx, err)
	} else if ok {
		return r, nil
	}
	r, err := s.next.FindByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	s.drop(ctx, s.byID.Set(ctx, resourceID.String(), r))
	return r, nil
}

func (s *CachedStore) ListActiveByType(ctx context.Context, typ models.ResourceType) ([]*models.Resource, error) {
	if _, inTx := txcontext.From(ctx); inTx {
		return s.next.ListActiveByType(ctx, typ)
	}
	if l, ok, err := s.byType.Get(ctx, string(typ)); err != nil {
		s.drop(ctx, err)
	} else if ok {
		return l.Items, nil
	}
	items, err := s.next.ListActiveByType(ctx, typ)
	if err != nil {
		return nil, err
	}
	s.drop(ctx, s.byType.Set(ctx, string(typ), &resourceList{Items: items}))
	return items, nil
}

func (s *CachedStore) List(ctx context.Context) ([]*models.Resource, error) {
	return s.next.List(ctx)
}

func (s *CachedStore) SetActive(ctx context.Context, resourceID id.ResourceID, active bool) error {
	r, err := s.next.FindByID(ctx, resourceID)
	if err != nil {
		return err
	}
	if err := s.next.SetActive(ctx, resourceID, active); err != nil {
		return err
	}
	txcontext.AfterCommit(ctx, func(ctx context.Context) {
		s.drop(ctx, s.byID.Delete(ctx, resourceID.String()))
		s.drop(ctx, s.byType.Delete(ctx, string(r.Type)))
	})
	return nil
}

// drop logs a cache failure; the backing store stays authoritative.
func (s *CachedStore) drop(ctx context.Context, err error) {
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "resource cache operation failed", "error", err)
	}
}
