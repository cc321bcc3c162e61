package store

import (
	"context"
	"log/slog"

	"dlms/internal/applicant/models"
	platformredis "dlms/internal/platform/redis"
	id "dlms/pkg/domain"
	txcontext "dlms/pkg/platform/tx"
)

// Registry is the persistence contract both backing stores satisfy.
type Registry interface {
	Create(ctx context.Context, a *models.Applicant) error
	FindByID(ctx context.Context, applicantID id.ApplicantID) (*models.Applicant, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Applicant, error)
	UpdateAddress(ctx context.Context, applicantID id.ApplicantID, address string) error
	AddDisqualification(ctx context.Context, applicantID id.ApplicantID, d models.Disqualification) error
}

// CachedStore is a Redis read-through cache in front of a Registry. Reads
// inside a unit of work go straight to the backing store so check-then-write
// sequences see committed state. Cache failures are logged and ignored.
type CachedStore struct {
	next   Registry
	cache  *platformredis.JSONCache[models.Applicant]
	logger *slog.Logger
}

func NewCachedStore(next Registry, client platformredis.Cmdable, cfg platformredis.CacheConfig, logger *slog.Logger) *CachedStore {
	return &CachedStore{
		next:   next,
		cache:  platformredis.NewJSONCache[models.Applicant](client, "applicant", cfg.TTL, cfg.Metrics),
		logger: logger,
	}
}

func (s *CachedStore) Create(ctx context.Context, a *models.Applicant) error {
	return s.next.Create(ctx, a)
}

func (s *CachedStore) FindByID(ctx context.Context, applicantID id.ApplicantID) (*models.Applicant, error) {
	if _, inTx := txcontext.From(ctx); inTx {
		return s.next.FindByID(ctx, applicantID)
	}
	key := applicantID.String()
	if a, ok, err := s.cache.Get(ctx, key); err != nil {
		s.warn(ctx, "applicant cache read failed", err)
	} else if ok {
		return a, nil
	}

	a, err := s.next.FindByID(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, a); err != nil {
		s.warn(ctx, "applicant cache write failed", err)
	}
	return a, nil
}

func (s *CachedStore) FindByNationalID(ctx context.Context, nationalID string) (*models.Applicant, error) {
	if _, inTx := txcontext.From(ctx); !inTx {
		if raw, ok, err := s.cache.GetString(ctx, nationalIDKey(nationalID)); err != nil {
			s.warn(ctx, "applicant index read failed", err)
		} else if ok {
			if applicantID, err := id.ParseApplicantID(raw); err == nil {
				return s.FindByID(ctx, applicantID)
			}
		}
	}

	a, err := s.next.FindByNationalID(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetString(ctx, nationalIDKey(nationalID), a.ID.String()); err != nil {
		s.warn(ctx, "applicant index write failed", err)
	}
	return a, nil
}

func (s *CachedStore) UpdateAddress(ctx context.Context, applicantID id.ApplicantID, address string) error {
	if err := s.next.UpdateAddress(ctx, applicantID, address); err != nil {
		return err
	}
	s.invalidate(ctx, applicantID)
	return nil
}

func (s *CachedStore) AddDisqualification(ctx context.Context, applicantID id.ApplicantID, d models.Disqualification) error {
	if err := s.next.AddDisqualification(ctx, applicantID, d); err != nil {
		return err
	}
	s.invalidate(ctx, applicantID)
	return nil
}

// invalidate drops the cached applicant once the write is committed; an
// earlier delete could be refilled with the old row by a reader outside the
// unit of work.
func (s *CachedStore) invalidate(ctx context.Context, applicantID id.ApplicantID) {
	txcontext.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.cache.Delete(ctx, applicantID.String()); err != nil {
			s.warn(ctx, "applicant cache invalidation failed", err)
		}
	})
}

func (s *CachedStore) warn(ctx context.Context, msg string, err error) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, "error", err)
	}
}

func nationalIDKey(nationalID string) string {
	return "nid:" + nationalID
}
