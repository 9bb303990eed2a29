package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const anonymousCatalogKey = "catalog:programs:anonymous"

// ProgramLister loads the catalog with a learner's state overlaid.
type ProgramLister interface {
	Programs(ctx context.Context, userID string, now time.Time) ([]Program, error)
}

// Service orchestrates catalog queries and caching. The anonymous catalog
// is identical for every visitor and is cached; per-learner overlays are
// cheap enough to serve straight from the store.
type Service struct {
	store ProgramLister
	cache *Cache
	now   func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store ProgramLister
	Cache *Cache
	Now   func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, now: now}, nil
}

// AnonymousPrograms returns the catalog without learner state, cache first.
func (s *Service) AnonymousPrograms(ctx context.Context) ([]Program, error) {
	var cached []Program
	if ok, err := s.cache.GetJSON(ctx, anonymousCatalogKey, &cached); err == nil && ok {
		return cached, nil
	}
	programs, err := s.store.Programs(ctx, "", s.now())
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	_ = s.cache.SetJSON(ctx, anonymousCatalogKey, programs)
	return programs, nil
}

// UserPrograms returns the catalog with the learner's enrollment, payment,
// grade, and exam state overlaid.
func (s *Service) UserPrograms(ctx context.Context, userID string) ([]Program, error) {
	if userID == "" {
		return s.AnonymousPrograms(ctx)
	}
	programs, err := s.store.Programs(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("load catalog for user: %w", err)
	}
	return programs, nil
}

// InvalidateAnonymous drops the cached anonymous catalog, called after the
// edX sync rewrites catalog rows.
func (s *Service) InvalidateAnonymous(ctx context.Context) error {
	return s.cache.Invalidate(ctx, anonymousCatalogKey)
}
