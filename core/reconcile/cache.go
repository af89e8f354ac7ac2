package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"press-pass/core/pass"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ReconcileCache holds pre-built indices of both stores.
type ReconcileCache struct {
	// PrimaryIndex maps primary ids to records.
	PrimaryIndex map[string]pass.Record

	// FallbackIndex maps keys to fallback records. A local copy of a primary
	// pass is keyed by the primary id even when it is stored under a
	// different id with the primary id as its legacy id.
	FallbackIndex map[string]pass.Record

	// Built is the timestamp when this cache was built.
	Built time.Time

	// TTL is the time-to-live for this cache.
	TTL time.Duration
}

// IsExpired returns true if this cache has expired based on its TTL.
func (c *ReconcileCache) IsExpired() bool {
	if c.TTL == 0 {
		return true
	}
	return time.Since(c.Built) > c.TTL
}

// BuildCache loads both stores concurrently and indexes them.
// It does NOT store the cache; use Engine.cache for that.
func BuildCache(ctx context.Context, spec Spec) (*ReconcileCache, error) {
	var (
		primary  []pass.Record
		fallback []pass.Record
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := spec.Primary.List(gctx, pass.Query{Ascending: true})
		if err != nil {
			return fmt.Errorf("failed to list primary: %w", err)
		}
		primary = recs
		return nil
	})
	g.Go(func() error {
		recs, err := spec.Fallback.Load(gctx)
		if err != nil {
			return fmt.Errorf("failed to load fallback: %w", err)
		}
		fallback = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	primaryIndex := make(map[string]pass.Record, len(primary))
	for _, r := range primary {
		primaryIndex[r.ID] = r
	}

	fallbackIndex := make(map[string]pass.Record, len(fallback))
	for _, r := range fallback {
		key := r.ID
		if _, ok := primaryIndex[key]; !ok && r.LegacyID != "" {
			if _, ok := primaryIndex[r.LegacyID]; ok {
				key = r.LegacyID
			}
		}
		fallbackIndex[key] = r
	}

	return &ReconcileCache{
		PrimaryIndex:  primaryIndex,
		FallbackIndex: fallbackIndex,
		Built:         time.Now(),
		TTL:           spec.CacheTTL,
	}, nil
}

type cacheStore struct {
	mu    sync.RWMutex
	cache *ReconcileCache
	sf    singleflight.Group
}

// get returns the cached indices, or builds them with singleflight to
// prevent stampedes.
func (s *cacheStore) get(ctx context.Context, spec Spec) (*ReconcileCache, error) {
	s.mu.RLock()
	cache := s.cache
	s.mu.RUnlock()
	if cache != nil && !cache.IsExpired() {
		return cache, nil
	}

	result, err, _ := s.sf.Do("indices", func() (interface{}, error) {
		s.mu.RLock()
		cache := s.cache
		s.mu.RUnlock()
		if cache != nil && !cache.IsExpired() {
			return cache, nil
		}

		built, err := BuildCache(ctx, spec)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache = built
		s.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*ReconcileCache), nil
}

func (s *cacheStore) invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}
