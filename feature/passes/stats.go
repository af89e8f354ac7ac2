package passes

import (
	"context"
	"sync"
	"time"

	"press-pass/core/pass"
	"press-pass/core/store"

	"golang.org/x/sync/singleflight"
)

// Stats summarizes the collection for the admin dashboard.
type Stats struct {
	// Total is the number of passes.
	Total int `json:"total"`
	// Monthly counts passes created in the current UTC calendar month.
	Monthly int `json:"monthly"`
	// EmailDomains counts distinct email domains.
	EmailDomains int `json:"email_domains"`
	// Degraded is set when the figures come from the fallback store.
	Degraded bool `json:"degraded"`
	// GeneratedAt is when the figures were computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// ComputeStats derives Stats from recs relative to now.
func ComputeStats(recs []pass.Record, now time.Time) Stats {
	now = now.UTC()
	domains := make(map[string]struct{})
	st := Stats{Total: len(recs), GeneratedAt: now}
	for _, r := range recs {
		created := r.CreatedAt.UTC()
		if created.Year() == now.Year() && created.Month() == now.Month() {
			st.Monthly++
		}
		if d := r.EmailDomain(); d != "" {
			domains[d] = struct{}{}
		}
	}
	st.EmailDomains = len(domains)
	return st
}

// statsCache computes Stats at most once per TTL. Concurrent callers share
// one computation.
type statsCache struct {
	store *store.Store
	ttl   time.Duration
	now   func() time.Time

	mu    sync.RWMutex
	value *Stats
	built time.Time
	sf    singleflight.Group
}

func newStatsCache(s *store.Store) *statsCache {
	return &statsCache{store: s, now: time.Now}
}

func (c *statsCache) fresh() (Stats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.value == nil || c.ttl == 0 || c.now().Sub(c.built) > c.ttl {
		return Stats{}, false
	}
	return *c.value, true
}

func (c *statsCache) get(ctx context.Context) (Stats, error) {
	if st, ok := c.fresh(); ok {
		return st, nil
	}

	result, err, _ := c.sf.Do("stats", func() (interface{}, error) {
		if st, ok := c.fresh(); ok {
			return st, nil
		}
		page, err := c.store.List(ctx, pass.Query{})
		if err != nil {
			return nil, err
		}
		now := c.now()
		st := ComputeStats(page.Records, now)
		st.Degraded = page.Degraded

		c.mu.Lock()
		c.value = &st
		c.built = now
		c.mu.Unlock()
		return st, nil
	})
	if err != nil {
		return Stats{}, err
	}
	return result.(Stats), nil
}

func (c *statsCache) invalidate() {
	c.mu.Lock()
	c.value = nil
	c.mu.Unlock()
}
