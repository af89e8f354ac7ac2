package passes

import (
	"context"
	"strconv"
	"strings"
	"time"

	"press-pass/core/pass"
	"press-pass/core/store"

	"go.uber.org/zap"
)

// Service exposes the pass store to the HTTP handlers.
type Service struct {
	store  *store.Store
	stats  *statsCache
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*statsCache)

// WithStatsTTL sets how long computed statistics are reused. Zero
// recomputes on every call.
func WithStatsTTL(ttl time.Duration) Option {
	return func(c *statsCache) { c.ttl = ttl }
}

// WithClock overrides the clock that decides the current month.
func WithClock(now func() time.Time) Option {
	return func(c *statsCache) { c.now = now }
}

// NewService creates a Service over s.
func NewService(s *store.Store, logger *zap.Logger, opts ...Option) *Service {
	stats := newStatsCache(s)
	for _, opt := range opts {
		opt(stats)
	}
	return &Service{
		store:  s,
		stats:  stats,
		logger: logger,
	}
}

// Track records a pass created by the generator page.
func (s *Service) Track(ctx context.Context, in pass.Input) (pass.Record, error) {
	rec, err := s.store.Create(ctx, in)
	if err != nil {
		return pass.Record{}, err
	}
	s.stats.invalidate()
	return rec, nil
}

// List returns a page of passes.
func (s *Service) List(ctx context.Context, q pass.Query) (store.Page, error) {
	return s.store.List(ctx, q)
}

// Get returns one pass.
func (s *Service) Get(ctx context.Context, id string) (pass.Record, error) {
	return s.store.Get(ctx, id)
}

// Update validates in as a partial update and applies it.
func (s *Service) Update(ctx context.Context, id string, in pass.Input) (pass.Record, error) {
	p, err := s.store.Normalizer().NormalizePatch(in)
	if err != nil {
		return pass.Record{}, err
	}
	rec, err := s.store.Update(ctx, id, p)
	if err != nil {
		return pass.Record{}, err
	}
	s.stats.invalidate()
	return rec, nil
}

// Delete removes a pass.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.stats.invalidate()
	return nil
}

// Stats returns the dashboard statistics.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.stats.get(ctx)
}

// ParseQuery builds a Query from request parameters. Unknown sort keys and
// malformed numbers are validation errors.
func ParseQuery(get func(key string) string) (pass.Query, error) {
	q := pass.Query{
		Email:        strings.TrimSpace(get("email")),
		Organization: strings.TrimSpace(get("organization")),
		SortBy:       strings.TrimSpace(get("sort")),
	}
	if q.SortBy != "" && !pass.IsSortable(q.SortBy) {
		return pass.Query{}, &pass.ValidationError{Field: "sort", Message: "is not a sortable field"}
	}

	switch strings.ToLower(get("order")) {
	case "", "desc":
	case "asc":
		q.Ascending = true
	default:
		return pass.Query{}, &pass.ValidationError{Field: "order", Message: "must be asc or desc"}
	}

	var err error
	if q.Offset, err = nonNegative(get("offset")); err != nil {
		return pass.Query{}, &pass.ValidationError{Field: "offset", Message: "must be a non-negative integer"}
	}
	if q.Limit, err = nonNegative(get("limit")); err != nil {
		return pass.Query{}, &pass.ValidationError{Field: "limit", Message: "must be a non-negative integer"}
	}
	return q, nil
}

func nonNegative(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
