package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"press-pass/core/metrics"
	"press-pass/core/pass"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Operation names used in logs, metrics and errors.
const (
	OpCreate = "create"
	OpGet    = "get"
	OpList   = "list"
	OpUpdate = "update"
	OpDelete = "delete"
)

const (
	defaultPrimaryTimeout = 10 * time.Second
	defaultIDRetries      = 5
)

var errIDTaken = errors.New("generated pass id already taken")

// Primary is the remote, authoritative press_passes collection keyed by
// pass number. Absent rows are reported as pass.ErrNotFound; any other error
// counts as a primary failure.
type Primary interface {
	Insert(ctx context.Context, rec pass.Record) (pass.Record, error)
	Get(ctx context.Context, id string) (pass.Record, error)
	List(ctx context.Context, q pass.Query) ([]pass.Record, error)
	Update(ctx context.Context, id string, p pass.Patch) (pass.Record, error)
	Delete(ctx context.Context, id string) error
}

// Fallback is the local collection used while the primary is unreachable.
// A missing collection loads as empty.
type Fallback interface {
	Load(ctx context.Context) ([]pass.Record, error)
	Save(ctx context.Context, recs []pass.Record) error
}

// Page is the result of List.
type Page struct {
	Records []pass.Record `json:"records"`
	// Source is metrics.SourcePrimary or metrics.SourceFallback.
	Source string `json:"source"`
	// Degraded is set when filters, sort and paging were not applied.
	Degraded bool `json:"degraded"`
}

// Store is the fallback-aware facade over a Primary and a Fallback.
type Store struct {
	primary    Primary
	fallback   Fallback
	normalizer *pass.Normalizer
	logger     *zap.Logger
	metrics    *metrics.Metrics

	primaryTimeout time.Duration
	idRetries      uint64

	// mu serializes load-modify-save on the fallback collection.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for absorbed primary errors.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *pass.Normalizer) Option {
	return func(s *Store) { s.normalizer = n }
}

// WithPrimaryTimeout bounds each primary call. Zero disables the bound.
func WithPrimaryTimeout(d time.Duration) Option {
	return func(s *Store) { s.primaryTimeout = d }
}

// WithIDRetries sets how many times a colliding generated id is replaced.
func WithIDRetries(n uint64) Option {
	return func(s *Store) { s.idRetries = n }
}

// New creates a Store over primary and fallback.
func New(primary Primary, fallback Fallback, opts ...Option) *Store {
	s := &Store{
		primary:        primary,
		fallback:       fallback,
		normalizer:     pass.NewNormalizer(),
		logger:         zap.NewNop(),
		primaryTimeout: defaultPrimaryTimeout,
		idRetries:      defaultIDRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalizer returns the normalizer the store validates input with.
func (s *Store) Normalizer() *pass.Normalizer {
	return s.normalizer
}

type createOptions struct {
	mode           pass.Mode
	paymentPending bool
}

// CreateOption adjusts Create.
type CreateOption func(*createOptions)

// Untracked accepts a record without an email, as the checkout path does.
func Untracked() CreateOption {
	return func(o *createOptions) { o.mode = pass.ModeOptionalEmail }
}

// PaymentPending marks the new record as awaiting payment.
func PaymentPending() CreateOption {
	return func(o *createOptions) { o.paymentPending = true }
}

// Create normalizes in and writes it to the primary, or to the fallback if
// the primary fails. The returned record has the same shape either way.
func (s *Store) Create(ctx context.Context, in pass.Input, opts ...CreateOption) (pass.Record, error) {
	co := createOptions{mode: pass.ModeTracking}
	for _, opt := range opts {
		opt(&co)
	}

	rec, err := s.normalizer.Normalize(in, co.mode)
	if err != nil {
		return pass.Record{}, err
	}
	rec.PaymentPending = co.paymentPending

	if pass.ExplicitID(in) == "" {
		id, err := s.uniqueID(ctx, rec.ID)
		if err != nil {
			return pass.Record{}, err
		}
		rec.ID = id
	}

	var stored pass.Record
	perr := s.tryPrimary(ctx, OpCreate, func(ctx context.Context) error {
		var err error
		stored, err = s.primary.Insert(ctx, rec)
		return err
	})
	if perr == nil {
		return stored, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.fallback.Load(ctx)
	if err != nil {
		return s.fallbackFailed(OpCreate, perr, err)
	}
	if existing, ok := find(recs, rec.ID); ok {
		if !existing.SameDetails(rec) {
			return pass.Record{}, &pass.ValidationError{Field: "pass_number", Message: "is already in use"}
		}
		// A retried create during an outage must not duplicate the pass.
		s.served(OpCreate)
		return existing, nil
	}
	if err := s.fallback.Save(ctx, append(recs, rec)); err != nil {
		return s.fallbackFailed(OpCreate, perr, err)
	}
	s.served(OpCreate)
	return rec, nil
}

// Get returns the pass with the given id. The fallback is searched when the
// primary fails or does not hold it, matching the id or the legacy id.
func (s *Store) Get(ctx context.Context, id string) (pass.Record, error) {
	var rec pass.Record
	perr := s.tryPrimary(ctx, OpGet, func(ctx context.Context) error {
		var err error
		rec, err = s.primary.Get(ctx, id)
		return err
	})
	if perr == nil {
		return rec, nil
	}

	s.mu.Lock()
	recs, err := s.fallback.Load(ctx)
	s.mu.Unlock()
	if err != nil {
		return s.fallbackFailed(OpGet, perr, err)
	}
	if found, ok := find(recs, id); ok {
		s.served(OpGet)
		return found, nil
	}
	return pass.Record{}, notFound(perr)
}

// List queries the primary. If it fails, the whole fallback collection is
// returned as is and the page is flagged as degraded.
func (s *Store) List(ctx context.Context, q pass.Query) (Page, error) {
	var recs []pass.Record
	perr := s.tryPrimary(ctx, OpList, func(ctx context.Context) error {
		var err error
		recs, err = s.primary.List(ctx, q)
		return err
	})
	if perr == nil {
		if recs == nil {
			recs = []pass.Record{}
		}
		return Page{Records: recs, Source: metrics.SourcePrimary}, nil
	}

	s.mu.Lock()
	recs, err := s.fallback.Load(ctx)
	s.mu.Unlock()
	if err != nil {
		_, ferr := s.fallbackFailed(OpList, perr, err)
		return Page{}, ferr
	}
	if recs == nil {
		recs = []pass.Record{}
	}
	s.served(OpList)
	return Page{Records: recs, Source: metrics.SourceFallback, Degraded: true}, nil
}

// Update applies the named fields of p to the pass with the given id.
func (s *Store) Update(ctx context.Context, id string, p pass.Patch) (pass.Record, error) {
	if err := s.normalizer.ValidatePatch(p); err != nil {
		return pass.Record{}, err
	}
	if p.IsEmpty() {
		return s.Get(ctx, id)
	}

	var rec pass.Record
	perr := s.tryPrimary(ctx, OpUpdate, func(ctx context.Context) error {
		var err error
		rec, err = s.primary.Update(ctx, id, p)
		return err
	})
	if perr == nil {
		return rec, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.fallback.Load(ctx)
	if err != nil {
		return s.fallbackFailed(OpUpdate, perr, err)
	}
	idx := indexOf(recs, id)
	if idx < 0 {
		return pass.Record{}, notFound(perr)
	}
	recs[idx] = p.Apply(recs[idx])
	if err := s.fallback.Save(ctx, recs); err != nil {
		return s.fallbackFailed(OpUpdate, perr, err)
	}
	s.served(OpUpdate)
	return recs[idx], nil
}

// Delete removes the pass from the primary and, regardless of that outcome,
// every matching entry from the fallback.
func (s *Store) Delete(ctx context.Context, id string) error {
	perr := s.tryPrimary(ctx, OpDelete, func(ctx context.Context) error {
		return s.primary.Delete(ctx, id)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, ferr := s.removeFallback(ctx, func(r pass.Record) bool { return r.Matches(id) })
	switch {
	case perr == nil:
		if ferr != nil {
			s.logger.Warn("Fallback cleanup failed after primary delete",
				zap.String("id", id), zap.Error(ferr))
		}
		return nil
	case ferr != nil:
		_, err := s.fallbackFailed(OpDelete, perr, ferr)
		return err
	case removed > 0:
		s.served(OpDelete)
		return nil
	default:
		return notFound(perr)
	}
}

// DropMirrors removes fallback entries whose id or legacy id is in ids and
// returns how many were removed. The primary is not touched.
func (s *Store) DropMirrors(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeFallback(ctx, func(r pass.Record) bool {
		if _, ok := set[r.ID]; ok {
			return true
		}
		_, ok := set[r.LegacyID]
		return ok && r.LegacyID != ""
	})
}

// removeFallback drops entries matching drop. The caller holds s.mu.
func (s *Store) removeFallback(ctx context.Context, drop func(pass.Record) bool) (int, error) {
	recs, err := s.fallback.Load(ctx)
	if err != nil {
		return 0, err
	}
	kept := recs[:0:0]
	for _, r := range recs {
		if !drop(r) {
			kept = append(kept, r)
		}
	}
	removed := len(recs) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.fallback.Save(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// tryPrimary runs one primary call under the primary timeout. It returns
// nil, pass.ErrNotFound, or an absorbed *PrimaryStoreError.
func (s *Store) tryPrimary(ctx context.Context, op string, fn func(context.Context) error) error {
	err := s.callPrimary(ctx, fn)
	switch {
	case err == nil:
		s.metrics.ObserveOp(op, metrics.SourcePrimary, "ok")
		return nil
	case errors.Is(err, pass.ErrNotFound):
		s.metrics.ObserveOp(op, metrics.SourcePrimary, "not_found")
		return pass.ErrNotFound
	}

	s.logger.Warn("Primary store failed, using fallback", zap.String("op", op), zap.Error(err))
	s.metrics.ObserveFailover(op)
	return &PrimaryStoreError{Op: op, Err: err}
}

func (s *Store) callPrimary(ctx context.Context, fn func(context.Context) error) error {
	if s.primaryTimeout <= 0 {
		return fn(ctx)
	}
	pctx, cancel := context.WithTimeout(ctx, s.primaryTimeout)
	defer cancel()
	return fn(pctx)
}

// fallbackFailed resolves a fallback failure. When the primary had answered
// "not found" the pass is reported missing; otherwise both stores failed.
func (s *Store) fallbackFailed(op string, perr, ferr error) (pass.Record, error) {
	s.metrics.ObserveOp(op, metrics.SourceFallback, "error")
	if errors.Is(perr, pass.ErrNotFound) {
		s.logger.Warn("Fallback store failed", zap.String("op", op), zap.Error(ferr))
		return pass.Record{}, pass.ErrNotFound
	}
	s.logger.Error("Both stores failed", zap.String("op", op),
		zap.NamedError("primary", perr), zap.NamedError("fallback", ferr))
	return pass.Record{}, unavailable(op, perr, ferr)
}

func (s *Store) served(op string) {
	s.metrics.ObserveOp(op, metrics.SourceFallback, "ok")
}

// uniqueID replaces a generated id until no store holds it.
func (s *Store) uniqueID(ctx context.Context, id string) (string, error) {
	backoff := retry.WithMaxRetries(s.idRetries, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if !s.idTaken(ctx, id) {
			return nil
		}
		s.logger.Debug("Generated pass id collided", zap.String("id", id))
		id = s.normalizer.NewID()
		return retry.RetryableError(errIDTaken)
	})
	if err != nil {
		return "", unavailable(OpCreate, err, nil)
	}
	return id, nil
}

// idTaken checks the primary, or the fallback when the primary cannot say.
// A store that cannot be read is treated as not holding the id.
func (s *Store) idTaken(ctx context.Context, id string) bool {
	err := s.callPrimary(ctx, func(ctx context.Context) error {
		_, err := s.primary.Get(ctx, id)
		return err
	})
	if err == nil {
		return true
	}

	s.mu.Lock()
	recs, lerr := s.fallback.Load(ctx)
	s.mu.Unlock()
	if lerr != nil {
		return false
	}
	_, ok := find(recs, id)
	return ok
}

func find(recs []pass.Record, id string) (pass.Record, bool) {
	if i := indexOf(recs, id); i >= 0 {
		return recs[i], true
	}
	return pass.Record{}, false
}

func indexOf(recs []pass.Record, id string) int {
	for i, r := range recs {
		if r.ID == id {
			return i
		}
	}
	for i, r := range recs {
		if r.Matches(id) {
			return i
		}
	}
	return -1
}
