package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"press-pass/core/metrics"
	"press-pass/core/pass"
	"press-pass/core/store"
	"press-pass/core/store/local"
	"press-pass/core/store/storetest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

type brokenFallback struct{}

func (brokenFallback) Load(context.Context) ([]pass.Record, error) {
	return nil, errors.New("disk unreadable")
}

func (brokenFallback) Save(context.Context, []pass.Record) error {
	return errors.New("disk full")
}

type fixture struct {
	primary  *storetest.Primary
	fallback *local.FileStore
	store    *store.Store
}

func newFixture(t *testing.T, opts ...store.Option) fixture {
	t.Helper()
	n := pass.NewNormalizer(pass.WithClock(func() time.Time { return fixedNow }))
	f := fixture{
		primary:  storetest.NewPrimary(),
		fallback: local.NewMemoryStore(),
	}
	f.store = store.New(f.primary, f.fallback, append([]store.Option{store.WithNormalizer(n)}, opts...)...)
	return f
}

func (f fixture) fallbackRecords(t *testing.T) []pass.Record {
	t.Helper()
	recs, err := f.fallback.Load(context.Background())
	require.NoError(t, err)
	return recs
}

func janeInput() pass.Input {
	return pass.Input{"name": "Jane Doe", "email": "jane@example.com", "pass_number": "FP-ABC123"}
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.store.Create(ctx, janeInput())
	require.NoError(t, err)
	assert.Equal(t, "FP-ABC123", created.ID)
	assert.Equal(t, "download", created.DownloadType)
	assert.Equal(t, fixedNow, created.CreatedAt)
	assert.False(t, created.Paid)

	got, err := f.store.Get(ctx, "FP-ABC123")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	name := "Jane Q. Doe"
	updated, err := f.store.Update(ctx, "FP-ABC123", pass.Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Jane Q. Doe", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, f.store.Delete(ctx, "FP-ABC123"))

	_, err = f.store.Get(ctx, "FP-ABC123")
	assert.ErrorIs(t, err, pass.ErrNotFound)
	assert.Empty(t, f.fallbackRecords(t))
}

func TestStore_CreateValidationWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []pass.Input{
		{"email": "jane@example.com"},
		{"name": "Jane Doe"},
		{"name": "Jane Doe", "email": "not-an-email"},
	}
	for _, in := range cases {
		_, err := f.store.Create(ctx, in)
		assert.True(t, pass.IsValidation(err), "input %v", in)
	}
	assert.Zero(t, f.primary.Calls())
	assert.Empty(t, f.fallbackRecords(t))
}

func TestStore_CreateUntracked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rec, err := f.store.Create(ctx, pass.Input{"name": "Walk In", "passId": "ignored"}, store.Untracked(), store.PaymentPending())
	require.NoError(t, err)
	assert.True(t, rec.PaymentPending)
	assert.Empty(t, rec.Email)
	assert.True(t, pass.IsGeneratedID(rec.ID))
}

func TestStore_FailoverShape(t *testing.T) {
	ctx := context.Background()
	up := newFixture(t)
	down := newFixture(t)
	down.primary.SetDown(true)

	a, err := up.store.Create(ctx, janeInput())
	require.NoError(t, err)
	b, err := down.store.Create(ctx, janeInput())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Empty(t, up.fallbackRecords(t))
	assert.Equal(t, []pass.Record{b}, down.fallbackRecords(t))
}

func TestStore_FailoverGetUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.primary.SetDown(true)

	_, err := f.store.Create(ctx, janeInput())
	require.NoError(t, err)

	got, err := f.store.Get(ctx, "FP-ABC123")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)

	org := "Daily Planet"
	p := pass.Patch{Organization: &org}
	first, err := f.store.Update(ctx, "FP-ABC123", p)
	require.NoError(t, err)
	second, err := f.store.Update(ctx, "FP-ABC123", p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.NotNil(t, second.Organization)
	assert.Equal(t, "Daily Planet", *second.Organization)

	_, err = f.store.Update(ctx, "FP-NOPE00", p)
	assert.ErrorIs(t, err, pass.ErrNotFound)
}

func TestStore_CreateRetryDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.primary.SetDown(true)

	_, err := f.store.Create(ctx, janeInput())
	require.NoError(t, err)
	_, err = f.store.Create(ctx, janeInput())
	require.NoError(t, err)

	assert.Len(t, f.fallbackRecords(t), 1)
}

func TestStore_CreateOutageRejectsTakenID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.primary.SetDown(true)

	_, err := f.store.Create(ctx, janeInput())
	require.NoError(t, err)

	rec, err := f.store.Create(ctx, pass.Input{"name": "Mallory", "email": "m@evil.io", "pass_number": "FP-ABC123"})
	assert.True(t, pass.IsValidation(err))
	assert.Empty(t, rec.Name)
	assert.Empty(t, rec.Email)

	recs := f.fallbackRecords(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "Jane Doe", recs[0].Name)
}

func TestStore_NotFoundDuringOutageIsUnconfirmed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.primary.Put(pass.Record{ID: "FP-ABC123", Name: "Jane Doe", PaymentPending: true})
	f.primary.SetDown(true)

	_, err := f.store.Update(ctx, "FP-ABC123", pass.MarkPaid("cs_test_1", 1500, fixedNow))
	assert.ErrorIs(t, err, pass.ErrNotFound)
	assert.True(t, store.Unconfirmed(err))

	_, err = f.store.Get(ctx, "FP-ABC123")
	assert.True(t, store.Unconfirmed(err))
	assert.True(t, store.Unconfirmed(f.store.Delete(ctx, "FP-ABC123")))

	f.primary.SetDown(false)
	_, err = f.store.Update(ctx, "FP-NOPE00", pass.MarkPaid("cs_test_1", 1500, fixedNow))
	assert.ErrorIs(t, err, pass.ErrNotFound)
	assert.False(t, store.Unconfirmed(err))
}

func TestStore_GetFallsThroughWhenPrimaryLacksRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.fallback.Save(ctx, []pass.Record{{ID: "FP-LOCAL1", LegacyID: "FP-OLD001", Name: "Offline"}}))

	got, err := f.store.Get(ctx, "FP-LOCAL1")
	require.NoError(t, err)
	assert.Equal(t, "Offline", got.Name)

	got, err = f.store.Get(ctx, "FP-OLD001")
	require.NoError(t, err)
	assert.Equal(t, "FP-LOCAL1", got.ID)
}

func TestStore_DeleteClearsBothStores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rec, err := f.store.Create(ctx, janeInput())
	require.NoError(t, err)
	require.NoError(t, f.fallback.Save(ctx, []pass.Record{rec, {ID: "FP-OTHER1", LegacyID: "FP-ABC123"}}))

	require.NoError(t, f.store.Delete(ctx, "FP-ABC123"))
	assert.Empty(t, f.primary.Rows())
	assert.Empty(t, f.fallbackRecords(t))
}

func TestStore_DeleteDuringOutage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.primary.SetDown(true)

	_, err := f.store.Create(ctx, janeInput())
	require.NoError(t, err)

	require.NoError(t, f.store.Delete(ctx, "FP-ABC123"))
	assert.Empty(t, f.fallbackRecords(t))
	assert.ErrorIs(t, f.store.Delete(ctx, "FP-ABC123"), pass.ErrNotFound)
}

func TestStore_DeleteMissing(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.store.Delete(context.Background(), "FP-NOPE00"), pass.ErrNotFound)
}

func TestStore_ListSources(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	older := pass.Input{"name": "Older", "email": "old@example.com", "pass_number": "FP-OLD001", "created_at": "2025-01-01T00:00:00Z"}
	newer := pass.Input{"name": "Newer", "email": "new@example.com", "pass_number": "FP-NEW001", "created_at": "2025-02-01T00:00:00Z"}
	for _, in := range []pass.Input{older, newer} {
		_, err := f.store.Create(ctx, in)
		require.NoError(t, err)
	}

	page, err := f.store.List(ctx, pass.Query{})
	require.NoError(t, err)
	assert.Equal(t, metrics.SourcePrimary, page.Source)
	assert.False(t, page.Degraded)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "FP-NEW001", page.Records[0].ID)

	require.NoError(t, f.fallback.Save(ctx, []pass.Record{{ID: "FP-LOCAL1", Name: "Local"}}))
	f.primary.SetDown(true)

	page, err = f.store.List(ctx, pass.Query{Email: "old@example.com", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, metrics.SourceFallback, page.Source)
	assert.True(t, page.Degraded)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "FP-LOCAL1", page.Records[0].ID)
}

func TestStore_ListEmpty(t *testing.T) {
	f := newFixture(t)
	page, err := f.store.List(context.Background(), pass.Query{})
	require.NoError(t, err)
	assert.NotNil(t, page.Records)
	assert.Empty(t, page.Records)
}

func TestStore_BothStoresDown(t *testing.T) {
	ctx := context.Background()
	primary := storetest.NewPrimary()
	primary.SetDown(true)
	s := store.New(primary, brokenFallback{})

	_, err := s.Create(ctx, janeInput())
	assert.ErrorIs(t, err, pass.ErrStorageUnavailable)
	assert.ErrorIs(t, err, storetest.ErrDown)

	_, err = s.Get(ctx, "FP-ABC123")
	assert.ErrorIs(t, err, pass.ErrStorageUnavailable)

	_, err = s.List(ctx, pass.Query{})
	assert.ErrorIs(t, err, pass.ErrStorageUnavailable)

	name := "X"
	_, err = s.Update(ctx, "FP-ABC123", pass.Patch{Name: &name})
	assert.ErrorIs(t, err, pass.ErrStorageUnavailable)

	assert.ErrorIs(t, s.Delete(ctx, "FP-ABC123"), pass.ErrStorageUnavailable)
}

func TestStore_PrimaryNotFoundWithBrokenFallback(t *testing.T) {
	s := store.New(storetest.NewPrimary(), brokenFallback{})
	_, err := s.Get(context.Background(), "FP-ABC123")
	assert.ErrorIs(t, err, pass.ErrNotFound)
}

func TestStore_PrimaryStoreErrorStaysInside(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.primary.SetDown(true)

	rec, err := f.store.Create(ctx, janeInput())
	require.NoError(t, err)

	_, err = f.store.Get(ctx, rec.ID)
	require.NoError(t, err)
	var perr *store.PrimaryStoreError
	assert.False(t, errors.As(err, &perr))
}

func TestStore_UpdateValidation(t *testing.T) {
	f := newFixture(t)
	empty := ""
	_, err := f.store.Update(context.Background(), "FP-ABC123", pass.Patch{Name: &empty})
	assert.True(t, pass.IsValidation(err))
	assert.Zero(t, f.primary.Calls())
}

func TestStore_EmptyPatchReturnsRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.store.Create(ctx, janeInput())
	require.NoError(t, err)

	got, err := f.store.Update(ctx, created.ID, pass.Patch{})
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestStore_GeneratedIDCollision(t *testing.T) {
	ctx := context.Background()
	ids := []string{"FP-AAAAAA", "FP-AAAAAA", "FP-BBBBBB"}
	next := 0
	gen := func() string {
		id := ids[next]
		next++
		return id
	}

	primary := storetest.NewPrimary()
	primary.Put(pass.Record{ID: "FP-AAAAAA", Name: "Taken"})
	s := store.New(primary, local.NewMemoryStore(), store.WithNormalizer(pass.NewNormalizer(pass.WithIDGenerator(gen))))

	rec, err := s.Create(ctx, pass.Input{"name": "Jane Doe", "email": "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "FP-BBBBBB", rec.ID)
}

func TestStore_GeneratedIDExhausted(t *testing.T) {
	primary := storetest.NewPrimary()
	primary.Put(pass.Record{ID: "FP-AAAAAA"})
	n := pass.NewNormalizer(pass.WithIDGenerator(func() string { return "FP-AAAAAA" }))
	s := store.New(primary, local.NewMemoryStore(), store.WithNormalizer(n), store.WithIDRetries(2))

	_, err := s.Create(context.Background(), pass.Input{"name": "Jane Doe", "email": "jane@example.com"})
	assert.ErrorIs(t, err, pass.ErrStorageUnavailable)
}

func TestStore_DropMirrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.fallback.Save(ctx, []pass.Record{
		{ID: "FP-AAAAAA"},
		{ID: "FP-LOCAL1", LegacyID: "FP-BBBBBB"},
		{ID: "FP-CCCCCC"},
	}))

	n, err := f.store.DropMirrors(ctx, []string{"FP-AAAAAA", "FP-BBBBBB", "FP-ZZZZZZ"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recs := f.fallbackRecords(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "FP-CCCCCC", recs[0].ID)

	n, err = f.store.DropMirrors(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	f := newFixture(t, store.WithMetrics(m))
	f.primary.SetDown(true)

	_, err := f.store.Create(ctx, janeInput())
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "presspass_store_failovers_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.Unavailable(nil), local.NewMemoryStore())

	rec, err := s.Create(ctx, janeInput())
	require.NoError(t, err)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}
