package reconcile_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"press-pass/core/pass"
	"press-pass/core/reconcile"
	"press-pass/core/store"
	"press-pass/core/store/local"
	"press-pass/core/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLister struct {
	inner reconcile.PrimaryLister
	calls atomic.Int32
}

func (c *countingLister) List(ctx context.Context, q pass.Query) ([]pass.Record, error) {
	c.calls.Add(1)
	return c.inner.List(ctx, q)
}

type fixture struct {
	primary  *storetest.Primary
	fallback *local.FileStore
	store    *store.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{primary: storetest.NewPrimary(), fallback: local.NewMemoryStore()}
	f.store = store.New(f.primary, f.fallback)

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.primary.Put(pass.Record{ID: "FP-AAAAAA", Name: "Alice", Email: "a@example.com", DownloadType: "download", CreatedAt: created})
	f.primary.Put(pass.Record{ID: "FP-BBBBBB", Name: "Bob", Email: "b@example.com", DownloadType: "download", CreatedAt: created, Paid: true})
	f.primary.Put(pass.Record{ID: "FP-CCCCCC", Name: "Carol", Email: "c@example.com", DownloadType: "download", CreatedAt: created})

	require.NoError(t, f.fallback.Save(ctx, []pass.Record{
		// Exact mirror.
		{ID: "FP-AAAAAA", Name: "Alice", Email: "a@example.com", DownloadType: "download", CreatedAt: created},
		// Stale mirror stored under a local id.
		{ID: "FP-LOCALB", LegacyID: "FP-BBBBBB", Name: "Bob", Email: "b@example.com", DownloadType: "download", CreatedAt: created, PaymentPending: true},
		// Written during an outage, never recorded in the primary.
		{ID: "FP-DDDDDD", Name: "Dana", Email: "d@example.com", DownloadType: "download", CreatedAt: created},
	}))
	return f
}

func (f fixture) spec() reconcile.Spec {
	return reconcile.Spec{Primary: f.primary, Fallback: f.fallback, Purger: f.store}
}

func TestReconcileAll(t *testing.T) {
	f := newFixture(t)
	results, err := reconcile.NewEngine(f.spec()).ReconcileAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	byID := map[string]reconcile.ReconcileResult{}
	for _, r := range results {
		byID[r.ID] = r
	}

	a := byID["FP-AAAAAA"]
	assert.True(t, a.PrimaryPresent)
	assert.True(t, a.FallbackPresent)
	assert.Empty(t, a.Mismatch)

	b := byID["FP-BBBBBB"]
	assert.True(t, b.FallbackPresent)
	assert.Equal(t, "FP-LOCALB", b.FallbackID)
	assert.ElementsMatch(t, []string{
		"paid: primary=true fallback=false",
		"payment_pending: primary=false fallback=true",
	}, b.Mismatch)

	c := byID["FP-CCCCCC"]
	assert.True(t, c.PrimaryPresent)
	assert.False(t, c.FallbackPresent)

	d := byID["FP-DDDDDD"]
	assert.False(t, d.PrimaryPresent)
	assert.True(t, d.FallbackPresent)
	assert.Equal(t, "Dana", d.Name)

	assert.Equal(t, "FP-AAAAAA", results[0].ID)
}

func TestReconcileOne(t *testing.T) {
	f := newFixture(t)
	engine := reconcile.NewEngine(f.spec())
	ctx := context.Background()

	r, err := engine.ReconcileOne(ctx, "FP-LOCALB")
	require.NoError(t, err)
	assert.Equal(t, "FP-BBBBBB", r.ID)
	assert.True(t, r.PrimaryPresent)

	r, err = engine.ReconcileOne(ctx, "FP-ZZZZZZ")
	require.NoError(t, err)
	assert.False(t, r.PrimaryPresent)
	assert.False(t, r.FallbackPresent)
}

func TestReconcileWithPlan(t *testing.T) {
	f := newFixture(t)
	plan, err := reconcile.NewEngine(f.spec()).ReconcileWithPlan(context.Background(), reconcile.ReconcileOptions{DoPurge: true})
	require.NoError(t, err)

	assert.Equal(t, reconcile.PlanSummary{
		TotalItems:   4,
		PrimaryOnly:  1,
		FallbackOnly: 1,
		Mirrors:      2,
		Mismatches:   1,
		PurgeActions: 1,
		Held:         1,
	}, plan.Summary)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, reconcile.ActionPurgeMirror, plan.Actions[0].Type)
	assert.Equal(t, "FP-AAAAAA", plan.Actions[0].Key)
}

func TestReconcileWithPlan_IncludeMismatched(t *testing.T) {
	f := newFixture(t)
	plan, err := reconcile.NewEngine(f.spec()).ReconcileWithPlan(context.Background(),
		reconcile.ReconcileOptions{DoPurge: true, IncludeMismatched: true})
	require.NoError(t, err)

	assert.Equal(t, 2, plan.Summary.PurgeActions)
	assert.Zero(t, plan.Summary.Held)

	keys := []string{}
	for _, a := range plan.Actions {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{"FP-AAAAAA", "FP-BBBBBB"}, keys)
	assert.Contains(t, plan.Actions[1].Reason, "stale fields")
}

func TestApplyPlan_KeepsMismatchedMirrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	engine := reconcile.NewEngine(f.spec())

	_, executed, err := engine.ReconcileAndApply(ctx, reconcile.ReconcileOptions{DoPurge: true, Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 1, executed)

	recs, err := f.fallback.Load(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"FP-LOCALB", "FP-DDDDDD"}, ids)
}

func TestReconcileWithPlan_NoPurge(t *testing.T) {
	f := newFixture(t)
	plan, err := reconcile.NewEngine(f.spec()).ReconcileWithPlan(context.Background(), reconcile.ReconcileOptions{})
	require.NoError(t, err)
	assert.Empty(t, plan.Actions)
	assert.Zero(t, plan.Summary.PurgeActions)
}

func TestApplyPlan_RequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	engine := reconcile.NewEngine(f.spec())

	for _, opts := range []reconcile.ReconcileOptions{
		{DoPurge: true},
		{DoPurge: true, Confirmed: true, DryRun: true},
	} {
		_, executed, err := engine.ReconcileAndApply(ctx, opts)
		require.NoError(t, err)
		assert.Zero(t, executed)
	}

	recs, err := f.fallback.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestApplyPlan_PurgesMirrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	engine := reconcile.NewEngine(f.spec())

	_, executed, err := engine.ReconcileAndApply(ctx, reconcile.ReconcileOptions{DoPurge: true, IncludeMismatched: true, Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 2, executed)

	recs, err := f.fallback.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "FP-DDDDDD", recs[0].ID)
	assert.Len(t, f.primary.Rows(), 3)

	plan, err := engine.ReconcileWithPlan(ctx, reconcile.ReconcileOptions{DoPurge: true})
	require.NoError(t, err)
	assert.Zero(t, plan.Summary.Mirrors)
	assert.Equal(t, 1, plan.Summary.FallbackOnly)
}

func TestApplyPlan_NoPurger(t *testing.T) {
	f := newFixture(t)
	spec := f.spec()
	spec.Purger = nil
	engine := reconcile.NewEngine(spec)

	_, _, err := engine.ReconcileAndApply(context.Background(), reconcile.ReconcileOptions{DoPurge: true, Confirmed: true})
	assert.ErrorIs(t, err, reconcile.ErrNoPurger)
}

func TestBuildCache_PrimaryDown(t *testing.T) {
	f := newFixture(t)
	f.primary.SetDown(true)

	_, err := reconcile.NewEngine(f.spec()).ReconcileAll(context.Background())
	assert.True(t, errors.Is(err, storetest.ErrDown))
}

func TestCache_TTL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lister := &countingLister{inner: f.primary}
	engine := reconcile.NewEngine(reconcile.Spec{Primary: lister, Fallback: f.fallback, CacheTTL: time.Minute})

	_, err := engine.ReconcileAll(ctx)
	require.NoError(t, err)
	_, err = engine.ReconcileOne(ctx, "FP-AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, int32(1), lister.calls.Load())

	engine.Invalidate()
	_, err = engine.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), lister.calls.Load())
}

func TestCache_Disabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lister := &countingLister{inner: f.primary}
	engine := reconcile.NewEngine(reconcile.Spec{Primary: lister, Fallback: f.fallback})

	for i := 0; i < 3; i++ {
		_, err := engine.ReconcileAll(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), lister.calls.Load())
}
