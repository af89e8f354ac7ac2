// Package reconcile compares the primary pass store with its local
// fallback.
//
// Passes written while the primary was unreachable live only in the
// fallback. Once the primary recovers the two collections drift: some
// passes exist in both (mirrors), some only in the fallback, and mirrored
// copies may disagree with the authoritative primary row.
//
// # Architecture
//
// 1. Cache: both stores are loaded concurrently and indexed by id. A local
//    copy stored under a new id with the primary id as its legacy id is
//    indexed under the primary id. Indices are kept for CacheTTL behind a
//    singleflight group.
//
// 2. Engine: builds the union of ids, flags presence in each store and
//    lists field mismatches between mirrored copies.
//
// 3. Plan: summarizes the results and, with DoPurge, plans purge_mirror
//    actions for fallback copies shadowed by a primary record. Copies that
//    differ from the primary are held unless IncludeMismatched is set.
//    ApplyPlan only runs confirmed, non dry-run plans. Fallback-only passes
//    are reported and never promoted.
//
// # Usage Example
//
//	engine := reconcile.NewEngine(reconcile.Spec{
//	    Primary:  primary,
//	    Fallback: fallback,
//	    Purger:   passStore,
//	    CacheTTL: time.Minute,
//	})
//
//	plan, executed, err := engine.ReconcileAndApply(ctx, reconcile.ReconcileOptions{
//	    DoPurge:   true,
//	    Confirmed: true,
//	})
package reconcile
