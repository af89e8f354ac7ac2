// Package store implements the fallback-aware pass store.
//
// A Store fronts two collaborators: a Primary (the hosted press_passes
// table) and a Fallback (one local collection). Every operation tries the
// primary first. A primary error is wrapped in *PrimaryStoreError, logged,
// counted and absorbed; the operation is then replayed against the fallback.
// Only when the fallback fails as well does the caller see
// pass.ErrStorageUnavailable.
//
// # Rules
//
//   - Input is normalized and validated before either store is touched.
//   - The fallback attempt starts only after the primary attempt returned.
//   - A record written to the fallback is never copied to the primary later.
//   - Delete is applied to both stores unconditionally, so stale fallback
//     mirrors left by an earlier outage do not resurface.
//   - List served from the fallback ignores filters, sort and paging and
//     says so through Page.Degraded.
//   - A fallback create reusing a stored pass number succeeds only when the
//     holder details match; otherwise it is a validation error.
//   - A pass missing from the fallback while the primary failed is reported
//     as not found with the primary failure attached; Unconfirmed detects it.
//
// Drivers live in sub-packages: sqlstore (GORM) and supabase (PostgREST)
// for the primary, local (file, memory, object storage) for the fallback.
package store
