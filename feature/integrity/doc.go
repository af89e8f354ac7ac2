// Package integrity exposes consistency checks between the primary store and
// its local fallback.
//
// # Checks Provided
//
//   - Mirrors: passes written to the fallback during an outage that the
//     primary never received, and fallback copies of passes the primary
//     holds (optionally purged).
//   - Schema: the press_passes columns of a SQL primary.
//
// # HTTP Endpoints
//
// All routes require the API key.
//
//   - GET /api/integrity : Runs all checks.
//   - GET /api/integrity/mirrors : Mirror report (supports ?purge=true).
//   - GET /api/integrity/mirrors/:id : One pass across both stores.
//   - GET /api/integrity/schema : SQL schema check.
package integrity
