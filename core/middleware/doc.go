// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation for the admin endpoints.
//   - rayid: a unique Request ID (RayID) for every incoming request, stored in
//     the context and echoed in the response headers for tracing.
//
// rayid is registered globally first. auth is attached per route group so
// the public pass creation, checkout and webhook routes stay open.
package middleware
