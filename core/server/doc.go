// Package server holds the HTTP server configuration and the JSON error
// mapping shared by every feature.
//
// # Configuration
//
// The Config struct defines the HTTP port, the admin API key, allowed CORS
// origins, the body limit and the graceful shutdown bound.
//
// # Errors
//
// Failure maps domain errors onto status codes: validation errors to 400,
// missing passes to 404, unavailable storage to 503 and anything else to
// 500. ErrorHandler plugs the same mapping into fiber so unmatched methods
// answer 405 with a JSON body.
package server
