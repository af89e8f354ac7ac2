// Package config loads the service configuration.
//
// Values come from the environment, optionally seeded from a .env file, with
// defaults taken from the `default` struct tags of each section:
//   - server: port, API key, CORS origins, body limit
//   - log: level and format
//   - store: primary driver (supabase, sql or none) and its timeouts
//   - supabase / database: the primary's connection
//   - fallback / storage: where the local collection lives
//   - stripe: checkout and webhook settings
//   - reconcile, stats: the mirror sweep and statistics cache
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
