// Package passes serves the press pass endpoints.
//
// POST /api/passes is public: the generator page calls it after rendering a
// badge. Listing, lookup, update, delete and statistics are admin routes
// guarded by the API key.
//
// Every route goes through the fallback-aware store, so the endpoints keep
// answering while the primary store is down. List responses say which
// store served them and whether filters were applied.
package passes
