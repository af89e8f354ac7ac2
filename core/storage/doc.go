// Package storage wraps the MinIO client for the object-backed fallback
// store.
//
// Client covers the object calls the fallback makes; mocks.Client implements
// it for tests. The transport carries strict dial, TLS and header timeouts.
// Everything else is bounded by the caller's context.
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
