package reconcile

import (
	"context"
	"fmt"
	"sort"

	"press-pass/core/pass"
)

// Engine reconciles the primary store against its fallback.
type Engine struct {
	spec  Spec
	cache cacheStore
}

// NewEngine creates an Engine for spec.
func NewEngine(spec Spec) *Engine {
	return &Engine{spec: spec}
}

// Invalidate drops cached indices, forcing the next call to reload.
func (e *Engine) Invalidate() {
	e.cache.invalidate()
}

// ReconcileAll returns one result per distinct pass, sorted by id.
func (e *Engine) ReconcileAll(ctx context.Context) ([]ReconcileResult, error) {
	cache, err := e.cache.get(ctx, e.spec)
	if err != nil {
		return nil, err
	}
	return reconcileFromCache(cache), nil
}

// ReconcileOne returns the result for a single id, matching primary ids,
// fallback ids and legacy ids. Unknown ids yield a result with both
// presence flags false.
func (e *Engine) ReconcileOne(ctx context.Context, id string) (*ReconcileResult, error) {
	cache, err := e.cache.get(ctx, e.spec)
	if err != nil {
		return nil, err
	}

	key := findKey(id, cache)
	if key == "" {
		return &ReconcileResult{ID: id, Mismatch: []string{}}, nil
	}
	result := buildResult(key, cache)
	return &result, nil
}

func reconcileFromCache(cache *ReconcileCache) []ReconcileResult {
	union := make(map[string]struct{}, len(cache.PrimaryIndex)+len(cache.FallbackIndex))
	for key := range cache.PrimaryIndex {
		union[key] = struct{}{}
	}
	for key := range cache.FallbackIndex {
		union[key] = struct{}{}
	}

	results := make([]ReconcileResult, 0, len(union))
	for key := range union {
		results = append(results, buildResult(key, cache))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})
	return results
}

func buildResult(key string, cache *ReconcileCache) ReconcileResult {
	primary, primaryPresent := cache.PrimaryIndex[key]
	fallback, fallbackPresent := cache.FallbackIndex[key]

	result := ReconcileResult{
		ID:              key,
		PrimaryPresent:  primaryPresent,
		FallbackPresent: fallbackPresent,
		Mismatch:        []string{},
	}
	switch {
	case primaryPresent:
		result.Name = primary.Name
	case fallbackPresent:
		result.Name = fallback.Name
	}
	if fallbackPresent && fallback.ID != key {
		result.FallbackID = fallback.ID
	}
	if primaryPresent && fallbackPresent {
		result.Mismatch = compareFields(primary, fallback)
	}
	return result
}

func findKey(id string, cache *ReconcileCache) string {
	if id == "" {
		return ""
	}
	if _, ok := cache.PrimaryIndex[id]; ok {
		return id
	}
	if _, ok := cache.FallbackIndex[id]; ok {
		return id
	}
	for key, r := range cache.FallbackIndex {
		if r.Matches(id) {
			return key
		}
	}
	return ""
}

// compareFields lists the holder and payment fields that differ.
func compareFields(primary, fallback pass.Record) []string {
	mismatch := []string{}
	add := func(field string, p, f any) {
		mismatch = append(mismatch, fmt.Sprintf("%s: primary=%v fallback=%v", field, p, f))
	}

	if primary.Name != fallback.Name {
		add("name", primary.Name, fallback.Name)
	}
	if primary.Email != fallback.Email {
		add("email", primary.Email, fallback.Email)
	}
	if deref(primary.Title) != deref(fallback.Title) {
		add("title", deref(primary.Title), deref(fallback.Title))
	}
	if deref(primary.Organization) != deref(fallback.Organization) {
		add("organization", deref(primary.Organization), deref(fallback.Organization))
	}
	if primary.DownloadType != fallback.DownloadType {
		add("download_type", primary.DownloadType, fallback.DownloadType)
	}
	if primary.Paid != fallback.Paid {
		add("paid", primary.Paid, fallback.Paid)
	}
	if primary.PaymentPending != fallback.PaymentPending {
		add("payment_pending", primary.PaymentPending, fallback.PaymentPending)
	}
	return mismatch
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
