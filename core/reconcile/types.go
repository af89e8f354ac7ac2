package reconcile

import (
	"context"
	"time"

	"press-pass/core/pass"
)

// ReconcileResult is the reconciliation output for one pass id.
type ReconcileResult struct {
	// ID is the primary id, or the fallback id for fallback-only entries.
	ID string `json:"id"`

	// Name is the holder name, preferring the primary copy.
	Name string `json:"name"`

	// PrimaryPresent indicates the pass exists in the primary store.
	PrimaryPresent bool `json:"primary_present"`

	// FallbackPresent indicates a local copy exists in the fallback store.
	FallbackPresent bool `json:"fallback_present"`

	// FallbackID is the id of the local copy when it differs from ID.
	FallbackID string `json:"fallback_id,omitempty"`

	// Mismatch describes fields that differ between the two copies,
	// e.g. "paid: primary=true fallback=false".
	Mismatch []string `json:"mismatch"`
}

// PrimaryLister is the read side of the primary store.
type PrimaryLister interface {
	List(ctx context.Context, q pass.Query) ([]pass.Record, error)
}

// FallbackLoader is the read side of the fallback store.
type FallbackLoader interface {
	Load(ctx context.Context) ([]pass.Record, error)
}

// MirrorPurger removes fallback copies by id or legacy id.
type MirrorPurger interface {
	DropMirrors(ctx context.Context, ids []string) (int, error)
}

// Spec bundles the sources of a reconciliation.
type Spec struct {
	// Primary is listed in full.
	Primary PrimaryLister

	// Fallback is loaded in full.
	Fallback FallbackLoader

	// Purger executes purge_mirror actions. Planning works without it.
	Purger MirrorPurger

	// CacheTTL is the time-to-live for cached indices.
	// If zero, caching is disabled.
	CacheTTL time.Duration
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionPurgeMirror removes a fallback copy shadowed by a primary record.
	ActionPurgeMirror ActionType = "purge_mirror"
)

// Action is a single planned mutation.
type Action struct {
	// Type is the kind of action.
	Type ActionType `json:"type"`

	// Key is the primary id the action applies to.
	Key string `json:"key"`

	// Reason is a human-readable explanation.
	Reason string `json:"reason"`
}

// ReconcilePlan holds the results and the actions derived from them.
type ReconcilePlan struct {
	Results []ReconcileResult `json:"results"`
	Actions []Action          `json:"actions"`
	Summary PlanSummary       `json:"summary"`
}

// PlanSummary aggregates a plan.
type PlanSummary struct {
	// TotalItems is the number of distinct passes across both stores.
	TotalItems int `json:"total_items"`

	// PrimaryOnly counts passes with no local copy.
	PrimaryOnly int `json:"primary_only"`

	// FallbackOnly counts passes written during an outage and never
	// recorded in the primary. They are reported, not promoted.
	FallbackOnly int `json:"fallback_only"`

	// Mirrors counts passes present in both stores.
	Mirrors int `json:"mirrors"`

	// Mismatches counts mirrors whose copies differ.
	Mismatches int `json:"mismatches"`

	// PurgeActions counts planned purge_mirror actions.
	PurgeActions int `json:"purge_actions"`

	// Held counts mismatched mirrors left in place by a purge.
	Held int `json:"held"`
}

// ReconcileOptions controls planning and execution.
type ReconcileOptions struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// DoPurge plans the removal of fallback copies shadowed by the primary.
	// Copies that differ from the primary are kept unless IncludeMismatched
	// is also set; they may carry changes made during an outage.
	DoPurge bool

	// IncludeMismatched extends DoPurge to copies that differ.
	IncludeMismatched bool

	// Confirmed indicates the caller has confirmed destructive actions.
	// If false, mutations will not execute regardless of DryRun.
	Confirmed bool
}
