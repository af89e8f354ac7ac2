package reconcile

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoPurger is returned by ApplyPlan when the spec has no Purger.
var ErrNoPurger = errors.New("reconcile spec has no mirror purger")

// ReconcileWithPlan reconciles both stores and derives a plan.
// It does NOT execute actions; use ApplyPlan for that.
func (e *Engine) ReconcileWithPlan(ctx context.Context, opts ReconcileOptions) (*ReconcilePlan, error) {
	cache, err := e.cache.get(ctx, e.spec)
	if err != nil {
		return nil, err
	}

	results := reconcileFromCache(cache)
	summary, actions := buildPlanFromResults(results, opts)

	return &ReconcilePlan{
		Results: results,
		Actions: actions,
		Summary: summary,
	}, nil
}

// ApplyPlan executes the actions in a plan and returns how many fallback
// entries were removed. Nothing runs unless opts.Confirmed is set and
// opts.DryRun is not.
func (e *Engine) ApplyPlan(ctx context.Context, plan *ReconcilePlan, opts ReconcileOptions) (executed int, err error) {
	if !opts.Confirmed || opts.DryRun {
		return 0, nil
	}

	var keys []string
	for _, action := range plan.Actions {
		if action.Type == ActionPurgeMirror {
			keys = append(keys, action.Key)
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if e.spec.Purger == nil {
		return 0, ErrNoPurger
	}

	executed, err = e.spec.Purger.DropMirrors(ctx, keys)
	if err != nil {
		return executed, fmt.Errorf("failed to purge %d mirrors: %w", len(keys), err)
	}
	// The fallback changed; the next plan must reload it.
	e.Invalidate()
	return executed, nil
}

// ReconcileAndApply plans and, when confirmed, applies the plan.
func (e *Engine) ReconcileAndApply(ctx context.Context, opts ReconcileOptions) (*ReconcilePlan, int, error) {
	plan, err := e.ReconcileWithPlan(ctx, opts)
	if err != nil {
		return nil, 0, err
	}

	executed, err := e.ApplyPlan(ctx, plan, opts)
	return plan, executed, err
}

func buildPlanFromResults(results []ReconcileResult, opts ReconcileOptions) (PlanSummary, []Action) {
	var summary PlanSummary
	var actions []Action

	summary.TotalItems = len(results)

	for _, result := range results {
		switch {
		case result.PrimaryPresent && result.FallbackPresent:
			summary.Mirrors++
		case result.PrimaryPresent:
			summary.PrimaryOnly++
		default:
			summary.FallbackOnly++
		}
		if len(result.Mismatch) > 0 {
			summary.Mismatches++
		}

		if !opts.DoPurge || !result.PrimaryPresent || !result.FallbackPresent {
			continue
		}
		if len(result.Mismatch) > 0 && !opts.IncludeMismatched {
			summary.Held++
			continue
		}
		actions = append(actions, Action{
			Type:   ActionPurgeMirror,
			Key:    result.ID,
			Reason: purgeReason(result),
		})
		summary.PurgeActions++
	}

	return summary, actions
}

func purgeReason(result ReconcileResult) string {
	if len(result.Mismatch) == 0 {
		return "mirrored in primary"
	}
	return fmt.Sprintf("mirrored in primary, stale fields: %v", result.Mismatch)
}
