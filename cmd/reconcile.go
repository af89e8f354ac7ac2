package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"press-pass/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	purgeMirrors      bool
	includeMismatched bool
	dryRunMirrors     bool
	yesConfirm        bool
)

// reconcileCmd is the parent command for all reconcile operations.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare the primary store with the local fallback",
}

var mirrorsReconcileCmd = &cobra.Command{
	Use:   "mirrors",
	Short: "Report fallback entries and optionally purge mirrored copies",
	Long: `Compare the primary store with the local fallback collection.

Reports passes that exist only in the fallback (written during an outage and
never stored remotely) and fallback copies of passes the primary already
holds, with any field differences. Fallback-only passes are never touched.

Examples:
  # Report only
  reconcile mirrors

  # Purge mirrored copies (with interactive confirmation)
  reconcile mirrors --purge

  # Purge with auto-confirm (non-interactive)
  reconcile mirrors --purge --yes

  # Also purge copies that differ from the primary
  reconcile mirrors --purge --include-mismatched`,
	RunE: runMirrorsReconcile,
}

func init() {
	reconcileCmd.AddCommand(mirrorsReconcileCmd)

	mirrorsReconcileCmd.Flags().BoolVar(&purgeMirrors, "purge", false, "Remove fallback copies of passes the primary holds")
	mirrorsReconcileCmd.Flags().BoolVar(&includeMismatched, "include-mismatched", false, "With --purge, also remove copies that differ from the primary")
	mirrorsReconcileCmd.Flags().BoolVar(&dryRunMirrors, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	mirrorsReconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")

	RootCmd.AddCommand(reconcileCmd)
}

func runMirrorsReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, l, err := loadEnv()
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg, l, nil)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	if !b.ready {
		return fmt.Errorf("reconciliation needs the primary store: %w", errNoPrimary)
	}

	engine := reconcile.NewEngine(b.reconcileSpec(0))
	opts := reconcile.ReconcileOptions{
		DoPurge:           purgeMirrors,
		IncludeMismatched: includeMismatched,
		DryRun:            dryRunMirrors,
	}

	l.Info("Planning reconciliation...")
	plan, err := engine.ReconcileWithPlan(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to plan reconciliation: %w", err)
	}
	printReconcileReport(l, plan)

	if !purgeMirrors {
		l.Info("No actions requested. Use --purge to remove mirrored fallback copies.")
		return nil
	}
	if dryRunMirrors {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if len(plan.Actions) == 0 {
		l.Info("No actions required.")
		return nil
	}

	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}
	opts.Confirmed = true

	l.Info("Applying actions...")
	executed, err := engine.ApplyPlan(ctx, plan, opts)
	if err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}
	l.Info("Successfully executed actions", zap.Int("count", executed))
	return nil
}

// printReconcileReport logs the summary and a sample of the findings.
func printReconcileReport(l *zap.Logger, plan *reconcile.ReconcilePlan) {
	s := plan.Summary

	l.Info("Reconciliation report",
		zap.Int("total_items", s.TotalItems),
		zap.Int("primary_only", s.PrimaryOnly),
		zap.Int("fallback_only", s.FallbackOnly),
		zap.Int("mirrors", s.Mirrors),
		zap.Int("mismatches", s.Mismatches),
	)
	if s.Held > 0 {
		l.Warn("Mismatched mirrors kept; use --include-mismatched to purge them", zap.Int("count", s.Held))
	}

	const maxShow = 5
	shown := 0
	for _, r := range plan.Results {
		if r.PrimaryPresent || shown == maxShow {
			continue
		}
		l.Warn("Pass only in fallback", zap.String("id", r.ID), zap.String("name", r.Name))
		shown++
	}

	for i, action := range plan.Actions {
		if i == maxShow {
			l.Info("Additional actions not shown", zap.Int("count", len(plan.Actions)-maxShow))
			break
		}
		l.Info("Planned action",
			zap.String("type", string(action.Type)),
			zap.String("key", action.Key),
			zap.String("reason", action.Reason),
		)
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
