package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"press-pass/feature/passes"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var listFlags = map[string]*string{
	"email":        new(string),
	"organization": new(string),
	"sort":         new(string),
	"order":        new(string),
	"offset":       new(string),
	"limit":        new(string),
}

var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "Inspect press passes in the configured stores",
}

var passesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List press passes",
	Args:  cobra.NoArgs,
	RunE: withPasses(func(ctx context.Context, svc *passes.Service, _ *zap.Logger, _ []string) error {
		q, err := passes.ParseQuery(func(key string) string { return *listFlags[key] })
		if err != nil {
			return err
		}
		page, err := svc.List(ctx, q)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tORGANIZATION\tCREATED\tPAID")
		for _, r := range page.Records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n",
				r.ID, r.Name, r.Email, deref(r.Organization), r.CreatedAt.Format(time.DateOnly), r.Paid)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d passes from %s", len(page.Records), page.Source)
		if page.Degraded {
			fmt.Print(" (degraded: filters, sort and paging not applied)")
		}
		fmt.Println()
		return nil
	}),
}

var passesGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one press pass",
	Args:  cobra.ExactArgs(1),
	RunE: withPasses(func(ctx context.Context, svc *passes.Service, _ *zap.Logger, args []string) error {
		r, err := svc.Get(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Println("\n--- Press Pass ---")
		fmt.Printf("ID:             %s\n", r.ID)
		if r.LegacyID != "" {
			fmt.Printf("Legacy ID:      %s\n", r.LegacyID)
		}
		fmt.Printf("Name:           %s\n", r.Name)
		fmt.Printf("Email:          %s\n", r.Email)
		fmt.Printf("Title:          %s\n", deref(r.Title))
		fmt.Printf("Organization:   %s\n", deref(r.Organization))
		fmt.Printf("Download:       %s\n", r.DownloadType)
		fmt.Printf("Created:        %s\n", r.CreatedAt.Format(time.RFC3339))
		fmt.Println("------------------")

		status, color := "UNPAID", "\033[33m"
		switch {
		case r.Paid:
			status, color = "PAID", "\033[32m"
		case r.PaymentPending:
			status, color = "PENDING", "\033[36m"
		}
		fmt.Printf("Payment:        %s%s\033[0m\n", color, status)
		if r.PaymentID != nil {
			fmt.Printf("Payment ID:     %s\n", *r.PaymentID)
		}
		if r.PaymentAmount != nil {
			fmt.Printf("Amount:         %s\n", strconv.FormatFloat(float64(*r.PaymentAmount)/100, 'f', 2, 64))
		}
		if r.PaymentDate != nil {
			fmt.Printf("Paid At:        %s\n", r.PaymentDate.Format(time.RFC3339))
		}
		fmt.Println("------------------")
		return nil
	}),
}

var passesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a press pass from both stores",
	Args:  cobra.ExactArgs(1),
	RunE: withPasses(func(ctx context.Context, svc *passes.Service, l *zap.Logger, args []string) error {
		if !confirmDestructiveAction() {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
		if err := svc.Delete(ctx, args[0]); err != nil {
			return err
		}
		l.Info("Press pass deleted", zap.String("id", args[0]))
		return nil
	}),
}

var passesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	Args:  cobra.NoArgs,
	RunE: withPasses(func(ctx context.Context, svc *passes.Service, _ *zap.Logger, _ []string) error {
		st, err := svc.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Total:          %d\n", st.Total)
		fmt.Printf("This month:     %d\n", st.Monthly)
		fmt.Printf("Email domains:  %d\n", st.EmailDomains)
		if st.Degraded {
			fmt.Println("(computed from the fallback store)")
		}
		return nil
	}),
}

func init() {
	f := passesListCmd.Flags()
	f.StringVar(listFlags["email"], "email", "", "Only passes with this email")
	f.StringVar(listFlags["organization"], "organization", "", "Only passes from this organization")
	f.StringVar(listFlags["sort"], "sort", "", "Sort key (created_at, name, email, ...)")
	f.StringVar(listFlags["order"], "order", "", "asc or desc")
	f.StringVar(listFlags["offset"], "offset", "", "Skip this many passes")
	f.StringVar(listFlags["limit"], "limit", "50", "Return at most this many passes")

	passesDeleteCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")

	passesCmd.AddCommand(passesListCmd, passesGetCmd, passesDeleteCmd, passesStatsCmd)
	RootCmd.AddCommand(passesCmd)
}

// withPasses opens the stores and runs fn against a passes service.
func withPasses(fn func(ctx context.Context, svc *passes.Service, l *zap.Logger, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, l, err := loadEnv()
		if err != nil {
			return err
		}
		b, err := openBackend(ctx, cfg, l, nil)
		if err != nil {
			return fmt.Errorf("failed to open stores: %w", err)
		}
		return fn(ctx, passes.NewService(b.store, l, passes.WithStatsTTL(0)), l, args)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
