package cmd

import (
	"context"
	"fmt"
	"strings"

	"press-pass/core/database"
	"press-pass/core/store"
	"press-pass/core/store/sqlstore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkOnly bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the press_passes table of the SQL primary",
	Long: `Runs the schema migration for the SQL primary store.

With --check nothing is changed; the command fails when columns are missing.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only verify the table columns")
	RootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, l, err := loadEnv()
	if err != nil {
		return err
	}
	if cfg.Store.Primary != store.PrimarySQL {
		return fmt.Errorf("migrate needs store.primary=%s, got %q", store.PrimarySQL, cfg.Store.Primary)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if !checkOnly {
		if err := sqlstore.New(db).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		l.Info("Migration applied", zap.String("table", sqlstore.TableName))
	}

	missing, err := database.MissingColumns(db, sqlstore.TableName, sqlstore.Columns)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", sqlstore.TableName, err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns: %s", sqlstore.TableName, strings.Join(missing, ", "))
	}
	l.Info("Schema is up to date", zap.String("table", sqlstore.TableName))
	return nil
}
