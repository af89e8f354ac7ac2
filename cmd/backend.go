package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"press-pass/core/config"
	"press-pass/core/database"
	"press-pass/core/logger"
	"press-pass/core/metrics"
	"press-pass/core/reconcile"
	"press-pass/core/storage"
	"press-pass/core/store"
	"press-pass/core/store/local"
	"press-pass/core/store/sqlstore"
	"press-pass/core/store/supabase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errNoPrimary = errors.New("no primary store configured")

// backend is the wired store pair shared by the server and the CLI.
type backend struct {
	store    *store.Store
	primary  store.Primary
	fallback store.Fallback
	// ready is false when the primary could not be configured and the
	// service runs on the fallback alone.
	ready bool
	// db is set for the SQL primary.
	db *gorm.DB
}

// openBackend builds the primary and fallback stores selected by cfg. A
// primary that cannot be set up is replaced by store.Unavailable so every
// operation fails over; a fallback that cannot be set up is fatal.
func openBackend(ctx context.Context, cfg *config.Config, l *zap.Logger, reg prometheus.Registerer) (*backend, error) {
	fallback, err := openFallback(ctx, cfg, l)
	if err != nil {
		return nil, err
	}

	b := &backend{fallback: fallback}
	primary, db, err := openPrimary(ctx, cfg, l)
	if err != nil {
		l.Warn("Primary store unavailable, serving from fallback",
			zap.String("primary", cfg.Store.Primary), zap.Error(err))
		primary = store.Unavailable(err)
	} else {
		b.ready = true
		b.db = db
	}
	b.primary = primary

	opts := append(cfg.Store.Options(), store.WithLogger(l))
	if reg != nil {
		opts = append(opts, store.WithMetrics(metrics.New(reg)))
	}
	b.store = store.New(primary, fallback, opts...)
	return b, nil
}

func openPrimary(ctx context.Context, cfg *config.Config, l *zap.Logger) (store.Primary, *gorm.DB, error) {
	if !cfg.PrimaryConfigured() {
		return nil, nil, fmt.Errorf("%w: %q is missing settings", errNoPrimary, cfg.Store.Primary)
	}
	switch cfg.Store.Primary {
	case store.PrimarySupabase:
		client, err := supabase.New(cfg.Supabase)
		if err != nil {
			return nil, nil, err
		}
		l.Info("Using Supabase primary store", zap.String("url", cfg.Supabase.URL))
		return client, nil, nil

	case store.PrimarySQL:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		s := sqlstore.New(db)
		if cfg.Database.AutoMigrate {
			if err := s.Migrate(ctx); err != nil {
				return nil, nil, fmt.Errorf("failed to migrate %s: %w", sqlstore.TableName, err)
			}
		}
		l.Info("Using SQL primary store", zap.String("driver", cfg.Database.Driver))
		return s, db, nil

	default:
		return nil, nil, errNoPrimary
	}
}

func openFallback(ctx context.Context, cfg *config.Config, l *zap.Logger) (store.Fallback, error) {
	switch cfg.Fallback.Driver {
	case local.DriverMemory:
		l.Warn("Using in-memory fallback store; fallback writes are lost on exit")
		return local.NewMemoryStore(), nil

	case local.DriverObject:
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			// The bucket may become reachable later; Load and Save report
			// their own errors.
			l.Warn("Fallback bucket check failed", zap.Error(err))
		}
		return local.NewObjectStore(client, cfg.Storage.Bucket, cfg.Fallback.Object), nil

	default:
		return local.NewFileStore(afero.NewOsFs(), cfg.Fallback.Path), nil
	}
}

// reconcileSpec returns the mirror reconciliation sources for b.
func (b *backend) reconcileSpec(cacheTTL time.Duration) reconcile.Spec {
	return reconcile.Spec{
		Primary:  b.primary,
		Fallback: b.fallback,
		Purger:   b.store,
		CacheTTL: cacheTTL,
	}
}

// loadEnv loads the configuration and logger used by every command.
func loadEnv() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, l, nil
}
