package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"press-pass/core/loader"
	"press-pass/core/logger"
	"press-pass/core/middleware/rayid"
	"press-pass/core/reconcile"
	"press-pass/core/server"
	"press-pass/feature/health"
	"press-pass/feature/integrity"
	"press-pass/feature/passes"
	"press-pass/feature/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "press-pass/docs/swagger"
)

// @title Press Pass API
// @version 1.0
// @description API for recording press passes and paying for laminated copies.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the press pass server",
	Long:  `Starts the HTTP server, the optional mirror sweep and all enabled features.`,
	RunE:  runStart,
}

func init() {
	RootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, logg, err := loadEnv()
	if err != nil {
		return err
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	b, err := openBackend(ctx, cfg, logg, reg)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimit(),
		ErrorHandler:          server.ErrorHandler(logg),
	})
	app.Use(rayid.New())
	app.Use(recover.New())
	app.Use(logger.Requests(logg))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CorsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-API-Key, " + rayid.Header,
		AllowMethods: "GET, HEAD, POST, PATCH, DELETE, OPTIONS",
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	mgr := loader.NewManager()
	mgr.Register(health.NewFeature(b.ready))
	mgr.Register(passes.NewFeature(
		passes.NewService(b.store, logg, passes.WithStatsTTL(cfg.Stats.TTL())),
		cfg.Server.ApiKey,
	))
	provider := payment.NewStripeProvider(cfg.Stripe)
	mgr.Register(payment.NewFeature(payment.NewService(b.store, provider, logg), cfg.Stripe.Enabled()))

	engine := reconcile.NewEngine(b.reconcileSpec(cfg.Reconcile.CacheTTL()))
	var schema integrity.SchemaCheck
	if b.db != nil {
		schema = integrity.SQLSchemaCheck(b.db)
	}
	mgr.Register(integrity.NewFeature(integrity.NewService(engine, schema, logg), cfg.Server.ApiKey, b.ready))

	if err := mgr.LoadAll(app); err != nil {
		return err
	}
	if !cfg.Stripe.Enabled() {
		logg.Warn("Stripe secret key not set, payment routes disabled")
	}
	if cfg.Server.ApiKey == "" {
		logg.Warn("No API key set, admin routes are open")
	}

	if cfg.Reconcile.Schedule != "" {
		sweeper := cron.New()
		if _, err := sweeper.AddFunc(cfg.Reconcile.Schedule, func() { sweepMirrors(ctx, engine, logg) }); err != nil {
			return fmt.Errorf("invalid reconcile schedule: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
		logg.Info("Mirror sweep scheduled", zap.String("schedule", cfg.Reconcile.Schedule))
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("Starting server",
			zap.String("port", cfg.Server.Port),
			zap.Bool("primary_ready", b.ready),
			zap.String("fallback", cfg.Fallback.Driver))
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logg.Info("Shutting down server...")
	return app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout())
}

// sweepMirrors drops fallback copies identical to what the primary holds.
// Copies that differ are left for an operator.
func sweepMirrors(ctx context.Context, engine *reconcile.Engine, l *zap.Logger) {
	engine.Invalidate()
	plan, executed, err := engine.ReconcileAndApply(ctx, reconcile.ReconcileOptions{DoPurge: true, Confirmed: true})
	if err != nil {
		l.Warn("Mirror sweep failed", zap.Error(err))
		return
	}
	l.Info("Mirror sweep finished",
		zap.Int("fallback_only", plan.Summary.FallbackOnly),
		zap.Int("mirrors", plan.Summary.Mirrors),
		zap.Int("purged", executed),
		zap.Int("held", plan.Summary.Held))
}
