package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/authz"
	"github.com/Candra0x6/Inventy-sub003/core/config"
	"github.com/Candra0x6/Inventy-sub003/core/database"
	"github.com/Candra0x6/Inventy-sub003/core/loader"
	"github.com/Candra0x6/Inventy-sub003/core/logger"
	"github.com/Candra0x6/Inventy-sub003/core/metrics"
	"github.com/Candra0x6/Inventy-sub003/core/middleware/rayid"
	"github.com/Candra0x6/Inventy-sub003/core/reconcile"
	"github.com/Candra0x6/Inventy-sub003/core/redisconn"
	"github.com/Candra0x6/Inventy-sub003/core/storage"

	"github.com/Candra0x6/Inventy-sub003/feature/attachment"
	"github.com/Candra0x6/Inventy-sub003/feature/inventory"
	"github.com/Candra0x6/Inventy-sub003/feature/overdue"
	"github.com/Candra0x6/Inventy-sub003/feature/reporting"
	"github.com/Candra0x6/Inventy-sub003/feature/reservation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/Candra0x6/Inventy-sub003/docs/swagger"
)

// reportCacheTTL bounds how stale the dashboard aggregates may get.
const reportCacheTTL = 30 * time.Second

// @title Brocy API
// @version 1.0
// @description Inventory and reservation management API.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the inventory server",
	Long:  `Starts the HTTP server, the overdue sweep scheduler, and all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := database.Migrate(db); err != nil {
			logg.Fatal("Failed to run migrations", zap.Error(err))
		}

		// 4. Initialize Storage (Optional)
		var store storage.Client
		if s, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Optional storage client failed, attachments disabled", zap.Error(err))
		} else if err := storage.EnsureBucket(context.Background(), s, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			logg.Warn("Optional storage bucket check failed, attachments disabled", zap.Error(err))
		} else {
			store = s
		}

		// 5. Item Locking: Redis lease when configured, in-process otherwise
		locker := reconcile.NewMemLocker()
		if cfg.Redis.Enabled() {
			client := redisconn.NewClient(cfg.Redis)
			if err := redisconn.Ping(context.Background(), client); err != nil {
				logg.Fatal("Failed to connect to redis", zap.Error(err))
			}
			locker = reconcile.NewRedisLocker(client)
			logg.Info("Using redis item leases", zap.String("address", cfg.Redis.Address))
		}

		m := metrics.New()
		engine := reconcile.NewEngine(db, locker, logg)
		sweeper := overdue.NewSweeper(db, &overdue.LogNotifier{Logger: logg}, m, logg,
			time.Duration(cfg.Sweep.IdempotencyHours)*time.Hour)

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 7. Register Features
		mgr := loader.NewManager()
		mgr.Register(inventory.NewFeature(db, engine, logg, m))
		mgr.Register(reservation.NewFeature(db, engine, logg))
		mgr.Register(overdue.NewFeature(sweeper, logg))
		mgr.Register(reporting.NewFeature(db, logg, reportCacheTTL))
		mgr.Register(attachment.NewFeature(db, store, cfg.Storage.Bucket, logg))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging + request duration
		app.Use(func(c *fiber.Ctx) error {
			start := time.Now()
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			m.RequestDuration.WithLabelValues(c.Method(), c.Route().Path).
				Observe(time.Since(start).Seconds())
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Public surfaces: docs and metrics
		app.Get("/swagger/*", swagger.HandlerDefault)
		if cfg.Server.MetricsEnabled {
			app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
		}

		// 4. Identity (everything below requires a session)
		app.Use(authz.Identity(db, cfg.Server.SessionHeader))

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Sweep Scheduler
		var scheduler *overdue.Scheduler
		if cfg.Sweep.Cron != "" {
			scheduler, err = overdue.NewScheduler(sweeper, cfg.Sweep.Cron, logg)
			if err != nil {
				logg.Fatal("Invalid sweep schedule", zap.Error(err))
			}
			scheduler.Start()
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		if scheduler != nil {
			scheduler.Stop()
		}
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
