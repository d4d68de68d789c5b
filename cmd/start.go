package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"performer-tag-sync/core/config"
	"performer-tag-sync/core/loader"
	"performer-tag-sync/core/logger"
	"performer-tag-sync/core/middleware/auth"
	"performer-tag-sync/core/middleware/httpmetrics"
	"performer-tag-sync/core/middleware/rayid"
	"performer-tag-sync/feature/integrity"
	"performer-tag-sync/feature/tagsync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "performer-tag-sync/docs/swagger"
)

// @title Performer Tag Sync API
// @version 1.0
// @description API for syncing performer tags to stash images, galleries and scenes.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the tag sync server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if err := cfg.Sync.Validate(); err != nil {
			log.Fatalf("Invalid sync configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to the stash database (features stay disabled without it)
		var (
			syncSvc      *tagsync.Service
			integritySvc *integrity.Service
		)
		db, err := openStash(cfg.Database, logg)
		if err != nil {
			logg.Warn("Stash database connection failed", zap.Error(err))
		} else {
			defer db.Close()
			logg.Info("Connected to stash database")

			integritySvc = newIntegrityService(cfg, db, logg)
			if syncSvc, err = newSyncService(cfg, db, logg); err != nil {
				logg.Fatal("Failed to create sync service", zap.Error(err))
			}
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 4. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(tagsync.NewFeature(syncSvc, logg))
		mgr.Register(integrity.NewFeature(integritySvc))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())
		app.Use(httpmetrics.New(httpmetrics.DefaultConfig()))

		// 2. Request logging with the ray id
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Public endpoints
		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

		// 4. Auth (Protect API)
		if !cfg.Server.AuthEnabled() {
			logg.Warn("SERVER_API_KEY is empty, the API is not protected")
		}
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: []string{"/swagger", "/metrics"}}))

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}
		for _, f := range mgr.Features() {
			logg.Info("Feature", zap.String("name", f.Name()), zap.Bool("enabled", f.IsEnabled()))
		}

		// 6. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		logg.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout()); err != nil {
			logg.Error("Server shutdown failed", zap.Error(err))
		}
		if syncSvc != nil {
			// Stop a background run before the database closes
			syncSvc.Close()
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
