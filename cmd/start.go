package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wangkanai/foundation/core/archive"
	"github.com/wangkanai/foundation/core/config"
	"github.com/wangkanai/foundation/core/database"
	"github.com/wangkanai/foundation/core/entity"
	"github.com/wangkanai/foundation/core/logger"
	"github.com/wangkanai/foundation/core/middleware/auth"
	"github.com/wangkanai/foundation/core/middleware/rayid"
	"github.com/wangkanai/foundation/feature/audittrail"
	"github.com/wangkanai/foundation/feature/diagnostics"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the foundation server",
	Long:  `Starts the HTTP server, wires the identity caches and enables audit trail recording.`,
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

		// 3. Configure the type-resolution cache from config before any
		// comparisons run.
		entity.SetDefault(entity.NewResolver(cfg.Caches.TypeResolutionCapacity,
			entity.WithProxyPathSuffix(cfg.Caches.ProxyPathSuffix),
			entity.WithProxyMarker(cfg.Caches.ProxyMarker)))

		// 4. Connect to Database (Optional)
		var trailService *audittrail.Service
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed", zap.Error(err))
		} else {
			store := audittrail.NewStore(conn)
			if err := store.Migrate(); err != nil {
				logg.Warn("Audit table migration failed", zap.Error(err))
			}

			// Archive storage is optional too; audit recording keeps
			// blobs inline when it is unavailable.
			var archiver *audittrail.Archiver
			if cfg.Audit.ArchiveThresholdBytes > 0 {
				if client, err := archive.NewClient(cfg.Archive); err != nil {
					logg.Warn("Archive client creation failed", zap.Error(err))
				} else {
					archiver = audittrail.NewArchiver(client, cfg.Archive.Bucket,
						cfg.Audit.ArchiveThresholdBytes, logg)
				}
			}

			if cfg.Audit.Enabled {
				if err := conn.Use(audittrail.NewPlugin(store, archiver, logg)); err != nil {
					logg.Warn("Audit plugin registration failed", zap.Error(err))
				} else {
					logg.Info("Audit trail recording enabled")
				}
			}

			trailService = audittrail.NewService(store, archiver, logg)
		}

		// 5. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		// Ray ID tracing
		app.Use(rayid.New())

		// Request logging middleware
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

		// Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 6. Register Features
		diagnostics.NewHandler(logg).RegisterRoutes(app)
		if trailService != nil {
			audittrail.NewHandler(trailService, logg).RegisterRoutes(app)
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
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
