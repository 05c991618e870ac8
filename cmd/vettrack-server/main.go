package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vettrack/vettrack/internal/config"
	"github.com/vettrack/vettrack/internal/domain/attachment"
	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/internal/domain/exam"
	"github.com/vettrack/vettrack/internal/domain/examtemplate"
	"github.com/vettrack/vettrack/internal/domain/medication"
	"github.com/vettrack/vettrack/internal/domain/owner"
	"github.com/vettrack/vettrack/internal/domain/patient"
	"github.com/vettrack/vettrack/internal/domain/reminder"
	"github.com/vettrack/vettrack/internal/domain/visit"
	"github.com/vettrack/vettrack/internal/platform/auth"
	"github.com/vettrack/vettrack/internal/platform/blobstore"
	"github.com/vettrack/vettrack/internal/platform/db"
	"github.com/vettrack/vettrack/internal/platform/middleware"
	"github.com/vettrack/vettrack/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vettrack-server",
		Short: "Veterinary clinical records API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var blobs blobstore.BlobStore
	switch cfg.BlobBackend {
	case "memory":
		blobs = blobstore.NewInMemoryBlobStore()
	default:
		blobs, err = blobstore.NewLocalBlobStore(cfg.AttachmentsDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open attachments directory")
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
	}))
	e.Use(echomw.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes, 10)))

	authMode := auth.ModeHeader
	if cfg.AuthMode == "jwt" {
		authMode = auth.ModeJWT
	}
	e.Use(auth.Middleware(authMode, []byte(cfg.AuthJWTSecret)))

	// Repositories
	auditRepo := audit.NewRepo(pool)
	ownerRepo := owner.NewRepo(pool)
	patientRepo := patient.NewRepo(pool)
	visitRepo := visit.NewRepo(pool)
	templateRepo := examtemplate.NewRepo(pool)
	examRepo := exam.NewRepo(pool)
	medicationRepo := medication.NewRepo(pool)
	reminderRepo := reminder.NewRepo(pool)
	attachmentRepo := attachment.NewRepo(pool)

	// Services
	auditSvc := audit.NewService(auditRepo, logger)
	ownerSvc := owner.NewService(ownerRepo, patientRepo, auditSvc)
	patientSvc := patient.NewService(patientRepo, ownerRepo, auditSvc)
	visitSvc := visit.NewService(visitRepo, patientRepo, auditSvc)
	templateSvc := examtemplate.NewService(templateRepo, auditSvc)
	examSvc := exam.NewService(examRepo, patientRepo, visitRepo, templateRepo, auditSvc)
	medicationSvc := medication.NewService(medicationRepo, patientRepo, auditSvc)
	reminderSvc := reminder.NewService(reminderRepo, patientRepo, auditSvc, notification.NewLogNotifier(logger), logger)
	attachmentSvc := attachment.NewService(attachmentRepo, patientRepo, visitRepo, examRepo, blobs, auditSvc, logger)

	// Routes
	apiV1 := e.Group("/api/v1")
	audit.NewHandler(auditSvc).RegisterRoutes(apiV1)
	owner.NewHandler(ownerSvc).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	visit.NewHandler(visitSvc).RegisterRoutes(apiV1)
	examtemplate.NewHandler(templateSvc).RegisterRoutes(apiV1)
	exam.NewHandler(examSvc).RegisterRoutes(apiV1)
	medication.NewHandler(medicationSvc).RegisterRoutes(apiV1)
	reminder.NewHandler(reminderSvc).RegisterRoutes(apiV1)
	attachment.NewHandler(attachmentSvc).RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
