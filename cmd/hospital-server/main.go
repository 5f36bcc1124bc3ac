package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hospital/hospital-api/internal/config"
	"github.com/hospital/hospital-api/internal/domain/appointment"
	"github.com/hospital/hospital-api/internal/domain/department"
	"github.com/hospital/hospital-api/internal/domain/doctor"
	"github.com/hospital/hospital-api/internal/domain/emergency"
	"github.com/hospital/hospital-api/internal/domain/identity"
	"github.com/hospital/hospital-api/internal/domain/leave"
	"github.com/hospital/hospital-api/internal/domain/patient"
	"github.com/hospital/hospital-api/internal/domain/report"
	"github.com/hospital/hospital-api/internal/domain/schedule"
	"github.com/hospital/hospital-api/internal/platform/auth"
	"github.com/hospital/hospital-api/internal/platform/db"
	"github.com/hospital/hospital-api/internal/platform/middleware"
	"github.com/hospital/hospital-api/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hospital-server",
		Short: "Hospital appointment API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

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
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo departments, an admin account and demo doctors",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			return seed(ctx, pool)
		},
	}
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
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

	defaultFee, err := decimal.NewFromString(cfg.DefaultAppointmentFee)
	if err != nil {
		logger.Fatal().Err(err).Str("fee", cfg.DefaultAppointmentFee).Msg("DEFAULT_APPOINTMENT_FEE is not a valid decimal")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Public endpoints take unauthenticated traffic; staff endpoints sit
	// behind JWT auth on a separate group with the same prefix.
	public := e.Group("/api/v1")
	public.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	api := e.Group("/api/v1")
	if cfg.IsDev() {
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware([]byte(cfg.JWTSecret)))
	}

	// Notification delivery
	templates := notification.NewTemplateEngine()
	var emailSender notification.EmailSender = notification.LogEmailSender{Log: logger}
	if cfg.SMTPHost != "" {
		emailSender = &smtpSender{host: cfg.SMTPHost, from: cfg.SMTPFrom}
		logger.Info().Str("host", cfg.SMTPHost).Msg("SMTP delivery enabled")
	}
	smsSender := notification.LogSMSSender{Log: logger.With().Str("sms_from", cfg.SMSFrom).Logger()}
	notifySvc := notification.NewService(emailSender, smsSender, templates, logger)

	// Repositories and services
	deptRepo := department.NewRepoPG(pool)
	deptSvc := department.NewService(deptRepo)

	doctorRepo := doctor.NewRepoPG(pool)
	doctorSvc := doctor.NewService(doctorRepo)

	identityRepo := identity.NewRepoPG(pool)
	identitySvc := identity.NewService(identityRepo, doctorSvc, &resetNotifier{
		notify:  notifySvc,
		baseURL: cfg.PublicBaseURL,
	}, []byte(cfg.JWTSecret))

	apptRepo := appointment.NewRepoPG(pool)
	bookingNotify := &bookingNotifier{
		notify:  notifySvc,
		users:   identitySvc,
		doctors: doctorSvc,
		baseURL: cfg.PublicBaseURL,
		log:     logger,
	}
	apptSvc := appointment.NewService(apptRepo, doctorSvc, deptRepo, bookingNotify, appointment.Config{
		SlotMinutes:  cfg.SlotDurationMinutes,
		CancelWindow: time.Duration(cfg.CancelWindowHours) * time.Hour,
		DefaultFee:   defaultFee,
	})

	patientResolver := patient.NewResolver(identitySvc)

	leaveRepo := leave.NewRepoPG(pool)
	leaveSvc := leave.NewService(leaveRepo, doctorSvc)

	reportRepo := report.NewRepoPG(pool)
	reportSvc := report.NewService(reportRepo, apptSvc)

	emergencyRepo := emergency.NewRepoPG(pool)
	emergencySvc := emergency.NewService(emergencyRepo)
	if err := emergencySvc.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load emergency status")
	}

	// Handlers
	department.NewHandler(deptSvc, doctorSvc).RegisterRoutes(api, public)
	doctor.NewHandler(doctorSvc).RegisterRoutes(api, public)
	appointment.NewHandler(apptSvc, patientResolver).RegisterRoutes(api, public)
	leave.NewHandler(leaveSvc).RegisterRoutes(api, public)
	identity.NewHandler(identitySvc).RegisterRoutes(api, public)
	report.NewHandler(reportSvc).RegisterRoutes(api, public)
	emergency.NewHandler(emergencySvc).RegisterRoutes(api, public)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
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

// seed inserts the demo data set: four departments, one admin account and
// one doctor per department with the default weekly schedule.
func seed(ctx context.Context, pool *pgxpool.Pool) error {
	deptSvc := department.NewService(department.NewRepoPG(pool))
	doctorSvc := doctor.NewService(doctor.NewRepoPG(pool))
	identitySvc := identity.NewService(identity.NewRepoPG(pool), doctorSvc, identity.NopNotifier{}, nil)

	departments := []struct {
		name string
		fee  int64
	}{
		{"Cardiology", 750},
		{"Dermatology", 600},
		{"Neurology", 800},
		{"General Medicine", 500},
	}

	if _, err := identitySvc.CreateUser(ctx, identity.CreateUserParams{
		Username:  "admin",
		Email:     "admin@hospital.example.com",
		FirstName: "System",
		LastName:  "Administrator",
		Role:      identity.RoleAdmin,
		Password:  "change-me-now",
	}); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	for i, d := range departments {
		dept := &department.Department{
			Name:           d.name,
			AppointmentFee: decimal.NewFromInt(d.fee),
		}
		if err := deptSvc.Create(ctx, dept); err != nil {
			return fmt.Errorf("seed department %s: %w", d.name, err)
		}

		email := fmt.Sprintf("doctor%d@hospital.example.com", i+1)
		u, err := identitySvc.CreateUser(ctx, identity.CreateUserParams{
			Email:     email,
			FirstName: "Demo",
			LastName:  fmt.Sprintf("Doctor %d", i+1),
			Role:      identity.RoleDoctor,
			Password:  "change-me-now",
		})
		if err != nil {
			return fmt.Errorf("seed doctor for %s: %w", d.name, err)
		}

		doc, err := doctorSvc.GetByUser(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("load seeded doctor: %w", err)
		}
		doc.DepartmentID = &dept.ID
		doc.WorkingHours = schedule.DefaultWeek()
		if err := doctorSvc.Update(ctx, doc); err != nil {
			return fmt.Errorf("assign department to doctor: %w", err)
		}
	}

	fmt.Printf("Seeded %d departments, 1 admin and %d doctors.\n", len(departments), len(departments))
	return nil
}
