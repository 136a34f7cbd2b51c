package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zealousMW/hospital-management-system-sub000/internal/config"
	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/department"
	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/inpatient"
	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/patient"
	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/pharmacy"
	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/visit"
	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/ward"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/auth"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/middleware"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/openapi"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/reporting"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/telemetry"
	"github.com/zealousMW/hospital-management-system-sub000/migrations"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital admission and dispensation API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())

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
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool db.Pool) error {
				fmt.Printf("Running migrations on schema: %s\n", schema)
				count, err := db.NewMigrator(pool, migrationSource(dir)).Up(ctx, schema)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("schema", "public", "Target schema for migrations")
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool db.Pool) error {
				statuses, err := db.NewMigrator(pool, migrationSource(dir)).Status(ctx, schema)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}

				fmt.Printf("Migration status for schema: %s\n", schema)
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
			})
		},
	}
	statusCmd.Flags().String("schema", "public", "Target schema for migrations")
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed API token for a staff member",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			roles, _ := cmd.Flags().GetStringSlice("roles")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := auth.IssueToken(jwtConfig(cfg), subject, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().String("subject", "", "Staff identifier placed in the token subject")
	cmd.Flags().StringSlice("roles", []string{auth.RoleReceptionist}, "Comma separated roles")
	cmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	return cmd
}

func migrationSource(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	return migrations.FS
}

func jwtConfig(cfg *config.Config) auth.JWTConfig {
	return auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		SigningKey: []byte(cfg.AuthSigningKey),
		Skipper:    auth.AuthSkipper,
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "hms").Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()
	}
	return logger
}

// withPool loads config, opens a pool for the duration of fn and closes it.
func withPool(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, pool db.Pool) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := db.NewPool(ctx, poolOptions(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func poolOptions(cfg *config.Config) db.PoolOptions {
	return db.PoolOptions{
		DatabaseURL:      cfg.DatabaseURL,
		MaxConns:         cfg.DBMaxConns,
		MinConns:         cfg.DBMinConns,
		StatementTimeout: cfg.DBStatementTimeout,
		ConnectTimeout:   cfg.DBConnectTimeout,
	}
}

// serverPool is what the HTTP server needs from the database.
type serverPool interface {
	db.Pool
	db.Pinger
}

// services holds every domain service, wired over one pool.
type services struct {
	patients    *patient.Service
	departments *department.Service
	wards       *ward.Service
	visits      *visit.Service
	inpatients  *inpatient.Service
	pharmacy    *pharmacy.Service
	reports     *reporting.Service
}

func newServices(cfg *config.Config, pool db.Pool, metrics *telemetry.Provider, logger zerolog.Logger) (*services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	policy, err := pharmacy.NewDosePolicy(cfg.ChildAgeThreshold, cfg.AdultDoseUnits, cfg.ChildDoseUnits)
	if err != nil {
		return nil, err
	}

	tx := db.NewTxRunner(pool)
	s := &services{}
	s.patients = patient.NewService(patient.NewRepo(pool), logger)
	s.departments = department.NewService(department.NewRepo(pool), logger)
	s.wards = ward.NewService(ward.NewRepo(pool), tx, metrics, logger)
	s.visits = visit.NewService(visit.NewRepo(pool), s.patients, tx, time.Now, loc, logger)
	s.inpatients = inpatient.NewService(inpatient.NewRepo(pool), s.patients, s.visits, s.wards, tx, time.Now, loc, logger)
	s.pharmacy = pharmacy.NewService(pharmacy.NewRepo(pool), s.visits, tx, policy, metrics, logger)
	s.reports = reporting.NewService(pool, time.Now, loc, cfg.LowStockThreshold, logger)
	return s, nil
}

// newServer builds the Echo instance with middleware and every route.
// stats may be nil.
func newServer(cfg *config.Config, logger zerolog.Logger, pool serverPool, metrics *telemetry.Provider, stats func() *db.PoolStats) (*echo.Echo, error) {
	svcs, err := newServices(cfg, pool, metrics, logger)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger, cfg.IsDev())

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(metrics.MetricsMiddleware())

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(jwtConfig(cfg)))
	} else {
		e.Use(auth.JWTMiddleware(jwtConfig(cfg)))
	}

	// Audit middleware
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, stats))
	e.GET("/metrics", metrics.Handler())

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	apiV1 := e.Group("/api/v1",
		middleware.RateLimit(rateLimitCfg),
		middleware.RequestTimeout(cfg.RequestTimeout),
	)

	patient.NewHandler(svcs.patients).RegisterRoutes(apiV1)
	department.NewHandler(svcs.departments).RegisterRoutes(apiV1)
	ward.NewHandler(svcs.wards).RegisterRoutes(apiV1)
	visit.NewHandler(svcs.visits).RegisterRoutes(apiV1)
	inpatient.NewHandler(svcs.inpatients).RegisterRoutes(apiV1)
	pharmacy.NewHandler(svcs.pharmacy).RegisterRoutes(apiV1)
	reporting.NewHandler(svcs.reports).RegisterRoutes(apiV1)
	openapi.NewGenerator(e.Routes, "/api/v1", version).RegisterRoutes(apiV1)

	return e, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := db.NewPool(ctx, poolOptions(cfg))
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Int32("max_conns", cfg.DBMaxConns).Msg("connected to database")

	metrics := telemetry.NewProvider()
	metrics.RegisterPool(pool)

	e, err := newServer(cfg, logger, pool, metrics, func() *db.PoolStats { return db.GetPoolStats(pool) })
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
			return err
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
