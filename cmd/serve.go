package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/duynhne/study-service/config"
	database "github.com/duynhne/study-service/internal/core"
	"github.com/duynhne/study-service/internal/core/repository"
	logicv1 "github.com/duynhne/study-service/internal/logic/v1"
	v1 "github.com/duynhne/study-service/internal/web/v1"
	"github.com/duynhne/study-service/middleware"
)

var seedOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&seedOnStart, "seed", false, "Reset the store and load development fixtures before serving")
	}
}

// store is the opened persistence backend for the configured driver.
type store struct {
	repos repository.Repositories
	// truncate empties every table and restarts id sequences.
	truncate func(context.Context) error
	// close releases the backend; it is safe to call more than once.
	close func()
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Str("db_driver", cfg.Database.Driver).
		Msg("Service starting")

	// Initialize OpenTelemetry tracing
	var tp interface{ Shutdown(context.Context) error }
	if cfg.Tracing.Enabled {
		provider, err := middleware.InitTracing(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			tp = provider
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().Str("endpoint", cfg.Profiling.Endpoint).Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.close()
	repos := st.repos

	hasher, err := logicv1.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	if seedOnStart {
		sum, err := database.Reseed(cmd.Context(), st.truncate, repos, hasher.Hash)
		if err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
		logSeedSummary(sum)
	}
	auth := logicv1.NewAuthService(repos.Users, repos.Sessions, hasher, cfg.GetSessionTTLDuration())
	handler := v1.NewHandler(
		auth,
		logicv1.NewStudySessionService(repos.StudySessions, repos.PomodoroBlocks),
		logicv1.NewPomodoroBlockService(repos.StudySessions, repos.PomodoroBlocks),
		v1.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure},
	)

	if cfg.Service.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	var isShuttingDown atomic.Bool

	r.Use(middleware.TracingMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.PrometheusMiddleware())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigin))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("", middleware.SessionAuth(cfg.Session.CookieName, auth))
	handler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Service.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Service.Port).Msg("Starting study service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-serveErr:
		return fmt.Errorf("start server: %w", err)
	}

	// Fail readiness first and give load balancers time to notice.
	isShuttingDown.Store(true)
	if drainDelay := cfg.GetReadinessDrainDelayDuration(); drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
	}

	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	st.close()
	log.Info().Msg("Store closed")

	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
	return nil
}

// openStore builds the repositories for the configured driver.
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn().Msg("Using in-memory store; data is lost on restart")
		mem := repository.NewMemoryStore()
		return &store{
			repos: repository.NewMemory(mem),
			truncate: func(context.Context) error {
				mem.Reset()
				return nil
			},
			close: func() {},
		}, nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info().Msg("Database connection pool established")

	if cfg.Database.AutoMigrate || seedOnStart {
		applied, err := database.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		log.Info().Strs("applied", applied).Msg("Database migrations complete")
	}

	return &store{
		repos:    repository.NewPgx(pool),
		truncate: func(ctx context.Context) error { return database.TruncateAll(ctx, pool) },
		close:    pool.Close,
	}, nil
}

func logSeedSummary(sum database.SeedSummary) {
	log.Info().
		Int("users", sum.Users).
		Int("study_sessions", sum.StudySessions).
		Int("pomodoro_blocks", sum.PomodoroBlocks).
		Msg("Seeding complete")
}
